package llm

import (
	"encoding/json"
	"strings"
)

// ParseArguments decodes a tool-call argument payload. Absent, malformed or
// non-object payloads yield an empty map instead of an error.
func ParseArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// EncodeArguments renders arguments as compact JSON. Empty maps encode as "".
func EncodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	b, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(b)
}

func encodeArgumentsObject(args map[string]any) string {
	if s := EncodeArguments(args); s != "" {
		return s
	}
	return "{}"
}
