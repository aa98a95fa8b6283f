package assistant

import "errors"

// ErrConfiguration means the provider rejected our credentials or account.
// Retrying will not help; an operator has to fix the configuration.
var ErrConfiguration = errors.New("LLM provider configuration error")
