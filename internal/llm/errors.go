package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFatalAPI marks provider failures retrying cannot fix: bad or missing
	// credentials, exhausted quota or billing problems.
	ErrFatalAPI = errors.New("fatal provider error")

	// ErrEmptyResponse means the provider answered without any usable choice.
	ErrEmptyResponse = errors.New("no response from model")
)

var fatalPatterns = []string{
	"api key",
	"api_key",
	"401",
	"403",
	"unauthorized",
	"authentication",
	"quota",
	"rate limit",
	"credit balance",
	"billing",
}

// isFatalAPIError matches provider error text against known credential and
// account failures.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal errors with ErrFatalAPI and returns others unchanged.
func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}

// IsFatal reports whether err is, or looks like, a fatal provider error.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalAPI) || isFatalAPIError(err)
}
