package provider

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("invalid request")
	ErrUnknownProvider      = errors.New("unsupported provider")
	ErrUnsupportedFormat    = errors.New("unsupported HTTP provider format")
	ErrUpstreamHTTP         = errors.New("upstream HTTP error")
	ErrUpstreamParse        = errors.New("failed to parse upstream JSON response")
	ErrMissingResponseField = errors.New("missing string at responsePath")
	ErrUpstreamTimeout      = errors.New("upstream request timed out")
)

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 500

// UpstreamHTTPError is returned when a provider answers with a non-2xx status.
type UpstreamHTTPError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamHTTPError) Error() string {
	detail := e.Body
	if detail == "" {
		detail = "(empty body)"
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.Status, e.Provider, detail)
}

func (e *UpstreamHTTPError) Unwrap() error { return ErrUpstreamHTTP }

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
