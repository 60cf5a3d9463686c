package marking

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyCompletion is returned by gateways when the service answered
	// but the completion carried no text.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrNoChoices is returned when the service answered with zero choices.
	ErrNoChoices = errors.New("completion has no choices")
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError rejects a request before any network call.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Error))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// ConfigurationError means the process is missing something it needs, such as
// an API key. It is not retryable.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

// GatewayKind classifies a completion failure.
type GatewayKind string

const (
	GatewayEmpty     GatewayKind = "empty"
	GatewayNoChoices GatewayKind = "no_choices"
	GatewayAuth      GatewayKind = "auth"
	GatewayRateLimit GatewayKind = "rate_limit"
	GatewayTimeout   GatewayKind = "timeout"
	GatewayCanceled  GatewayKind = "canceled"
	GatewayUpstream  GatewayKind = "upstream"
)

// GatewayError wraps any failure of the completion call.
type GatewayError struct {
	Kind GatewayKind
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completion failed (%s)", e.Kind)
	}
	return fmt.Sprintf("completion failed (%s): %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the whole call might succeed.
func (e *GatewayError) Retryable() bool {
	switch e.Kind {
	case GatewayAuth, GatewayCanceled:
		return false
	}
	return true
}

const maxPreviewRunes = 400

// ParseError means the model answered but no well-formed payload could be
// recovered. Preview is a bounded prefix of the raw text.
type ParseError struct {
	Reason  string
	Preview string
	Err     error
}

func newParseError(reason, raw string, err error) *ParseError {
	return &ParseError{Reason: reason, Preview: preview(raw), Err: err}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model output: %s: %v", e.Reason, e.Err)
	}
	return "parse model output: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func preview(raw string) string {
	if utf8.RuneCountInString(raw) <= maxPreviewRunes {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:maxPreviewRunes]) + "..."
}
