package domain

import "strings"

// ValidationError rejects input before any side effect runs.
type ValidationError struct {
	Fields map[string]string
	Msg    string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
	if e.Msg == "" {
		e.Msg = msg
	}
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	parts := make([]string, 0, len(e.Fields))
	for f, m := range e.Fields {
		parts = append(parts, f+": "+m)
	}
	return strings.Join(parts, "; ")
}

// OrNil returns nil when no field was rejected, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || (e.Msg == "" && len(e.Fields) == 0) {
		return nil
	}
	return e
}
