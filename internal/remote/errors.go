package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnauthorized      = errors.New("session expired")
	ErrNotFound          = errors.New("not found")
	ErrMalformedResponse = errors.New("malformed response from api")
)

// APIError is a non-2xx answer from the ticketing API.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// ServerSide reports whether the API was reached but failed on its own
// (5xx), as opposed to rejecting the request.
func (e *APIError) ServerSide() bool {
	return e.Status >= http.StatusInternalServerError
}

// errorMessage extracts the most specific message a failed response carries:
// the flattened "errors" map, then "error", "message" or "detail".
func errorMessage(body []byte) string {
	var payload struct {
		Errors  map[string]json.RawMessage `json:"errors"`
		Error   string                     `json:"error"`
		Message string                     `json:"message"`
		Detail  string                     `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Errors) > 0 {
		return flattenErrors(payload.Errors)
	}
	for _, m := range []string{payload.Error, payload.Message, payload.Detail} {
		if m != "" {
			return m
		}
	}
	return ""
}

func flattenErrors(fields map[string]json.RawMessage) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		var many []string
		if err := json.Unmarshal(fields[k], &many); err == nil {
			lines = append(lines, many...)
			continue
		}
		var one string
		if err := json.Unmarshal(fields[k], &one); err == nil {
			lines = append(lines, one)
		}
	}
	return strings.Join(lines, "\n")
}
