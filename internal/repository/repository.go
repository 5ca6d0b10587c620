package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the local collections, shared with the browser front-end layout.
const (
	KeyTickets  = "user_tickets"
	KeyUsers    = "users"
	KeyToken    = "api_token"
	KeyUsername = "username"
	KeyUserID   = "user_id"
)

var (
	// ErrCorrupt means a persisted collection could not be parsed. It is never
	// reported as an empty collection.
	ErrCorrupt  = errors.New("local store is corrupt")
	ErrNotFound = errors.New("not found in local store")
)

var errNoWrite = errors.New("no write")

func decodeCollection[T any](key string, data []byte, exists bool) ([]T, error) {
	if !exists || len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func encodeCollection[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
