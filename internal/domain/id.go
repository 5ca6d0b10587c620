package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ID is an identifier that may arrive as a JSON number (server rows) or as a
// JSON string (rows created on the device). It encodes back in the form it was
// decoded from.
type ID struct {
	value   string
	numeric bool
}

func NumericID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10), numeric: true}
}

func StringID(s string) ID {
	return ID{value: s}
}

// ParseID returns a numeric ID when s is a base-10 integer and a string ID otherwise.
func ParseID(s string) ID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NumericID(n)
	}
	return StringID(s)
}

func (id ID) String() string { return id.value }

func (id ID) IsZero() bool { return id.value == "" }

func (id ID) IsNumeric() bool { return id.numeric }

// Equal compares type and value, like a strict equality check.
func (id ID) Equal(other ID) bool {
	return id.value == other.value && id.numeric == other.numeric
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == "" {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ID{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.New("id must be a string or a number")
		}
		*id = ID{value: n.String(), numeric: true}
		return nil
	}
}
