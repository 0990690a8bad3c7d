package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Update is one device snapshot as published by the lab board: a numeric
// reading under "number" plus one 0/1 field per LED. Fields are stored as-is.
type Update map[string]any

// Number returns the "number" field and whether it is present.
func (u Update) Number() (any, bool) {
	v, ok := u["number"]
	return v, ok
}

// DecodeUpdate parses a JSON object into an Update. Integral JSON numbers
// become int64 so that {"number": 7} is stored as an integer, not a double.
func DecodeUpdate(data []byte) (Update, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update: %w", err)
	}
	if raw == nil {
		return nil, errors.New("update payload is not an object")
	}

	u := make(Update, len(raw))
	for k, v := range raw {
		u[k] = normalize(v)
	}
	return u, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = normalize(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalize(inner)
		}
		return t
	default:
		return v
	}
}
