package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Document is a loosely-typed JSON object as returned by the catalog.
// Accessors never fail on a missing key; they return the zero value instead.
type Document map[string]any

// DecodeDocument reads a JSON object from r. Numbers are kept as json.Number
// so stock counts render exactly as the catalog sent them.
func DecodeDocument(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("response is not a JSON object")
	}
	return Document(doc), nil
}

// Get returns the raw value for key and whether it was present and non-null.
func (d Document) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String renders a scalar value as a string. Missing keys, nulls and
// non-scalar values (objects, arrays) yield "".
func (d Document) String(key string) string {
	v, ok := d.Get(key)
	if !ok {
		return ""
	}
	return scalarString(v)
}

// FirstString returns the first non-empty String among keys.
func (d Document) FirstString(keys ...string) string {
	for _, key := range keys {
		if s := d.String(key); s != "" {
			return s
		}
	}
	return ""
}

// Bool returns the boolean stored at key and whether a boolean was present.
func (d Document) Bool(key string) (bool, bool) {
	v, ok := d.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Object returns the nested object at key.
func (d Document) Object(key string) (Document, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Document(obj), true
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
