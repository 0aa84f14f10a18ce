package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Payload is one decoded JSON object. Key order is the source order, so
// re-emitting an object (the renderer's fallback path) preserves the shape
// the CLI produced. Values are string, bool, nil, json.Number (numerals
// kept verbatim), []any, or nested *Payload.
type Payload struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewPayload returns an empty payload.
func NewPayload() *Payload {
	return &Payload{m: orderedmap.New[string, any]()}
}

// ParsePayload decodes data, which must contain exactly one JSON object.
func ParsePayload(data []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("not a JSON object: leading token %v", tok)
	}

	p, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return p, nil
}

func decodeObject(dec *json.Decoder) (*Payload, error) {
	p := NewPayload()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		p.m.Set(key, val)
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	// closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", delim.String())
		}
	}
	return tok, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePayload(data)
	if err != nil {
		return err
	}
	p.m = parsed.m
	return nil
}

// MarshalJSON emits the payload compactly in insertion order, without HTML
// escaping, with numerals exactly as they arrived.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Payload) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	first := true
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := encodeValue(buf, pair.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, pair.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case *Payload:
		return val.encode(buf)
	case []any:
		buf.WriteByte('[')
		for i, el := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		buf.WriteString(val.String())
		return nil
	default:
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return err
		}
		// Encode appends a newline
		buf.Truncate(buf.Len() - 1)
		return nil
	}
}

// Len returns the number of entries.
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return p.m.Len()
}

// Get returns the raw value for key.
func (p *Payload) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// Set stores a value, keeping the key's existing position or appending.
func (p *Payload) Set(key string, v any) {
	p.m.Set(key, v)
}

// Delete removes a key if present.
func (p *Payload) Delete(key string) {
	if p == nil {
		return
	}
	p.m.Delete(key)
}

// All iterates entries in insertion order.
func (p *Payload) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if p == nil {
			return
		}
		for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Str returns the value for key if it is a string, else "".
func (p *Payload) Str(key string) string {
	v, ok := p.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// FirstStr returns the first key whose value is a non-blank string.
func (p *Payload) FirstStr(keys ...string) string {
	for _, key := range keys {
		if s := p.Str(key); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Map returns the value for key if it is an object, else nil.
func (p *Payload) Map(key string) *Payload {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}
	m, _ := v.(*Payload)
	return m
}

// List returns the value for key if it is an array, else nil.
func (p *Payload) List(key string) []any {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}
	l, _ := v.([]any)
	return l
}

// Int returns the value for key as an int64 when it is a whole number.
func (p *Payload) Int(key string) (int64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns the value for key if it is a boolean, else false.
func (p *Payload) Bool(key string) bool {
	v, ok := p.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Truthy reports whether key holds a loosely-true value: absent, nil,
// false, "", 0, and empty containers are false, anything else true.
func (p *Payload) Truthy(key string) bool {
	v, ok := p.Get(key)
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	case []any:
		return len(val) > 0
	case *Payload:
		return val.Len() > 0
	default:
		return true
	}
}

// StrPath walks nested objects and returns the string at the final key.
func (p *Payload) StrPath(keys ...string) string {
	cur := p
	for i, key := range keys {
		if i == len(keys)-1 {
			return cur.Str(key)
		}
		cur = cur.Map(key)
		if cur == nil {
			return ""
		}
	}
	return ""
}
