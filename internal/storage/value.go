package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a node of the persisted memory tree. The zero Value is absent.
// Maps keep their keys in insertion order.
type Value struct {
	kind Kind

	b bool
	n float64
	s string

	list    []Value
	entries []MapEntry
}

// MapEntry is a key-value pair in a map Value.
type MapEntry struct {
	Key   string
	Value Value
}

func Null() Value {
	return Value{kind: KindNull}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func Number(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

func Int(i int64) Value {
	return Value{kind: KindNumber, n: float64(i)}
}

func Str(s string) Value {
	return Value{kind: KindString, s: s}
}

func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Map builds a map value. Later entries replace earlier ones with the same key.
func Map(entries ...MapEntry) Value {
	v := Value{kind: KindMap, entries: make([]MapEntry, 0, len(entries))}
	for _, e := range entries {
		v.SetKey(e.Key, e.Value)
	}
	return v
}

// Entry is shorthand for building Map arguments.
func Entry(key string, v Value) MapEntry {
	return MapEntry{Key: key, Value: v}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// Len is the number of items in a list or entries in a map.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.entries)
	default:
		return 0
	}
}

// Index returns the i'th item of a list.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Key returns the value stored under k in a map.
func (v Value) Key(k string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.entries {
		if e.Key == k {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Items returns the items of a list. The slice is shared with v.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Entries returns the entries of a map in insertion order. The slice is
// shared with v.
func (v Value) Entries() []MapEntry {
	if v.kind != KindMap {
		return nil
	}
	return v.entries
}

func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.Key
	}
	return keys
}

// SetKey replaces the value under k, keeping its position, or appends it.
// It is a no-op on anything but a map.
func (v *Value) SetKey(k string, val Value) {
	if v.kind != KindMap {
		return
	}
	for i := range v.entries {
		if v.entries[i].Key == k {
			v.entries[i].Value = val
			return
		}
	}
	v.entries = append(v.entries, MapEntry{Key: k, Value: val})
}

// DeleteKey removes k from a map, preserving the order of the other keys.
func (v *Value) DeleteKey(k string) bool {
	if v.kind != KindMap {
		return false
	}
	for i := range v.entries {
		if v.entries[i].Key == k {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	cp := v
	if v.list != nil {
		cp.list = make([]Value, len(v.list))
		for i, item := range v.list {
			cp.list[i] = item.Clone()
		}
	}
	if v.entries != nil {
		cp.entries = make([]MapEntry, len(v.entries))
		for i, e := range v.entries {
			cp.entries[i] = MapEntry{Key: e.Key, Value: e.Value.Clone()}
		}
	}
	return cp
}

// Equal reports deep equality. Map key order is not significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for _, e := range v.entries {
			ov, ok := o.Key(e.Key)
			if !ok || !e.Value.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns the JSON form, for logs and test failures.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}

// MarshalJSON writes v with map keys in insertion order. Absent map entries
// are skipped; absent list items and an absent root are written as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindAbsent, KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		b, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		first := true
		for _, e := range v.entries {
			if e.Value.IsAbsent() {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := e.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	parsed, err := ParseJSON(b)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseJSON decodes exactly one JSON document, keeping object key order.
// Duplicate keys keep their first position and their last value.
func ParseJSON(b []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	v, err := decodeJSON(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("unexpected data after json value")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("decoding json: %w", err)
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("decoding number %s: %w", t, err)
		}
		return Number(n), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("decoding json: %w", err)
			}
			return List(items...), nil
		case '{':
			m := Map()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("decoding json: %w", err)
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("decoding json: unexpected key token %v", kt)
				}
				val, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				m.SetKey(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("decoding json: %w", err)
			}
			return m, nil
		}
	}
	return Value{}, fmt.Errorf("decoding json: unexpected token %v", tok)
}

// Marshal converts a Go value into a Value by way of its JSON encoding.
func Marshal(v any) (Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("marshalling %T: %w", v, err)
	}
	return ParseJSON(b)
}
