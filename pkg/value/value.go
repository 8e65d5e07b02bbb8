// Package value defines the recursive tagged union stored by layerdb.
//
// A Value is one of Null, Bool, Number, String, Sequence or Mapping. Values
// are immutable once constructed: constructors copy their inputs and accessors
// return copies, so a Value can be shared freely and can never contain itself.
//
// Numbers keep their exact decimal literal (JSON number grammar) so that a
// stored number survives any number of encode/decode cycles unchanged.
// Sequences are ordered. Mappings are unordered; equality ignores key order
// and encoders emit keys in sorted order.
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrInvalidNumber   = errors.New("invalid number literal")
	ErrInvalidUTF8     = errors.New("string is not valid UTF-8")
	ErrTooDeep         = errors.New("value nested too deeply")
)

// MaxDepth bounds Sequence/Mapping nesting. The top-level value sits at
// depth 0 and each enclosing container adds one level.
const MaxDepth = 512

// Value is a single node of the union. The zero Value is Null.
type Value struct {
	kind   Kind
	b      bool
	s      string // string payload or number literal
	items  []Value
	fields map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns a Number holding i.
func Int(i int64) Value {
	return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)}
}

// Uint returns a Number holding u.
func Uint(u uint64) Value {
	return Value{kind: KindNumber, s: strconv.FormatUint(u, 10)}
}

// Float returns a Number holding f in its shortest round-trip form.
// NaN and infinities have no literal form; the result fails Validate.
func Float(f float64) Value {
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number returns a Number holding the literal lit, which must follow the
// JSON number grammar.
func Number(lit string) (Value, error) {
	if !validNumber(lit) {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidNumber, lit)
	}
	return Value{kind: KindNumber, s: lit}, nil
}

// Sequence returns an ordered Value holding a copy of items.
func Sequence(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, items: cp}
}

// Mapping returns a Value holding a copy of fields.
func Mapping(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindMapping, fields: cp}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsNumber returns the exact number literal.
func (v Value) AsNumber() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.s, true
}

// AsInt64 reports the number as an int64 when the literal is an integer
// that fits.
func (v Value) AsInt64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	i, err := strconv.ParseInt(v.s, 10, 64)
	return i, err == nil
}

// AsFloat64 reports the number as the nearest float64.
func (v Value) AsFloat64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	return f, err == nil
}

// AsSequence returns a copy of the sequence items.
func (v Value) AsSequence() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp, true
}

// AsMapping returns a copy of the mapping fields.
func (v Value) AsMapping() (map[string]Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	cp := make(map[string]Value, len(v.fields))
	for k, f := range v.fields {
		cp[k] = f
	}
	return cp, true
}

// Len returns the number of items or fields, and 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.fields)
	default:
		return 0
	}
}

// Index returns the i-th item of a sequence.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Field returns the named field of a mapping.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Keys returns the mapping's field names in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep structural equality. Numbers are equal when their
// literals are identical.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber, KindString:
		return v.s == o.s
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for k, f := range v.fields {
			of, ok := o.fields[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

// Validate checks that v can be persisted: number literals are well formed,
// every string and field name is valid UTF-8 and no node is nested deeper
// than MaxDepth.
func (v Value) Validate() error {
	return v.validate(0)
}

func (v Value) validate(depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: deeper than %d", ErrTooDeep, MaxDepth)
	}
	switch v.kind {
	case KindNull, KindBool:
		return nil
	case KindNumber:
		if !validNumber(v.s) {
			return fmt.Errorf("%w: %q", ErrInvalidNumber, v.s)
		}
	case KindString:
		if !utf8.ValidString(v.s) {
			return ErrInvalidUTF8
		}
	case KindSequence:
		for i, item := range v.items {
			if err := item.validate(depth + 1); err != nil {
				if errors.Is(err, ErrTooDeep) {
					return err
				}
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case KindMapping:
		for k, f := range v.fields {
			if !utf8.ValidString(k) {
				return fmt.Errorf("field name: %w", ErrInvalidUTF8)
			}
			if err := f.validate(depth + 1); err != nil {
				if errors.Is(err, ErrTooDeep) {
					return err
				}
				return fmt.Errorf("%q: %w", k, err)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, v.kind)
	}
	return nil
}

// String renders v as compact JSON. Invalid values render with %v fallback.
func (v Value) String() string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s %q>", v.kind, v.s)
	}
	return string(data)
}

// validNumber reports whether s is a JSON number literal.
func validNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	if c := s[len(s)-1]; c < '0' || c > '9' {
		return false
	}
	// A valid JSON document that starts with '-' or a digit and ends with a
	// digit can only be a number.
	return json.Valid([]byte(s))
}
