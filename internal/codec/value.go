// Package codec encodes Values and snapshots in protobuf wire format and
// frames them into checksummed files.
//
// There is no .proto source: messages are assembled field by field with
// protowire, so the layout below is the schema.
//
//	Value    { 1 null (varint 0) | 2 bool (varint) | 3 number (literal) |
//	           4 string | 5 Sequence | 6 Mapping }   exactly one field
//	Sequence { repeated 1 Value }
//	Mapping  { repeated 1 Record }                   keys sorted, unique
//	Record   { 1 key (string), 2 Value }
//	Snapshot { 1 version (varint), 2 id (16 bytes), repeated 3 Record }
package codec

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"layerdb/pkg/value"
)

// MaxDepth bounds Sequence/Mapping nesting accepted by the decoder. It
// matches the limit value.Validate enforces on the write path.
const MaxDepth = value.MaxDepth

// ErrMalformed is returned for any input the decoder cannot accept.
var ErrMalformed = errors.New("malformed encoding")

const (
	fieldNull     protowire.Number = 1
	fieldBool     protowire.Number = 2
	fieldNumber   protowire.Number = 3
	fieldString   protowire.Number = 4
	fieldSequence protowire.Number = 5
	fieldMapping  protowire.Number = 6

	fieldItem protowire.Number = 1

	fieldRecordKey   protowire.Number = 1
	fieldRecordValue protowire.Number = 2
)

// AppendValue appends the encoding of v to b.
func AppendValue(b []byte, v value.Value) []byte {
	switch v.Kind() {
	case value.KindBool:
		x, _ := v.AsBool()
		b = protowire.AppendTag(b, fieldBool, protowire.VarintType)
		return protowire.AppendVarint(b, protowire.EncodeBool(x))
	case value.KindNumber:
		lit, _ := v.AsNumber()
		b = protowire.AppendTag(b, fieldNumber, protowire.BytesType)
		return protowire.AppendString(b, lit)
	case value.KindString:
		s, _ := v.AsString()
		b = protowire.AppendTag(b, fieldString, protowire.BytesType)
		return protowire.AppendString(b, s)
	case value.KindSequence:
		items, _ := v.AsSequence()
		var inner []byte
		for _, item := range items {
			inner = protowire.AppendTag(inner, fieldItem, protowire.BytesType)
			inner = protowire.AppendBytes(inner, AppendValue(nil, item))
		}
		b = protowire.AppendTag(b, fieldSequence, protowire.BytesType)
		return protowire.AppendBytes(b, inner)
	case value.KindMapping:
		var inner []byte
		for _, k := range v.Keys() {
			f, _ := v.Field(k)
			inner = protowire.AppendTag(inner, fieldItem, protowire.BytesType)
			inner = protowire.AppendBytes(inner, AppendRecord(nil, k, f))
		}
		b = protowire.AppendTag(b, fieldMapping, protowire.BytesType)
		return protowire.AppendBytes(b, inner)
	default:
		b = protowire.AppendTag(b, fieldNull, protowire.VarintType)
		return protowire.AppendVarint(b, 0)
	}
}

// AppendRecord appends a key/value Record message body to b.
func AppendRecord(b []byte, key string, v value.Value) []byte {
	b = protowire.AppendTag(b, fieldRecordKey, protowire.BytesType)
	b = protowire.AppendString(b, key)
	b = protowire.AppendTag(b, fieldRecordValue, protowire.BytesType)
	return protowire.AppendBytes(b, AppendValue(nil, v))
}

// DecodeValue decodes a single Value message occupying all of b.
func DecodeValue(b []byte) (value.Value, error) {
	return decodeValue(b, 0)
}

// DecodeRecord decodes a Record message occupying all of b.
func DecodeRecord(b []byte) (string, value.Value, error) {
	return decodeRecord(b, 0)
}

func decodeValue(b []byte, depth int) (value.Value, error) {
	if depth > MaxDepth {
		return value.Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, MaxDepth)
	}

	var (
		v    value.Value
		seen bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return value.Value{}, wireError(protowire.ParseError(n))
		}
		b = b[n:]
		if seen {
			return value.Value{}, fmt.Errorf("%w: value carries more than one variant", ErrMalformed)
		}
		seen = true

		switch {
		case num == fieldNull && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return value.Value{}, wireError(protowire.ParseError(n))
			}
			if x != 0 {
				return value.Value{}, fmt.Errorf("%w: null payload %d", ErrMalformed, x)
			}
			b = b[n:]
			v = value.Null()
		case num == fieldBool && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return value.Value{}, wireError(protowire.ParseError(n))
			}
			if x > 1 {
				return value.Value{}, fmt.Errorf("%w: bool payload %d", ErrMalformed, x)
			}
			b = b[n:]
			v = value.Bool(protowire.DecodeBool(x))
		case num == fieldNumber && typ == protowire.BytesType:
			lit, n := protowire.ConsumeString(b)
			if n < 0 {
				return value.Value{}, wireError(protowire.ParseError(n))
			}
			b = b[n:]
			nv, err := value.Number(lit)
			if err != nil {
				return value.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			v = nv
		case num == fieldString && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return value.Value{}, wireError(protowire.ParseError(n))
			}
			if !utf8.ValidString(s) {
				return value.Value{}, fmt.Errorf("%w: string is not valid UTF-8", ErrMalformed)
			}
			b = b[n:]
			v = value.String(s)
		case num == fieldSequence && typ == protowire.BytesType:
			inner, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return value.Value{}, wireError(protowire.ParseError(n))
			}
			b = b[n:]
			seq, err := decodeSequence(inner, depth+1)
			if err != nil {
				return value.Value{}, err
			}
			v = seq
		case num == fieldMapping && typ == protowire.BytesType:
			inner, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return value.Value{}, wireError(protowire.ParseError(n))
			}
			b = b[n:]
			m, err := decodeMapping(inner, depth+1)
			if err != nil {
				return value.Value{}, err
			}
			v = m
		default:
			return value.Value{}, fmt.Errorf("%w: unexpected value field %d (wire type %d)", ErrMalformed, num, typ)
		}
	}
	if !seen {
		return value.Value{}, fmt.Errorf("%w: empty value", ErrMalformed)
	}
	return v, nil
}

func decodeSequence(b []byte, depth int) (value.Value, error) {
	var items []value.Value
	for len(b) > 0 {
		inner, n, err := consumeItem(b)
		if err != nil {
			return value.Value{}, err
		}
		b = b[n:]
		item, err := decodeValue(inner, depth)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, item)
	}
	return value.Sequence(items...), nil
}

func decodeMapping(b []byte, depth int) (value.Value, error) {
	fields := make(map[string]value.Value)
	for len(b) > 0 {
		inner, n, err := consumeItem(b)
		if err != nil {
			return value.Value{}, err
		}
		b = b[n:]
		k, f, err := decodeRecord(inner, depth)
		if err != nil {
			return value.Value{}, err
		}
		if _, dup := fields[k]; dup {
			return value.Value{}, fmt.Errorf("%w: duplicate field %q", ErrMalformed, k)
		}
		fields[k] = f
	}
	return value.Mapping(fields), nil
}

// consumeItem reads one length-delimited field 1 and returns its payload
// and the total bytes consumed.
func consumeItem(b []byte) ([]byte, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return nil, 0, wireError(protowire.ParseError(n))
	}
	if num != fieldItem || typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: unexpected item field %d (wire type %d)", ErrMalformed, num, typ)
	}
	inner, m := protowire.ConsumeBytes(b[n:])
	if m < 0 {
		return nil, 0, wireError(protowire.ParseError(m))
	}
	return inner, n + m, nil
}

func decodeRecord(b []byte, depth int) (string, value.Value, error) {
	var (
		key            string
		v              value.Value
		hasKey, hasVal bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", value.Value{}, wireError(protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			return "", value.Value{}, fmt.Errorf("%w: unexpected record field %d (wire type %d)", ErrMalformed, num, typ)
		}
		payload, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return "", value.Value{}, wireError(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldRecordKey && !hasKey:
			if !utf8.Valid(payload) {
				return "", value.Value{}, fmt.Errorf("%w: key is not valid UTF-8", ErrMalformed)
			}
			key, hasKey = string(payload), true
		case num == fieldRecordValue && !hasVal:
			decoded, err := decodeValue(payload, depth)
			if err != nil {
				return "", value.Value{}, err
			}
			v, hasVal = decoded, true
		default:
			return "", value.Value{}, fmt.Errorf("%w: unexpected or repeated record field %d", ErrMalformed, num)
		}
	}
	if !hasKey || !hasVal {
		return "", value.Value{}, fmt.Errorf("%w: incomplete record", ErrMalformed)
	}
	return key, v, nil
}

func wireError(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
