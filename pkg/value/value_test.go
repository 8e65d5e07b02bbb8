package value

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNull, "null"},
		{KindBool, "bool"},
		{KindNumber, "number"},
		{KindString, "string"},
		{KindSequence, "sequence"},
		{KindMapping, "mapping"},
		{Kind(42), "kind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() || v.Kind() != KindNull {
		t.Fatalf("zero Value kind = %v, want null", v.Kind())
	}
	if !v.Equal(Null()) {
		t.Fatal("zero Value should equal Null()")
	}
}

func TestNumberLiterals(t *testing.T) {
	valid := []string{"0", "-0", "10", "-12.5", "1e10", "1E-3", "3.14159", "123456789012345678901234567890"}
	for _, lit := range valid {
		v, err := Number(lit)
		if err != nil {
			t.Errorf("Number(%q): %v", lit, err)
			continue
		}
		if got, _ := v.AsNumber(); got != lit {
			t.Errorf("AsNumber = %q, want %q", got, lit)
		}
	}

	invalid := []string{"", "01", "+1", ".5", "1.", "1e", "NaN", "Infinity", "0x10", " 1", "1 ", "true", "\"1\""}
	for _, lit := range invalid {
		if _, err := Number(lit); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("Number(%q) error = %v, want ErrInvalidNumber", lit, err)
		}
	}
}

func TestNumericConstructors(t *testing.T) {
	if lit, _ := Int(-42).AsNumber(); lit != "-42" {
		t.Errorf("Int(-42) = %q", lit)
	}
	if lit, _ := Uint(math.MaxUint64).AsNumber(); lit != "18446744073709551615" {
		t.Errorf("Uint(max) = %q", lit)
	}
	if lit, _ := Float(0.1).AsNumber(); lit != "0.1" {
		t.Errorf("Float(0.1) = %q", lit)
	}
	if i, ok := Int(7).AsInt64(); !ok || i != 7 {
		t.Errorf("AsInt64 = %d, %v", i, ok)
	}
	if _, ok := Float(1.5).AsInt64(); ok {
		t.Error("AsInt64 should fail for 1.5")
	}
	if f, ok := Float(1.5).AsFloat64(); !ok || f != 1.5 {
		t.Errorf("AsFloat64 = %v, %v", f, ok)
	}
	if err := Float(math.NaN()).Validate(); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("NaN Validate = %v, want ErrInvalidNumber", err)
	}
	if err := Float(math.Inf(1)).Validate(); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("+Inf Validate = %v, want ErrInvalidNumber", err)
	}
}

func TestAccessorsRejectWrongKind(t *testing.T) {
	s := String("x")
	if _, ok := s.AsBool(); ok {
		t.Error("AsBool on string should fail")
	}
	if _, ok := s.AsNumber(); ok {
		t.Error("AsNumber on string should fail")
	}
	if _, ok := s.AsSequence(); ok {
		t.Error("AsSequence on string should fail")
	}
	if _, ok := s.AsMapping(); ok {
		t.Error("AsMapping on string should fail")
	}
	if _, ok := Bool(true).AsString(); ok {
		t.Error("AsString on bool should fail")
	}
	if s.Len() != 0 || s.Keys() != nil {
		t.Error("scalar Len/Keys should be empty")
	}
	if _, ok := s.Index(0); ok {
		t.Error("Index on string should fail")
	}
	if _, ok := s.Field("a"); ok {
		t.Error("Field on string should fail")
	}
}

func TestConstructorsCopyInputs(t *testing.T) {
	items := []Value{Int(1), Int(2)}
	seq := Sequence(items...)
	items[0] = String("changed")
	if first, _ := seq.Index(0); !first.Equal(Int(1)) {
		t.Fatalf("Sequence shares caller slice: first = %v", first)
	}

	fields := map[string]Value{"a": Int(1)}
	m := Mapping(fields)
	fields["a"] = Int(99)
	fields["b"] = Int(2)
	if m.Len() != 1 {
		t.Fatalf("Mapping shares caller map: len = %d", m.Len())
	}

	got, _ := m.AsMapping()
	got["a"] = Null()
	if a, _ := m.Field("a"); !a.Equal(Int(1)) {
		t.Fatal("AsMapping result aliases internal state")
	}

	out, _ := seq.AsSequence()
	out[1] = Null()
	if second, _ := seq.Index(1); !second.Equal(Int(2)) {
		t.Fatal("AsSequence result aliases internal state")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null(), Null(), true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"kind differs", Int(0), Bool(false), false},
		{"string vs number", String("1"), Int(1), false},
		{"same literal", Int(10), MustFromGo(json.Number("10")), true},
		{"different literal", MustFromGo(json.Number("1.0")), Int(1), false},
		{"sequence order matters", Sequence(Int(1), Int(2)), Sequence(Int(2), Int(1)), false},
		{"sequence length", Sequence(Int(1)), Sequence(Int(1), Int(1)), false},
		{
			"mapping order ignored",
			MustFromGo(map[string]any{"a": 1, "b": "x"}),
			MustFromGo(map[string]any{"b": "x", "a": 1}),
			true,
		},
		{
			"mapping missing key",
			MustFromGo(map[string]any{"a": 1}),
			MustFromGo(map[string]any{"b": 1}),
			false,
		},
		{
			"nested",
			MustFromGo(map[string]any{"list": []any{1, map[string]any{"deep": true}}}),
			MustFromGo(map[string]any{"list": []any{1, map[string]any{"deep": true}}}),
			true,
		},
		{"empty sequence vs empty mapping", Sequence(), Mapping(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("reverse Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCmpUsesEqual(t *testing.T) {
	a := MustFromGo(map[string]any{"name": "John", "age": 10})
	b := Mapping(map[string]Value{"age": Int(10), "name": String("John")})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("unexpected diff (-a +b):\n%s", diff)
	}
}

func TestValidateStrings(t *testing.T) {
	if err := String("héllo").Validate(); err != nil {
		t.Fatalf("valid UTF-8 rejected: %v", err)
	}
	if err := String("\xff").Validate(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("invalid UTF-8 = %v, want ErrInvalidUTF8", err)
	}
	bad := Mapping(map[string]Value{"\xfe": Null()})
	if err := bad.Validate(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("invalid field name = %v, want ErrInvalidUTF8", err)
	}
	nested := Sequence(Int(1), Mapping(map[string]Value{"x": String("\xff")}))
	if err := nested.Validate(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("nested invalid string = %v, want ErrInvalidUTF8", err)
	}
}

func TestValidateDepth(t *testing.T) {
	deep := func(n int) Value {
		v := String("leaf")
		for i := 0; i < n; i++ {
			if i%2 == 0 {
				v = Sequence(v)
			} else {
				v = Mapping(map[string]Value{"k": v})
			}
		}
		return v
	}
	if err := deep(MaxDepth).Validate(); err != nil {
		t.Fatalf("depth %d rejected: %v", MaxDepth, err)
	}
	if err := deep(MaxDepth + 1).Validate(); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("depth %d error = %v, want ErrTooDeep", MaxDepth+1, err)
	}
	// An empty container at the limit holds no deeper node.
	empty := Sequence()
	for i := 0; i < MaxDepth; i++ {
		empty = Sequence(empty)
	}
	if err := empty.Validate(); err != nil {
		t.Fatalf("empty container at the limit rejected: %v", err)
	}
}

func TestKeysSorted(t *testing.T) {
	m := MustFromGo(map[string]any{"c": 1, "a": 2, "b": 3})
	if diff := cmp.Diff([]string{"a", "b", "c"}, m.Keys()); diff != "" {
		t.Fatalf("Keys mismatch (-want +got):\n%s", diff)
	}
}

func TestStringRendersJSON(t *testing.T) {
	v := MustFromGo(map[string]any{"name": "John", "age": 10, "tags": []any{true, nil}})
	want := `{"age":10,"name":"John","tags":[true,null]}`
	if got := v.String(); got != want {
		t.Fatalf("String() = %s, want %s", got, want)
	}
}
