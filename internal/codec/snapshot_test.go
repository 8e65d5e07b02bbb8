package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"layerdb/pkg/value"
)

func TestSnapshotRoundTrip(t *testing.T) {
	id := uuid.New()
	records := map[string]value.Value{
		"employee1": value.MustFromGo(map[string]any{"name": "John", "age": 10}),
		"employee2": value.MustFromGo(map[string]any{"name": "Bob", "age": 20}),
		"note":      value.String("x"),
	}

	gotID, got, err := DecodeSnapshot(AppendSnapshot(nil, id, records))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if gotID != id {
		t.Errorf("id = %s, want %s", gotID, id)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	id := uuid.New()
	gotID, got, err := DecodeSnapshot(AppendSnapshot(nil, id, nil))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if gotID != id || len(got) != 0 {
		t.Fatalf("got id %s with %d records", gotID, len(got))
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	id := uuid.New()
	a := map[string]value.Value{"a": value.Int(1), "b": value.Int(2), "c": value.Int(3)}
	b := map[string]value.Value{"c": value.Int(3), "a": value.Int(1), "b": value.Int(2)}
	if !bytes.Equal(AppendSnapshot(nil, id, a), AppendSnapshot(nil, id, b)) {
		t.Fatal("equal snapshots encoded to different bytes")
	}
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	id := uuid.New()
	header := func(version uint64) []byte {
		b := protowire.AppendTag(nil, fieldSnapshotVersion, protowire.VarintType)
		b = protowire.AppendVarint(b, version)
		b = protowire.AppendTag(b, fieldSnapshotID, protowire.BytesType)
		return protowire.AppendBytes(b, id[:])
	}
	record := func(b []byte, key string) []byte {
		b = protowire.AppendTag(b, fieldSnapshotRecord, protowire.BytesType)
		return protowire.AppendBytes(b, AppendRecord(nil, key, value.Null()))
	}

	shortID := protowire.AppendTag(nil, fieldSnapshotVersion, protowire.VarintType)
	shortID = protowire.AppendVarint(shortID, FormatVersion)
	shortID = protowire.AppendTag(shortID, fieldSnapshotID, protowire.BytesType)
	shortID = protowire.AppendBytes(shortID, []byte{1, 2, 3})

	valid := AppendSnapshot(nil, id, map[string]value.Value{"k": value.Int(1)})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"missing id", protowire.AppendVarint(protowire.AppendTag(nil, fieldSnapshotVersion, protowire.VarintType), FormatVersion)},
		{"future version", header(FormatVersion + 1)},
		{"short id", shortID},
		{"empty key", record(header(FormatVersion), "")},
		{"duplicate key", record(record(header(FormatVersion), "a"), "a")},
		{"repeated header", append(header(FormatVersion), header(FormatVersion)...)},
		{"truncated", valid[:len(valid)-1]},
		{"unknown field", protowire.AppendVarint(protowire.AppendTag(header(FormatVersion), 7, protowire.VarintType), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeSnapshot(tt.data); !errors.Is(err, ErrMalformed) {
				t.Fatalf("error = %v, want ErrMalformed", err)
			}
		})
	}
}
