package codec

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"layerdb/pkg/value"
)

// FormatVersion is written into every snapshot body. Readers reject other
// versions.
const FormatVersion = 1

const (
	fieldSnapshotVersion protowire.Number = 1
	fieldSnapshotID      protowire.Number = 2
	fieldSnapshotRecord  protowire.Number = 3
)

// AppendSnapshot appends a Snapshot message body to b. Records are written
// in sorted key order so equal mappings always encode to equal bytes.
func AppendSnapshot(b []byte, id uuid.UUID, records map[string]value.Value) []byte {
	b = protowire.AppendTag(b, fieldSnapshotVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, FormatVersion)
	b = protowire.AppendTag(b, fieldSnapshotID, protowire.BytesType)
	b = protowire.AppendBytes(b, id[:])

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b = protowire.AppendTag(b, fieldSnapshotRecord, protowire.BytesType)
		b = protowire.AppendBytes(b, AppendRecord(nil, k, records[k]))
	}
	return b
}

// DecodeSnapshot decodes a Snapshot message occupying all of b. Empty or
// duplicate top-level keys are rejected.
func DecodeSnapshot(b []byte) (uuid.UUID, map[string]value.Value, error) {
	var (
		id         uuid.UUID
		hasVersion bool
		hasID      bool
	)
	records := make(map[string]value.Value)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return uuid.Nil, nil, wireError(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldSnapshotVersion && typ == protowire.VarintType && !hasVersion:
			ver, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return uuid.Nil, nil, wireError(protowire.ParseError(n))
			}
			if ver != FormatVersion {
				return uuid.Nil, nil, fmt.Errorf("%w: unsupported format version %d", ErrMalformed, ver)
			}
			b = b[n:]
			hasVersion = true
		case num == fieldSnapshotID && typ == protowire.BytesType && !hasID:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return uuid.Nil, nil, wireError(protowire.ParseError(n))
			}
			parsed, err := uuid.FromBytes(raw)
			if err != nil {
				return uuid.Nil, nil, fmt.Errorf("%w: store id: %v", ErrMalformed, err)
			}
			b = b[n:]
			id, hasID = parsed, true
		case num == fieldSnapshotRecord && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return uuid.Nil, nil, wireError(protowire.ParseError(n))
			}
			b = b[n:]
			k, v, err := DecodeRecord(raw)
			if err != nil {
				return uuid.Nil, nil, err
			}
			if k == "" {
				return uuid.Nil, nil, fmt.Errorf("%w: empty record key", ErrMalformed)
			}
			if _, dup := records[k]; dup {
				return uuid.Nil, nil, fmt.Errorf("%w: duplicate record key %q", ErrMalformed, k)
			}
			records[k] = v
		default:
			return uuid.Nil, nil, fmt.Errorf("%w: unexpected snapshot field %d (wire type %d)", ErrMalformed, num, typ)
		}
	}

	if !hasVersion || !hasID {
		return uuid.Nil, nil, fmt.Errorf("%w: snapshot header incomplete", ErrMalformed)
	}
	return id, records, nil
}
