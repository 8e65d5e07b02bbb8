package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

const (
	Magic       = "LAYERDB\x01"
	HeaderSize  = len(Magic) + 1 // magic + flags
	TrailerSize = 8              // xxhash64 of header and body
)

// Frame flags.
const (
	FlagSealed byte = 1 << 0

	knownFlags = FlagSealed
)

// EncodeFrame wraps body as [magic][flags][body][xxhash64 BE].
func EncodeFrame(flags byte, body []byte) []byte {
	buf := make([]byte, 0, HeaderSize+len(body)+TrailerSize)
	buf = append(buf, Magic...)
	buf = append(buf, flags)
	buf = append(buf, body...)
	return binary.BigEndian.AppendUint64(buf, xxhash.Sum64(buf))
}

// DecodeFrame validates magic, flags and checksum and returns the body.
// The body aliases data.
func DecodeFrame(data []byte) (byte, []byte, error) {
	if len(data) < HeaderSize+TrailerSize {
		return 0, nil, fmt.Errorf("%w: file too short (%d bytes)", ErrMalformed, len(data))
	}
	if !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return 0, nil, fmt.Errorf("%w: invalid magic %q", ErrMalformed, data[:len(Magic)])
	}

	flags := data[len(Magic)]
	if flags&^knownFlags != 0 {
		return 0, nil, fmt.Errorf("%w: unknown flags 0x%02x", ErrMalformed, flags)
	}

	end := len(data) - TrailerSize
	want := binary.BigEndian.Uint64(data[end:])
	if got := xxhash.Sum64(data[:end]); got != want {
		return 0, nil, fmt.Errorf("%w: checksum mismatch (got %016x, want %016x)", ErrMalformed, got, want)
	}
	return flags, data[HeaderSize:end], nil
}
