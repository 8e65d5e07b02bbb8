package layerdb

import (
	"errors"
	"fmt"

	"layerdb/internal/state"
	"layerdb/internal/store"
)

var (
	// ErrClosed is returned by every operation on a closed handle,
	// including a second Close.
	ErrClosed = errors.New("layerdb: store is closed")
	// ErrNotBacked is returned by Dump on a handle created with New.
	ErrNotBacked = errors.New("layerdb: store has no backing file")
	// ErrEmptyPath is returned when a file path is required but empty.
	ErrEmptyPath = errors.New("layerdb: path must not be empty")
	// ErrKeyRequired is returned by Load for an encrypted file when no key
	// was configured.
	ErrKeyRequired = errors.New("layerdb: store file is encrypted; an encryption key is required")
	// ErrUnsupported is returned for unknown formats and option
	// combinations a format cannot honor.
	ErrUnsupported = errors.New("layerdb: unsupported option")

	// ErrCorrupt is wrapped by every *CorruptStoreError.
	ErrCorrupt = store.ErrCorrupt
	// ErrEmptyKey is returned by Set for the empty key.
	ErrEmptyKey = state.ErrEmptyKey
	// ErrInvalidValue is returned by Set for values that cannot be persisted.
	ErrInvalidValue = state.ErrInvalidValue
	// ErrKeyTooLarge is returned by Set for keys longer than the store
	// format can hold.
	ErrKeyTooLarge = errors.New("layerdb: key is too large for the store format")
)

// CorruptStoreError reports a store file that exists but cannot be decoded.
// Load never substitutes an empty store for a corrupt file.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("layerdb: corrupt store %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

// IOError reports a filesystem failure during load, dump or close. After a
// failed dump the in-memory contents are unchanged and the previous file,
// if any, is intact.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("layerdb: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
