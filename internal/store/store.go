package store

import (
	"errors"

	"github.com/google/uuid"

	"layerdb/pkg/value"
)

var (
	// ErrCorrupt marks a file that exists but cannot be decoded into a
	// snapshot. It is never returned for a missing file.
	ErrCorrupt = errors.New("corrupt store file")
	// ErrSealed is returned when reading an encrypted file without a key.
	ErrSealed = errors.New("store file is encrypted and no key was configured")
)

// Snapshot is the complete durable state of one store.
type Snapshot struct {
	ID      uuid.UUID
	Records map[string]value.Value
}

// Backend is an on-disk snapshot format: snapfile (one framed file) or bolt.
//
// Write must replace path atomically: after a failed or interrupted Write
// the previous file at path is still intact. Read returns an error wrapping
// ErrCorrupt for undecodable content and the raw filesystem error otherwise.
type Backend interface {
	Name() string
	Write(path string, snap Snapshot) error
	Read(path string) (Snapshot, error)
}

// KeyLimiter is implemented by backends that cannot store arbitrarily long
// keys. MaxKeySize is the largest key length in bytes Write accepts.
type KeyLimiter interface {
	MaxKeySize() int
}
