package layerdb

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"layerdb/internal/fsutil"
	"layerdb/internal/state"
	"layerdb/internal/store"
	"layerdb/pkg/value"
)

// DB is an open store handle. It is not safe for concurrent use, and two
// handles must not be bound to the same path at once.
//
// Reads are served from memory only. Nothing reaches disk until Dump,
// SaveAs or Close.
type DB struct {
	path    string
	id      uuid.UUID
	data    *state.Map
	backend store.Backend
	log     *slog.Logger
	closed  bool
}

// Load opens the store at path. A missing or empty file yields an empty
// store bound to path; the file is created by the first Dump or Close.
// A file that exists but cannot be decoded fails with *CorruptStoreError.
func Load(path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	backend, err := o.backend()
	if err != nil {
		return nil, err
	}

	db := &DB{
		path:    path,
		data:    state.NewMap(),
		backend: backend,
		log:     o.log().With("path", path),
	}

	if n, err := fsutil.RemoveStale(path); err != nil {
		db.log.Warn("removing stale temp files", "err", err)
	} else if n > 0 {
		db.log.Info("removed stale temp files from an interrupted dump", "count", n)
	}

	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		db.id = uuid.New()
		db.log.Debug("created store", "id", db.id, "format", backend.Name())
		return db, nil
	case err != nil:
		return nil, &IOError{Op: "load", Path: path, Err: err}
	case fi.IsDir():
		return nil, &IOError{Op: "load", Path: path, Err: fmt.Errorf("path is a directory")}
	case fi.Size() == 0:
		db.id = uuid.New()
		db.log.Debug("loaded empty file as new store", "id", db.id, "format", backend.Name())
		return db, nil
	}

	id, err := db.data.LoadFromBackend(backend, path)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSealed):
			return nil, ErrKeyRequired
		case errors.Is(err, store.ErrCorrupt):
			db.log.Warn("store file is corrupt", "format", backend.Name(), "err", err)
			return nil, &CorruptStoreError{Path: path, Err: err}
		default:
			return nil, &IOError{Op: "load", Path: path, Err: err}
		}
	}
	db.id = id
	db.log.Debug("opened store", "id", id, "format", backend.Name(), "entries", db.data.Len())
	return db, nil
}

// New returns a transient store with no backing file. Dump fails with
// ErrNotBacked until SaveAs binds it to a path; Close does not persist.
func New(opts ...Option) (*DB, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	backend, err := o.backend()
	if err != nil {
		return nil, err
	}
	return &DB{
		id:      uuid.New(),
		data:    state.NewMap(),
		backend: backend,
		log:     o.log(),
	}, nil
}

// Set inserts or overwrites key. The empty key is rejected with
// ErrEmptyKey, keys the format cannot hold with ErrKeyTooLarge and values
// that fail value.Validate with ErrInvalidValue.
func (db *DB) Set(key string, v value.Value) error {
	if db.closed {
		return ErrClosed
	}
	if err := db.checkKey(key); err != nil {
		return err
	}
	return db.data.Set(key, v)
}

func (db *DB) checkKey(key string) error {
	if l, ok := db.backend.(store.KeyLimiter); ok && len(key) > l.MaxKeySize() {
		return fmt.Errorf("%w: %d bytes, %s allows %d", ErrKeyTooLarge, len(key), db.backend.Name(), l.MaxKeySize())
	}
	return nil
}

// SetAny converts x with value.FromGo and stores the result.
func (db *DB) SetAny(key string, x any) error {
	if db.closed {
		return ErrClosed
	}
	if err := db.checkKey(key); err != nil {
		return err
	}
	v, err := value.FromGo(x)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return db.data.Set(key, v)
}

// Get returns the value stored under key. A missing key is reported by
// ok == false, never by an error.
func (db *DB) Get(key string) (v value.Value, ok bool, err error) {
	if db.closed {
		return value.Value{}, false, ErrClosed
	}
	v, ok = db.data.Get(key)
	return v, ok, nil
}

// Remove deletes key and reports whether it existed. Removing a missing
// key is not an error and does not mark the store dirty.
func (db *DB) Remove(key string) (bool, error) {
	if db.closed {
		return false, ErrClosed
	}
	return db.data.Remove(key), nil
}

// Has reports whether key is present. It reports false after Close.
func (db *DB) Has(key string) bool {
	return !db.closed && db.data.Has(key)
}

// Len returns the number of keys. It reports 0 after Close.
func (db *DB) Len() int {
	if db.closed {
		return 0
	}
	return db.data.Len()
}

// Keys returns all keys in sorted order, or nil after Close.
func (db *DB) Keys() []string {
	if db.closed {
		return nil
	}
	return db.data.Keys()
}

// Dirty reports whether memory has diverged from the last durable snapshot.
func (db *DB) Dirty() bool {
	return !db.closed && db.data.Dirty()
}

// IsOpen reports whether the handle can still be used.
func (db *DB) IsOpen() bool { return !db.closed }

// Path returns the backing file, or "" for a transient store.
func (db *DB) Path() string { return db.path }

// ID returns the store identity, which is preserved across dump and load.
func (db *DB) ID() uuid.UUID { return db.id }

// Format returns the name of the on-disk format.
func (db *DB) Format() string { return db.backend.Name() }

// Dump writes the full contents to the backing file, replacing it
// atomically. It writes even when the store is clean. On failure the
// returned *IOError leaves memory and the previous file untouched.
func (db *DB) Dump() error {
	if db.closed {
		return ErrClosed
	}
	if db.path == "" {
		return ErrNotBacked
	}
	return db.persist("dump", db.path)
}

// SaveAs dumps to path and, on success, rebinds the handle to it. Use it
// to retry elsewhere after a failed Dump, or to persist a transient store.
func (db *DB) SaveAs(path string) error {
	if db.closed {
		return ErrClosed
	}
	if path == "" {
		return ErrEmptyPath
	}
	if err := db.persist("save", path); err != nil {
		return err
	}
	if path != db.path {
		db.log.Info("store rebound", "from", db.path, "to", path)
		db.path = path
		db.log = db.log.With("path", path)
	}
	return nil
}

// Close persists pending changes, if the store is backed and dirty, and
// invalidates the handle. If that final dump fails the handle stays open
// and the error is returned, so no change is silently lost. Closing a
// closed handle returns ErrClosed.
func (db *DB) Close() error {
	if db.closed {
		return ErrClosed
	}
	if db.path != "" && db.data.Dirty() {
		if err := db.persist("close", db.path); err != nil {
			return err
		}
	}
	db.closed = true
	db.data = nil
	db.log.Debug("closed store", "id", db.id)
	return nil
}

func (db *DB) persist(op, path string) error {
	if err := db.data.PersistTo(db.backend, path, db.id); err != nil {
		return &IOError{Op: op, Path: path, Err: err}
	}
	return nil
}
