package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
	"go.uber.org/multierr"

	"layerdb/internal/codec"
	"layerdb/internal/fsutil"
	"layerdb/internal/store"
	"layerdb/pkg/value"
)

// Name identifies this backend in configuration.
const Name = "bolt"

var (
	metaBucket    = []byte("meta")
	recordsBucket = []byte("records")

	metaVersion = []byte("version")
	metaID      = []byte("id")
)

// Options configures a Backend.
type Options struct {
	Sync bool
}

// Backend implements store.Backend as a bbolt (embedded B+ tree) file.
// Every Write builds a fresh database next to the target and renames it
// into place; the file is never opened for writing in place.
type Backend struct {
	sync bool
}

// New creates a bolt backend.
func New(opts Options) *Backend {
	return &Backend{sync: opts.Sync}
}

func (b *Backend) Name() string { return Name }

// MaxKeySize is bbolt's key length limit.
func (b *Backend) MaxKeySize() int { return bolt.MaxKeySize }

func (b *Backend) Write(path string, snap store.Snapshot) error {
	return fsutil.ReplacePath(path, b.sync, func(tmp string) error {
		db, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: time.Second, NoSync: !b.sync})
		if err != nil {
			return fmt.Errorf("opening bolt db: %w", err)
		}
		err = db.Update(func(tx *bolt.Tx) error {
			return fill(tx, snap)
		})
		return multierr.Append(err, db.Close())
	})
}

func fill(tx *bolt.Tx, snap store.Snapshot) error {
	meta, err := tx.CreateBucket(metaBucket)
	if err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}
	if err := meta.Put(metaVersion, binary.AppendUvarint(nil, codec.FormatVersion)); err != nil {
		return err
	}
	if err := meta.Put(metaID, snap.ID[:]); err != nil {
		return err
	}

	records, err := tx.CreateBucket(recordsBucket)
	if err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}
	// Keys arrive in random map order; bbolt sorts them itself.
	for k, v := range snap.Records {
		if err := records.Put([]byte(k), codec.AppendValue(nil, v)); err != nil {
			return fmt.Errorf("putting %.64q: %w", k, err)
		}
	}
	return nil
}

func (b *Backend) Read(path string) (store.Snapshot, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.Is(err, berrors.ErrTimeout) {
			return store.Snapshot{}, fmt.Errorf("opening bolt db: %w", err)
		}
		return store.Snapshot{}, fmt.Errorf("%w: opening bolt db: %w", store.ErrCorrupt, err)
	}

	var snap store.Snapshot
	err = db.View(func(tx *bolt.Tx) error {
		var err error
		snap, err = read(tx)
		return err
	})
	err = multierr.Append(err, db.Close())
	if err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

func read(tx *bolt.Tx) (store.Snapshot, error) {
	meta := tx.Bucket(metaBucket)
	if meta == nil {
		return store.Snapshot{}, fmt.Errorf("%w: meta bucket is missing", store.ErrCorrupt)
	}
	ver, n := binary.Uvarint(meta.Get(metaVersion))
	if n <= 0 || ver != codec.FormatVersion {
		return store.Snapshot{}, fmt.Errorf("%w: unsupported format version", store.ErrCorrupt)
	}
	id, err := uuid.FromBytes(meta.Get(metaID))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("%w: store id: %w", store.ErrCorrupt, err)
	}

	bucket := tx.Bucket(recordsBucket)
	if bucket == nil {
		return store.Snapshot{}, fmt.Errorf("%w: records bucket is missing", store.ErrCorrupt)
	}
	records := make(map[string]value.Value, bucket.Stats().KeyN)
	err = bucket.ForEach(func(k, v []byte) error {
		if len(k) == 0 || !utf8.Valid(k) {
			return fmt.Errorf("%w: invalid record key %q", store.ErrCorrupt, k)
		}
		decoded, err := codec.DecodeValue(v)
		if err != nil {
			return fmt.Errorf("%w: record %q: %w", store.ErrCorrupt, k, err)
		}
		// bbolt returns slices into the mmap; string(k) copies.
		records[string(k)] = decoded
		return nil
	})
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{ID: id, Records: records}, nil
}
