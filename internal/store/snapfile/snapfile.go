// Package snapfile stores a snapshot as one checksummed, optionally sealed
// file produced by the codec package.
package snapfile

import (
	"errors"
	"fmt"
	"os"

	"layerdb/internal/codec"
	"layerdb/internal/crypto"
	"layerdb/internal/fsutil"
	"layerdb/internal/store"
)

// Name identifies this backend in configuration.
const Name = "snapfile"

// Options configures a Backend.
type Options struct {
	Sync bool        // fsync file and directory on every write
	Box  *crypto.Box // seals the body when non-nil
}

// Backend implements store.Backend with a single framed file.
type Backend struct {
	sync bool
	box  *crypto.Box
}

// New creates a snapfile backend.
func New(opts Options) *Backend {
	return &Backend{sync: opts.Sync, box: opts.Box}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Write(path string, snap store.Snapshot) error {
	data, err := b.Encode(snap)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, data, b.sync)
}

func (b *Backend) Read(path string) (store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Snapshot{}, err
	}
	return b.Decode(data)
}

// Encode renders snap as the complete file contents.
func (b *Backend) Encode(snap store.Snapshot) ([]byte, error) {
	body := codec.AppendSnapshot(nil, snap.ID, snap.Records)
	if b.box == nil {
		return codec.EncodeFrame(0, body), nil
	}
	sealed, err := b.box.Seal(body, header(codec.FlagSealed))
	if err != nil {
		return nil, fmt.Errorf("sealing snapshot: %w", err)
	}
	return codec.EncodeFrame(codec.FlagSealed, sealed), nil
}

// Decode parses complete file contents.
func (b *Backend) Decode(data []byte) (store.Snapshot, error) {
	flags, body, err := codec.DecodeFrame(data)
	if err != nil {
		return store.Snapshot{}, corrupt(err)
	}
	if flags&codec.FlagSealed != 0 {
		if b.box == nil {
			return store.Snapshot{}, store.ErrSealed
		}
		body, err = b.box.Open(body, header(flags))
		if err != nil {
			return store.Snapshot{}, corrupt(err)
		}
	}

	id, records, err := codec.DecodeSnapshot(body)
	if err != nil {
		return store.Snapshot{}, corrupt(err)
	}
	return store.Snapshot{ID: id, Records: records}, nil
}

// header is the authenticated frame prefix for sealed bodies.
func header(flags byte) []byte {
	return append([]byte(codec.Magic), flags)
}

func corrupt(err error) error {
	if errors.Is(err, store.ErrCorrupt) {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrCorrupt, err)
}
