package state

import (
	"github.com/google/uuid"

	"layerdb/internal/store"
)

// LoadFromBackend reads the snapshot at path into the map, replacing its
// contents, and returns the stored store ID. The map is left untouched on
// error. If b is nil, this is a no-op returning uuid.Nil.
func (m *Map) LoadFromBackend(b store.Backend, path string) (uuid.UUID, error) {
	if b == nil {
		return uuid.Nil, nil
	}
	snap, err := b.Read(path)
	if err != nil {
		return uuid.Nil, err
	}
	m.Replace(snap.Records)
	logger.Debug("loaded snapshot", "path", path, "backend", b.Name(), "entries", len(snap.Records), "id", snap.ID)
	return snap.ID, nil
}

// PersistTo writes the full mapping to path and marks the map clean on
// success. On failure the map, including its dirty flag, is unchanged.
// If b is nil, this is a no-op.
func (m *Map) PersistTo(b store.Backend, path string, id uuid.UUID) error {
	if b == nil {
		return nil
	}
	rev := m.Revision()
	snap := store.Snapshot{ID: id, Records: m.Records()}
	if err := b.Write(path, snap); err != nil {
		logger.Warn("persist snapshot", "path", path, "backend", b.Name(), "err", err)
		return err
	}
	m.MarkClean(rev)
	logger.Debug("persisted snapshot", "path", path, "backend", b.Name(), "entries", len(snap.Records), "id", id, "revision", rev)
	return nil
}
