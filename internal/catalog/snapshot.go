package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/storage"
)

// SnapshotStore is the part of storage.Store the persister needs.
type SnapshotStore interface {
	SaveSnapshot(*storage.Snapshot) error
	GetSnapshot(key string) (*storage.Snapshot, error)
	DeleteSnapshot(key string) error
	ClearSnapshots() error
}

// SnapshotPersister stores list results in bbolt so the next run can show
// the last known lists while it refetches.
type SnapshotPersister struct {
	store SnapshotStore
}

func NewSnapshotPersister(store SnapshotStore) *SnapshotPersister {
	return &SnapshotPersister{store: store}
}

func (p *SnapshotPersister) Restore(key content.FetchKey) ([]content.Item, time.Time, bool, error) {
	snap, err := p.store.GetSnapshot(key.String())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	items, err := content.DecodeMixed(snap.Data)
	if err != nil {
		// Unreadable snapshots would fail the same way on every start.
		if derr := p.store.DeleteSnapshot(key.String()); derr != nil {
			err = errors.Join(err, derr)
		}
		return nil, time.Time{}, false, fmt.Errorf("decoding snapshot %s: %w", key, err)
	}
	return items, snap.FetchedAt, true, nil
}

func (p *SnapshotPersister) Persist(key content.FetchKey, items []content.Item, fetchedAt time.Time) error {
	elems := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := content.MarshalTagged(it)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", content.KeyOf(it), err)
		}
		elems = append(elems, b)
	}
	data, err := json.Marshal(elems)
	if err != nil {
		return err
	}
	return p.store.SaveSnapshot(&storage.Snapshot{Key: key.String(), Data: data, FetchedAt: fetchedAt})
}

// Purge drops every stored list. Lists carry the signed-in user's like
// flags, so they must not outlive a sign-out.
func (p *SnapshotPersister) Purge() error {
	return p.store.ClearSnapshots()
}
