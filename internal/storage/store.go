package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/aihub/internal/content"
	bolt "go.etcd.io/bbolt"
)

var (
	sessionBucket  = []byte("session")
	snapshotBucket = []byte("snapshots")

	currentSessionKey = []byte("current")
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens the database, waiting at most timeout for the
// file lock held by another aihub process.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{sessionBucket, snapshotBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession persists the signed-in session, replacing any previous one.
// Snapshots go too unless the same user signs in again.
func (s *Store) SaveSession(session *content.Session) error {
	if !session.Valid() {
		return fmt.Errorf("refusing to save session without token")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		var prev content.Session
		if old := bucket.Get(currentSessionKey); old == nil ||
			json.Unmarshal(old, &prev) != nil || prev.User.ID != session.User.ID {
			if err := resetSnapshots(tx); err != nil {
				return err
			}
		}
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		return bucket.Put(currentSessionKey, data)
	})
}

// LoadSession returns the persisted session, or nil when signed out.
func (s *Store) LoadSession() (*content.Session, error) {
	var session *content.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get(currentSessionKey)
		if data == nil {
			return nil
		}
		var sess content.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("decoding session: %w", err)
		}
		session = &sess
		return nil
	})
	return session, err
}

// ClearSession removes the session and every list snapshot, since cached
// lists carry the previous user's like flags.
func (s *Store) ClearSession() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(sessionBucket).Delete(currentSessionKey); err != nil {
			return err
		}
		return resetSnapshots(tx)
	})
}

// ClearSnapshots removes every list snapshot.
func (s *Store) ClearSnapshots() error {
	return s.db.Update(resetSnapshots)
}

func resetSnapshots(tx *bolt.Tx) error {
	if err := tx.DeleteBucket(snapshotBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return err
	}
	_, err := tx.CreateBucket(snapshotBucket)
	return err
}

func (s *Store) SaveSnapshot(snap *Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		return tx.Bucket(snapshotBucket).Put([]byte(snap.Key), data)
	})
}

func (s *Store) GetSnapshot(key string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(snapshotBucket).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("snapshot %s: %w", key, ErrNotFound)
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) DeleteSnapshot(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Delete([]byte(key))
	})
}

// Sessions exposes the session bucket through the Load/Save/Clear shape the
// API client expects.
type Sessions struct {
	store *Store
}

func (s *Store) Sessions() *Sessions {
	return &Sessions{store: s}
}

func (x *Sessions) Load() (*content.Session, error) { return x.store.LoadSession() }
func (x *Sessions) Save(s *content.Session) error    { return x.store.SaveSession(s) }
func (x *Sessions) Clear() error                     { return x.store.ClearSession() }
