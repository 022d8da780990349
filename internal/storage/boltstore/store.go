// Package boltstore keeps world snapshots in an embedded bbolt file, for
// single-host deployments without PostgreSQL.
package boltstore

import (
	"context"
	"encoding/binary"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/storage"
)

var (
	bucketSnapshots = []byte("snapshots")
	bucketMeta      = []byte("meta")
	keyLastSaved    = []byte("last_saved")
)

// DefaultKeep is how many snapshots Save retains when keep is not positive.
const DefaultKeep = 10

// Store wraps a bbolt database holding encoded snapshots keyed by a
// big-endian sequence number, so cursor order is save order.
type Store struct {
	bolt *bbolt.DB
	keep int
}

// Open opens or creates a bbolt database file and ensures all buckets exist.
func Open(path string, keep int) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSnapshots, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create buckets: %w", err)
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Store{bolt: db, keep: keep}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.bolt.Close()
}

// Path returns the filesystem path of the underlying bbolt database.
func (s *Store) Path() string {
	return s.bolt.Path()
}

// Save appends snap and drops the oldest snapshots beyond the retention count.
func (s *Store) Save(_ context.Context, snap *world.Snapshot) error {
	data, err := storage.Encode(snap)
	if err != nil {
		return fmt.Errorf("boltstore: %w", err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("boltstore: next sequence: %w", err)
		}
		if err := b.Put(seqToKey(seq), data); err != nil {
			return fmt.Errorf("boltstore: put snapshot %d: %w", seq, err)
		}
		if err := prune(b, s.keep); err != nil {
			return err
		}
		stamp, err := snap.TakenAt.MarshalBinary()
		if err != nil {
			return fmt.Errorf("boltstore: encode timestamp: %w", err)
		}
		return tx.Bucket(bucketMeta).Put(keyLastSaved, stamp)
	})
}

// prune deletes from the front of b until at most keep entries remain.
func prune(b *bbolt.Bucket, keep int) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for len(keys) > keep {
		if err := b.Delete(keys[0]); err != nil {
			return fmt.Errorf("boltstore: prune: %w", err)
		}
		keys = keys[1:]
	}
	return nil
}

// Load returns the newest snapshot or storage.ErrNoSnapshot.
func (s *Store) Load(_ context.Context) (*world.Snapshot, error) {
	var data []byte
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		_, v := tx.Bucket(bucketSnapshots).Cursor().Last()
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: load: %w", err)
	}
	if data == nil {
		return nil, storage.ErrNoSnapshot
	}
	snap, err := storage.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("boltstore: %w", err)
	}
	return snap, nil
}

// Count returns how many snapshots are retained.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

func seqToKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
