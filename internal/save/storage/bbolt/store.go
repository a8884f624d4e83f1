// Package bbolt provides the BoltDB-backed slot store.
package bbolt

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/lmoreau/emberhollow/internal/save/storage"
)

const (
	slotBucket  = "slot"
	indexBucket = "index"
	thumbBucket = "thumb"
)

// indexKey is the single record inside indexBucket.
var indexKey = []byte("slots")

// Options configures the store.
type Options struct {
	// BudgetBytes caps the total stored payload bytes across slots,
	// index, and thumbnails. Zero means no budget.
	BudgetBytes int64
}

// Store provides a BoltDB-backed slot store.
type Store struct {
	db     *bbolt.DB
	budget int64
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db, budget: opts.BudgetBytes}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutSlot replaces the blob for a slot. The quota check and the write
// share one update transaction, so a rejected write leaves the prior
// blob committed and untouched.
func (s *Store) PutSlot(ctx context.Context, slot int, blob []byte) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(blob) == 0 {
		return fmt.Errorf("slot blob is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotBucket))
		if bucket == nil {
			return fmt.Errorf("slot bucket is missing")
		}
		if err := s.checkBudget(tx, bucket.Get(slotKey(slot)), blob); err != nil {
			return err
		}
		return bucket.Put(slotKey(slot), blob)
	})
}

// GetSlot fetches the blob stored for a slot.
func (s *Store) GetSlot(ctx context.Context, slot int) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotBucket))
		if bucket == nil {
			return fmt.Errorf("slot bucket is missing")
		}
		stored := bucket.Get(slotKey(slot))
		if stored == nil {
			return storage.ErrNotFound
		}
		blob = append([]byte(nil), stored...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// DeleteSlot removes a slot blob and its thumbnail.
func (s *Store) DeleteSlot(ctx context.Context, slot int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket([]byte(slotBucket)); bucket != nil {
			if err := bucket.Delete(slotKey(slot)); err != nil {
				return err
			}
		}
		if bucket := tx.Bucket([]byte(thumbBucket)); bucket != nil {
			if err := bucket.Delete(slotKey(slot)); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutIndex replaces the serialized slot-metadata index.
func (s *Store) PutIndex(ctx context.Context, payload []byte) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("index payload is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(indexBucket))
		if bucket == nil {
			return fmt.Errorf("index bucket is missing")
		}
		if err := s.checkBudget(tx, bucket.Get(indexKey), payload); err != nil {
			return err
		}
		return bucket.Put(indexKey, payload)
	})
}

// GetIndex fetches the serialized slot-metadata index.
func (s *Store) GetIndex(ctx context.Context) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(indexBucket))
		if bucket == nil {
			return fmt.Errorf("index bucket is missing")
		}
		stored := bucket.Get(indexKey)
		if stored == nil {
			return storage.ErrNotFound
		}
		payload = append([]byte(nil), stored...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// PutThumbnail stores sidecar thumbnail bytes for a slot.
func (s *Store) PutThumbnail(ctx context.Context, slot int, image []byte) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(image) == 0 {
		return fmt.Errorf("thumbnail image is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(thumbBucket))
		if bucket == nil {
			return fmt.Errorf("thumbnail bucket is missing")
		}
		if err := s.checkBudget(tx, bucket.Get(slotKey(slot)), image); err != nil {
			return err
		}
		return bucket.Put(slotKey(slot), image)
	})
}

// ReclaimThumbnails drops every thumbnail and reports freed bytes.
func (s *Store) ReclaimThumbnails(ctx context.Context) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	var freed int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(thumbBucket))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			freed += int64(len(value))
			if err := cursor.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return freed, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// checkBudget rejects a write when replacing old with next would push
// total stored bytes past the budget.
func (s *Store) checkBudget(tx *bbolt.Tx, old, next []byte) error {
	if s.budget <= 0 {
		return nil
	}
	used := usedBytes(tx)
	projected := used - int64(len(old)) + int64(len(next))
	if projected > s.budget {
		return storage.ErrQuotaExceeded
	}
	return nil
}

func usedBytes(tx *bbolt.Tx) int64 {
	var used int64
	for _, name := range []string{slotBucket, indexBucket, thumbBucket} {
		bucket := tx.Bucket([]byte(name))
		if bucket == nil {
			continue
		}
		cursor := bucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			used += int64(len(value))
		}
	}
	return used
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{slotBucket, indexBucket, thumbBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func slotKey(slot int) []byte {
	return []byte(strconv.Itoa(slot))
}
