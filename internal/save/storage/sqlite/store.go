// Package sqlite provides the SQLite-backed slot store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lmoreau/emberhollow/internal/save/storage"
)

// Options configures the store.
type Options struct {
	// BudgetBytes caps the total stored payload bytes across slots,
	// index, and thumbnails. Zero means no budget.
	BudgetBytes int64
}

// Store provides a SQLite-backed slot store.
type Store struct {
	db     *sql.DB
	budget int64
	clock  func() time.Time
}

// Open opens a SQLite-backed store at the provided DSN and applies the
// embedded schema migrations.
func Open(dsn string, opts Options) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("storage dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, budget: opts.BudgetBytes, clock: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutSlot replaces the blob for a slot. The quota check and the upsert
// share one transaction, so a rejected write leaves the prior blob
// committed and untouched.
func (s *Store) PutSlot(ctx context.Context, slot int, blob []byte) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(blob) == 0 {
		return fmt.Errorf("slot blob is required")
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkBudget(ctx, tx,
			"SELECT COALESCE(LENGTH(blob), 0) FROM slots WHERE slot = ?", slot, int64(len(blob))); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO slots (slot, blob, updated_at) VALUES (?, ?, ?)
ON CONFLICT (slot) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
`, slot, blob, s.clock().UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("upsert slot %d: %w", slot, err)
		}
		return nil
	})
}

// GetSlot fetches the blob stored for a slot.
func (s *Store) GetSlot(ctx context.Context, slot int) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT blob FROM slots WHERE slot = ?", slot).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query slot %d: %w", slot, err)
	}
	return blob, nil
}

// DeleteSlot removes a slot blob and its thumbnail.
func (s *Store) DeleteSlot(ctx context.Context, slot int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM slots WHERE slot = ?", slot); err != nil {
			return fmt.Errorf("delete slot %d: %w", slot, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM thumbnails WHERE slot = ?", slot); err != nil {
			return fmt.Errorf("delete thumbnail %d: %w", slot, err)
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

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkBudget(ctx, tx,
			"SELECT COALESCE(LENGTH(payload), 0) FROM slot_index WHERE id = 1", nil, int64(len(payload))); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO slot_index (id, payload) VALUES (1, ?)
ON CONFLICT (id) DO UPDATE SET payload = excluded.payload
`, payload)
		if err != nil {
			return fmt.Errorf("upsert index: %w", err)
		}
		return nil
	})
}

// GetIndex fetches the serialized slot-metadata index.
func (s *Store) GetIndex(ctx context.Context) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM slot_index WHERE id = 1").Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query index: %w", err)
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

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkBudget(ctx, tx,
			"SELECT COALESCE(LENGTH(image), 0) FROM thumbnails WHERE slot = ?", slot, int64(len(image))); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO thumbnails (slot, image) VALUES (?, ?)
ON CONFLICT (slot) DO UPDATE SET image = excluded.image
`, slot, image)
		if err != nil {
			return fmt.Errorf("upsert thumbnail %d: %w", slot, err)
		}
		return nil
	})
}

// ReclaimThumbnails drops every thumbnail and reports freed bytes.
func (s *Store) ReclaimThumbnails(ctx context.Context) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	var freed int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT COALESCE(SUM(LENGTH(image)), 0) FROM thumbnails")
		if err := row.Scan(&freed); err != nil {
			return fmt.Errorf("sum thumbnails: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM thumbnails"); err != nil {
			return fmt.Errorf("delete thumbnails: %w", err)
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

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// checkBudget rejects a write when replacing the row measured by
// oldQuery with nextLen bytes would push total stored bytes past the
// budget. key may be nil for single-row tables.
func (s *Store) checkBudget(ctx context.Context, tx *sql.Tx, oldQuery string, key any, nextLen int64) error {
	if s.budget <= 0 {
		return nil
	}

	var used int64
	row := tx.QueryRowContext(ctx, `
SELECT COALESCE((SELECT SUM(LENGTH(blob)) FROM slots), 0)
     + COALESCE((SELECT SUM(LENGTH(payload)) FROM slot_index), 0)
     + COALESCE((SELECT SUM(LENGTH(image)) FROM thumbnails), 0)
`)
	if err := row.Scan(&used); err != nil {
		return fmt.Errorf("sum stored bytes: %w", err)
	}

	var old int64
	var err error
	if key == nil {
		err = tx.QueryRowContext(ctx, oldQuery).Scan(&old)
	} else {
		err = tx.QueryRowContext(ctx, oldQuery, key).Scan(&old)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("measure replaced row: %w", err)
	}

	if used-old+nextLen > s.budget {
		return storage.ErrQuotaExceeded
	}
	return nil
}
