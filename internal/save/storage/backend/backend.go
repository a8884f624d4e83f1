// Package backend selects and opens a slot store implementation from
// runtime configuration.
package backend

import (
	"fmt"

	"github.com/lmoreau/emberhollow/internal/save/storage"
	"github.com/lmoreau/emberhollow/internal/save/storage/bbolt"
	"github.com/lmoreau/emberhollow/internal/save/storage/memory"
	"github.com/lmoreau/emberhollow/internal/save/storage/sqlite"
)

// Backend kinds accepted by Open.
const (
	KindBBolt  = "bbolt"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Open opens the named slot store backend. Path is the database file
// for the durable backends and is ignored by the in-memory one.
func Open(kind, path string, budgetBytes int64) (storage.SlotStore, error) {
	switch kind {
	case KindBBolt:
		if path == "" {
			return nil, fmt.Errorf("bbolt backend requires a path")
		}
		return bbolt.Open(path, bbolt.Options{BudgetBytes: budgetBytes})
	case KindSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return sqlite.Open(path, sqlite.Options{BudgetBytes: budgetBytes})
	case KindMemory:
		return memory.NewStore(budgetBytes), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", kind)
}
