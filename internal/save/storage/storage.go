// Package storage defines the slot persistence contract shared by the
// BoltDB, SQLite, and in-memory stores.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested slot or index record is missing.
var ErrNotFound = errors.New("record not found")

// ErrQuotaExceeded indicates a write would push the store past its byte
// budget. The previously committed content is left intact.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// SlotStore persists compressed save blobs, the slot-metadata index,
// and thumbnail sidecar bytes.
//
// Writes are atomic per call: a failed put (including a quota failure)
// must leave the prior content of that key unchanged. Thumbnails are
// best-effort cache data and are the designated reclaim target when the
// budget is hit.
type SlotStore interface {
	// PutSlot replaces the blob for a slot. Returns ErrQuotaExceeded
	// when the write would exceed the byte budget.
	PutSlot(ctx context.Context, slot int, blob []byte) error
	// GetSlot returns the stored blob, or ErrNotFound.
	GetSlot(ctx context.Context, slot int) ([]byte, error)
	// DeleteSlot removes a slot blob and its thumbnail. Deleting an
	// absent slot is not an error.
	DeleteSlot(ctx context.Context, slot int) error

	// PutIndex replaces the serialized slot-metadata index.
	PutIndex(ctx context.Context, payload []byte) error
	// GetIndex returns the serialized index, or ErrNotFound.
	GetIndex(ctx context.Context) ([]byte, error)

	// PutThumbnail stores sidecar thumbnail bytes for a slot.
	PutThumbnail(ctx context.Context, slot int, image []byte) error
	// ReclaimThumbnails drops every thumbnail and reports freed bytes.
	ReclaimThumbnails(ctx context.Context) (int64, error)

	Close() error
}
