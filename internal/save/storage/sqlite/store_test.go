package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lmoreau/emberhollow/internal/save/storage"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "saves.db"), opts)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open("  ", Options{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	first, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.PutSlot(context.Background(), 1, []byte("blob")); err != nil {
		t.Fatalf("put slot: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must replay migrations as no-ops and keep the data.
	second, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()
	got, err := second.GetSlot(context.Background(), 1)
	if err != nil {
		t.Fatalf("get slot after reopen: %v", err)
	}
	if !bytes.Equal(got, []byte("blob")) {
		t.Fatalf("blob mismatch after reopen: %q", got)
	}
}

func TestPutGetDeleteSlot(t *testing.T) {
	store := openTestStore(t, Options{})
	ctx := context.Background()

	blob := []byte("compressed-save")
	if err := store.PutSlot(ctx, 3, blob); err != nil {
		t.Fatalf("put slot: %v", err)
	}

	got, err := store.GetSlot(ctx, 3)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("blob mismatch: %q", got)
	}

	replaced := []byte("newer-save")
	if err := store.PutSlot(ctx, 3, replaced); err != nil {
		t.Fatalf("replace slot: %v", err)
	}
	got, err = store.GetSlot(ctx, 3)
	if err != nil {
		t.Fatalf("get replaced slot: %v", err)
	}
	if !bytes.Equal(got, replaced) {
		t.Fatalf("expected replaced blob, got %q", got)
	}

	if err := store.DeleteSlot(ctx, 3); err != nil {
		t.Fatalf("delete slot: %v", err)
	}
	if _, err := store.GetSlot(ctx, 3); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	store := openTestStore(t, Options{})
	ctx := context.Background()

	if _, err := store.GetIndex(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}

	payload := []byte(`{"1":{"slotId":1,"level":5}}`)
	if err := store.PutIndex(ctx, payload); err != nil {
		t.Fatalf("put index: %v", err)
	}
	got, err := store.GetIndex(ctx)
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("index mismatch: %q", got)
	}
}

func TestQuotaRejectsOversizedWriteKeepsPrior(t *testing.T) {
	store := openTestStore(t, Options{BudgetBytes: 64})
	ctx := context.Background()

	prior := []byte("prior-save-content")
	if err := store.PutSlot(ctx, 1, prior); err != nil {
		t.Fatalf("put prior blob: %v", err)
	}

	huge := bytes.Repeat([]byte("x"), 200)
	if err := store.PutSlot(ctx, 1, huge); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	got, err := store.GetSlot(ctx, 1)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !bytes.Equal(got, prior) {
		t.Fatalf("expected prior blob intact, got %q", got)
	}
}

func TestReclaimThumbnailsFreesBudget(t *testing.T) {
	store := openTestStore(t, Options{BudgetBytes: 100})
	ctx := context.Background()

	thumb := bytes.Repeat([]byte("t"), 60)
	if err := store.PutThumbnail(ctx, 1, thumb); err != nil {
		t.Fatalf("put thumbnail: %v", err)
	}

	blob := bytes.Repeat([]byte("s"), 80)
	if err := store.PutSlot(ctx, 1, blob); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected quota failure before reclaim, got %v", err)
	}

	freed, err := store.ReclaimThumbnails(ctx)
	if err != nil {
		t.Fatalf("reclaim thumbnails: %v", err)
	}
	if freed != 60 {
		t.Fatalf("expected 60 freed bytes, got %d", freed)
	}

	if err := store.PutSlot(ctx, 1, blob); err != nil {
		t.Fatalf("put after reclaim: %v", err)
	}
}
