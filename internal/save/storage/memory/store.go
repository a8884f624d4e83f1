// Package memory provides an in-memory slot store used by tests and the
// demo runtime. It honors the same quota semantics as the durable
// stores and supports injected write failures.
package memory

import (
	"context"
	"sync"

	"github.com/lmoreau/emberhollow/internal/save/storage"
)

// Store is an in-memory SlotStore.
type Store struct {
	mu     sync.Mutex
	budget int64

	slots  map[int][]byte
	index  []byte
	thumbs map[int][]byte

	failNext int
	failErr  error
}

// NewStore creates an empty in-memory store. budgetBytes of zero means
// no budget.
func NewStore(budgetBytes int64) *Store {
	return &Store{
		budget: budgetBytes,
		slots:  map[int][]byte{},
		thumbs: map[int][]byte{},
	}
}

// FailNextPuts makes the next n Put calls fail with err. Used by tests
// to simulate quota and I/O failures.
func (s *Store) FailNextPuts(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failErr = err
}

// PutSlot replaces the blob for a slot, enforcing the byte budget.
func (s *Store) PutSlot(ctx context.Context, slot int, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeInjectedFailure(); err != nil {
		return err
	}
	if err := s.checkBudget(int64(len(s.slots[slot])), int64(len(blob))); err != nil {
		return err
	}
	s.slots[slot] = append([]byte(nil), blob...)
	return nil
}

// GetSlot returns the stored blob, or storage.ErrNotFound.
func (s *Store) GetSlot(ctx context.Context, slot int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.slots[slot]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

// DeleteSlot removes a slot blob and its thumbnail.
func (s *Store) DeleteSlot(ctx context.Context, slot int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, slot)
	delete(s.thumbs, slot)
	return nil
}

// PutIndex replaces the serialized slot-metadata index.
func (s *Store) PutIndex(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeInjectedFailure(); err != nil {
		return err
	}
	if err := s.checkBudget(int64(len(s.index)), int64(len(payload))); err != nil {
		return err
	}
	s.index = append([]byte(nil), payload...)
	return nil
}

// GetIndex returns the serialized index, or storage.ErrNotFound.
func (s *Store) GetIndex(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), s.index...), nil
}

// PutThumbnail stores sidecar thumbnail bytes for a slot.
func (s *Store) PutThumbnail(ctx context.Context, slot int, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeInjectedFailure(); err != nil {
		return err
	}
	if err := s.checkBudget(int64(len(s.thumbs[slot])), int64(len(image))); err != nil {
		return err
	}
	s.thumbs[slot] = append([]byte(nil), image...)
	return nil
}

// ReclaimThumbnails drops every thumbnail and reports freed bytes.
func (s *Store) ReclaimThumbnails(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var freed int64
	for slot, image := range s.thumbs {
		freed += int64(len(image))
		delete(s.thumbs, slot)
	}
	return freed, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) takeInjectedFailure() error {
	if s.failNext > 0 {
		s.failNext--
		return s.failErr
	}
	return nil
}

func (s *Store) checkBudget(old, next int64) error {
	if s.budget <= 0 {
		return nil
	}
	var used int64
	for _, blob := range s.slots {
		used += int64(len(blob))
	}
	used += int64(len(s.index))
	for _, image := range s.thumbs {
		used += int64(len(image))
	}
	if used-old+next > s.budget {
		return storage.ErrQuotaExceeded
	}
	return nil
}
