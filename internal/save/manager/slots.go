package manager

import (
	"context"
	"fmt"

	apperrors "github.com/lmoreau/emberhollow/internal/platform/errors"
	"github.com/lmoreau/emberhollow/internal/save/document"
)

// SlotEntry is one row of a slot listing. Empty slots are represented
// explicitly so a UI can render the full fixed grid.
type SlotEntry struct {
	SlotID   int
	Empty    bool
	Metadata document.SlotMetadata
}

// ListSlots returns every fixed slot, autosave first, from the
// in-memory metadata index. No slot blob is ever read for a listing.
func (m *Manager) ListSlots() []SlotEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]SlotEntry, 0, m.manualSlots+1)
	for slot := document.AutosaveSlot; slot <= m.manualSlots; slot++ {
		entry := SlotEntry{SlotID: slot, Empty: true}
		if meta, ok := m.index[slot]; ok {
			entry.Empty = false
			entry.Metadata = meta
		}
		entries = append(entries, entry)
	}
	return entries
}

// MostRecent returns the metadata of the newest save by stored
// timestamp, across manual and autosave slots.
func (m *Manager) MostRecent() (document.SlotMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var newest document.SlotMetadata
	found := false
	for _, meta := range m.index {
		if !found || meta.SavedAt.After(newest.SavedAt) {
			newest = meta
			found = true
		}
	}
	if !found {
		return document.SlotMetadata{}, apperrors.New(apperrors.CodeNotFound, "no saves exist")
	}
	return newest, nil
}

// Delete removes a slot's blob and thumbnail and rewrites the index.
// Deleting an empty slot is not an error.
func (m *Manager) Delete(ctx context.Context, slot int) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	if err := m.store.DeleteSlot(ctx, slot); err != nil {
		return fmt.Errorf("delete slot %d: %w", slot, err)
	}

	m.mu.Lock()
	delete(m.index, slot)
	m.mu.Unlock()
	return m.persistIndex(ctx)
}
