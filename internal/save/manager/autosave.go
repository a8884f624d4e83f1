package manager

import (
	"context"
	"log"
	"time"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// StartAutosave runs the autosave ticker until ctx is cancelled. Every
// tick publishes an AutosaveTriggered event and, when the gate is open,
// saves into the reserved autosave slot. A failed autosave is logged
// and the ticker keeps running; autosave must never halt the game loop.
func (m *Manager) StartAutosave(ctx context.Context) {
	go m.autosaveLoop(ctx)
}

func (m *Manager) autosaveLoop(ctx context.Context) {
	ticker := time.NewTicker(m.autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.autosaveTick(ctx)
		}
	}
}

func (m *Manager) autosaveTick(ctx context.Context) {
	if !m.CanSave() {
		m.events.AutosaveTriggered.Publish(AutosaveEvent{SlotID: document.AutosaveSlot, Skipped: true})
		return
	}
	m.events.AutosaveTriggered.Publish(AutosaveEvent{SlotID: document.AutosaveSlot})
	if err := m.Save(ctx, document.AutosaveSlot, Options{IsAutosave: true}); err != nil {
		log.Printf("autosave: %v", err)
	}
}
