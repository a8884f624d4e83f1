package manager

import (
	"github.com/lmoreau/emberhollow/internal/save/event"
)

// SaveEvent describes one save lifecycle notification.
type SaveEvent struct {
	SlotID     int
	IsAutosave bool
	Err        error
}

// LoadEvent describes one load lifecycle notification.
type LoadEvent struct {
	SlotID   int
	Warnings []string
	Err      error
}

// AutosaveEvent announces one autosave timer tick.
type AutosaveEvent struct {
	SlotID int
	// Skipped is true when the gate suppressed the tick.
	Skipped bool
}

// Events groups the manager's lifecycle buses. UI layers subscribe here
// and own all user-visible messaging.
type Events struct {
	SaveStarted   *event.Bus[SaveEvent]
	SaveCompleted *event.Bus[SaveEvent]
	SaveFailed    *event.Bus[SaveEvent]

	LoadStarted   *event.Bus[LoadEvent]
	LoadCompleted *event.Bus[LoadEvent]
	LoadFailed    *event.Bus[LoadEvent]

	AutosaveTriggered *event.Bus[AutosaveEvent]
}

func newEvents() *Events {
	return &Events{
		SaveStarted:       event.NewBus[SaveEvent](),
		SaveCompleted:     event.NewBus[SaveEvent](),
		SaveFailed:        event.NewBus[SaveEvent](),
		LoadStarted:       event.NewBus[LoadEvent](),
		LoadCompleted:     event.NewBus[LoadEvent](),
		LoadFailed:        event.NewBus[LoadEvent](),
		AutosaveTriggered: event.NewBus[AutosaveEvent](),
	}
}
