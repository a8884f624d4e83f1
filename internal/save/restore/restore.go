// Package restore applies a validated, migrated save document onto live
// gameplay subsystems in dependency order.
//
// One broken section never blocks the rest: a failing or panicking
// restore step is recorded as a warning and the pass continues. Only a
// document-level structural failure, caught earlier in the save
// manager, prevents entry into this machine at all.
package restore

import (
	"fmt"

	"github.com/lmoreau/emberhollow/internal/save/document"
	"github.com/lmoreau/emberhollow/internal/save/event"
	"github.com/lmoreau/emberhollow/internal/save/schema"
	"github.com/lmoreau/emberhollow/internal/save/subsystem"
)

// Phase names one step of the load state machine.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseValidating         Phase = "validating"
	PhaseRestoring          Phase = "restoring"
	PhasePostValidating     Phase = "post-validating"
	PhaseRefreshing         Phase = "refreshing"
	PhaseLoaded             Phase = "loaded"
	PhaseLoadedWithWarnings Phase = "loaded-with-warnings"
)

// Order is the fixed restoration sequence. Weather reads the world
// clock, equipment references inventory, and the shop reads reputation,
// so no step may assume a later-ordered subsystem has been restored.
func Order() []document.SectionKey {
	return []document.SectionKey{
		document.SectionWorld,
		document.SectionPlayer,
		document.SectionInventory,
		document.SectionEquipment,
		document.SectionQuest,
		document.SectionReputation,
		document.SectionCrafting,
		document.SectionGathering,
		document.SectionCombat,
		document.SectionShop,
	}
}

// Completed is the single event emitted after a restoration pass.
type Completed struct {
	SlotID   int
	Warnings []string
}

// Restoration applies documents onto registered subsystems.
type Restoration struct {
	subsystems map[document.SectionKey]subsystem.Subsystem
	viewers    []subsystem.Viewer
	loaded     *event.Bus[Completed]
	phase      Phase
}

// New creates a Restoration with no subsystems registered.
func New() *Restoration {
	return &Restoration{
		subsystems: map[document.SectionKey]subsystem.Subsystem{},
		loaded:     event.NewBus[Completed](),
		phase:      PhaseIdle,
	}
}

// Register adds a subsystem for its section key.
func (r *Restoration) Register(sys subsystem.Subsystem) error {
	if sys == nil {
		return fmt.Errorf("subsystem is required")
	}
	key := sys.Key()
	if _, err := document.DefaultFor(key); err != nil {
		return fmt.Errorf("register subsystem: %w", err)
	}
	if _, exists := r.subsystems[key]; exists {
		return fmt.Errorf("subsystem %s is already registered", key)
	}
	r.subsystems[key] = sys
	return nil
}

// RegisterViewer adds a UI collaborator refreshed after every pass.
func (r *Restoration) RegisterViewer(viewer subsystem.Viewer) {
	if viewer == nil {
		return
	}
	r.viewers = append(r.viewers, viewer)
}

// OnLoaded subscribes to the completion event and returns an
// unsubscribe function.
func (r *Restoration) OnLoaded(fn func(Completed)) func() {
	return r.loaded.Subscribe(fn)
}

// Phase returns the current phase of the load state machine.
func (r *Restoration) Phase() Phase {
	return r.phase
}

// Gather snapshots every registered subsystem into doc, in order. A
// gather failure is fatal: a document missing live state must never be
// persisted.
func (r *Restoration) Gather(doc *document.SaveDocument) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}
	for _, key := range Order() {
		sys, ok := r.subsystems[key]
		if !ok {
			continue
		}
		if err := sys.Snapshot(doc); err != nil {
			return fmt.Errorf("snapshot %s: %w", key, err)
		}
	}
	return nil
}

// RestoreGameState is the sole post-load entry point. The document must
// already be validated, migrated, and defaulted. It returns the
// accumulated warnings; the only error is a nil document.
func (r *Restoration) RestoreGameState(doc *document.SaveDocument) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}

	var warnings []string

	// Pre-restoration structural validation records warnings only.
	r.phase = PhaseValidating
	if raw, err := schema.ToRaw(doc); err == nil {
		report := schema.Validate(raw)
		for _, issue := range append(report.Errors, report.Warnings...) {
			warnings = append(warnings, issue.Message)
		}
	}

	r.phase = PhaseRestoring
	for _, key := range Order() {
		sys, ok := r.subsystems[key]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no subsystem registered for section %s", key))
			continue
		}
		if err := restoreStep(sys, doc); err != nil {
			warnings = append(warnings, fmt.Sprintf("restore %s: %v", key, err))
		}
	}

	r.phase = PhasePostValidating
	warnings = append(warnings, postValidate(doc)...)

	r.phase = PhaseRefreshing
	for _, viewer := range r.viewers {
		refreshViewer(viewer)
	}

	if len(warnings) > 0 {
		r.phase = PhaseLoadedWithWarnings
	} else {
		r.phase = PhaseLoaded
	}
	r.loaded.Publish(Completed{SlotID: doc.SlotID, Warnings: warnings})

	return warnings, nil
}

// restoreStep isolates one subsystem's restore: errors and panics both
// surface as a returned error so the pass continues.
func restoreStep(sys subsystem.Subsystem, doc *document.SaveDocument) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	if err := sys.Restore(doc); err != nil {
		return err
	}
	if recomputer, ok := sys.(subsystem.DerivedRecomputer); ok {
		recomputer.RecomputeDerived()
	}
	return nil
}

func refreshViewer(viewer subsystem.Viewer) {
	defer func() {
		_ = recover()
	}()
	viewer.Refresh()
}
