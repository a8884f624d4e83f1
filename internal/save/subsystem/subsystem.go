// Package subsystem defines the capability contract gameplay subsystems
// implement to participate in save and restore.
package subsystem

import "github.com/lmoreau/emberhollow/internal/save/document"

// Subsystem is implemented by every gameplay system that contributes a
// section to the save document.
//
// Snapshot writes the subsystem's current state into the document as
// wire shapes; Restore reads its (already defaulted) section back and
// rebuilds runtime shapes. Both are synchronous: they run inside the
// game's update loop.
type Subsystem interface {
	// Key names the document section this subsystem owns.
	Key() document.SectionKey
	// Snapshot writes current live state into doc.
	Snapshot(doc *document.SaveDocument) error
	// Restore reinitializes live state from doc. The section is never
	// nil: the schema layer backfills defaults before restoration.
	Restore(doc *document.SaveDocument) error
}

// DerivedRecomputer is implemented by subsystems that maintain derived
// state. RecomputeDerived runs once after Restore assigns raw fields.
type DerivedRecomputer interface {
	RecomputeDerived()
}

// Viewer is a UI collaborator refreshed once after every restoration
// pass.
type Viewer interface {
	Refresh()
}
