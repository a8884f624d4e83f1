package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/lmoreau/emberhollow/internal/platform/errors"
	"github.com/lmoreau/emberhollow/internal/platform/id"
	"github.com/lmoreau/emberhollow/internal/save/codec"
	"github.com/lmoreau/emberhollow/internal/save/document"
	"github.com/lmoreau/emberhollow/internal/save/schema"
	"github.com/lmoreau/emberhollow/internal/save/storage"
)

// Load reads a slot, decompresses it (with one recovery attempt),
// validates and migrates it, then hands it to the restoration layer.
// It returns the restored document and any restoration warnings.
//
// A load succeeds with warnings; it only fails on a structural error,
// corruption, or an unsupported future version, all caught before any
// live state changes.
func (m *Manager) Load(ctx context.Context, slot int) (*document.SaveDocument, []string, error) {
	ctx, span := tracer.Start(ctx, "manager.load")
	defer span.End()
	span.SetAttributes(attribute.Int("save.slot", slot))

	doc, warnings, err := m.load(ctx, slot)
	recordError(span, err)
	if err != nil {
		m.events.LoadFailed.Publish(LoadEvent{SlotID: slot, Err: err})
		return nil, nil, err
	}
	m.events.LoadCompleted.Publish(LoadEvent{SlotID: slot, Warnings: warnings})
	return doc, warnings, nil
}

func (m *Manager) load(ctx context.Context, slot int) (*document.SaveDocument, []string, error) {
	if err := m.checkSlot(slot); err != nil {
		return nil, nil, err
	}
	if err := m.beginLoad(); err != nil {
		return nil, nil, err
	}
	defer m.endLoad()

	m.events.LoadStarted.Publish(LoadEvent{SlotID: slot})

	blob, err := m.store.GetSlot(ctx, slot)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apperrors.WithMetadata(apperrors.CodeEmptySlot,
				fmt.Sprintf("slot %d is empty", slot),
				map[string]string{"slot": fmt.Sprintf("%d", slot)})
		}
		return nil, nil, fmt.Errorf("read slot %d: %w", slot, err)
	}

	doc, err := m.decodeStored(slot, blob)
	if err != nil {
		return nil, nil, err
	}

	warnings, err := m.restoration.RestoreGameState(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("restore state: %w", err)
	}

	m.resetPlaytime(doc.PlaytimeSeconds, m.clock().UTC())
	return doc, warnings, nil
}

// decodeStored runs the stored-blob half of the pipeline: decompress
// (+recover), parse, validate, migrate, typed decode with defaults.
func (m *Manager) decodeStored(slot int, blob []byte) (*document.SaveDocument, error) {
	payload, recovered, err := codec.Decode(blob)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCorruptSave,
			fmt.Sprintf("slot %d blob is unreadable", slot), err)
	}
	if recovered {
		log.Printf("slot %d recovered via plain-JSON decode", slot)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCorruptSave,
			fmt.Sprintf("slot %d payload is not a JSON document", slot), err)
	}

	if err := checkReport(schema.Validate(raw)); err != nil {
		return nil, err
	}
	migrated, err := schema.Migrate(raw)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Decode(migrated)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Export returns the slot's document as pretty-printed JSON, suitable
// for a user-downloadable file. Exports are written at the current
// schema version so they always re-import cleanly.
func (m *Manager) Export(ctx context.Context, slot int) ([]byte, error) {
	if err := m.checkSlot(slot); err != nil {
		return nil, err
	}

	blob, err := m.store.GetSlot(ctx, slot)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeEmptySlot, fmt.Sprintf("slot %d is empty", slot))
		}
		return nil, fmt.Errorf("read slot %d: %w", slot, err)
	}

	doc, err := m.decodeStored(slot, blob)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		return nil, fmt.Errorf("format export: %w", err)
	}
	pretty.WriteByte('\n')
	return pretty.Bytes(), nil
}

// Import accepts an exported document and writes it into a manual slot
// after the same validate+migrate pipeline as a normal load. Old
// exports migrate forward on the way in; nothing is written on
// rejection.
func (m *Manager) Import(ctx context.Context, slot int, data []byte) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	if slot == document.AutosaveSlot {
		return apperrors.New(apperrors.CodeInvalidSlot, "cannot import into the autosave slot")
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.Wrap(apperrors.CodeImportRejected, "import is not a JSON document", err)
	}

	if err := checkReport(schema.Validate(raw)); err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnsupportedVersion) {
			return err
		}
		return apperrors.Wrap(apperrors.CodeImportRejected, "import failed validation", err)
	}
	migrated, err := schema.Migrate(raw)
	if err != nil {
		return err
	}
	doc, err := schema.Decode(migrated)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeImportRejected, "import failed decoding", err)
	}

	now := m.clock().UTC()
	doc.SlotID = slot
	doc.SlotType = document.SlotTypeManual
	doc.SavedAt = now
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.SaveID == "" {
		saveID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("mint save id: %w", err)
		}
		doc.SaveID = saveID
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}
	blob, err := codec.Encode(payload)
	if err != nil {
		return fmt.Errorf("compress document: %w", err)
	}
	if int64(len(blob)) > m.maxSaveBytes {
		return apperrors.New(apperrors.CodeSaveTooLarge,
			fmt.Sprintf("imported save is %d bytes compressed, limit is %d", len(blob), m.maxSaveBytes))
	}
	if err := m.writeSlot(ctx, slot, blob); err != nil {
		return err
	}

	m.mu.Lock()
	m.index[slot] = doc.Metadata()
	m.mu.Unlock()
	return m.persistIndex(ctx)
}

// checkReport maps a validation report's fatal findings onto domain
// error codes. A version-too-new finding keeps its dedicated code so
// callers can tell "from the future" apart from "malformed".
func checkReport(report schema.ValidationReport) error {
	if report.Valid() {
		return nil
	}
	for _, issue := range report.Errors {
		if issue.Code == schema.IssueVersionTooNew {
			return apperrors.New(apperrors.CodeUnsupportedVersion, issue.Message)
		}
	}
	return apperrors.WithMetadata(apperrors.CodeStructuralInvalid,
		report.Errors[0].Message,
		map[string]string{"issues": fmt.Sprintf("%d", len(report.Errors))})
}

func (m *Manager) beginLoad() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isLoading {
		return apperrors.New(apperrors.CodeConcurrentLoad, "a load is already in progress")
	}
	m.isLoading = true
	return nil
}

func (m *Manager) endLoad() {
	m.mu.Lock()
	m.isLoading = false
	m.mu.Unlock()
}
