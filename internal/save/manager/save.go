package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/lmoreau/emberhollow/internal/platform/errors"
	"github.com/lmoreau/emberhollow/internal/platform/id"
	"github.com/lmoreau/emberhollow/internal/save/codec"
	"github.com/lmoreau/emberhollow/internal/save/document"
	"github.com/lmoreau/emberhollow/internal/save/schema"
	"github.com/lmoreau/emberhollow/internal/save/storage"
)

// Options controls one Save call.
type Options struct {
	// IsAutosave marks a timer-driven save targeting the autosave slot.
	IsAutosave bool
	// Force bypasses the save gate. Used by system-critical saves such
	// as save-and-quit.
	Force bool
}

// Save gathers a fresh document from the registered subsystems,
// validates it, compresses it, and writes it through the quota-aware
// store. On success the slot-metadata index is rewritten.
//
// A capacity failure triggers exactly one thumbnail reclaim and one
// retry; persistent failure leaves the slot's prior content intact.
func (m *Manager) Save(ctx context.Context, slot int, opts Options) error {
	ctx, span := tracer.Start(ctx, "manager.save")
	defer span.End()
	span.SetAttributes(
		attribute.Int("save.slot", slot),
		attribute.Bool("save.autosave", opts.IsAutosave),
	)

	err := m.save(ctx, slot, opts)
	recordError(span, err)
	if err != nil {
		m.events.SaveFailed.Publish(SaveEvent{SlotID: slot, IsAutosave: opts.IsAutosave, Err: err})
		return err
	}
	m.events.SaveCompleted.Publish(SaveEvent{SlotID: slot, IsAutosave: opts.IsAutosave})
	return nil
}

func (m *Manager) save(ctx context.Context, slot int, opts Options) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	if err := m.checkSlotType(slot, opts); err != nil {
		return err
	}
	if !opts.Force {
		if reasons := m.BlockReasons(); len(reasons) > 0 {
			return apperrors.WithMetadata(apperrors.CodeSaveBlocked,
				fmt.Sprintf("saving is blocked: %s", strings.Join(reasons, ", ")),
				map[string]string{"reasons": strings.Join(reasons, ",")})
		}
	}
	if err := m.beginSave(); err != nil {
		return err
	}
	defer m.endSave()

	m.events.SaveStarted.Publish(SaveEvent{SlotID: slot, IsAutosave: opts.IsAutosave})

	now := m.clock().UTC()
	doc, err := m.gather(slot, opts, now)
	if err != nil {
		return err
	}

	raw, err := schema.ToRaw(doc)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStructuralInvalid, "project document", err)
	}
	report := schema.Validate(raw)
	if !report.Valid() {
		return apperrors.WithMetadata(apperrors.CodeStructuralInvalid,
			fmt.Sprintf("gathered document failed validation: %s", report.Errors[0].Message),
			map[string]string{"issues": fmt.Sprintf("%d", len(report.Errors))})
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStructuralInvalid, "serialize document", err)
	}
	blob, err := codec.Encode(payload)
	if err != nil {
		return fmt.Errorf("compress document: %w", err)
	}
	if int64(len(blob)) > m.maxSaveBytes {
		return apperrors.WithMetadata(apperrors.CodeSaveTooLarge,
			fmt.Sprintf("compressed save is %d bytes, limit is %d", len(blob), m.maxSaveBytes),
			map[string]string{
				"size":  fmt.Sprintf("%d", len(blob)),
				"limit": fmt.Sprintf("%d", m.maxSaveBytes),
			})
	}

	if err := m.writeSlot(ctx, slot, blob); err != nil {
		return err
	}

	m.mu.Lock()
	m.index[slot] = doc.Metadata()
	m.mu.Unlock()
	if err := m.persistIndex(ctx); err != nil {
		return err
	}
	return nil
}

// gather builds the document for one save from live subsystem state.
func (m *Manager) gather(slot int, opts Options, now time.Time) (*document.SaveDocument, error) {
	slotType := document.SlotTypeManual
	if opts.IsAutosave {
		slotType = document.SlotTypeAutosave
	}

	doc := document.New(slot, slotType, now)
	saveID, err := id.NewID()
	if err != nil {
		return nil, fmt.Errorf("mint save id: %w", err)
	}
	doc.SaveID = saveID
	doc.PlaytimeSeconds = m.playtimeSeconds(now)

	// CreatedAt tracks the slot's first save; overwrites keep it.
	m.mu.Lock()
	if prior, ok := m.index[slot]; ok {
		doc.CreatedAt = prior.CreatedAt
	}
	m.mu.Unlock()

	if err := m.restoration.Gather(doc); err != nil {
		return nil, fmt.Errorf("gather state: %w", err)
	}
	doc.ApplyDefaults()
	return doc, nil
}

// writeSlot persists a blob with the reclaim-and-retry quota policy.
func (m *Manager) writeSlot(ctx context.Context, slot int, blob []byte) error {
	err := m.store.PutSlot(ctx, slot, blob)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}

	// One best-effort reclaim pass, one retry.
	if _, reclaimErr := m.store.ReclaimThumbnails(ctx); reclaimErr != nil {
		return apperrors.Wrap(apperrors.CodeStorageFull, "storage quota exceeded and reclaim failed", reclaimErr)
	}
	if err := m.store.PutSlot(ctx, slot, blob); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			return apperrors.WithMetadata(apperrors.CodeStorageFull,
				"storage quota exceeded after thumbnail reclaim",
				map[string]string{"slot": fmt.Sprintf("%d", slot)})
		}
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	return nil
}

// checkSlotType keeps the reserved autosave slot and the manual range
// from crossing: autosaves write slot 0, manual saves write 1..N.
func (m *Manager) checkSlotType(slot int, opts Options) error {
	if opts.IsAutosave && slot != document.AutosaveSlot {
		return apperrors.New(apperrors.CodeInvalidSlot,
			fmt.Sprintf("autosave must target slot %d", document.AutosaveSlot))
	}
	if !opts.IsAutosave && slot == document.AutosaveSlot {
		return apperrors.New(apperrors.CodeInvalidSlot, "slot 0 is reserved for autosave")
	}
	return nil
}

func (m *Manager) beginSave() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isSaving {
		return apperrors.New(apperrors.CodeConcurrentSave, "a save is already in progress")
	}
	m.isSaving = true
	return nil
}

func (m *Manager) endSave() {
	m.mu.Lock()
	m.isSaving = false
	m.mu.Unlock()
}
