// Package manager orchestrates the save/load pipeline: gather →
// validate → compress → quota-check → persist, and read → decompress
// (+recover) → validate → migrate → restore.
//
// Every public operation returns errors as values carrying a
// machine-readable code; nothing panics across this boundary. The
// manager runs inside a real-time loop that must not halt on a storage
// hiccup.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/lmoreau/emberhollow/internal/platform/errors"
	"github.com/lmoreau/emberhollow/internal/save/document"
	"github.com/lmoreau/emberhollow/internal/save/restore"
	"github.com/lmoreau/emberhollow/internal/save/storage"
)

// DefaultManualSlots is the number of manual save slots when the config
// leaves it zero. Slot 0 is always the reserved autosave slot.
const DefaultManualSlots = 3

// DefaultMaxSaveBytes caps one compressed save blob.
const DefaultMaxSaveBytes = 4 << 20

// DefaultAutosaveInterval paces the autosave ticker.
const DefaultAutosaveInterval = 5 * time.Minute

var tracer = otel.Tracer("emberhollow/save/manager")

// Config wires a Manager's collaborators and limits.
type Config struct {
	Store       storage.SlotStore
	Restoration *restore.Restoration

	// ManualSlots is N in the manual slot range 1..N.
	ManualSlots int
	// MaxSaveBytes rejects compressed blobs above this size.
	MaxSaveBytes int64
	// AutosaveInterval paces StartAutosave.
	AutosaveInterval time.Duration

	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time
}

// Manager owns slot persistence, the autosave timer, the save gate, and
// the in-memory metadata index.
type Manager struct {
	store       storage.SlotStore
	restoration *restore.Restoration
	events      *Events
	clock       func() time.Time

	manualSlots      int
	maxSaveBytes     int64
	autosaveInterval time.Duration

	mu           sync.Mutex
	isSaving     bool
	isLoading    bool
	blockReasons map[string]bool
	index        map[int]document.SlotMetadata

	basePlaytime int64
	sessionStart time.Time
}

// New builds a Manager and loads the persisted slot-metadata index. The
// index is the sole source of truth for listings; it is never
// recomputed by scanning slot blobs.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Restoration == nil {
		return nil, fmt.Errorf("restoration is required")
	}
	if cfg.ManualSlots == 0 {
		cfg.ManualSlots = DefaultManualSlots
	}
	if cfg.ManualSlots < 1 {
		return nil, fmt.Errorf("manual slots must be positive")
	}
	if cfg.MaxSaveBytes == 0 {
		cfg.MaxSaveBytes = DefaultMaxSaveBytes
	}
	if cfg.AutosaveInterval == 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	m := &Manager{
		store:            cfg.Store,
		restoration:      cfg.Restoration,
		events:           newEvents(),
		clock:            cfg.Clock,
		manualSlots:      cfg.ManualSlots,
		maxSaveBytes:     cfg.MaxSaveBytes,
		autosaveInterval: cfg.AutosaveInterval,
		blockReasons:     map[string]bool{},
		index:            map[int]document.SlotMetadata{},
		sessionStart:     cfg.Clock().UTC(),
	}
	if err := m.loadIndex(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Events exposes the lifecycle buses for UI subscription.
func (m *Manager) Events() *Events {
	return m.events
}

// BlockSaving adds a reason to the save gate. Reasons form a set:
// combat and a cutscene may block independently and saving resumes only
// once every reason is cleared.
func (m *Manager) BlockSaving(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockReasons[reason] = true
}

// UnblockSaving removes one reason from the save gate. Removing an
// absent reason is harmless.
func (m *Manager) UnblockSaving(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blockReasons, reason)
}

// CanSave reports whether the save gate is open.
func (m *Manager) CanSave() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blockReasons) == 0
}

// BlockReasons returns the active gate reasons, sorted.
func (m *Manager) BlockReasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	reasons := make([]string, 0, len(m.blockReasons))
	for reason := range m.blockReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}

// SetThumbnail stores sidecar thumbnail bytes for a slot. Thumbnails
// are best-effort cache data: they are the first casualty of a quota
// reclaim and their loss never invalidates the save.
func (m *Manager) SetThumbnail(ctx context.Context, slot int, image []byte) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	if err := m.store.PutThumbnail(ctx, slot, image); err != nil {
		return fmt.Errorf("put thumbnail: %w", err)
	}
	return nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// checkSlot validates a slot id against the fixed range 0..ManualSlots.
func (m *Manager) checkSlot(slot int) error {
	if slot < 0 || slot > m.manualSlots {
		return apperrors.WithMetadata(apperrors.CodeInvalidSlot,
			fmt.Sprintf("slot %d is outside the range 0..%d", slot, m.manualSlots),
			map[string]string{"slot": fmt.Sprintf("%d", slot)})
	}
	return nil
}

// playtimeSeconds is the persisted lifetime playtime: the value carried
// over from the last load plus the elapsed session time.
func (m *Manager) playtimeSeconds(now time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	elapsed := int64(now.Sub(m.sessionStart).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return m.basePlaytime + elapsed
}

// resetPlaytime rebases the session clock after a successful load.
func (m *Manager) resetPlaytime(base int64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.basePlaytime = base
	m.sessionStart = now
}

func (m *Manager) loadIndex(ctx context.Context) error {
	payload, err := m.store.GetIndex(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load slot index: %w", err)
	}
	var entries []document.SlotMetadata
	if err := json.Unmarshal(payload, &entries); err != nil {
		// A broken index must not brick startup: listings rebuild as
		// slots are saved again.
		return nil
	}
	for _, entry := range entries {
		m.index[entry.SlotID] = entry
	}
	return nil
}

// persistIndex writes the in-memory index through to storage. Called
// only after a successful save or delete.
func (m *Manager) persistIndex(ctx context.Context) error {
	m.mu.Lock()
	entries := make([]document.SlotMetadata, 0, len(m.index))
	for _, entry := range m.index {
		entries = append(entries, entry)
	}
	m.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].SlotID < entries[j].SlotID })

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode slot index: %w", err)
	}
	if err := m.store.PutIndex(ctx, payload); err != nil {
		return fmt.Errorf("persist slot index: %w", err)
	}
	return nil
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}
