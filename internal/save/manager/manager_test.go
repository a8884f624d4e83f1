package manager

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lmoreau/emberhollow/internal/game"
	apperrors "github.com/lmoreau/emberhollow/internal/platform/errors"
	"github.com/lmoreau/emberhollow/internal/save/document"
	"github.com/lmoreau/emberhollow/internal/save/restore"
	"github.com/lmoreau/emberhollow/internal/save/storage"
	"github.com/lmoreau/emberhollow/internal/save/storage/memory"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

type testEngine struct {
	manager *Manager
	systems *game.Systems
	store   *memory.Store
	clock   *testClock
}

func newTestEngine(t *testing.T, cfg Config) *testEngine {
	t.Helper()

	engine := &testEngine{clock: newTestClock()}
	if cfg.Store == nil {
		engine.store = memory.NewStore(0)
		cfg.Store = engine.store
	} else if store, ok := cfg.Store.(*memory.Store); ok {
		engine.store = store
	}
	if cfg.Restoration == nil {
		engine.systems = game.NewSystems()
		restoration := restore.New()
		for _, sys := range engine.systems.All() {
			if err := restoration.Register(sys); err != nil {
				t.Fatalf("register %s: %v", sys.Key(), err)
			}
		}
		cfg.Restoration = restoration
	}
	if cfg.Clock == nil {
		cfg.Clock = engine.clock.Now
	}

	manager, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	engine.manager = manager
	return engine
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	engine.systems.Player.Level = 5
	engine.systems.Player.Health = 80

	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Wreck the live state so the load has to do the work.
	engine.systems.Player.Level = 1
	engine.systems.Player.Health = 100

	doc, warnings, err := engine.manager.Load(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if doc.Version != document.CurrentVersion {
		t.Fatalf("expected version %d, got %d", document.CurrentVersion, doc.Version)
	}
	if engine.systems.Player.Level != 5 {
		t.Fatalf("expected restored level 5, got %d", engine.systems.Player.Level)
	}
	if engine.systems.Player.Health != 80 {
		t.Fatalf("expected restored health 80, got %d", engine.systems.Player.Health)
	}

	slots := engine.manager.ListSlots()
	if slots[1].Empty {
		t.Fatal("expected slot 1 to be occupied")
	}
	if slots[1].Metadata.Level != 5 {
		t.Fatalf("expected metadata level 5, got %d", slots[1].Metadata.Level)
	}
}

func TestLoadCorruptBlob(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	// Neither a gzip stream nor valid JSON.
	if err := engine.store.PutSlot(ctx, 2, []byte("\x1f\x8b\x08ruined blob")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	_, _, err := engine.manager.Load(ctx, 2)
	if !apperrors.IsCode(err, apperrors.CodeCorruptSave) {
		t.Fatalf("expected CORRUPT_SAVE, got %v", err)
	}
}

type blockingSystem struct {
	key      document.SectionKey
	started  chan struct{}
	release  chan struct{}
	blockOn  string
	restored bool
}

func (b *blockingSystem) Key() document.SectionKey { return b.key }

func (b *blockingSystem) Snapshot(doc *document.SaveDocument) error {
	if b.blockOn == "snapshot" {
		close(b.started)
		<-b.release
	}
	return nil
}

func (b *blockingSystem) Restore(doc *document.SaveDocument) error {
	b.restored = true
	if b.blockOn == "restore" {
		close(b.started)
		<-b.release
	}
	return nil
}

func TestConcurrentSaveRejected(t *testing.T) {
	ctx := context.Background()

	blocking := &blockingSystem{
		key:     document.SectionWorld,
		started: make(chan struct{}),
		release: make(chan struct{}),
		blockOn: "snapshot",
	}
	restoration := restore.New()
	if err := restoration.Register(blocking); err != nil {
		t.Fatalf("register: %v", err)
	}
	engine := newTestEngine(t, Config{Restoration: restoration})

	done := make(chan error, 1)
	go func() {
		done <- engine.manager.Save(ctx, 1, Options{})
	}()

	<-blocking.started
	err := engine.manager.Save(ctx, 2, Options{})
	if !apperrors.IsCode(err, apperrors.CodeConcurrentSave) {
		t.Fatalf("expected CONCURRENT_SAVE, got %v", err)
	}
	close(blocking.release)

	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}
}

func TestConcurrentLoadRejected(t *testing.T) {
	ctx := context.Background()

	blocking := &blockingSystem{
		key:     document.SectionWorld,
		started: make(chan struct{}),
		release: make(chan struct{}),
		blockOn: "restore",
	}
	restoration := restore.New()
	if err := restoration.Register(blocking); err != nil {
		t.Fatalf("register: %v", err)
	}
	engine := newTestEngine(t, Config{Restoration: restoration})

	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := engine.manager.Load(ctx, 1)
		done <- err
	}()

	<-blocking.started
	_, _, err := engine.manager.Load(ctx, 1)
	if !apperrors.IsCode(err, apperrors.CodeConcurrentLoad) {
		t.Fatalf("expected CONCURRENT_LOAD, got %v", err)
	}
	close(blocking.release)

	if err := <-done; err != nil {
		t.Fatalf("first load: %v", err)
	}
}

func TestImportVersionZeroDocument(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	data := []byte(`{"player":{"name":"Rook","level":7,"hp":60,"maxHp":90}}`)
	if err := engine.manager.Import(ctx, 2, data); err != nil {
		t.Fatalf("import: %v", err)
	}

	doc, _, err := engine.manager.Load(ctx, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Version != document.CurrentVersion {
		t.Fatalf("expected version %d after import, got %d", document.CurrentVersion, doc.Version)
	}
	if doc.Player.Health != 60 || doc.Player.MaxHealth != 90 {
		t.Fatalf("expected migrated health 60/90, got %d/%d", doc.Player.Health, doc.Player.MaxHealth)
	}
	if engine.systems.Player.Level != 7 {
		t.Fatalf("expected restored level 7, got %d", engine.systems.Player.Level)
	}
	if doc.World.Day != 1 || doc.World.Season != "spring" {
		t.Fatalf("expected defaulted world section, got %+v", doc.World)
	}
	if doc.Shop.PriceModifier == 0 {
		t.Fatal("expected defaulted shop section")
	}
}

func TestSaveGate(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	engine.manager.BlockSaving("combat")
	err := engine.manager.Save(ctx, 1, Options{})
	if !apperrors.IsCode(err, apperrors.CodeSaveBlocked) {
		t.Fatalf("expected SAVE_BLOCKED, got %v", err)
	}
	if err := engine.manager.Save(ctx, 1, Options{Force: true}); err != nil {
		t.Fatalf("forced save: %v", err)
	}

	// Reasons form a set: one caller unblocking must not reopen the
	// gate while another reason is still active.
	engine.manager.BlockSaving("cutscene")
	engine.manager.UnblockSaving("cutscene")
	if engine.manager.CanSave() {
		t.Fatal("expected gate closed while combat is still blocking")
	}
	engine.manager.UnblockSaving("combat")
	if !engine.manager.CanSave() {
		t.Fatal("expected gate open after all reasons cleared")
	}
}

func TestQuotaReclaimAndRetry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4096)
	engine := newTestEngine(t, Config{Store: store})

	if err := store.PutThumbnail(ctx, 1, make([]byte, 4090)); err != nil {
		t.Fatalf("seed thumbnail: %v", err)
	}

	// The first write hits the budget; reclaiming the thumbnail makes
	// room and the retry succeeds.
	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save after reclaim: %v", err)
	}
	if _, _, err := engine.manager.Load(ctx, 1); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestQuotaPersistentFailureKeepsPriorContent(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	engine.systems.Player.Level = 5
	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	engine.systems.Player.Level = 9
	engine.store.FailNextPuts(2, storage.ErrQuotaExceeded)
	err := engine.manager.Save(ctx, 1, Options{})
	if !apperrors.IsCode(err, apperrors.CodeStorageFull) {
		t.Fatalf("expected STORAGE_FULL, got %v", err)
	}

	doc, _, err := engine.manager.Load(ctx, 1)
	if err != nil {
		t.Fatalf("load prior content: %v", err)
	}
	if doc.Player.Level != 5 {
		t.Fatalf("expected prior save intact with level 5, got %d", doc.Player.Level)
	}
}

func TestLoadEmptySlot(t *testing.T) {
	engine := newTestEngine(t, Config{})
	_, _, err := engine.manager.Load(context.Background(), 3)
	if !apperrors.IsCode(err, apperrors.CodeEmptySlot) {
		t.Fatalf("expected EMPTY_SLOT, got %v", err)
	}
}

func TestLoadUnsupportedVersion(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	err := engine.manager.Import(ctx, 1, []byte(`{"version":99,"player":{"level":2}}`))
	if !apperrors.IsCode(err, apperrors.CodeUnsupportedVersion) {
		t.Fatalf("expected UNSUPPORTED_VERSION, got %v", err)
	}
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	cases := []struct {
		name string
		data string
	}{
		{"not json", `level 5 warrior`},
		{"missing player", `{"version":3,"world":{"day":2}}`},
		{"negative health", `{"version":3,"player":{"level":3,"health":-10}}`},
	}
	for _, tc := range cases {
		err := engine.manager.Import(ctx, 1, []byte(tc.data))
		if !apperrors.IsCode(err, apperrors.CodeImportRejected) {
			t.Fatalf("%s: expected IMPORT_REJECTED, got %v", tc.name, err)
		}
	}
	if len(engine.manager.ListSlots()) == 0 || !engine.manager.ListSlots()[1].Empty {
		t.Fatal("expected slot 1 untouched after rejected imports")
	}
}

func TestImportIntoAutosaveSlotRejected(t *testing.T) {
	engine := newTestEngine(t, Config{})
	err := engine.manager.Import(context.Background(), document.AutosaveSlot, []byte(`{"player":{"level":1}}`))
	if !apperrors.IsCode(err, apperrors.CodeInvalidSlot) {
		t.Fatalf("expected INVALID_SLOT, got %v", err)
	}
}

func TestExportRoundTrips(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	engine.systems.Player.Level = 12
	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	exported, err := engine.manager.Export(ctx, 1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(exported), "\n  \"version\"") {
		t.Fatal("expected pretty-printed export")
	}

	if err := engine.manager.Import(ctx, 2, exported); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	doc, _, err := engine.manager.Load(ctx, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Player.Level != 12 {
		t.Fatalf("expected level 12 after export round trip, got %d", doc.Player.Level)
	}
}

func TestSaveTooLarge(t *testing.T) {
	engine := newTestEngine(t, Config{MaxSaveBytes: 16})
	err := engine.manager.Save(context.Background(), 1, Options{})
	if !apperrors.IsCode(err, apperrors.CodeSaveTooLarge) {
		t.Fatalf("expected SAVE_TOO_LARGE, got %v", err)
	}
}

func TestSlotTypeRules(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	err := engine.manager.Save(ctx, document.AutosaveSlot, Options{})
	if !apperrors.IsCode(err, apperrors.CodeInvalidSlot) {
		t.Fatalf("expected INVALID_SLOT for manual save to slot 0, got %v", err)
	}
	err = engine.manager.Save(ctx, 1, Options{IsAutosave: true})
	if !apperrors.IsCode(err, apperrors.CodeInvalidSlot) {
		t.Fatalf("expected INVALID_SLOT for autosave to slot 1, got %v", err)
	}
	err = engine.manager.Save(ctx, 99, Options{})
	if !apperrors.IsCode(err, apperrors.CodeInvalidSlot) {
		t.Fatalf("expected INVALID_SLOT for out-of-range slot, got %v", err)
	}
}

func TestListSlotsIncludesEmptyAutosaveFirst(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{ManualSlots: 2})

	slots := engine.manager.ListSlots()
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[0].SlotID != document.AutosaveSlot {
		t.Fatalf("expected autosave slot first, got %d", slots[0].SlotID)
	}
	for _, slot := range slots {
		if !slot.Empty {
			t.Fatalf("expected slot %d empty", slot.SlotID)
		}
	}

	if err := engine.manager.Save(ctx, 2, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	slots = engine.manager.ListSlots()
	if slots[2].Empty {
		t.Fatal("expected slot 2 occupied after save")
	}
	if slots[2].Metadata.SlotType != document.SlotTypeManual {
		t.Fatalf("expected manual slot type, got %s", slots[2].Metadata.SlotType)
	}
}

func TestMostRecent(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	if _, err := engine.manager.MostRecent(); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND with no saves, got %v", err)
	}

	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save slot 1: %v", err)
	}
	engine.clock.Advance(time.Minute)
	if err := engine.manager.Save(ctx, 2, Options{}); err != nil {
		t.Fatalf("save slot 2: %v", err)
	}

	newest, err := engine.manager.MostRecent()
	if err != nil {
		t.Fatalf("most recent: %v", err)
	}
	if newest.SlotID != 2 {
		t.Fatalf("expected slot 2 newest, got %d", newest.SlotID)
	}
}

func TestDeleteClearsSlotAndIndex(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := engine.manager.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !engine.manager.ListSlots()[1].Empty {
		t.Fatal("expected slot 1 empty after delete")
	}
	if _, _, err := engine.manager.Load(ctx, 1); !apperrors.IsCode(err, apperrors.CodeEmptySlot) {
		t.Fatalf("expected EMPTY_SLOT after delete, got %v", err)
	}

	// Deleting an empty slot is not an error.
	if err := engine.manager.Delete(ctx, 1); err != nil {
		t.Fatalf("delete empty slot: %v", err)
	}
}

func TestIndexSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)
	engine := newTestEngine(t, Config{Store: store})

	engine.systems.Player.Level = 4
	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	restoration := restore.New()
	for _, sys := range game.NewSystems().All() {
		if err := restoration.Register(sys); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	reopened, err := New(ctx, Config{Store: store, Restoration: restoration})
	if err != nil {
		t.Fatalf("reopen manager: %v", err)
	}
	slots := reopened.ListSlots()
	if slots[1].Empty || slots[1].Metadata.Level != 4 {
		t.Fatalf("expected persisted index entry for slot 1, got %+v", slots[1])
	}
}

func TestPlaytimeAccumulates(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	engine.clock.Advance(90 * time.Second)
	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	slots := engine.manager.ListSlots()
	if slots[1].Metadata.PlaytimeSeconds != 90 {
		t.Fatalf("expected 90 playtime seconds, got %d", slots[1].Metadata.PlaytimeSeconds)
	}

	// Loading rebases the session clock on the stored playtime.
	if _, _, err := engine.manager.Load(ctx, 1); err != nil {
		t.Fatalf("load: %v", err)
	}
	engine.clock.Advance(30 * time.Second)
	if err := engine.manager.Save(ctx, 2, Options{}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if got := engine.manager.ListSlots()[2].Metadata.PlaytimeSeconds; got != 120 {
		t.Fatalf("expected 120 playtime seconds, got %d", got)
	}
}

func TestSaveEvents(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	var started, completed, failed int
	engine.manager.Events().SaveStarted.Subscribe(func(SaveEvent) { started++ })
	engine.manager.Events().SaveCompleted.Subscribe(func(SaveEvent) { completed++ })
	engine.manager.Events().SaveFailed.Subscribe(func(e SaveEvent) {
		failed++
		if e.Err == nil {
			t.Error("expected error on SaveFailed event")
		}
	})

	if err := engine.manager.Save(ctx, 1, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	engine.manager.BlockSaving("combat")
	if err := engine.manager.Save(ctx, 1, Options{}); err == nil {
		t.Fatal("expected blocked save to fail")
	}

	if started != 1 || completed != 1 || failed != 1 {
		t.Fatalf("expected 1/1/1 events, got %d/%d/%d", started, completed, failed)
	}
}

func TestAutosaveTick(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, Config{})

	var triggered []AutosaveEvent
	engine.manager.Events().AutosaveTriggered.Subscribe(func(e AutosaveEvent) {
		triggered = append(triggered, e)
	})

	engine.manager.BlockSaving("combat")
	engine.manager.autosaveTick(ctx)
	if len(triggered) != 1 || !triggered[0].Skipped {
		t.Fatalf("expected one skipped trigger, got %+v", triggered)
	}
	if !engine.manager.ListSlots()[0].Empty {
		t.Fatal("expected no autosave while gate is closed")
	}

	engine.manager.UnblockSaving("combat")
	engine.manager.autosaveTick(ctx)
	if len(triggered) != 2 || triggered[1].Skipped {
		t.Fatalf("expected second trigger unskipped, got %+v", triggered)
	}
	slot := engine.manager.ListSlots()[0]
	if slot.Empty || slot.Metadata.SlotType != document.SlotTypeAutosave {
		t.Fatalf("expected autosave in slot 0, got %+v", slot)
	}
}
