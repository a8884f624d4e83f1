package restore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lmoreau/emberhollow/internal/game"
	"github.com/lmoreau/emberhollow/internal/save/document"
	"github.com/lmoreau/emberhollow/internal/save/subsystem"
)

type stubSystem struct {
	key      document.SectionKey
	restore  func(*document.SaveDocument) error
	restored int
}

func (s *stubSystem) Key() document.SectionKey { return s.key }

func (s *stubSystem) Snapshot(doc *document.SaveDocument) error { return nil }

func (s *stubSystem) Restore(doc *document.SaveDocument) error {
	s.restored++
	if s.restore != nil {
		return s.restore(doc)
	}
	return nil
}

type stubViewer struct {
	refreshed int
	panics    bool
}

func (v *stubViewer) Refresh() {
	v.refreshed++
	if v.panics {
		panic("viewer is not ready")
	}
}

func fullDocument() *document.SaveDocument {
	doc := document.New(1, document.SlotTypeManual, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	doc.ApplyDefaults()
	return doc
}

func registerAll(t *testing.T, restoration *Restoration, systems []subsystem.Subsystem) {
	t.Helper()
	for _, sys := range systems {
		if err := restoration.Register(sys); err != nil {
			t.Fatalf("register %s: %v", sys.Key(), err)
		}
	}
}

func TestRestoreGameStateCleanDocument(t *testing.T) {
	restoration := New()
	registerAll(t, restoration, game.NewSystems().All())

	viewer := &stubViewer{}
	restoration.RegisterViewer(viewer)

	var completions []Completed
	restoration.OnLoaded(func(c Completed) {
		completions = append(completions, c)
	})

	warnings, err := restoration.RestoreGameState(fullDocument())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if got := restoration.Phase(); got != PhaseLoaded {
		t.Fatalf("expected phase %s, got %s", PhaseLoaded, got)
	}
	if viewer.refreshed != 1 {
		t.Fatalf("expected one viewer refresh, got %d", viewer.refreshed)
	}
	if len(completions) != 1 {
		t.Fatalf("expected one completion event, got %d", len(completions))
	}
	if completions[0].SlotID != 1 {
		t.Fatalf("expected slot 1 in completion event, got %d", completions[0].SlotID)
	}
}

func TestRestoreGameStateOrder(t *testing.T) {
	restoration := New()

	var order []document.SectionKey
	for _, key := range Order() {
		key := key
		err := restoration.Register(&stubSystem{
			key: key,
			restore: func(*document.SaveDocument) error {
				order = append(order, key)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("register %s: %v", key, err)
		}
	}

	if _, err := restoration.RestoreGameState(fullDocument()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	want := Order()
	if len(order) != len(want) {
		t.Fatalf("expected %d restores, got %d", len(want), len(order))
	}
	for i, key := range want {
		if order[i] != key {
			t.Fatalf("expected %s at position %d, got %s", key, i, order[i])
		}
	}
}

func TestRestoreGameStateIsolatesFailures(t *testing.T) {
	restoration := New()

	failing := &stubSystem{
		key: document.SectionQuest,
		restore: func(*document.SaveDocument) error {
			return errors.New("quest table is locked")
		},
	}
	panicking := &stubSystem{
		key: document.SectionCombat,
		restore: func(*document.SaveDocument) error {
			panic("combat log overflow")
		},
	}
	var healthy []*stubSystem
	for _, key := range Order() {
		if key == document.SectionQuest || key == document.SectionCombat {
			continue
		}
		healthy = append(healthy, &stubSystem{key: key})
	}
	for _, sys := range healthy {
		if err := restoration.Register(sys); err != nil {
			t.Fatalf("register %s: %v", sys.key, err)
		}
	}
	if err := restoration.Register(failing); err != nil {
		t.Fatalf("register failing: %v", err)
	}
	if err := restoration.Register(panicking); err != nil {
		t.Fatalf("register panicking: %v", err)
	}

	warnings, err := restoration.RestoreGameState(fullDocument())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	for _, sys := range healthy {
		if sys.restored != 1 {
			t.Fatalf("subsystem %s was not restored after earlier failure", sys.key)
		}
	}
	if got := restoration.Phase(); got != PhaseLoadedWithWarnings {
		t.Fatalf("expected phase %s, got %s", PhaseLoadedWithWarnings, got)
	}

	var sawQuest, sawCombat bool
	for _, warning := range warnings {
		if strings.Contains(warning, "quest") {
			sawQuest = true
		}
		if strings.Contains(warning, "combat") {
			sawCombat = true
		}
	}
	if !sawQuest || !sawCombat {
		t.Fatalf("expected quest and combat warnings, got %v", warnings)
	}
}

func TestRestoreGameStateMissingSubsystemWarns(t *testing.T) {
	restoration := New()
	for _, key := range Order() {
		if key == document.SectionShop {
			continue
		}
		if err := restoration.Register(&stubSystem{key: key}); err != nil {
			t.Fatalf("register %s: %v", key, err)
		}
	}

	warnings, err := restoration.RestoreGameState(fullDocument())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "shop") {
		t.Fatalf("expected one shop warning, got %v", warnings)
	}
}

func TestRestoreGameStatePostValidation(t *testing.T) {
	doc := fullDocument()
	doc.Equipment.Equipped = []document.EquipEntry{{Slot: "head", ItemID: "iron-helm"}}
	doc.Quest.Active = []document.QuestProgress{{
		QuestID:    "ember-road",
		Objectives: []document.ObjectiveProgress{{ObjectiveID: ""}},
	}}
	doc.Quest.Completed = []string{"ember-road"}
	doc.Crafting.Queue = []document.CraftJob{{RecipeID: "mystery-brew", RemainingSeconds: 4}}

	restoration := New()
	registerAll(t, restoration, game.NewSystems().All())

	warnings, err := restoration.RestoreGameState(doc)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	for _, want := range []string{"iron-helm", "ember-road", "orphaned objective", "mystery-brew"} {
		found := false
		for _, warning := range warnings {
			if strings.Contains(warning, want) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected a warning mentioning %q, got %v", want, warnings)
		}
	}
}

func TestRestoreGameStateNilDocument(t *testing.T) {
	restoration := New()
	if _, err := restoration.RestoreGameState(nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestRegisterRejectsDuplicatesAndUnknownKeys(t *testing.T) {
	restoration := New()
	if err := restoration.Register(&stubSystem{key: document.SectionWorld}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := restoration.Register(&stubSystem{key: document.SectionWorld}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := restoration.Register(&stubSystem{key: "weather"}); err == nil {
		t.Fatal("expected unknown section error")
	}
	if err := restoration.Register(nil); err == nil {
		t.Fatal("expected nil subsystem error")
	}
}

func TestViewerPanicDoesNotAbort(t *testing.T) {
	restoration := New()
	registerAll(t, restoration, game.NewSystems().All())

	first := &stubViewer{panics: true}
	second := &stubViewer{}
	restoration.RegisterViewer(first)
	restoration.RegisterViewer(second)

	if _, err := restoration.RestoreGameState(fullDocument()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if second.refreshed != 1 {
		t.Fatalf("expected second viewer refresh after first panicked, got %d", second.refreshed)
	}
}
