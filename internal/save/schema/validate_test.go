package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

func rawDocument(t *testing.T, doc *document.SaveDocument) map[string]any {
	t.Helper()
	raw, err := ToRaw(doc)
	if err != nil {
		t.Fatalf("to raw: %v", err)
	}
	return raw
}

func completeDocument(t *testing.T) *document.SaveDocument {
	t.Helper()
	doc := document.New(1, document.SlotTypeManual, time.Now())
	doc.ApplyDefaults()
	return doc
}

func TestValidateCompleteDocument(t *testing.T) {
	report := Validate(rawDocument(t, completeDocument(t)))
	if !report.Valid() {
		t.Fatalf("expected valid document, got errors %+v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", report.Warnings)
	}
}

func TestValidateDefaultCompleteness(t *testing.T) {
	// Each default section merged into an otherwise empty document must
	// pass structural validation.
	for _, key := range document.SectionKeys() {
		value, err := document.DefaultFor(key)
		if err != nil {
			t.Fatalf("default for %s: %v", key, err)
		}
		payload, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal default %s: %v", key, err)
		}
		var section any
		if err := json.Unmarshal(payload, &section); err != nil {
			t.Fatalf("unmarshal default %s: %v", key, err)
		}

		raw := rawDocument(t, completeDocument(t))
		raw[string(key)] = section
		if report := Validate(raw); !report.Valid() {
			t.Fatalf("default %s failed validation: %+v", key, report.Errors)
		}
	}
}

func TestValidateVersionTooNew(t *testing.T) {
	raw := rawDocument(t, completeDocument(t))
	raw["version"] = float64(document.CurrentVersion + 1)
	report := Validate(raw)
	if report.Valid() {
		t.Fatal("expected fatal error for future version")
	}
	if report.Errors[0].Code != IssueVersionTooNew {
		t.Fatalf("expected VERSION_TOO_NEW, got %s", report.Errors[0].Code)
	}
}

func TestValidateMissingVersionWarns(t *testing.T) {
	raw := rawDocument(t, completeDocument(t))
	delete(raw, "version")
	report := Validate(raw)
	if !report.Valid() {
		t.Fatalf("expected missing version to be a warning, got %+v", report.Errors)
	}
	if len(report.Warnings) == 0 || report.Warnings[0].Code != IssueVersionMissing {
		t.Fatalf("expected VERSION_MISSING warning, got %+v", report.Warnings)
	}
}

func TestValidateMissingPlayerIsFatal(t *testing.T) {
	raw := rawDocument(t, completeDocument(t))
	delete(raw, "player")
	report := Validate(raw)
	if report.Valid() {
		t.Fatal("expected fatal error for missing player section")
	}
}

func TestValidateMissingDefaultableSectionWarns(t *testing.T) {
	raw := rawDocument(t, completeDocument(t))
	delete(raw, "crafting")
	delete(raw, "shop")
	report := Validate(raw)
	if !report.Valid() {
		t.Fatalf("expected warnings only, got %+v", report.Errors)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", report.Warnings)
	}
}

func TestValidateMalformedScalars(t *testing.T) {
	cases := map[string]func(player map[string]any){
		"level below one":      func(p map[string]any) { p["level"] = float64(0) },
		"level not a number":   func(p map[string]any) { p["level"] = "five" },
		"negative health":      func(p map[string]any) { p["health"] = float64(-10) },
		"position not numeric": func(p map[string]any) { p["position"] = map[string]any{"x": "far", "y": float64(0)} },
	}
	for name, mutate := range cases {
		raw := rawDocument(t, completeDocument(t))
		mutate(raw["player"].(map[string]any))
		if report := Validate(raw); report.Valid() {
			t.Fatalf("%s: expected fatal error", name)
		}
	}
}

func TestValidateSuspiciousTypeWarns(t *testing.T) {
	raw := rawDocument(t, completeDocument(t))
	raw["player"].(map[string]any)["name"] = float64(9)
	report := Validate(raw)
	if !report.Valid() {
		t.Fatalf("expected warning only, got %+v", report.Errors)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected a warning for non-string name")
	}
}
