package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Delta is a partial save document holding only the sections whose
// serialized form changed relative to a base document. It exists for
// future low-bandwidth transports and is not wired into the local
// save/load path.
type Delta struct {
	Delta           bool                       `json:"__delta"`
	Version         int                        `json:"version"`
	BaseSavedAt     time.Time                  `json:"baseSavedAt"`
	SavedAt         time.Time                  `json:"savedAt"`
	PlaytimeSeconds int64                      `json:"playtimeSeconds"`
	Sections        map[string]json.RawMessage `json:"sections"`
}

// CreateDelta diffs next against base section by section. Sections whose
// serialized bytes are identical are omitted.
func CreateDelta(base, next *document.SaveDocument) (*Delta, error) {
	if base == nil || next == nil {
		return nil, fmt.Errorf("base and next documents are required")
	}

	delta := &Delta{
		Delta:           true,
		Version:         next.Version,
		BaseSavedAt:     base.SavedAt,
		SavedAt:         next.SavedAt,
		PlaytimeSeconds: next.PlaytimeSeconds,
		Sections:        map[string]json.RawMessage{},
	}

	for _, key := range document.SectionKeys() {
		baseBytes, err := marshalSection(base.Section(key))
		if err != nil {
			return nil, fmt.Errorf("encode base section %s: %w", key, err)
		}
		nextBytes, err := marshalSection(next.Section(key))
		if err != nil {
			return nil, fmt.Errorf("encode next section %s: %w", key, err)
		}
		if bytes.Equal(baseBytes, nextBytes) {
			continue
		}
		delta.Sections[string(key)] = nextBytes
	}

	return delta, nil
}

// ApplyDelta overlays a delta onto a base document, returning a new
// document. Sections absent from the delta are copied from the base
// unchanged, so applying an empty delta reproduces the base.
func ApplyDelta(base *document.SaveDocument, delta *Delta) (*document.SaveDocument, error) {
	if base == nil {
		return nil, fmt.Errorf("base document is required")
	}
	if delta == nil {
		return nil, fmt.Errorf("delta is required")
	}

	raw, err := ToRaw(base)
	if err != nil {
		return nil, err
	}
	for key, payload := range delta.Sections {
		var section any
		if err := json.Unmarshal(payload, &section); err != nil {
			return nil, fmt.Errorf("decode delta section %s: %w", key, err)
		}
		raw[key] = section
	}
	raw["version"] = float64(delta.Version)
	raw["savedAt"] = delta.SavedAt.Format(time.RFC3339Nano)
	raw["playtimeSeconds"] = float64(delta.PlaytimeSeconds)

	return Decode(raw)
}

func marshalSection(section any) ([]byte, error) {
	if section == nil {
		return []byte("null"), nil
	}
	return json.Marshal(section)
}
