package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "github.com/lmoreau/emberhollow/internal/platform/errors"
	"github.com/lmoreau/emberhollow/internal/save/document"
)

// migrationStep transforms a raw document from one version to the next.
// Steps are pure and additive: they never delete user data, and applying
// a step to a document already past its target version is a no-op
// because Migrate only walks forward.
type migrationStep func(raw map[string]any)

// migrations is indexed by source version: migrations[n] lifts n → n+1.
var migrations = map[int]migrationStep{
	0: migrateV0toV1,
	1: migrateV1toV2,
	2: migrateV2toV3,
}

// Version reads the schema version of a raw document. Documents lacking
// a version field are treated as version 0.
func Version(raw map[string]any) int {
	version, ok := numberField(raw, "version")
	if !ok {
		return 0
	}
	return int(version)
}

// Migrate walks a raw document from its stored version to the current
// one, applying one step per version gap. It fails when the stored
// version is newer than supported or a step is missing from the chain.
func Migrate(raw map[string]any) (map[string]any, error) {
	if raw == nil {
		return nil, apperrors.New(apperrors.CodeStructuralInvalid, "document is empty")
	}

	version := Version(raw)
	if version > document.CurrentVersion {
		return nil, apperrors.WithMetadata(apperrors.CodeUnsupportedVersion,
			fmt.Sprintf("document version %d is newer than supported version %d", version, document.CurrentVersion),
			map[string]string{"version": fmt.Sprintf("%d", version)})
	}

	for version < document.CurrentVersion {
		step, ok := migrations[version]
		if !ok {
			return nil, apperrors.New(apperrors.CodeMigrationFailed,
				fmt.Sprintf("no migration step from version %d", version))
		}
		step(raw)
		version++
		raw["version"] = float64(version)
	}

	return raw, nil
}

// migrateV0toV1 renames the original hp fields and moves the bare
// top-level gold counter into the inventory section.
func migrateV0toV1(raw map[string]any) {
	if player, ok := raw["player"].(map[string]any); ok {
		renameField(player, "hp", "health")
		renameField(player, "maxHp", "maxHealth")
	}
	if gold, ok := numberField(raw, "gold"); ok {
		inventory, ok := raw["inventory"].(map[string]any)
		if !ok {
			inventory = map[string]any{}
			raw["inventory"] = inventory
		}
		if _, has := inventory["gold"]; !has {
			inventory["gold"] = gold
		}
		delete(raw, "gold")
	}
}

// migrateV1toV2 introduces faction reputation and converts the old
// minute-granularity playtime counter to seconds.
func migrateV1toV2(raw map[string]any) {
	if _, ok := raw["reputation"]; !ok {
		raw["reputation"] = map[string]any{"standings": []any{}}
	}
	if minutes, ok := numberField(raw, "playtimeMinutes"); ok {
		if _, has := raw["playtimeSeconds"]; !has {
			raw["playtimeSeconds"] = minutes * 60
		}
		delete(raw, "playtimeMinutes")
	}
}

// migrateV2toV3 introduces gathering node clocks and shop restock state.
func migrateV2toV3(raw map[string]any) {
	if _, ok := raw["gathering"]; !ok {
		raw["gathering"] = map[string]any{"nodes": []any{}}
	}
	if shop, ok := raw["shop"].(map[string]any); ok {
		if _, has := shop["restockSeconds"]; !has {
			shop["restockSeconds"] = float64(0)
		}
		if _, has := shop["priceModifier"]; !has {
			shop["priceModifier"] = float64(1)
		}
	}
}

func renameField(obj map[string]any, from, to string) {
	value, ok := obj[from]
	if !ok {
		return
	}
	if _, has := obj[to]; !has {
		obj[to] = value
	}
	delete(obj, from)
}

// Decode converts a migrated raw document into the typed form and
// backfills defaults. A type mismatch at this point means the document
// survived validation with a shape the engine cannot represent, which is
// structural.
func Decode(raw map[string]any) (*document.SaveDocument, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStructuralInvalid, "encode raw document", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	var doc document.SaveDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStructuralInvalid, "decode document", err)
	}
	doc.ApplyDefaults()
	return &doc, nil
}

// ToRaw converts a typed document to the raw form used by the
// validate/migrate pipeline.
func ToRaw(doc *document.SaveDocument) (map[string]any, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return raw, nil
}
