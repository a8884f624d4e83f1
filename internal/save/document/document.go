// Package document defines the canonical save document: the versioned,
// plain-data projection of live game state that is persisted to a slot.
//
// The document carries wire shapes only (arrays of ids, arrays of entry
// pairs). Runtime shapes (sets, lookup maps) exist solely inside the
// gameplay subsystems; conversion happens at the gather/restore boundary.
package document

import "time"

// CurrentVersion is the schema version written by this build. Documents
// with a newer version are rejected on load rather than downgraded.
const CurrentVersion = 3

// SlotType distinguishes user-initiated saves from timer-driven ones.
type SlotType string

const (
	SlotTypeManual   SlotType = "manual"
	SlotTypeAutosave SlotType = "autosave"
)

// AutosaveSlot is the single reserved autosave slot. Manual saves use
// slots 1..N.
const AutosaveSlot = 0

// SectionKey names one tracked subsystem section.
type SectionKey string

const (
	SectionWorld      SectionKey = "world"
	SectionPlayer     SectionKey = "player"
	SectionInventory  SectionKey = "inventory"
	SectionEquipment  SectionKey = "equipment"
	SectionQuest      SectionKey = "quest"
	SectionReputation SectionKey = "reputation"
	SectionCrafting   SectionKey = "crafting"
	SectionGathering  SectionKey = "gathering"
	SectionCombat     SectionKey = "combat"
	SectionShop       SectionKey = "shop"
)

// SectionKeys lists every tracked section in document order.
func SectionKeys() []SectionKey {
	return []SectionKey{
		SectionWorld,
		SectionPlayer,
		SectionInventory,
		SectionEquipment,
		SectionQuest,
		SectionReputation,
		SectionCrafting,
		SectionGathering,
		SectionCombat,
		SectionShop,
	}
}

// SaveDocument is the versioned root record for one slot. It is built
// fresh at save time and discarded into live state at load time; it is
// never a long-lived object.
type SaveDocument struct {
	Version         int       `json:"version"`
	SaveID          string    `json:"saveId,omitempty"`
	SlotID          int       `json:"slotId"`
	SlotType        SlotType  `json:"slotType"`
	CreatedAt       time.Time `json:"createdAt"`
	SavedAt         time.Time `json:"savedAt"`
	PlaytimeSeconds int64     `json:"playtimeSeconds"`

	World      *WorldSection      `json:"world,omitempty"`
	Player     *PlayerSection     `json:"player,omitempty"`
	Inventory  *InventorySection  `json:"inventory,omitempty"`
	Equipment  *EquipmentSection  `json:"equipment,omitempty"`
	Quest      *QuestSection      `json:"quest,omitempty"`
	Reputation *ReputationSection `json:"reputation,omitempty"`
	Crafting   *CraftingSection   `json:"crafting,omitempty"`
	Gathering  *GatheringSection  `json:"gathering,omitempty"`
	Combat     *CombatSection     `json:"combat,omitempty"`
	Shop       *ShopSection       `json:"shop,omitempty"`
}

// Section returns the section value for key, or nil when absent.
func (d *SaveDocument) Section(key SectionKey) any {
	switch key {
	case SectionWorld:
		if d.World != nil {
			return d.World
		}
	case SectionPlayer:
		if d.Player != nil {
			return d.Player
		}
	case SectionInventory:
		if d.Inventory != nil {
			return d.Inventory
		}
	case SectionEquipment:
		if d.Equipment != nil {
			return d.Equipment
		}
	case SectionQuest:
		if d.Quest != nil {
			return d.Quest
		}
	case SectionReputation:
		if d.Reputation != nil {
			return d.Reputation
		}
	case SectionCrafting:
		if d.Crafting != nil {
			return d.Crafting
		}
	case SectionGathering:
		if d.Gathering != nil {
			return d.Gathering
		}
	case SectionCombat:
		if d.Combat != nil {
			return d.Combat
		}
	case SectionShop:
		if d.Shop != nil {
			return d.Shop
		}
	}
	return nil
}

// New returns an empty document stamped for the given slot. Sections are
// left nil; callers gather live state or apply defaults.
func New(slotID int, slotType SlotType, now time.Time) *SaveDocument {
	return &SaveDocument{
		Version:   CurrentVersion,
		SlotID:    slotID,
		SlotType:  slotType,
		CreatedAt: now.UTC(),
		SavedAt:   now.UTC(),
	}
}
