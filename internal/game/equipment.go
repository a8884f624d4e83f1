package game

import (
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Equipment tracks worn gear as a slot→item lookup map. It restores
// after Inventory so equipped ids can be checked against carried items.
type Equipment struct {
	inventory *Inventory
	equipped  map[string]string
}

// NewEquipment creates bare equipment slots backed by the inventory.
func NewEquipment(inventory *Inventory) *Equipment {
	return &Equipment{
		inventory: inventory,
		equipped:  map[string]string{},
	}
}

// Key implements subsystem.Subsystem.
func (e *Equipment) Key() document.SectionKey {
	return document.SectionEquipment
}

// Snapshot implements subsystem.Subsystem.
func (e *Equipment) Snapshot(doc *document.SaveDocument) error {
	equipped := make([]document.EquipEntry, 0, len(e.equipped))
	for slot, itemID := range e.equipped {
		equipped = append(equipped, document.EquipEntry{Slot: slot, ItemID: itemID})
	}
	sort.Slice(equipped, func(i, j int) bool { return equipped[i].Slot < equipped[j].Slot })

	doc.Equipment = &document.EquipmentSection{Equipped: equipped}
	return nil
}

// Restore implements subsystem.Subsystem. Entries with an empty slot or
// item id are dropped; a duplicate slot keeps its last entry.
func (e *Equipment) Restore(doc *document.SaveDocument) error {
	section := doc.Equipment

	e.equipped = make(map[string]string, len(section.Equipped))
	for _, entry := range section.Equipped {
		if entry.Slot == "" || entry.ItemID == "" {
			continue
		}
		e.equipped[entry.Slot] = entry.ItemID
	}
	return nil
}

// Equip wears a carried item in a slot, reporting whether the item was
// available.
func (e *Equipment) Equip(slot, itemID string) bool {
	if e.inventory != nil && !e.inventory.Has(itemID) {
		return false
	}
	e.equipped[slot] = itemID
	return true
}

// Unequip clears a slot.
func (e *Equipment) Unequip(slot string) {
	delete(e.equipped, slot)
}

// ItemIn returns the item worn in a slot, if any.
func (e *Equipment) ItemIn(slot string) (string, bool) {
	itemID, ok := e.equipped[slot]
	return itemID, ok
}
