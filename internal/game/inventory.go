package game

import (
	"fmt"
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Inventory tracks carried items as an id→quantity lookup map.
type Inventory struct {
	Gold     int64
	Capacity int
	items    map[string]int
}

// NewInventory creates an empty pack with starting gold.
func NewInventory() *Inventory {
	defaults := document.DefaultInventory()
	return &Inventory{
		Gold:     defaults.Gold,
		Capacity: defaults.Capacity,
		items:    map[string]int{},
	}
}

// Key implements subsystem.Subsystem.
func (inv *Inventory) Key() document.SectionKey {
	return document.SectionInventory
}

// Snapshot implements subsystem.Subsystem. Items are emitted sorted by
// id so the wire form is deterministic.
func (inv *Inventory) Snapshot(doc *document.SaveDocument) error {
	items := make([]document.ItemStack, 0, len(inv.items))
	for itemID, quantity := range inv.items {
		items = append(items, document.ItemStack{ItemID: itemID, Quantity: quantity})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })

	doc.Inventory = &document.InventorySection{
		Gold:     inv.Gold,
		Capacity: inv.Capacity,
		Items:    items,
	}
	return nil
}

// Restore implements subsystem.Subsystem. Duplicate item ids on the
// wire collapse into one stack.
func (inv *Inventory) Restore(doc *document.SaveDocument) error {
	section := doc.Inventory
	defaults := document.DefaultInventory()

	inv.Gold = section.Gold
	if inv.Gold < 0 {
		return fmt.Errorf("negative gold %d", inv.Gold)
	}
	inv.Capacity = section.Capacity
	if inv.Capacity <= 0 {
		inv.Capacity = defaults.Capacity
	}

	inv.items = make(map[string]int, len(section.Items))
	for _, stack := range section.Items {
		if stack.ItemID == "" || stack.Quantity <= 0 {
			continue
		}
		inv.items[stack.ItemID] += stack.Quantity
	}
	return nil
}

// Add puts quantity of an item into the pack.
func (inv *Inventory) Add(itemID string, quantity int) {
	if itemID == "" || quantity <= 0 {
		return
	}
	inv.items[itemID] += quantity
}

// Remove takes quantity of an item out of the pack, reporting whether
// enough was carried.
func (inv *Inventory) Remove(itemID string, quantity int) bool {
	carried := inv.items[itemID]
	if carried < quantity {
		return false
	}
	if carried == quantity {
		delete(inv.items, itemID)
	} else {
		inv.items[itemID] = carried - quantity
	}
	return true
}

// Count returns the carried quantity of an item.
func (inv *Inventory) Count(itemID string) int {
	return inv.items[itemID]
}

// Has reports whether at least one of the item is carried.
func (inv *Inventory) Has(itemID string) bool {
	return inv.items[itemID] > 0
}
