package game

import (
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// merchantsGuild is the faction whose standing discounts shop prices.
const merchantsGuild = "merchants-guild"

// Shop tracks vendor stock and restock clocks. It restores last in the
// fixed order: the price modifier derives from reputation standings.
type Shop struct {
	reputation     *Reputation
	stock          map[string]int
	RestockSeconds float64
	PriceModifier  float64
}

// NewShop creates restocked vendor state at base prices.
func NewShop(reputation *Reputation) *Shop {
	defaults := document.DefaultShop()
	return &Shop{
		reputation:    reputation,
		stock:         map[string]int{},
		PriceModifier: defaults.PriceModifier,
	}
}

// Key implements subsystem.Subsystem.
func (s *Shop) Key() document.SectionKey {
	return document.SectionShop
}

// Snapshot implements subsystem.Subsystem.
func (s *Shop) Snapshot(doc *document.SaveDocument) error {
	stock := make([]document.StockEntry, 0, len(s.stock))
	for itemID, quantity := range s.stock {
		stock = append(stock, document.StockEntry{ItemID: itemID, Quantity: quantity})
	}
	sort.Slice(stock, func(i, j int) bool { return stock[i].ItemID < stock[j].ItemID })

	doc.Shop = &document.ShopSection{
		Stock:          stock,
		RestockSeconds: s.RestockSeconds,
		PriceModifier:  s.PriceModifier,
	}
	return nil
}

// Restore implements subsystem.Subsystem.
func (s *Shop) Restore(doc *document.SaveDocument) error {
	section := doc.Shop

	s.stock = make(map[string]int, len(section.Stock))
	for _, entry := range section.Stock {
		if entry.ItemID == "" || entry.Quantity <= 0 {
			continue
		}
		s.stock[entry.ItemID] = entry.Quantity
	}
	s.RestockSeconds = section.RestockSeconds
	s.PriceModifier = section.PriceModifier
	if s.PriceModifier <= 0 {
		s.PriceModifier = document.DefaultShop().PriceModifier
	}
	return nil
}

// RecomputeDerived refreshes the price modifier from the merchants
// guild standing. Runs after Reputation has restored, which the fixed
// restoration order guarantees.
func (s *Shop) RecomputeDerived() {
	if s.reputation == nil {
		return
	}
	discount := float64(s.reputation.Standing(merchantsGuild)) / 1000
	if discount > 0.5 {
		discount = 0.5
	}
	if discount < 0 {
		discount = 0
	}
	s.PriceModifier = 1 - discount
}

// Restock sets the available quantity for an item.
func (s *Shop) Restock(itemID string, quantity int) {
	if itemID == "" || quantity < 0 {
		return
	}
	s.stock[itemID] = quantity
}

// InStock returns the quantity available for an item.
func (s *Shop) InStock(itemID string) int {
	return s.stock[itemID]
}
