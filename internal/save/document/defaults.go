package document

import "fmt"

// DefaultFor returns a structurally complete default value for the named
// section. Defaults seed new documents and backfill absent sections on
// load so no consumer crashes on a missing key.
func DefaultFor(key SectionKey) (any, error) {
	switch key {
	case SectionWorld:
		return DefaultWorld(), nil
	case SectionPlayer:
		return DefaultPlayer(), nil
	case SectionInventory:
		return DefaultInventory(), nil
	case SectionEquipment:
		return DefaultEquipment(), nil
	case SectionQuest:
		return DefaultQuest(), nil
	case SectionReputation:
		return DefaultReputation(), nil
	case SectionCrafting:
		return DefaultCrafting(), nil
	case SectionGathering:
		return DefaultGathering(), nil
	case SectionCombat:
		return DefaultCombat(), nil
	case SectionShop:
		return DefaultShop(), nil
	}
	return nil, fmt.Errorf("unknown section %q", key)
}

// DefaultWorld returns a fresh day-one world clock.
func DefaultWorld() *WorldSection {
	return &WorldSection{
		Day:          1,
		ClockSeconds: 0,
		Season:       "spring",
		Weather:      "clear",
	}
}

// DefaultPlayer returns a level-one character at the starting location.
func DefaultPlayer() *PlayerSection {
	return &PlayerSection{
		Name:      "Wanderer",
		Level:     1,
		Health:    100,
		MaxHealth: 100,
		Mana:      50,
		MaxMana:   50,
		Location:  "emberhollow-gate",
	}
}

// DefaultInventory returns an empty pack with starting gold.
func DefaultInventory() *InventorySection {
	return &InventorySection{
		Gold:     25,
		Capacity: 20,
		Items:    []ItemStack{},
	}
}

// DefaultEquipment returns bare equipment slots.
func DefaultEquipment() *EquipmentSection {
	return &EquipmentSection{Equipped: []EquipEntry{}}
}

// DefaultQuest returns an empty quest log.
func DefaultQuest() *QuestSection {
	return &QuestSection{
		Active:    []QuestProgress{},
		Completed: []string{},
	}
}

// DefaultReputation returns neutral standings.
func DefaultReputation() *ReputationSection {
	return &ReputationSection{Standings: []FactionStanding{}}
}

// DefaultCrafting returns an empty recipe book and queue.
func DefaultCrafting() *CraftingSection {
	return &CraftingSection{
		KnownRecipes: []string{},
		Queue:        []CraftJob{},
	}
}

// DefaultGathering returns pristine resource nodes.
func DefaultGathering() *GatheringSection {
	return &GatheringSection{Nodes: []NodeState{}}
}

// DefaultCombat returns a zeroed combat record.
func DefaultCombat() *CombatSection {
	return &CombatSection{Kills: []KillCount{}}
}

// DefaultShop returns restocked vendor state at base prices.
func DefaultShop() *ShopSection {
	return &ShopSection{
		Stock:         []StockEntry{},
		PriceModifier: 1.0,
	}
}

// ApplyDefaults backfills every absent section on doc in place. Present
// sections are left untouched; partial fields inside present sections
// are the subsystems' concern.
func (d *SaveDocument) ApplyDefaults() {
	if d.World == nil {
		d.World = DefaultWorld()
	}
	if d.Player == nil {
		d.Player = DefaultPlayer()
	}
	if d.Inventory == nil {
		d.Inventory = DefaultInventory()
	}
	if d.Equipment == nil {
		d.Equipment = DefaultEquipment()
	}
	if d.Quest == nil {
		d.Quest = DefaultQuest()
	}
	if d.Reputation == nil {
		d.Reputation = DefaultReputation()
	}
	if d.Crafting == nil {
		d.Crafting = DefaultCrafting()
	}
	if d.Gathering == nil {
		d.Gathering = DefaultGathering()
	}
	if d.Combat == nil {
		d.Combat = DefaultCombat()
	}
	if d.Shop == nil {
		d.Shop = DefaultShop()
	}
}
