package game

import "github.com/lmoreau/emberhollow/internal/save/subsystem"

// Systems bundles one live instance of every gameplay subsystem.
type Systems struct {
	World      *World
	Player     *Player
	Inventory  *Inventory
	Equipment  *Equipment
	Quests     *QuestLog
	Reputation *Reputation
	Crafting   *Crafting
	Gathering  *Gathering
	Combat     *Combat
	Shop       *Shop
}

// NewSystems wires a fresh set of subsystems with their cross-system
// references (equipment→inventory, shop→reputation).
func NewSystems() *Systems {
	inventory := NewInventory()
	reputation := NewReputation()
	return &Systems{
		World:      NewWorld(),
		Player:     NewPlayer(),
		Inventory:  inventory,
		Equipment:  NewEquipment(inventory),
		Quests:     NewQuestLog(),
		Reputation: reputation,
		Crafting:   NewCrafting(),
		Gathering:  NewGathering(),
		Combat:     NewCombat(),
		Shop:       NewShop(reputation),
	}
}

// All returns the subsystems in restoration order.
func (s *Systems) All() []subsystem.Subsystem {
	return []subsystem.Subsystem{
		s.World,
		s.Player,
		s.Inventory,
		s.Equipment,
		s.Quests,
		s.Reputation,
		s.Crafting,
		s.Gathering,
		s.Combat,
		s.Shop,
	}
}
