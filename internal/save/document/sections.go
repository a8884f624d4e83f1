package document

// WorldSection tracks the world clock and weather. Weather depends on
// the clock, so this section restores before everything else.
type WorldSection struct {
	Day            int     `json:"day"`
	ClockSeconds   float64 `json:"clockSeconds"`
	Season         string  `json:"season"`
	Weather        string  `json:"weather"`
	WeatherSeconds float64 `json:"weatherSeconds"`
}

// Position is a 2D world coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerSection tracks core character stats.
type PlayerSection struct {
	Name       string   `json:"name"`
	Level      int      `json:"level"`
	Experience int64    `json:"experience"`
	Health     int      `json:"health"`
	MaxHealth  int      `json:"maxHealth"`
	Mana       int      `json:"mana"`
	MaxMana    int      `json:"maxMana"`
	Location   string   `json:"location"`
	Position   Position `json:"position"`
}

// ItemStack is one inventory entry on the wire.
type ItemStack struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// InventorySection tracks carried items and currency.
type InventorySection struct {
	Gold     int64       `json:"gold"`
	Capacity int         `json:"capacity"`
	Items    []ItemStack `json:"items"`
}

// EquipEntry is one equipped-slot pair on the wire; the runtime shape is
// a slot→item lookup map.
type EquipEntry struct {
	Slot   string `json:"slot"`
	ItemID string `json:"itemId"`
}

// EquipmentSection tracks worn gear. Restores after inventory because
// every equipped id must reference a carried item.
type EquipmentSection struct {
	Equipped []EquipEntry `json:"equipped"`
}

// ObjectiveProgress tracks one quest objective.
type ObjectiveProgress struct {
	ObjectiveID string `json:"objectiveId"`
	Count       int    `json:"count"`
	Done        bool   `json:"done"`
}

// QuestProgress tracks one active quest.
type QuestProgress struct {
	QuestID    string              `json:"questId"`
	Stage      int                 `json:"stage"`
	Objectives []ObjectiveProgress `json:"objectives"`
}

// QuestSection tracks quest state. Completed is an array of ids on the
// wire; the runtime shape is a uniqueness-checked set.
type QuestSection struct {
	Active    []QuestProgress `json:"active"`
	Completed []string        `json:"completed"`
}

// FactionStanding is one faction score pair on the wire.
type FactionStanding struct {
	Faction string `json:"faction"`
	Score   int    `json:"score"`
}

// ReputationSection tracks faction standings.
type ReputationSection struct {
	Standings []FactionStanding `json:"standings"`
}

// CraftJob is one queued crafting job.
type CraftJob struct {
	RecipeID         string  `json:"recipeId"`
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// CraftingSection tracks known recipes (set on the wire as an id array)
// and the active job queue.
type CraftingSection struct {
	KnownRecipes []string   `json:"knownRecipes"`
	Queue        []CraftJob `json:"queue"`
}

// NodeState tracks one gathering node's respawn clock.
type NodeState struct {
	NodeID         string  `json:"nodeId"`
	Depleted       bool    `json:"depleted"`
	RespawnSeconds float64 `json:"respawnSeconds"`
}

// GatheringSection tracks resource node state.
type GatheringSection struct {
	Nodes []NodeState `json:"nodes"`
}

// KillCount is one enemy tally pair on the wire; the runtime shape is a
// lookup map.
type KillCount struct {
	Enemy string `json:"enemy"`
	Count int    `json:"count"`
}

// CombatSection tracks lifetime combat records.
type CombatSection struct {
	Kills       []KillCount `json:"kills"`
	Deaths      int         `json:"deaths"`
	DamageDealt int64       `json:"damageDealt"`
	DamageTaken int64       `json:"damageTaken"`
}

// StockEntry is one shop stock pair on the wire.
type StockEntry struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// ShopSection tracks vendor stock and restock clocks. Restores last: the
// price modifier reads reputation discounts.
type ShopSection struct {
	Stock          []StockEntry `json:"stock"`
	RestockSeconds float64      `json:"restockSeconds"`
	PriceModifier  float64      `json:"priceModifier"`
}
