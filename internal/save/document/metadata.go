package document

import "time"

// SlotMetadata is a lightweight projection of a save document kept in a
// separate index so slot browsing never needs full decompression.
type SlotMetadata struct {
	SlotID          int       `json:"slotId"`
	SlotType        SlotType  `json:"slotType"`
	SaveID          string    `json:"saveId,omitempty"`
	Version         int       `json:"version"`
	PlayerName      string    `json:"playerName"`
	Level           int       `json:"level"`
	Location        string    `json:"location"`
	PlaytimeSeconds int64     `json:"playtimeSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
	SavedAt         time.Time `json:"savedAt"`
	QuestsCompleted int       `json:"questsCompleted"`
	RecipesKnown    int       `json:"recipesKnown"`
}

// Metadata projects the document into its slot-index entry. The document
// must already have defaults applied.
func (d *SaveDocument) Metadata() SlotMetadata {
	meta := SlotMetadata{
		SlotID:          d.SlotID,
		SlotType:        d.SlotType,
		SaveID:          d.SaveID,
		Version:         d.Version,
		PlaytimeSeconds: d.PlaytimeSeconds,
		CreatedAt:       d.CreatedAt,
		SavedAt:         d.SavedAt,
	}
	if d.Player != nil {
		meta.PlayerName = d.Player.Name
		meta.Level = d.Player.Level
		meta.Location = d.Player.Location
	}
	if d.Quest != nil {
		meta.QuestsCompleted = len(d.Quest.Completed)
	}
	if d.Crafting != nil {
		meta.RecipesKnown = len(d.Crafting.KnownRecipes)
	}
	return meta
}
