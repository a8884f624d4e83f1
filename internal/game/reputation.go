package game

import (
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Reputation tracks faction standings as a faction→score lookup map.
type Reputation struct {
	standings map[string]int
}

// NewReputation creates neutral standings.
func NewReputation() *Reputation {
	return &Reputation{standings: map[string]int{}}
}

// Key implements subsystem.Subsystem.
func (r *Reputation) Key() document.SectionKey {
	return document.SectionReputation
}

// Snapshot implements subsystem.Subsystem.
func (r *Reputation) Snapshot(doc *document.SaveDocument) error {
	standings := make([]document.FactionStanding, 0, len(r.standings))
	for faction, score := range r.standings {
		standings = append(standings, document.FactionStanding{Faction: faction, Score: score})
	}
	sort.Slice(standings, func(i, j int) bool { return standings[i].Faction < standings[j].Faction })

	doc.Reputation = &document.ReputationSection{Standings: standings}
	return nil
}

// Restore implements subsystem.Subsystem.
func (r *Reputation) Restore(doc *document.SaveDocument) error {
	section := doc.Reputation

	r.standings = make(map[string]int, len(section.Standings))
	for _, standing := range section.Standings {
		if standing.Faction == "" {
			continue
		}
		r.standings[standing.Faction] = standing.Score
	}
	return nil
}

// Adjust shifts a faction's standing by delta.
func (r *Reputation) Adjust(faction string, delta int) {
	if faction == "" {
		return
	}
	r.standings[faction] += delta
}

// Standing returns the current score with a faction.
func (r *Reputation) Standing(faction string) int {
	return r.standings[faction]
}
