package game

import (
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Combat tracks lifetime combat records with a kill-count lookup map.
type Combat struct {
	kills       map[string]int
	Deaths      int
	DamageDealt int64
	DamageTaken int64
}

// NewCombat creates a zeroed combat record.
func NewCombat() *Combat {
	return &Combat{kills: map[string]int{}}
}

// Key implements subsystem.Subsystem.
func (c *Combat) Key() document.SectionKey {
	return document.SectionCombat
}

// Snapshot implements subsystem.Subsystem.
func (c *Combat) Snapshot(doc *document.SaveDocument) error {
	kills := make([]document.KillCount, 0, len(c.kills))
	for enemy, count := range c.kills {
		kills = append(kills, document.KillCount{Enemy: enemy, Count: count})
	}
	sort.Slice(kills, func(i, j int) bool { return kills[i].Enemy < kills[j].Enemy })

	doc.Combat = &document.CombatSection{
		Kills:       kills,
		Deaths:      c.Deaths,
		DamageDealt: c.DamageDealt,
		DamageTaken: c.DamageTaken,
	}
	return nil
}

// Restore implements subsystem.Subsystem. Duplicate enemy entries on
// the wire sum into one tally.
func (c *Combat) Restore(doc *document.SaveDocument) error {
	section := doc.Combat

	c.kills = make(map[string]int, len(section.Kills))
	for _, kill := range section.Kills {
		if kill.Enemy == "" || kill.Count <= 0 {
			continue
		}
		c.kills[kill.Enemy] += kill.Count
	}
	c.Deaths = section.Deaths
	c.DamageDealt = section.DamageDealt
	c.DamageTaken = section.DamageTaken
	return nil
}

// RecordKill tallies a defeated enemy.
func (c *Combat) RecordKill(enemy string) {
	if enemy == "" {
		return
	}
	c.kills[enemy]++
}

// Kills returns the tally for one enemy type.
func (c *Combat) Kills(enemy string) int {
	return c.kills[enemy]
}
