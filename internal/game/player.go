package game

import (
	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Player tracks core character stats.
type Player struct {
	Name       string
	Level      int
	Experience int64
	Health     int
	MaxHealth  int
	Mana       int
	MaxMana    int
	Location   string
	X, Y       float64
}

// NewPlayer creates a level-one character.
func NewPlayer() *Player {
	defaults := document.DefaultPlayer()
	return &Player{
		Name:      defaults.Name,
		Level:     defaults.Level,
		Health:    defaults.Health,
		MaxHealth: defaults.MaxHealth,
		Mana:      defaults.Mana,
		MaxMana:   defaults.MaxMana,
		Location:  defaults.Location,
	}
}

// Key implements subsystem.Subsystem.
func (p *Player) Key() document.SectionKey {
	return document.SectionPlayer
}

// Snapshot implements subsystem.Subsystem.
func (p *Player) Snapshot(doc *document.SaveDocument) error {
	doc.Player = &document.PlayerSection{
		Name:       p.Name,
		Level:      p.Level,
		Experience: p.Experience,
		Health:     p.Health,
		MaxHealth:  p.MaxHealth,
		Mana:       p.Mana,
		MaxMana:    p.MaxMana,
		Location:   p.Location,
		Position:   document.Position{X: p.X, Y: p.Y},
	}
	return nil
}

// Restore implements subsystem.Subsystem.
func (p *Player) Restore(doc *document.SaveDocument) error {
	section := doc.Player
	defaults := document.DefaultPlayer()

	p.Name = section.Name
	if p.Name == "" {
		p.Name = defaults.Name
	}
	p.Level = section.Level
	if p.Level < 1 {
		p.Level = defaults.Level
	}
	p.Experience = section.Experience
	p.MaxHealth = section.MaxHealth
	if p.MaxHealth <= 0 {
		p.MaxHealth = defaults.MaxHealth
	}
	p.Health = section.Health
	p.MaxMana = section.MaxMana
	if p.MaxMana <= 0 {
		p.MaxMana = defaults.MaxMana
	}
	p.Mana = section.Mana
	p.Location = section.Location
	if p.Location == "" {
		p.Location = defaults.Location
	}
	p.X = section.Position.X
	p.Y = section.Position.Y
	return nil
}

// RecomputeDerived clamps pools to their maxima after raw assignment.
func (p *Player) RecomputeDerived() {
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	if p.Health < 0 {
		p.Health = 0
	}
	if p.Mana > p.MaxMana {
		p.Mana = p.MaxMana
	}
	if p.Mana < 0 {
		p.Mana = 0
	}
}
