// Package game holds the live gameplay subsystems. Each one owns its
// runtime state (sets and lookup maps where that is the natural shape)
// and converts to the document's wire shapes only inside Snapshot and
// Restore.
package game

import (
	"github.com/lmoreau/emberhollow/internal/save/document"
)

// World tracks the in-game clock and weather.
type World struct {
	Day            int
	ClockSeconds   float64
	Season         string
	Weather        string
	WeatherSeconds float64
}

// NewWorld creates a world at the default clock.
func NewWorld() *World {
	defaults := document.DefaultWorld()
	return &World{
		Day:     defaults.Day,
		Season:  defaults.Season,
		Weather: defaults.Weather,
	}
}

// Key implements subsystem.Subsystem.
func (w *World) Key() document.SectionKey {
	return document.SectionWorld
}

// Snapshot implements subsystem.Subsystem.
func (w *World) Snapshot(doc *document.SaveDocument) error {
	doc.World = &document.WorldSection{
		Day:            w.Day,
		ClockSeconds:   w.ClockSeconds,
		Season:         w.Season,
		Weather:        w.Weather,
		WeatherSeconds: w.WeatherSeconds,
	}
	return nil
}

// Restore implements subsystem.Subsystem.
func (w *World) Restore(doc *document.SaveDocument) error {
	section := doc.World
	defaults := document.DefaultWorld()

	w.Day = section.Day
	if w.Day < 1 {
		w.Day = defaults.Day
	}
	w.ClockSeconds = section.ClockSeconds
	w.Season = section.Season
	if w.Season == "" {
		w.Season = defaults.Season
	}
	w.Weather = section.Weather
	if w.Weather == "" {
		w.Weather = defaults.Weather
	}
	w.WeatherSeconds = section.WeatherSeconds
	return nil
}

// Advance moves the clock forward by elapsed seconds, rolling the day
// over every 24 in-game hours.
func (w *World) Advance(elapsed float64) {
	w.ClockSeconds += elapsed
	for w.ClockSeconds >= 86400 {
		w.ClockSeconds -= 86400
		w.Day++
	}
	w.WeatherSeconds += elapsed
}
