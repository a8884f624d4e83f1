package game

import (
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Crafting tracks the known-recipe set and the active job queue.
type Crafting struct {
	known map[string]struct{}
	queue []document.CraftJob
}

// NewCrafting creates an empty recipe book.
func NewCrafting() *Crafting {
	return &Crafting{known: map[string]struct{}{}}
}

// Key implements subsystem.Subsystem.
func (c *Crafting) Key() document.SectionKey {
	return document.SectionCrafting
}

// Snapshot implements subsystem.Subsystem.
func (c *Crafting) Snapshot(doc *document.SaveDocument) error {
	known := make([]string, 0, len(c.known))
	for recipeID := range c.known {
		known = append(known, recipeID)
	}
	sort.Strings(known)

	queue := make([]document.CraftJob, len(c.queue))
	copy(queue, c.queue)

	doc.Crafting = &document.CraftingSection{
		KnownRecipes: known,
		Queue:        queue,
	}
	return nil
}

// Restore implements subsystem.Subsystem.
func (c *Crafting) Restore(doc *document.SaveDocument) error {
	section := doc.Crafting

	c.known = make(map[string]struct{}, len(section.KnownRecipes))
	for _, recipeID := range section.KnownRecipes {
		if recipeID == "" {
			continue
		}
		c.known[recipeID] = struct{}{}
	}

	c.queue = make([]document.CraftJob, 0, len(section.Queue))
	for _, job := range section.Queue {
		if job.RecipeID == "" {
			continue
		}
		c.queue = append(c.queue, job)
	}
	return nil
}

// Learn adds a recipe to the known set.
func (c *Crafting) Learn(recipeID string) {
	if recipeID == "" {
		return
	}
	c.known[recipeID] = struct{}{}
}

// Knows reports whether a recipe has been learned.
func (c *Crafting) Knows(recipeID string) bool {
	_, ok := c.known[recipeID]
	return ok
}

// Enqueue adds a crafting job for a known recipe, reporting whether the
// recipe was known.
func (c *Crafting) Enqueue(recipeID string, seconds float64) bool {
	if !c.Knows(recipeID) {
		return false
	}
	c.queue = append(c.queue, document.CraftJob{RecipeID: recipeID, RemainingSeconds: seconds})
	return true
}

// QueueLen returns the number of queued jobs.
func (c *Crafting) QueueLen() int {
	return len(c.queue)
}
