package restore

import (
	"fmt"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// postValidate runs cross-section referential checks on the restored
// document. Every finding is a warning; nothing here aborts a load.
func postValidate(doc *document.SaveDocument) []string {
	var warnings []string

	carried := map[string]bool{}
	if doc.Inventory != nil {
		for _, stack := range doc.Inventory.Items {
			carried[stack.ItemID] = true
		}
	}
	if doc.Equipment != nil {
		for _, entry := range doc.Equipment.Equipped {
			if entry.ItemID == "" {
				continue
			}
			if !carried[entry.ItemID] {
				warnings = append(warnings, fmt.Sprintf("equipped item %s in slot %s is missing from inventory", entry.ItemID, entry.Slot))
			}
		}
	}

	if doc.Quest != nil {
		completed := map[string]bool{}
		for _, id := range doc.Quest.Completed {
			completed[id] = true
		}
		for _, quest := range doc.Quest.Active {
			if completed[quest.QuestID] {
				warnings = append(warnings, fmt.Sprintf("quest %s is both active and completed", quest.QuestID))
			}
			for _, objective := range quest.Objectives {
				if objective.ObjectiveID == "" {
					warnings = append(warnings, fmt.Sprintf("quest %s has an orphaned objective with no id", quest.QuestID))
				}
			}
		}
	}

	if doc.Crafting != nil {
		known := map[string]bool{}
		for _, id := range doc.Crafting.KnownRecipes {
			known[id] = true
		}
		for _, job := range doc.Crafting.Queue {
			if !known[job.RecipeID] {
				warnings = append(warnings, fmt.Sprintf("queued craft job references unknown recipe %s", job.RecipeID))
			}
		}
	}

	return warnings
}
