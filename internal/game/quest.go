package game

import (
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// QuestLog tracks active quests and the completed set.
type QuestLog struct {
	active    []document.QuestProgress
	completed map[string]struct{}
}

// NewQuestLog creates an empty quest log.
func NewQuestLog() *QuestLog {
	return &QuestLog{completed: map[string]struct{}{}}
}

// Key implements subsystem.Subsystem.
func (q *QuestLog) Key() document.SectionKey {
	return document.SectionQuest
}

// Snapshot implements subsystem.Subsystem. The completed set is emitted
// as a sorted id array.
func (q *QuestLog) Snapshot(doc *document.SaveDocument) error {
	completed := make([]string, 0, len(q.completed))
	for questID := range q.completed {
		completed = append(completed, questID)
	}
	sort.Strings(completed)

	active := make([]document.QuestProgress, len(q.active))
	copy(active, q.active)

	doc.Quest = &document.QuestSection{
		Active:    active,
		Completed: completed,
	}
	return nil
}

// Restore implements subsystem.Subsystem. The completed array becomes a
// uniqueness-checked set; duplicate ids collapse silently.
func (q *QuestLog) Restore(doc *document.SaveDocument) error {
	section := doc.Quest

	q.active = make([]document.QuestProgress, 0, len(section.Active))
	for _, progress := range section.Active {
		if progress.QuestID == "" {
			continue
		}
		q.active = append(q.active, progress)
	}

	q.completed = make(map[string]struct{}, len(section.Completed))
	for _, questID := range section.Completed {
		if questID == "" {
			continue
		}
		q.completed[questID] = struct{}{}
	}
	return nil
}

// Accept begins tracking a quest.
func (q *QuestLog) Accept(questID string, objectives ...string) {
	if questID == "" {
		return
	}
	progress := document.QuestProgress{QuestID: questID}
	for _, objectiveID := range objectives {
		progress.Objectives = append(progress.Objectives, document.ObjectiveProgress{ObjectiveID: objectiveID})
	}
	q.active = append(q.active, progress)
}

// Complete moves a quest from active to the completed set.
func (q *QuestLog) Complete(questID string) {
	for i, progress := range q.active {
		if progress.QuestID == questID {
			q.active = append(q.active[:i], q.active[i+1:]...)
			break
		}
	}
	q.completed[questID] = struct{}{}
}

// IsCompleted reports whether a quest is in the completed set.
func (q *QuestLog) IsCompleted(questID string) bool {
	_, ok := q.completed[questID]
	return ok
}

// ActiveCount returns the number of active quests.
func (q *QuestLog) ActiveCount() int {
	return len(q.active)
}

// CompletedCount returns the size of the completed set.
func (q *QuestLog) CompletedCount() int {
	return len(q.completed)
}
