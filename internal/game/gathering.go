package game

import (
	"sort"

	"github.com/lmoreau/emberhollow/internal/save/document"
)

// Gathering tracks resource node respawn clocks as an id→state map.
type Gathering struct {
	nodes map[string]document.NodeState
}

// NewGathering creates pristine resource nodes.
func NewGathering() *Gathering {
	return &Gathering{nodes: map[string]document.NodeState{}}
}

// Key implements subsystem.Subsystem.
func (g *Gathering) Key() document.SectionKey {
	return document.SectionGathering
}

// Snapshot implements subsystem.Subsystem.
func (g *Gathering) Snapshot(doc *document.SaveDocument) error {
	nodes := make([]document.NodeState, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].NodeID < nodes[j].NodeID })

	doc.Gathering = &document.GatheringSection{Nodes: nodes}
	return nil
}

// Restore implements subsystem.Subsystem.
func (g *Gathering) Restore(doc *document.SaveDocument) error {
	section := doc.Gathering

	g.nodes = make(map[string]document.NodeState, len(section.Nodes))
	for _, node := range section.Nodes {
		if node.NodeID == "" {
			continue
		}
		g.nodes[node.NodeID] = node
	}
	return nil
}

// Deplete marks a node harvested and starts its respawn clock.
func (g *Gathering) Deplete(nodeID string, respawnSeconds float64) {
	if nodeID == "" {
		return
	}
	g.nodes[nodeID] = document.NodeState{
		NodeID:         nodeID,
		Depleted:       true,
		RespawnSeconds: respawnSeconds,
	}
}

// IsDepleted reports whether a node is awaiting respawn.
func (g *Gathering) IsDepleted(nodeID string) bool {
	return g.nodes[nodeID].Depleted
}
