package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors for graph lookups.
var (
	// ErrCenterNotFound means the requested center entity matches no node.
	// Callers recover by showing an empty graph.
	ErrCenterNotFound = errors.New("center entity not found")

	// ErrNodeNotFound means a search term matches no node. Callers keep the
	// previously active graph.
	ErrNodeNotFound = errors.New("node not found")
)

// Entity is a company record with typed relations to other entities.
type Entity struct {
	ID        int        `json:"id" yaml:"id" toml:"id"`
	Name      string     `json:"name" yaml:"name" toml:"name"`
	Relations []Relation `json:"relations,omitempty" yaml:"relations,omitempty" toml:"relations,omitempty"`
}

// Relation is a directed, typed edge from the owning entity to TargetID.
type Relation struct {
	Type     string `json:"relationType" yaml:"relationType" toml:"relation_type"`
	TargetID int    `json:"targetEntityId" yaml:"targetEntityId" toml:"target_entity_id"`
}

// Point is a 2-D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the visualization-layer view of an Entity.
type Node struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Group int    `json:"group"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Placed bool    `json:"-"` // X/Y hold a real position

	// Pinned overrides physics for this node while set.
	Pinned     *Point `json:"pinned,omitempty"`
	Emphasized bool   `json:"emphasized,omitempty"`
}

// Link connects two nodes of the same graph.
type Link struct {
	Source       *Node  `json:"-"`
	Target       *Node  `json:"-"`
	RelationType string `json:"relationType,omitempty"`
}

// Graph is one build of nodes and links. Link endpoints always point at
// elements of Nodes.
type Graph struct {
	ID       uuid.UUID `json:"id"`
	Nodes    []*Node   `json:"nodes"`
	Links    []*Link   `json:"links"`
	Entities []Entity  `json:"-"`
}

// Stats holds summary counts.
type Stats struct {
	Nodes         int
	Links         int
	RelationTypes int
	Pinned        int
}

// ─── Lookup ───

// NodeByName returns the first node whose name equals name exactly.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// FindNode returns the first node whose name equals term, ignoring case.
func (g *Graph) FindNode(term string) (*Node, bool) {
	q := strings.TrimSpace(term)
	for _, n := range g.Nodes {
		if strings.EqualFold(n.Name, q) {
			return n, true
		}
	}
	return nil, false
}

// Entity returns the entity a node was built from.
func (g *Graph) Entity(n *Node) (Entity, bool) {
	if n == nil || n.Index < 0 || n.Index >= len(g.Entities) {
		return Entity{}, false
	}
	return g.Entities[n.Index], true
}

// Contains reports whether n is one of the graph's node objects.
func (g *Graph) Contains(n *Node) bool {
	for _, m := range g.Nodes {
		if m == n {
			return true
		}
	}
	return false
}

// RelationTypes returns the sorted distinct relation types of the snapshot.
func (g *Graph) RelationTypes() []string {
	seen := make(map[string]bool)
	for _, e := range g.Entities {
		for _, r := range e.Relations {
			if r.Type != "" {
				seen[r.Type] = true
			}
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Stats returns summary counts for the graph.
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:         len(g.Nodes),
		Links:         len(g.Links),
		RelationTypes: len(g.RelationTypes()),
	}
	for _, n := range g.Nodes {
		if n.Pinned != nil {
			s.Pinned++
		}
	}
	return s
}

// Validate checks the structural invariants: endpoint identity, no self
// links and no duplicate (source, target) pairs.
func (g *Graph) Validate() error {
	members := make(map[*Node]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		members[n] = true
	}
	pairs := make(map[[2]*Node]bool, len(g.Links))
	for i, l := range g.Links {
		if !members[l.Source] || !members[l.Target] {
			return fmt.Errorf("link %d: endpoint is not a node of this graph", i)
		}
		if l.Source.Name == l.Target.Name {
			return fmt.Errorf("link %d: self link on %q", i, l.Source.Name)
		}
		key := [2]*Node{l.Source, l.Target}
		if pairs[key] {
			return fmt.Errorf("link %d: duplicate %q -> %q", i, l.Source.Name, l.Target.Name)
		}
		pairs[key] = true
	}
	return nil
}
