package model

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Builder turns entity snapshots into graphs.
type Builder struct {
	logger *log.Logger
}

// NewBuilder returns a Builder. A nil logger discards output.
func NewBuilder(logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{logger: logger}
}

// BuildNodes creates one node per entity. Index is the position in entities.
func BuildNodes(entities []Entity) []*Node {
	nodes := make([]*Node, len(entities))
	for i, e := range entities {
		nodes[i] = &Node{Index: i, Name: e.Name, Group: 0}
	}
	return nodes
}

// LinksFromCenter links the node named centerName to every other node.
// nodes must come from BuildNodes. The first exact, case-sensitive match
// is the center; nodes sharing its name get no link.
func (b *Builder) LinksFromCenter(nodes []*Node, centerName string) ([]*Link, error) {
	var center *Node
	matches := 0
	for _, n := range nodes {
		if n.Name == centerName {
			if center == nil {
				center = n
			}
			matches++
		}
	}
	if center == nil {
		b.logger.Warn("center entity not found", "center", centerName)
		return []*Link{}, fmt.Errorf("%w: %q", ErrCenterNotFound, centerName)
	}
	if matches > 1 {
		b.logger.Debug("ambiguous center name, using first match",
			"center", centerName, "matches", matches, "index", center.Index)
	}

	links := make([]*Link, 0, len(nodes)-1)
	seen := make(map[*Node]bool, len(nodes))
	for _, n := range nodes {
		if n.Name == centerName || seen[n] {
			continue
		}
		seen[n] = true
		links = append(links, &Link{Source: center, Target: n})
	}
	return links, nil
}

// LinksFromRelations creates one link per relation of every entity.
// Relations to unknown ids, self links and repeated pairs are skipped;
// the first relation type seen for a pair is kept.
func (b *Builder) LinksFromRelations(entities []Entity, nodes []*Node) []*Link {
	byID := make(map[int]*Node, len(entities))
	for i, e := range entities {
		if _, dup := byID[e.ID]; dup {
			b.logger.Debug("duplicate entity id, using first", "id", e.ID, "name", e.Name)
			continue
		}
		byID[e.ID] = nodes[i]
	}

	var links []*Link
	pairs := make(map[[2]*Node]bool)
	for i, e := range entities {
		src := nodes[i]
		for _, r := range e.Relations {
			dst, ok := byID[r.TargetID]
			if !ok {
				b.logger.Debug("relation target missing", "source", e.Name, "target", r.TargetID)
				continue
			}
			if dst.Name == src.Name {
				continue
			}
			key := [2]*Node{src, dst}
			if pairs[key] {
				continue
			}
			pairs[key] = true
			links = append(links, &Link{Source: src, Target: dst, RelationType: r.Type})
		}
	}
	return links
}

// Build creates a fresh graph from entities. With a center name the links
// form a star around the center; otherwise they follow the relations.
// A missing center yields a graph with nodes, no links and ErrCenterNotFound.
func (b *Builder) Build(entities []Entity, centerName string) (*Graph, error) {
	g := &Graph{
		ID:       uuid.New(),
		Nodes:    BuildNodes(entities),
		Entities: entities,
	}
	if centerName == "" {
		g.Links = b.LinksFromRelations(entities, g.Nodes)
		return g, nil
	}
	links, err := b.LinksFromCenter(g.Nodes, centerName)
	g.Links = links
	return g, err
}
