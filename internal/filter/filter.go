// Package filter derives reduced subgraphs from a built graph.
//
// Steps run in a fixed order: search, relation type, center. The center
// step works on the unfiltered graph and replaces whatever the first two
// steps produced. Results reuse the input's node objects and never mutate
// the input graph.
package filter

import (
	"fmt"

	"github.com/msalah0e/relmap/internal/model"
)

// Options selects a subgraph. Empty fields are ignored.
type Options struct {
	SearchTerm   string `json:"searchTerm,omitempty"`
	RelationType string `json:"relationType,omitempty"`
	CenterName   string `json:"centerName,omitempty"`
}

// IsZero reports whether no option is set.
func (o Options) IsZero() bool {
	return o.SearchTerm == "" && o.RelationType == "" && o.CenterName == ""
}

// Apply returns the subgraph of g selected by opts.
//
// A search miss returns ErrNodeNotFound and no graph. A missing center
// returns an empty graph together with ErrCenterNotFound.
func Apply(g *model.Graph, opts Options) (*model.Graph, error) {
	links := g.Links
	nodes := g.Nodes

	var focus *model.Node
	if opts.SearchTerm != "" {
		n, ok := g.FindNode(opts.SearchTerm)
		if !ok {
			return nil, fmt.Errorf("%w: %q", model.ErrNodeNotFound, opts.SearchTerm)
		}
		focus = n
		links = touching(links, n)
		nodes = derive(g, focus, links)
	}

	if opts.RelationType != "" {
		links = byRelationType(g, links, opts.RelationType)
		nodes = derive(g, focus, links)
	}

	if opts.CenterName != "" {
		c, ok := g.NodeByName(opts.CenterName)
		if !ok {
			empty := &model.Graph{ID: g.ID, Nodes: []*model.Node{}, Links: []*model.Link{}, Entities: g.Entities}
			return empty, fmt.Errorf("%w: %q", model.ErrCenterNotFound, opts.CenterName)
		}
		links = touching(g.Links, c)
		nodes = derive(g, c, links)
	}

	return &model.Graph{
		ID:       g.ID,
		Nodes:    append([]*model.Node(nil), nodes...),
		Links:    append([]*model.Link(nil), links...),
		Entities: g.Entities,
	}, nil
}

// touching returns the links with n as source or target.
func touching(links []*model.Link, n *model.Node) []*model.Link {
	out := make([]*model.Link, 0)
	for _, l := range links {
		if l.Source == n || l.Target == n {
			out = append(out, l)
		}
	}
	return out
}

// byRelationType keeps links whose source entity declares a relation of
// type relType pointing at the link's target entity.
func byRelationType(g *model.Graph, links []*model.Link, relType string) []*model.Link {
	out := make([]*model.Link, 0)
	for _, l := range links {
		src, ok := g.Entity(l.Source)
		if !ok {
			continue
		}
		dst, ok := g.Entity(l.Target)
		if !ok {
			continue
		}
		for _, r := range src.Relations {
			if r.Type == relType && r.TargetID == dst.ID {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// derive collects the endpoints of links plus focus, in graph order.
func derive(g *model.Graph, focus *model.Node, links []*model.Link) []*model.Node {
	keep := make(map[*model.Node]bool, 2*len(links)+1)
	if focus != nil {
		keep[focus] = true
	}
	for _, l := range links {
		keep[l.Source] = true
		keep[l.Target] = true
	}
	out := make([]*model.Node, 0, len(keep))
	for _, n := range g.Nodes {
		if keep[n] {
			out = append(out, n)
		}
	}
	return out
}
