package layout

import "github.com/google/uuid"

// Sink receives a snapshot after every tick. Frames are copies; writing to
// them has no effect on the simulation.
type Sink interface {
	OnTick(f Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f Frame)

// OnTick calls fn(f).
func (fn SinkFunc) OnTick(f Frame) { fn(f) }

// NodeFrame is a node position at one tick.
type NodeFrame struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Group      int     `json:"group"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Pinned     bool    `json:"pinned,omitempty"`
	Emphasized bool    `json:"emphasized,omitempty"`
}

// LinkFrame references its endpoints by position in Frame.Nodes.
type LinkFrame struct {
	Source       int    `json:"source"`
	Target       int    `json:"target"`
	RelationType string `json:"relationType,omitempty"`
}

// Frame is a read-only snapshot of a simulation.
type Frame struct {
	GraphID uuid.UUID   `json:"graphId"`
	Tick    int         `json:"tick"`
	Alpha   float64     `json:"alpha"`
	State   string      `json:"state"`
	Nodes   []NodeFrame `json:"nodes"`
	Links   []LinkFrame `json:"links"`
}

// Frame captures the current positions.
func (s *Simulation) Frame() Frame {
	f := Frame{
		GraphID: s.graphID,
		Tick:    s.ticks,
		Alpha:   s.alpha,
		State:   s.state.String(),
		Nodes:   make([]NodeFrame, len(s.nodes)),
		Links:   make([]LinkFrame, len(s.links)),
	}
	for i, n := range s.nodes {
		f.Nodes[i] = NodeFrame{
			Index:      n.Index,
			Name:       n.Name,
			Group:      n.Group,
			X:          n.X,
			Y:          n.Y,
			Pinned:     n.Pinned != nil,
			Emphasized: n.Emphasized,
		}
	}
	for i, l := range s.links {
		f.Links[i] = LinkFrame{
			Source:       s.index[l.Source],
			Target:       s.index[l.Target],
			RelationType: l.RelationType,
		}
	}
	return f
}

// Bounds returns the bounding box of the frame's nodes.
func (f Frame) Bounds() (minX, minY, maxX, maxY float64) {
	for i, n := range f.Nodes {
		if i == 0 {
			minX, maxX, minY, maxY = n.X, n.X, n.Y, n.Y
			continue
		}
		minX = min(minX, n.X)
		maxX = max(maxX, n.X)
		minY = min(minY, n.Y)
		maxY = max(maxY, n.Y)
	}
	return minX, minY, maxX, maxY
}
