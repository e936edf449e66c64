// Package layout positions graph nodes with a force simulation.
//
// Each tick integrates repulsion between all node pairs, a centering shift,
// springs along links and optional collision. Alpha (the temperature) decays
// towards its target every tick; the simulation goes idle once alpha drops
// below AlphaMin. Ticks are driven cooperatively by a FrameScheduler owned by
// the host loop.
package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/msalah0e/relmap/internal/model"
)

type placement struct {
	name string
	x, y float64
}

// Engine owns the active simulation. Running a new graph stops the previous
// simulation first, so two simulations never move the same nodes.
type Engine struct {
	logger  *log.Logger
	current *Simulation
	last    map[int]placement
}

// NewEngine returns an Engine. A nil logger discards output.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{logger: logger, last: make(map[int]placement)}
}

// Run stops the active simulation and prepares a new one over g. Nodes
// without a position take the last position recorded for their index when
// the name still matches. The returned simulation is idle until started.
func (e *Engine) Run(g *model.Graph, cfg Config) *Simulation {
	e.Stop()

	carried := 0
	for _, n := range g.Nodes {
		if n.Placed {
			continue
		}
		if p, ok := e.last[n.Index]; ok && p.name == n.Name {
			n.X, n.Y, n.Placed = p.x, p.y, true
			carried++
		}
	}

	sim := newSimulation(g, cfg.normalized())
	e.current = sim
	e.logger.Debug("simulation created",
		"graph", g.ID, "nodes", len(g.Nodes), "links", len(g.Links), "carried", carried)
	return sim
}

// Current returns the active simulation, or nil.
func (e *Engine) Current() *Simulation {
	return e.current
}

// Stop stops the active simulation and remembers its node positions.
func (e *Engine) Stop() {
	if e.current == nil {
		return
	}
	sim := e.current
	sim.Stop()
	for _, n := range sim.nodes {
		if n.Placed {
			e.last[n.Index] = placement{name: n.Name, x: n.X, y: n.Y}
		}
	}
	e.logger.Debug("simulation stopped", "graph", sim.graphID, "ticks", sim.ticks)
	e.current = nil
}

// Forget drops remembered positions.
func (e *Engine) Forget() {
	e.last = make(map[int]placement)
}
