// Package interact translates pointer drags and search highlights into pins
// on the active simulation.
package interact

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/msalah0e/relmap/internal/layout"
	"github.com/msalah0e/relmap/internal/model"
)

// ErrStaleNode is returned for events on nodes the active simulation does
// not own, usually because a rebuild happened in between.
var ErrStaleNode = errors.New("node is not part of the active simulation")

// Phase is a pointer drag phase.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseMove  Phase = "move"
	PhaseEnd   Phase = "end"
)

// Surface is the drawing area the host renders into.
type Surface struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Center returns the geometric center of the surface.
func (s Surface) Center() model.Point {
	return model.Point{X: s.Width / 2, Y: s.Height / 2}
}

// Controller handles drags for one simulation.
type Controller struct {
	sim    *layout.Simulation
	logger *log.Logger
	active map[*model.Node]bool
	// anchors holds the emphasis pin a node returns to after a drag.
	anchors map[*model.Node]model.Point
}

// NewController returns a Controller bound to sim. A nil logger discards
// output.
func NewController(sim *layout.Simulation, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		sim:     sim,
		logger:  logger,
		active:  make(map[*model.Node]bool),
		anchors: make(map[*model.Node]model.Point),
	}
}

// Dragging reports how many nodes are being dragged.
func (c *Controller) Dragging() int { return len(c.active) }

// DragStart pins n at its current position and reheats a cool simulation.
func (c *Controller) DragStart(n *model.Node) error {
	if err := c.check(n); err != nil {
		return err
	}
	if len(c.active) == 0 && !c.sim.Hot() {
		c.sim.SetAlphaTarget(c.sim.Config().ReheatTarget)
		c.sim.Restart()
		c.logger.Debug("reheated for drag", "node", n.Name, "alpha", c.sim.Alpha())
	}
	c.active[n] = true
	n.Pinned = &model.Point{X: n.X, Y: n.Y}
	return nil
}

// DragMove moves the pin of n to p. The simulation writes p into the node
// on every tick until the drag ends.
func (c *Controller) DragMove(n *model.Node, p model.Point) error {
	if err := c.check(n); err != nil {
		return err
	}
	n.Pinned = &model.Point{X: p.X, Y: p.Y}
	return nil
}

// DragEnd releases n, or returns it to its emphasis pin if it has one. The
// last drag to end lets the simulation cool; it never restarts a simulation
// that has already gone idle.
func (c *Controller) DragEnd(n *model.Node) error {
	if err := c.check(n); err != nil {
		return err
	}
	if p, ok := c.anchors[n]; ok {
		n.Pinned = &p
	} else {
		n.Pinned = nil
	}
	delete(c.active, n)
	if len(c.active) == 0 {
		c.sim.SetAlphaTarget(0)
	}
	return nil
}

// Handle dispatches a drag event.
func (c *Controller) Handle(phase Phase, n *model.Node, p model.Point) error {
	switch phase {
	case PhaseStart:
		return c.DragStart(n)
	case PhaseMove:
		return c.DragMove(n, p)
	case PhaseEnd:
		return c.DragEnd(n)
	default:
		return fmt.Errorf("unknown drag phase %q", phase)
	}
}

// Emphasize marks n as the search result. In a search view n is also pinned
// at the center of surface for as long as this simulation lives; drags move
// it temporarily and it snaps back when they end.
func (c *Controller) Emphasize(n *model.Node, searchView bool, surface Surface) error {
	if err := c.check(n); err != nil {
		return err
	}
	n.Emphasized = true
	if searchView {
		p := surface.Center()
		c.anchors[n] = p
		n.Pinned = &model.Point{X: p.X, Y: p.Y}
		n.X, n.Y = p.X, p.Y
	}
	return nil
}

func (c *Controller) check(n *model.Node) error {
	if n == nil || !c.sim.Contains(n) {
		return ErrStaleNode
	}
	if c.sim.State() == layout.Stopped {
		return fmt.Errorf("%w: simulation stopped", ErrStaleNode)
	}
	return nil
}
