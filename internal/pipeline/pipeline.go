// Package pipeline ties the record source, graph builder, filter, layout
// engine and drag controller into one rebuild sequence.
//
// A Pipeline is single-threaded: option setters, drag events and scheduled
// frames must all run on the goroutine that owns the FrameScheduler.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/msalah0e/relmap/internal/filter"
	"github.com/msalah0e/relmap/internal/interact"
	"github.com/msalah0e/relmap/internal/journal"
	"github.com/msalah0e/relmap/internal/layout"
	"github.com/msalah0e/relmap/internal/model"
	"github.com/msalah0e/relmap/internal/source"
)

// ErrNotStarted is returned by rebuilds before the source became ready.
var ErrNotStarted = errors.New("pipeline not started")

// Notifier shows a short message to the user without blocking.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls fn(msg).
func (fn NotifierFunc) Notify(msg string) { fn(msg) }

// Options configures a Pipeline. Zero fields fall back to defaults.
type Options struct {
	Layout    layout.Config
	Surface   interact.Surface
	Scheduler layout.FrameScheduler
	Sinks     []layout.Sink
	Logger    *log.Logger
	Journal   *journal.Journal
	Notifier  Notifier
	Filter    filter.Options
}

// Pipeline rebuilds the graph and restarts the layout whenever an option
// changes.
type Pipeline struct {
	provider source.Provider
	builder  *model.Builder
	engine   *layout.Engine
	opts     Options
	logger   *log.Logger

	filter   filter.Options
	entities []model.Entity
	started  bool

	graph *model.Graph
	sim   *layout.Simulation
	ctrl  *interact.Controller
}

// New returns a pipeline reading from provider. Nothing is built until Start.
func New(provider source.Provider, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = &layout.ManualScheduler{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string) {})
	}
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.Surface == (interact.Surface{}) {
		opts.Surface = interact.Surface{Width: 2 * opts.Layout.CenterX, Height: 2 * opts.Layout.CenterY}
	}
	return &Pipeline{
		provider: provider,
		builder:  model.NewBuilder(logger),
		engine:   layout.NewEngine(logger),
		opts:     opts,
		logger:   logger,
		filter:   opts.Filter,
	}
}

// Start waits for the provider's ready signal, snapshots its entities and
// runs the first build. It waits at most once; later calls rebuild.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.started {
		select {
		case <-p.provider.ReadySignal():
		case <-ctx.Done():
			return ctx.Err()
		}
		p.entities = p.provider.Entities()
		p.started = true
		p.logger.Info("records ready", "entities", len(p.entities))
	}
	return p.Rebuild()
}

// SetSearchTerm focuses the view on the named node and rebuilds.
func (p *Pipeline) SetSearchTerm(term string) error {
	prev := p.filter
	p.filter.SearchTerm = term
	return p.rebuildOrRevert(prev)
}

// SetRelationFilter keeps only links of relType and rebuilds.
func (p *Pipeline) SetRelationFilter(relType string) error {
	prev := p.filter
	p.filter.RelationType = relType
	return p.rebuildOrRevert(prev)
}

// SetCenterEntity builds a star around name and rebuilds.
func (p *Pipeline) SetCenterEntity(name string) error {
	prev := p.filter
	p.filter.CenterName = name
	return p.rebuildOrRevert(prev)
}

// Reset clears every option and rebuilds from the cached record snapshot.
func (p *Pipeline) Reset() error {
	p.filter = filter.Options{}
	p.engine.Forget()
	p.record(journal.Entry{Event: journal.EventReset})
	return p.Rebuild()
}

func (p *Pipeline) rebuildOrRevert(prev filter.Options) error {
	err := p.Rebuild()
	if errors.Is(err, model.ErrNodeNotFound) {
		p.filter = prev
	}
	return err
}

// Rebuild runs the full sequence: build, filter, layout, interaction.
//
// A search miss keeps the current graph and simulation, notifies the user
// and returns ErrNodeNotFound. A missing center installs an empty graph and
// returns nil.
func (p *Pipeline) Rebuild() error {
	if !p.started {
		return ErrNotStarted
	}
	opts := p.filter

	built, err := p.builder.Build(p.entities, opts.CenterName)
	if err != nil && !errors.Is(err, model.ErrCenterNotFound) {
		return fmt.Errorf("building graph: %w", err)
	}

	g, err := filter.Apply(built, opts)
	switch {
	case errors.Is(err, model.ErrNodeNotFound):
		p.logger.Warn("search found no node", "term", opts.SearchTerm)
		p.opts.Notifier.Notify(fmt.Sprintf("No entity named %q", opts.SearchTerm))
		p.record(journal.Entry{Event: journal.EventSearchMiss, Search: opts.SearchTerm, RelationType: opts.RelationType, Center: opts.CenterName})
		return err
	case errors.Is(err, model.ErrCenterNotFound):
		p.record(journal.Entry{Event: journal.EventCenterNotFound, GraphID: g.ID.String(), Center: opts.CenterName, Details: err.Error()})
	case err != nil:
		return fmt.Errorf("filtering graph: %w", err)
	}

	p.install(g, opts)
	return nil
}

func (p *Pipeline) install(g *model.Graph, opts filter.Options) {
	sim := p.engine.Run(g, p.opts.Layout)
	for _, sink := range p.opts.Sinks {
		sim.AddSink(sink)
	}
	ctrl := interact.NewController(sim, p.logger)

	if opts.SearchTerm != "" {
		if n, ok := g.FindNode(opts.SearchTerm); ok {
			searchView := opts.CenterName == ""
			if err := ctrl.Emphasize(n, searchView, p.opts.Surface); err != nil {
				p.logger.Debug("emphasis skipped", "node", n.Name, "err", err)
			}
		}
	}

	p.graph, p.sim, p.ctrl = g, sim, ctrl
	sim.Start(p.opts.Scheduler)

	p.logger.Debug("graph rebuilt", "graph", g.ID, "nodes", len(g.Nodes), "links", len(g.Links))
	p.record(journal.Entry{
		Event:        journal.EventRebuild,
		GraphID:      g.ID.String(),
		Center:       opts.CenterName,
		Search:       opts.SearchTerm,
		RelationType: opts.RelationType,
		Nodes:        len(g.Nodes),
		Links:        len(g.Links),
	})
}

// DragEvent forwards a pointer drag to the active controller.
func (p *Pipeline) DragEvent(phase interact.Phase, n *model.Node, pt model.Point) error {
	if p.ctrl == nil {
		return interact.ErrStaleNode
	}
	return p.ctrl.Handle(phase, n, pt)
}

// Stop halts the active simulation.
func (p *Pipeline) Stop() {
	p.engine.Stop()
}

// Options returns the active filter options.
func (p *Pipeline) Options() filter.Options { return p.filter }

// Graph returns the displayed graph, or nil before the first build.
func (p *Pipeline) Graph() *model.Graph { return p.graph }

// Simulation returns the active simulation, or nil.
func (p *Pipeline) Simulation() *layout.Simulation { return p.sim }

// Controller returns the active drag controller, or nil.
func (p *Pipeline) Controller() *interact.Controller { return p.ctrl }

// Entities returns the cached record snapshot.
func (p *Pipeline) Entities() []model.Entity { return p.entities }

func (p *Pipeline) record(e journal.Entry) {
	if p.opts.Journal == nil {
		return
	}
	if err := p.opts.Journal.Record(e); err != nil {
		p.logger.Debug("journal write failed", "err", err)
	}
}
