package layout

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/msalah0e/relmap/internal/model"
)

// State is the lifecycle state of a simulation.
type State int

const (
	// Idle means the simulation has converged or not started yet.
	Idle State = iota
	// Running means the simulation is held hot, after a start or a reheat.
	Running
	// Cooling means alpha is decaying towards rest.
	Cooling
	// Stopped is terminal; no further ticks run.
	Stopped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cooling:
		return "cooling"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Simulation is the per-build force simulation state. It is not safe for
// concurrent use: ticks and drag events must come from one loop.
type Simulation struct {
	cfg     Config
	graphID uuid.UUID
	nodes   []*model.Node
	links   []*model.Link
	index   map[*model.Node]int

	vx, vy       []float64
	linkStrength []float64
	linkBias     []float64

	alpha       float64
	alphaTarget float64
	state       State
	ticks       int
	rng         *rand.Rand

	sched   FrameScheduler
	pending bool
	sinks   []Sink
}

func newSimulation(g *model.Graph, cfg Config) *Simulation {
	s := &Simulation{
		cfg:     cfg,
		graphID: g.ID,
		nodes:   g.Nodes,
		links:   g.Links,
		index:   make(map[*model.Node]int, len(g.Nodes)),
		vx:      make([]float64, len(g.Nodes)),
		vy:      make([]float64, len(g.Nodes)),
		alpha:   1,
		state:   Idle,
		rng:     rand.New(rand.NewPCG(cfg.Seed, 0x9e3779b97f4a7c15)),
	}
	for i, n := range g.Nodes {
		s.index[n] = i
	}
	s.place()
	s.initLinks()
	return s
}

// place puts unplaced nodes on a phyllotaxis spiral around the center.
func (s *Simulation) place() {
	for i, n := range s.nodes {
		if n.Pinned != nil {
			n.X, n.Y, n.Placed = n.Pinned.X, n.Pinned.Y, true
			continue
		}
		if n.Placed {
			continue
		}
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		n.X = s.cfg.CenterX + radius*math.Cos(angle)
		n.Y = s.cfg.CenterY + radius*math.Sin(angle)
		n.Placed = true
	}
}

// AddSink registers a receiver for per-tick frames.
func (s *Simulation) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// GraphID returns the build the simulated nodes belong to.
func (s *Simulation) GraphID() uuid.UUID { return s.graphID }

// Nodes returns the simulated node objects.
func (s *Simulation) Nodes() []*model.Node { return s.nodes }

// Links returns the simulated links.
func (s *Simulation) Links() []*model.Link { return s.links }

// Contains reports whether n is simulated here.
func (s *Simulation) Contains(n *model.Node) bool {
	_, ok := s.index[n]
	return ok
}

func (s *Simulation) Alpha() float64       { return s.alpha }
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }
func (s *Simulation) State() State         { return s.state }
func (s *Simulation) Ticks() int           { return s.ticks }
func (s *Simulation) Config() Config       { return s.cfg }

// Velocity returns the current velocity of n.
func (s *Simulation) Velocity(n *model.Node) (float64, float64) {
	i, ok := s.index[n]
	if !ok {
		return 0, 0
	}
	return s.vx[i], s.vy[i]
}

// Hot reports whether the alpha target is held above rest.
func (s *Simulation) Hot() bool {
	return s.alphaTarget >= s.cfg.AlphaMin
}

// SetAlphaTarget sets the temperature alpha decays towards.
func (s *Simulation) SetAlphaTarget(target float64) {
	if target < 0 {
		target = 0
	}
	s.alphaTarget = target
}

// Start begins cooperative ticking on sched, one tick per frame.
func (s *Simulation) Start(sched FrameScheduler) {
	if s.state == Stopped {
		return
	}
	s.sched = sched
	s.state = Running
	s.scheduleFrame()
}

// Restart resumes ticking after convergence. It does not touch alpha.
func (s *Simulation) Restart() {
	if s.state == Stopped {
		return
	}
	if s.state == Idle {
		s.state = Running
	}
	s.scheduleFrame()
}

// Stop ends the simulation. A frame already scheduled sees the flag and
// returns without ticking.
func (s *Simulation) Stop() {
	s.state = Stopped
}

func (s *Simulation) scheduleFrame() {
	if s.sched == nil || s.pending {
		return
	}
	s.pending = true
	s.sched.Schedule(s.frame)
}

func (s *Simulation) frame() {
	s.pending = false
	if s.state == Stopped {
		return
	}
	if s.Tick() {
		s.scheduleFrame()
	}
}

// Tick advances the simulation by one step and reports whether it is still
// active afterwards.
func (s *Simulation) Tick() bool {
	switch s.state {
	case Stopped:
		return false
	case Idle:
		if !s.Hot() && s.alpha < s.cfg.AlphaMin {
			return false
		}
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	s.applySprings()
	s.applyRepulsion()
	s.applyCollision()
	s.applyCentering()
	s.integrate()
	s.ticks++

	switch {
	case s.Hot():
		s.state = Running
	case s.alpha < s.cfg.AlphaMin:
		s.state = Idle
	default:
		s.state = Cooling
	}

	s.emit()
	return s.state != Idle
}

// RunUntilSettled ticks synchronously until the simulation goes idle or
// maxTicks is reached. A non-positive maxTicks uses the configured bound.
// It returns the number of ticks run.
func (s *Simulation) RunUntilSettled(maxTicks int) int {
	if maxTicks <= 0 {
		maxTicks = s.cfg.MaxTicks
	}
	start := s.ticks
	for s.ticks-start < maxTicks && s.Tick() {
	}
	return s.ticks - start
}

func (s *Simulation) emit() {
	if len(s.sinks) == 0 {
		return
	}
	f := s.Frame()
	for _, sink := range s.sinks {
		sink.OnTick(f)
	}
}
