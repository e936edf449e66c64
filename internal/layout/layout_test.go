package layout

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/relmap/internal/model"
)

// ring builds n entities where entity i relates to entity i+1.
func ring(n int) []model.Entity {
	entities := make([]model.Entity, n)
	for i := range entities {
		entities[i] = model.Entity{
			ID:        i + 1,
			Name:      fmt.Sprintf("Company %02d", i),
			Relations: []model.Relation{{Type: "supplier", TargetID: (i+1)%n + 1}},
		}
	}
	return entities
}

func buildGraph(t *testing.T, entities []model.Entity) *model.Graph {
	t.Helper()
	g, err := model.NewBuilder(nil).Build(entities, "")
	require.NoError(t, err)
	return g
}

func distance(a, b *model.Node) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestSimulation_Converges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Repulsion = 3500
	cfg.CollisionRadius = 8

	for _, n := range []int{1, 2, 10, 50} {
		t.Run(fmt.Sprintf("%d nodes", n), func(t *testing.T) {
			sim := NewEngine(nil).Run(buildGraph(t, ring(n)), cfg)

			ticks := sim.RunUntilSettled(1000)
			assert.Less(t, ticks, 1000)
			assert.Equal(t, Idle, sim.State())
			assert.Less(t, sim.Alpha(), cfg.AlphaMin)
			for _, node := range sim.Nodes() {
				assert.False(t, math.IsNaN(node.X) || math.IsNaN(node.Y), "node %q has NaN position", node.Name)
			}
			assert.False(t, sim.Tick(), "idle simulation must not tick")
		})
	}
}

func TestSimulation_CooperativeFrames(t *testing.T) {
	sim := NewEngine(nil).Run(buildGraph(t, ring(12)), DefaultConfig())
	sched := &ManualScheduler{}

	sim.Start(sched)
	assert.Equal(t, Running, sim.State())
	require.Equal(t, 1, sched.Pending())

	require.True(t, sched.Step())
	assert.Equal(t, Cooling, sim.State())
	assert.Equal(t, 1, sched.Pending(), "one frame in flight at a time")

	sched.Drain(2000)
	assert.Equal(t, Idle, sim.State())
	assert.Zero(t, sched.Pending())
}

func TestSimulation_StopIsCooperative(t *testing.T) {
	sim := NewEngine(nil).Run(buildGraph(t, ring(5)), DefaultConfig())
	sched := &ManualScheduler{}
	sim.Start(sched)
	sched.Drain(3)
	ticks := sim.Ticks()

	sim.Stop()
	require.Equal(t, 1, sched.Pending())
	sched.Drain(10)

	assert.Equal(t, ticks, sim.Ticks())
	assert.Equal(t, Stopped, sim.State())
	assert.Zero(t, sched.Pending())

	sim.Restart()
	assert.Equal(t, Stopped, sim.State())
	assert.Zero(t, sched.Pending())
}

func TestSimulation_ReheatAfterConvergence(t *testing.T) {
	sim := NewEngine(nil).Run(buildGraph(t, ring(4)), DefaultConfig())
	sched := &ManualScheduler{}
	sim.Start(sched)
	sched.Drain(2000)
	require.Equal(t, Idle, sim.State())

	sim.SetAlphaTarget(0.3)
	sim.Restart()
	assert.Equal(t, Running, sim.State())
	sched.Drain(50)
	assert.Equal(t, Running, sim.State())
	assert.Greater(t, sim.Alpha(), sim.Config().AlphaMin)

	sim.SetAlphaTarget(0)
	sched.Drain(2000)
	assert.Equal(t, Idle, sim.State())
}

func TestSimulation_PinnedNodeHoldsPosition(t *testing.T) {
	g := buildGraph(t, ring(6))
	sim := NewEngine(nil).Run(g, DefaultConfig())
	pinned := g.Nodes[2]
	pinned.Pinned = &model.Point{X: 123.5, Y: -45.25}

	for i := 0; i < 20; i++ {
		sim.Tick()
		require.Equal(t, 123.5, pinned.X)
		require.Equal(t, -45.25, pinned.Y)
	}
	vx, vy := sim.Velocity(pinned)
	assert.Zero(t, vx)
	assert.Zero(t, vy)
}

func TestSimulation_SpringRestLength(t *testing.T) {
	entities := []model.Entity{
		{ID: 1, Name: "Acme", Relations: []model.Relation{{Type: "client", TargetID: 2}}},
		{ID: 2, Name: "Foo"},
	}
	g := buildGraph(t, entities)
	cfg := DefaultConfig()
	cfg.Repulsion = 0
	cfg.LinkDistance = 50

	sim := NewEngine(nil).Run(g, cfg)
	sim.RunUntilSettled(0)

	assert.InDelta(t, 50, distance(g.Nodes[0], g.Nodes[1]), 2)
}

func TestSimulation_RepulsionSeparates(t *testing.T) {
	g := buildGraph(t, []model.Entity{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Foo"}})
	before := 0.0

	cfg := DefaultConfig()
	cfg.Repulsion = 1000
	sim := NewEngine(nil).Run(g, cfg)
	before = distance(g.Nodes[0], g.Nodes[1])
	sim.RunUntilSettled(0)

	assert.Greater(t, distance(g.Nodes[0], g.Nodes[1]), before)
}

func TestSimulation_CollisionKeepsSeparation(t *testing.T) {
	g := buildGraph(t, []model.Entity{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Foo"}})
	g.Nodes[0].X, g.Nodes[0].Y, g.Nodes[0].Placed = 0, 0, true
	g.Nodes[1].X, g.Nodes[1].Y, g.Nodes[1].Placed = 1, 0, true

	cfg := DefaultConfig()
	cfg.Repulsion = 0
	cfg.CollisionRadius = 20
	sim := NewEngine(nil).Run(g, cfg)
	sim.RunUntilSettled(0)

	assert.GreaterOrEqual(t, distance(g.Nodes[0], g.Nodes[1]), 0.95*40)
}

func TestSimulation_CentersMass(t *testing.T) {
	g := buildGraph(t, ring(8))
	cfg := DefaultConfig()
	cfg.CenterX, cfg.CenterY = 400, 300

	NewEngine(nil).Run(g, cfg).RunUntilSettled(0)

	var sx, sy float64
	for _, n := range g.Nodes {
		sx += n.X
		sy += n.Y
	}
	assert.InDelta(t, 400, sx/8, 1)
	assert.InDelta(t, 300, sy/8, 1)
}

func TestEngine_RunStopsPrevious(t *testing.T) {
	e := NewEngine(nil)
	first := e.Run(buildGraph(t, ring(3)), DefaultConfig())
	second := e.Run(buildGraph(t, ring(3)), DefaultConfig())

	assert.Equal(t, Stopped, first.State())
	assert.Same(t, second, e.Current())

	e.Stop()
	assert.Nil(t, e.Current())
	assert.Equal(t, Stopped, second.State())
}

func TestEngine_CarriesPositionsByIndex(t *testing.T) {
	e := NewEngine(nil)
	entities := ring(5)
	g1 := buildGraph(t, entities)
	e.Run(g1, DefaultConfig()).RunUntilSettled(0)

	g2 := buildGraph(t, entities)
	e.Run(g2, DefaultConfig())
	for i := range g2.Nodes {
		assert.Equal(t, g1.Nodes[i].X, g2.Nodes[i].X)
		assert.Equal(t, g1.Nodes[i].Y, g2.Nodes[i].Y)
	}

	renamed := ring(5)
	renamed[0].Name = "Someone else"
	g3 := buildGraph(t, renamed)
	e.Run(g3, DefaultConfig())
	assert.NotEqual(t, g2.Nodes[0].X, g3.Nodes[0].X, "index reused by another entity must not carry position")
	assert.Equal(t, g2.Nodes[1].X, g3.Nodes[1].X)
}

func TestFrame_IsSnapshot(t *testing.T) {
	g := buildGraph(t, ring(3))
	sim := NewEngine(nil).Run(g, DefaultConfig())

	var frames []Frame
	sim.AddSink(SinkFunc(func(f Frame) { frames = append(frames, f) }))
	sim.Tick()
	sim.Tick()
	require.Len(t, frames, 2)

	f := frames[1]
	assert.Equal(t, g.ID, f.GraphID)
	assert.Equal(t, 2, f.Tick)
	require.Len(t, f.Nodes, 3)
	require.Len(t, f.Links, 3)
	assert.Equal(t, g.Nodes[0].X, f.Nodes[0].X)

	x := g.Nodes[0].X
	f.Nodes[0].X = 9999
	assert.Equal(t, x, g.Nodes[0].X)

	minX, minY, maxX, maxY := f.Bounds()
	assert.LessOrEqual(t, minX, maxX)
	assert.LessOrEqual(t, minY, maxY)
}

func TestTickerScheduler_Loop(t *testing.T) {
	sim := NewEngine(nil).Run(buildGraph(t, ring(4)), DefaultConfig())
	sched := NewTickerScheduler(1000)

	posted := false
	sched.Post(func() { posted = true })
	sim.Start(sched)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, sched.Loop(ctx, true))

	assert.True(t, posted)
	assert.Equal(t, Idle, sim.State())
	assert.True(t, sched.Idle())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "cooling", Cooling.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", State(42).String())
}
