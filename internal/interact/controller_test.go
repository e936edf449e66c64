package interact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/relmap/internal/layout"
	"github.com/msalah0e/relmap/internal/model"
)

func setup(t *testing.T) (*model.Graph, *layout.Simulation, *layout.ManualScheduler, *Controller) {
	t.Helper()
	entities := []model.Entity{
		{ID: 1, Name: "Acme", Relations: []model.Relation{{Type: "supplier", TargetID: 2}, {Type: "client", TargetID: 3}}},
		{ID: 2, Name: "Foo", Relations: []model.Relation{{Type: "partner", TargetID: 3}}},
		{ID: 3, Name: "Bar"},
		{ID: 4, Name: "Baz", Relations: []model.Relation{{Type: "client", TargetID: 1}}},
	}
	g, err := model.NewBuilder(nil).Build(entities, "")
	require.NoError(t, err)

	sim := layout.NewEngine(nil).Run(g, layout.DefaultConfig())
	sched := &layout.ManualScheduler{}
	sim.Start(sched)
	return g, sim, sched, NewController(sim, nil)
}

func TestDrag_PinFollowsPointerExactly(t *testing.T) {
	g, sim, sched, c := setup(t)
	node := g.Nodes[1]

	require.NoError(t, c.DragStart(node))
	require.NotNil(t, node.Pinned)

	pointer := []model.Point{{X: 10, Y: 20}, {X: -33.5, Y: 7.25}, {X: 400, Y: 300}}
	for _, p := range pointer {
		require.NoError(t, c.DragMove(node, p))
		require.True(t, sched.Step())
		assert.Equal(t, p.X, node.X)
		assert.Equal(t, p.Y, node.Y)
	}
	assert.Equal(t, layout.Running, sim.State())

	require.NoError(t, c.DragEnd(node))
	assert.Nil(t, node.Pinned)
	assert.Zero(t, sim.AlphaTarget())
	assert.Zero(t, c.Dragging())
}

func TestDrag_ReleasedNodeRejoinsSimulation(t *testing.T) {
	g, _, sched, c := setup(t)
	node := g.Nodes[0]

	require.NoError(t, c.DragStart(node))
	require.NoError(t, c.DragMove(node, model.Point{X: 500, Y: 500}))
	sched.Step()
	require.NoError(t, c.DragEnd(node))

	sched.Drain(5)
	assert.NotEqual(t, 500.0, node.X, "free node should move again after release")
}

func TestDragStart_ReheatsIdleSimulation(t *testing.T) {
	g, sim, sched, c := setup(t)
	sched.Drain(2000)
	require.Equal(t, layout.Idle, sim.State())
	require.Zero(t, sched.Pending())

	require.NoError(t, c.DragStart(g.Nodes[2]))
	assert.Equal(t, layout.Running, sim.State())
	assert.Equal(t, sim.Config().ReheatTarget, sim.AlphaTarget())
	assert.Equal(t, 1, sched.Pending())
}

func TestDragEnd_DoesNotRestartIdleSimulation(t *testing.T) {
	g, sim, sched, c := setup(t)
	sched.Drain(2000)
	require.Equal(t, layout.Idle, sim.State())

	node := g.Nodes[3]
	node.Pinned = &model.Point{X: 1, Y: 1}
	require.NoError(t, c.DragEnd(node))

	assert.Equal(t, layout.Idle, sim.State())
	assert.Zero(t, sched.Pending())
	assert.Nil(t, node.Pinned)
}

func TestDrag_MultipleActiveDrags(t *testing.T) {
	g, sim, _, c := setup(t)

	require.NoError(t, c.DragStart(g.Nodes[0]))
	require.NoError(t, c.DragStart(g.Nodes[1]))
	require.Equal(t, 2, c.Dragging())

	require.NoError(t, c.DragEnd(g.Nodes[0]))
	assert.True(t, sim.Hot(), "simulation stays hot while another drag is active")

	require.NoError(t, c.DragEnd(g.Nodes[1]))
	assert.False(t, sim.Hot())
}

func TestDrag_StaleNode(t *testing.T) {
	_, _, _, c := setup(t)

	stranger := &model.Node{Index: 0, Name: "Acme"}
	assert.ErrorIs(t, c.DragStart(stranger), ErrStaleNode)
	assert.ErrorIs(t, c.DragMove(nil, model.Point{}), ErrStaleNode)
	assert.Nil(t, stranger.Pinned)
}

func TestDrag_StoppedSimulation(t *testing.T) {
	g, sim, _, c := setup(t)
	sim.Stop()

	assert.ErrorIs(t, c.DragStart(g.Nodes[0]), ErrStaleNode)
}

func TestHandle_Dispatch(t *testing.T) {
	g, _, _, c := setup(t)
	node := g.Nodes[2]

	require.NoError(t, c.Handle(PhaseStart, node, model.Point{}))
	require.NoError(t, c.Handle(PhaseMove, node, model.Point{X: 5, Y: 6}))
	assert.Equal(t, &model.Point{X: 5, Y: 6}, node.Pinned)
	require.NoError(t, c.Handle(PhaseEnd, node, model.Point{}))
	assert.Nil(t, node.Pinned)

	assert.Error(t, c.Handle(Phase("hover"), node, model.Point{}))
}

func TestEmphasize(t *testing.T) {
	g, _, sched, c := setup(t)
	surface := Surface{Width: 800, Height: 600}

	require.NoError(t, c.Emphasize(g.Nodes[1], false, surface))
	assert.True(t, g.Nodes[1].Emphasized)
	assert.Nil(t, g.Nodes[1].Pinned)

	require.NoError(t, c.Emphasize(g.Nodes[2], true, surface))
	sched.Drain(10)
	assert.Equal(t, 400.0, g.Nodes[2].X)
	assert.Equal(t, 300.0, g.Nodes[2].Y)
}

func TestEmphasize_DragReturnsToSurfaceCenter(t *testing.T) {
	g, _, sched, c := setup(t)
	node := g.Nodes[0]
	require.NoError(t, c.Emphasize(node, true, Surface{Width: 800, Height: 600}))

	require.NoError(t, c.DragStart(node))
	require.NoError(t, c.DragMove(node, model.Point{X: 10, Y: 10}))
	require.True(t, sched.Step())
	assert.Equal(t, 10.0, node.X)

	require.NoError(t, c.DragEnd(node))
	require.NotNil(t, node.Pinned)
	assert.Equal(t, model.Point{X: 400, Y: 300}, *node.Pinned)

	sched.Drain(1000)
	assert.Equal(t, 400.0, node.X)
	assert.Equal(t, 300.0, node.Y)
	assert.True(t, node.Emphasized)
}
