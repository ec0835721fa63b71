package network

import (
	"testing"

	"github.com/new4mezdz/guandao/pkg"
	"github.com/new4mezdz/guandao/pkg/costfunction"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, supply ...string) *NetworkModel {
	t.Helper()
	policy, err := costfunction.NewTierCapacityPolicy(pkg.DEFAULT_LEAK_CAPACITY, pkg.DEFAULT_MIN_DIAMETER)
	require.NoError(t, err)
	return NewNetworkModel(supply, policy)
}

func chain(t *testing.T) *da.NetworkSnapshot {
	t.Helper()
	nodes := []da.Node{
		da.NewNode("S", "", "", da.TIER_A, 0, 0),
		da.NewNode("M", "", "", da.TIER_B, 0, 0),
		da.NewNode("E", "", "", da.TIER_C, 0, 0),
	}
	pipes := []da.Pipe{
		da.NewPipe("P1", "S", "M", 300, da.PIPE_NORMAL),
		da.NewPipe("P2", "M", "E", 100, da.PIPE_NORMAL),
	}
	valves := []da.Valve{da.NewValve("V1", "P1", da.VALVE_FAILED)}
	s, err := da.NewNetworkSnapshot(nodes, pipes, valves)
	require.NoError(t, err)
	return s
}

func TestBuild(t *testing.T) {
	s := chain(t)
	m := newModel(t, "S", "GHOST", "S")

	fn, err := m.Build(s, "P2", overlay.NewValveOverlay(s, ""))
	require.NoError(t, err)

	g := fn.GetGraph()
	assert.Equal(t, 5, g.NumberOfVertices())
	assert.Equal(t, []string{"S"}, fn.GetSupplyNodes())
	assert.Equal(t, pkg.SUPER_SOURCE_ID, g.GetVertex(fn.GetSource()).GetID())
	assert.Equal(t, pkg.SUPER_SINK_ID, g.GetVertex(fn.GetSink()).GetID())
	assert.True(t, g.GetVertex(fn.GetSink()).IsSynthetic())
	// two pipes, one source edge, one sink edge
	assert.Equal(t, 4, g.NumberOfEdges())

	leak := g.GetEdge(fn.GetLeakEdge())
	assert.Equal(t, "P2", leak.GetPipeID())
	assert.Equal(t, da.Bounded(pkg.DEFAULT_LEAK_CAPACITY), leak.GetCapacity())

	e1, _ := g.GetPipeEdge("P1")
	assert.True(t, g.GetEdge(e1).GetCapacity().IsUnbounded(), "failed valve makes its pipe uncuttable")

	var sinkEdges int
	g.ForEachEdge(func(_ da.Index, e *da.FlowEdge) {
		if e.GetTo() == fn.GetSink() {
			sinkEdges++
			assert.Equal(t, "E", g.GetVertex(e.GetFrom()).GetID())
			assert.True(t, e.GetCapacity().IsUnbounded())
		}
	})
	assert.Equal(t, 1, sinkEdges)
}

func TestBuildCapacityByDestinationTier(t *testing.T) {
	s := chain(t)
	fn, err := newModel(t, "S").Build(s, "P2", nil)
	require.NoError(t, err)

	e1, _ := fn.GetGraph().GetPipeEdge("P1")
	// no overlay: P1 keeps its tier B capacity
	assert.Equal(t, da.Bounded(300*300*pkg.TIER_B_MULTIPLIER), fn.GetGraph().GetEdge(e1).GetCapacity())
	assert.False(t, fn.GetGraph().GetEdge(e1).HasValve())
}

func TestBuildErrors(t *testing.T) {
	t.Run("unknown leak pipe", func(t *testing.T) {
		_, err := newModel(t, "S").Build(chain(t), "P9", nil)
		assert.ErrorIs(t, err, da.ErrInvalidTopology)
	})

	t.Run("no supply node present", func(t *testing.T) {
		fn, err := newModel(t, "X").Build(chain(t), "P2", nil)
		require.NoError(t, err)
		assert.Empty(t, fn.GetSupplyNodes())
	})
}
