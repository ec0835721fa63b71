package maxflow

import (
	"container/list"
	"context"
	"math"

	"github.com/new4mezdz/guandao/pkg"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/util"
)

const (
	INVALID_LEVEL = -1

	// augmenting paths pushed between two context checks
	CANCEL_CHECK_INTERVAL = 64
)

// DinicMaxFlow. unbounded edges are solved with a saturation capacity larger than twice the
// sum of all bounded capacities: a cut crossing an unbounded edge is always worth more than
// any cut made of bounded edges only.
type DinicMaxFlow struct {
	graph         *da.FlowGraph
	level         []int
	lastEdge      []int
	boundedTotal  float64
	saturation    float64
	augmentations int
	debug         bool
}

func NewDinicMaxFlow(graph *da.FlowGraph, debug bool) *DinicMaxFlow {
	dmf := &DinicMaxFlow{
		graph:    graph,
		level:    make([]int, graph.NumberOfVertices()),
		lastEdge: make([]int, graph.NumberOfVertices()),
		debug:    debug,
	}
	graph.ForEachEdge(func(_ da.Index, e *da.FlowEdge) {
		if !e.GetCapacity().IsUnbounded() {
			dmf.boundedTotal += e.GetCapacity().GetValue()
		}
	})
	dmf.saturation = 2 * (dmf.boundedTotal + 1)
	return dmf
}

func (dmf *DinicMaxFlow) capacityOf(e *da.FlowEdge) float64 {
	if e.GetCapacity().IsUnbounded() {
		return dmf.saturation
	}
	return e.GetCapacity().GetValue()
}

func (dmf *DinicMaxFlow) residual(e *da.FlowEdge) float64 {
	return dmf.capacityOf(e) - e.GetFlow()
}

func (dmf *DinicMaxFlow) bfsLevelGraph(
	source, target da.Index) bool {

	for i := range dmf.level {
		dmf.level[i] = INVALID_LEVEL
	}

	levelQueue := list.New()
	levelQueue.PushBack(source)
	dmf.level[source] = 0

	for levelQueue.Len() > 0 {
		u := levelQueue.Front().Value.(da.Index)
		levelQueue.Remove(levelQueue.Front())

		level := dmf.level[u] + 1
		if u == target {
			break
		}

		dmf.graph.ForEachVertexEdges(u, func(_ da.Index, edge *da.FlowEdge) {
			v := edge.GetTo()
			if dmf.residual(edge) > pkg.FLOW_EPSILON && dmf.level[v] == INVALID_LEVEL {
				dmf.level[v] = level
				levelQueue.PushBack(v)
			}
		})
	}
	return dmf.level[target] != INVALID_LEVEL
}

func (dmf *DinicMaxFlow) dfsAugmentPath(u da.Index, t da.Index, f float64) float64 {
	if u == t || f <= pkg.FLOW_EPSILON {
		return f
	}

	for ; dmf.lastEdge[u] < dmf.graph.GetVertexEdgesSize(u); dmf.lastEdge[u]++ {
		e, edge := dmf.graph.GetEdgeOfVertex(u, dmf.lastEdge[u])
		v := edge.GetTo()
		residual := dmf.residual(edge)
		if residual <= pkg.FLOW_EPSILON || dmf.level[v] != dmf.level[u]+1 {
			continue
		}

		if pushed := dmf.dfsAugmentPath(v, t, util.MinFloat(residual, f)); pushed > pkg.FLOW_EPSILON {
			edge.AddFlow(pushed)
			dmf.graph.GetReversedEdge(e).AddFlow(-pushed)
			return pushed
		}
	}

	return 0.0
}

func (dmf *DinicMaxFlow) resetCurrentEdges() {
	for i := range dmf.lastEdge {
		dmf.lastEdge[i] = 0
	}
}

/*
time complexity: O(N^2 * M), N,M = number of vertices & edges of the flow graph.
ctx is checked before every level graph and every CANCEL_CHECK_INTERVAL augmenting paths.
*/
func (dmf *DinicMaxFlow) ComputeMaxflowMinCut(ctx context.Context, s da.Index, t da.Index) (*MinCut, error) {
	maxFlow := 0.0

	for dmf.bfsLevelGraph(s, t) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dmf.resetCurrentEdges()

		for {
			flow := dmf.dfsAugmentPath(s, t, math.MaxFloat64)
			if flow <= pkg.FLOW_EPSILON {
				break
			}
			maxFlow += flow
			dmf.augmentations++
			if dmf.augmentations%CANCEL_CHECK_INTERVAL == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
		}
	}

	return dmf.makeMinCut(maxFlow), nil
}

// makeMinCut. the last failed bfs leaves every vertex reachable from s in the residual graph
// with a valid level.
func (dmf *DinicMaxFlow) makeMinCut(maxFlow float64) *MinCut {
	minCut := NewMinCut(dmf.graph.NumberOfVertices())
	for u := range dmf.level {
		minCut.SetFlag(da.Index(u), dmf.level[u] != INVALID_LEVEL)
	}
	minCut.setMaxFlow(maxFlow)
	minCut.setFinite(maxFlow < dmf.boundedTotal+1)
	minCut.setAugmentations(dmf.augmentations)
	return minCut
}

func (dmf *DinicMaxFlow) GetAugmentations() int {
	return dmf.augmentations
}
