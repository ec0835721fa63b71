package maxflow

import da "github.com/new4mezdz/guandao/pkg/datastructure"

type MinCut struct {
	flags         []bool // true if the vertex is reachable from source in residual graph (source side)
	maxFlow       float64
	finite        bool
	augmentations int
}

func NewMinCut(numberOfVertices int) *MinCut {
	return &MinCut{
		flags: make([]bool, numberOfVertices),
	}
}

func (mc *MinCut) SetFlag(u da.Index, flag bool) {
	mc.flags[u] = flag
}

func (mc *MinCut) GetFlag(u da.Index) bool {
	return mc.flags[u]
}

func (mc *MinCut) IsFinite() bool {
	return mc.finite
}

// GetValue min cut value, unbounded when every cut crosses an uncuttable edge.
func (mc *MinCut) GetValue() da.Capacity {
	if !mc.finite {
		return da.Unbounded()
	}
	return da.Bounded(mc.maxFlow)
}

func (mc *MinCut) GetAugmentations() int {
	return mc.augmentations
}

func (mc *MinCut) setMaxFlow(maxFlow float64) {
	mc.maxFlow = maxFlow
}

func (mc *MinCut) setFinite(finite bool) {
	mc.finite = finite
}

func (mc *MinCut) setAugmentations(n int) {
	mc.augmentations = n
}

// ForEachCutEdge forward edges going from the source side to the sink side, in vertex order then
// edge order.
func (mc *MinCut) ForEachCutEdge(graph *da.FlowGraph, handle func(e da.Index, edge *da.FlowEdge)) {
	for u := 0; u < graph.NumberOfVertices(); u++ {
		if !mc.flags[u] {
			continue
		}
		graph.ForEachVertexEdges(da.Index(u), func(e da.Index, edge *da.FlowEdge) {
			if edge.IsResidual() || mc.flags[edge.GetTo()] {
				return
			}
			handle(e, edge)
		})
	}
}
