package network

import (
	"fmt"

	"github.com/new4mezdz/guandao/pkg"
	"github.com/new4mezdz/guandao/pkg/costfunction"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
)

type EdgeOverlay interface {
	Apply(graph *da.FlowGraph)
}

// FlowNetwork flow graph of one evaluation plus its synthetic endpoints.
type FlowNetwork struct {
	graph       *da.FlowGraph
	source      da.Index
	sink        da.Index
	supplyNodes []string
	leakEdge    da.Index
}

func (fn *FlowNetwork) GetGraph() *da.FlowGraph {
	return fn.graph
}

func (fn *FlowNetwork) GetSource() da.Index {
	return fn.source
}

func (fn *FlowNetwork) GetSink() da.Index {
	return fn.sink
}

// GetSupplyNodes configured supply origins present in the snapshot.
func (fn *FlowNetwork) GetSupplyNodes() []string {
	return fn.supplyNodes
}

func (fn *FlowNetwork) GetLeakEdge() da.Index {
	return fn.leakEdge
}

type NetworkModel struct {
	supplyNodes      []string
	capacityFunction costfunction.CapacityFunction
}

func NewNetworkModel(supplyNodes []string, capacityFunction costfunction.CapacityFunction) *NetworkModel {
	return &NetworkModel{
		supplyNodes:      append([]string(nil), supplyNodes...),
		capacityFunction: capacityFunction,
	}
}

func (m *NetworkModel) GetSupplyNodes() []string {
	return append([]string(nil), m.supplyNodes...)
}

// Build a fresh flow graph for leakPipeId. Real vertices keep snapshot order, SUPER_SOURCE and
// SUPER_SINK are appended last.
func (m *NetworkModel) Build(snapshot *da.NetworkSnapshot, leakPipeId string, overlay EdgeOverlay) (*FlowNetwork, error) {
	leakPipe, ok := snapshot.GetPipe(leakPipeId)
	if !ok {
		return nil, fmt.Errorf("%w: leak pipe %q is not part of the network", da.ErrInvalidTopology, leakPipeId)
	}

	graph := da.NewFlowGraph(snapshot.NumberOfNodes()+2, snapshot.NumberOfPipes()+len(m.supplyNodes)+1)
	snapshot.ForEachNode(func(n da.Node) {
		graph.AddVertex(n.GetID(), false)
	})

	var buildErr error
	snapshot.ForEachPipe(func(p da.Pipe) {
		if buildErr != nil {
			return
		}
		u, okU := graph.GetVertexIndex(p.GetStart())
		v, okV := graph.GetVertexIndex(p.GetEnd())
		if !okU || !okV {
			buildErr = fmt.Errorf("%w: pipe %q references an unknown node", da.ErrInvalidTopology, p.GetID())
			return
		}
		e := graph.AddPipeEdge(u, v, p.GetID(), p.GetDiameter(), p.GetStatus())
		endNode := snapshot.GetNodeAt(v)
		graph.SetCapacity(e, m.capacityFunction.GetCapacity(graph.GetEdge(e), endNode.GetTier(),
			p.GetID() == leakPipeId))
	})
	if buildErr != nil {
		return nil, buildErr
	}

	if overlay != nil {
		overlay.Apply(graph)
	}

	source := graph.AddVertex(pkg.SUPER_SOURCE_ID, true)
	sink := graph.AddVertex(pkg.SUPER_SINK_ID, true)

	present := make([]string, 0, len(m.supplyNodes))
	seen := make(map[string]struct{}, len(m.supplyNodes))
	for _, id := range m.supplyNodes {
		u, ok := graph.GetVertexIndex(id)
		if !ok || graph.GetVertex(u).IsSynthetic() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		graph.AddInfEdge(source, u)
		present = append(present, id)
	}

	leakEnd, _ := graph.GetVertexIndex(leakPipe.GetEnd())
	graph.AddInfEdge(leakEnd, sink)

	leakEdge, _ := graph.GetPipeEdge(leakPipeId)

	return &FlowNetwork{
		graph:       graph,
		source:      source,
		sink:        sink,
		supplyNodes: present,
		leakEdge:    leakEdge,
	}, nil
}
