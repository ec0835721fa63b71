package isolation

import (
	"context"

	"github.com/new4mezdz/guandao/pkg"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/maxflow"
	"github.com/new4mezdz/guandao/pkg/network"
	"github.com/new4mezdz/guandao/pkg/util"
	"go.uber.org/zap"
)

// MinCutStrategy global min cut between SUPER_SOURCE and SUPER_SINK for ordinary leaks.
type MinCutStrategy struct {
	model  *network.NetworkModel
	logger *zap.Logger
}

func NewMinCutStrategy(model *network.NetworkModel, logger *zap.Logger) *MinCutStrategy {
	return &MinCutStrategy{model: model, logger: logger}
}

func (ms *MinCutStrategy) Isolate(ctx context.Context, ev *Evaluation) (Outcome, error) {
	flowNetwork, err := ms.model.Build(ev.Snapshot, ev.LeakPipe.GetID(), ev.Valves)
	if err != nil {
		return Outcome{}, err
	}
	graph := flowNetwork.GetGraph()

	dn := maxflow.NewDinicMaxFlow(graph, pkg.DEBUG)
	minCut, err := dn.ComputeMaxflowMinCut(ctx, flowNetwork.GetSource(), flowNetwork.GetSink())
	if err != nil {
		return Outcome{Augmentations: dn.GetAugmentations()}, err
	}

	source, sink := flowNetwork.GetSource(), flowNetwork.GetSink()
	cutEdges := make([]CutEdge, 0)
	valves := make([]string, 0)
	minCut.ForEachCutEdge(graph, func(_ da.Index, edge *da.FlowEdge) {
		// bookkeeping edges of the synthetic endpoints are not pipes
		if edge.GetTo() == sink || edge.GetFrom() == source {
			return
		}
		c := edge.GetCapacity()
		if !c.IsUnbounded() && c.GetValue() <= pkg.FLOW_EPSILON {
			return
		}
		cutEdges = append(cutEdges, NewCutEdge(graph.GetVertex(edge.GetFrom()).GetID(),
			graph.GetVertex(edge.GetTo()).GetID(), edge.GetPipeID(), edge.GetValveID()))
		if edge.HasValve() {
			valves = append(valves, edge.GetValveID())
		}
	})

	value := minCut.GetValue()
	outcome := Outcome{
		NeedCloseValves: util.SortedUnique(valves),
		Isolatable:      IsolatabilityOf(minCut.IsFinite()),
		CutEdges:        cutEdges,
		MinCutValue:     &value,
		Augmentations:   minCut.GetAugmentations(),
	}
	switch {
	case len(flowNetwork.GetSupplyNodes()) == 0:
		outcome.Recommendation = pkg.RECOMMEND_NO_SUPPLY
	case minCut.IsFinite():
		outcome.Recommendation = pkg.RECOMMEND_ISOLATION_OK
	default:
		outcome.Recommendation = pkg.RECOMMEND_ISOLATION_IMPOSSIB
	}

	ms.logger.Debug("min cut computed",
		zap.String("leak_pipe", ev.LeakPipe.GetID()),
		zap.String("min_cut_value", value.String()),
		zap.Int("cut_edges", len(cutEdges)),
		zap.Int("augmentations", minCut.GetAugmentations()))

	return outcome, nil
}
