package isolation

import (
	"context"

	"github.com/new4mezdz/guandao/pkg"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/util"
)

// BurstStrategy upstream-only reasoning for bursts. The neighbor search looks one hop away
// from the leak pipe; it mitigates, it does not prove containment.
type BurstStrategy struct{}

func NewBurstStrategy() *BurstStrategy {
	return &BurstStrategy{}
}

func (bs *BurstStrategy) Isolate(ctx context.Context, ev *Evaluation) (Outcome, error) {
	leakPipe := ev.LeakPipe

	if valveId, ok := ev.Valves.GetUsableValveOfPipe(leakPipe.GetID()); ok {
		return Outcome{
			NeedCloseValves: []string{valveId},
			Isolatable:      ISOLATABLE,
			Recommendation:  pkg.RECOMMEND_CLOSE_UPSTREAM,
			BurstOutcome:    BURST_DIRECT_VALVE,
		}, nil
	}

	neighborValves := make([]string, 0)
	ev.Snapshot.ForEachPipe(func(p da.Pipe) {
		if p.GetID() == leakPipe.GetID() || !leakPipe.SharesEndpointWith(p) {
			return
		}
		if valveId, ok := ev.Valves.GetUsableValveOfPipe(p.GetID()); ok {
			neighborValves = append(neighborValves, valveId)
		}
	})

	if len(neighborValves) == 0 {
		return Outcome{
			NeedCloseValves: []string{},
			Isolatable:      NOT_ISOLATABLE,
			Recommendation:  pkg.RECOMMEND_MANUAL_ONLY,
			BurstOutcome:    BURST_MANUAL_ONLY,
		}, nil
	}

	return Outcome{
		NeedCloseValves: util.SortedUnique(neighborValves),
		Isolatable:      NOT_ISOLATABLE,
		Recommendation:  pkg.RECOMMEND_CLOSE_NEIGHBORS,
		BurstOutcome:    BURST_NEIGHBOR_VALVES,
	}, nil
}
