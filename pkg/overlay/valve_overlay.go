package overlay

import (
	"github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/util"
)

// ValveOverlay effective valve states for one evaluation. The simulated failure lives only here,
// the snapshot keeps its persisted statuses.
type ValveOverlay struct {
	snapshot      *datastructure.NetworkSnapshot
	failedValveId string
	effective     map[string]datastructure.ValveStatus
}

// NewValveOverlay. failedValveId may be empty, an id missing from the snapshot is ignored here,
// the engine rejects it before building an overlay.
func NewValveOverlay(snapshot *datastructure.NetworkSnapshot, failedValveId string) *ValveOverlay {
	vo := &ValveOverlay{
		snapshot:  snapshot,
		effective: make(map[string]datastructure.ValveStatus, snapshot.NumberOfValves()),
	}
	snapshot.ForEachValve(func(v datastructure.Valve) {
		vo.effective[v.GetID()] = v.GetStatus()
	})
	if _, ok := vo.effective[failedValveId]; ok {
		vo.failedValveId = failedValveId
		vo.effective[failedValveId] = datastructure.VALVE_FAILED
	}
	return vo
}

func (vo *ValveOverlay) GetFailedValveID() string {
	return vo.failedValveId
}

func (vo *ValveOverlay) GetEffectiveStatus(valveId string) (datastructure.ValveStatus, bool) {
	s, ok := vo.effective[valveId]
	return s, ok
}

func (vo *ValveOverlay) IsUsable(valveId string) bool {
	s, ok := vo.effective[valveId]
	return ok && s == datastructure.VALVE_NORMAL
}

// GetUsableValveOfPipe controlling valve of pipeId if it is currently Normal.
func (vo *ValveOverlay) GetUsableValveOfPipe(pipeId string) (string, bool) {
	v, ok := vo.snapshot.GetControllingValve(pipeId)
	if !ok || !vo.IsUsable(v.GetID()) {
		return "", false
	}
	return v.GetID(), true
}

// GetLostValves sorted ids of every valve whose effective status is not Normal.
func (vo *ValveOverlay) GetLostValves() []string {
	lost := make([]string, 0)
	vo.snapshot.ForEachValve(func(v datastructure.Valve) {
		if vo.effective[v.GetID()] != datastructure.VALVE_NORMAL {
			lost = append(lost, v.GetID())
		}
	})
	return util.SortedUnique(lost)
}

// GetOrphanValves sorted ids of valves controlling a pipe the snapshot does not know.
func (vo *ValveOverlay) GetOrphanValves() []string {
	return util.SortedUnique(vo.snapshot.GetOrphanValves())
}

// Apply tags every pipe edge with its controlling valve and makes edges of non-functional
// valves uncuttable. Must run after the capacity function.
func (vo *ValveOverlay) Apply(graph *datastructure.FlowGraph) {
	vo.snapshot.ForEachValve(func(v datastructure.Valve) {
		e, ok := graph.GetPipeEdge(v.GetPipeID())
		if !ok {
			return
		}
		if vo.effective[v.GetID()] != datastructure.VALVE_NORMAL {
			graph.SetCapacity(e, datastructure.Unbounded())
		}
		graph.SetValve(e, v.GetID())
	})
}
