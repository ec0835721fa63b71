package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/new4mezdz/guandao/pkg"
	"github.com/new4mezdz/guandao/pkg/costfunction"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine/isolation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleNodes() []da.Node {
	return []da.Node{
		da.NewNode("N100", "source", "plant", da.TIER_A, 10, 0),
		da.NewNode("N101", "relay", "relay", da.TIER_A, 11, 0),
		da.NewNode("N102", "left", "user", da.TIER_B, 12, -1),
		da.NewNode("N103", "right", "user", da.TIER_B, 12, 1),
		da.NewNode("N104", "leak", "user", da.TIER_C, 13, 0),
	}
}

func samplePipes() []da.Pipe {
	return []da.Pipe{
		da.NewPipe("P100", "N100", "N101", 500, da.PIPE_NORMAL),
		da.NewPipe("P101", "N101", "N102", 400, da.PIPE_NORMAL),
		da.NewPipe("P102", "N101", "N103", 100, da.PIPE_NORMAL),
		da.NewPipe("P103", "N102", "N104", 100, da.PIPE_NORMAL),
		da.NewPipe("P104", "N103", "N104", 100, da.PIPE_NORMAL),
	}
}

func sampleValves(failed ...string) []da.Valve {
	isFailed := make(map[string]bool, len(failed))
	for _, id := range failed {
		isFailed[id] = true
	}
	valves := make([]da.Valve, 0, 5)
	for _, id := range []string{"V100", "V101", "V102", "V103", "V104"} {
		status := da.VALVE_NORMAL
		if isFailed[id] {
			status = da.VALVE_FAILED
		}
		valves = append(valves, da.NewValve(id, "P"+id[1:], status))
	}
	return valves
}

func newTestEngine(t *testing.T, modify ...func(*Config)) *Engine {
	t.Helper()
	config := DefaultConfig()
	for _, m := range modify {
		m(&config)
	}
	e, err := NewEngine(config, zap.NewNop())
	require.NoError(t, err)
	return e
}

func newSampleSnapshot(t *testing.T, e *Engine, failed ...string) *da.NetworkSnapshot {
	t.Helper()
	s, err := e.NewSnapshot(sampleNodes(), samplePipes(), sampleValves(failed...))
	require.NoError(t, err)
	return s
}

func TestEvaluateOrdinary(t *testing.T) {
	e := newTestEngine(t)

	testCases := []struct {
		name           string
		persisted      []string
		request        da.LeakRequest
		wantClose      []string
		wantLost       []string
		wantIsolatable isolation.Isolatability
		wantMinCut     da.Capacity
		wantCutEdges   []isolation.CutEdge
		wantRecommend  string
	}{
		{
			name:           "min cut beats the nearest valve",
			request:        da.NewLeakRequest("P103", da.LEAK_ORDINARY, ""),
			wantClose:      []string{"V103", "V104"},
			wantLost:       []string{},
			wantIsolatable: isolation.ISOLATABLE,
			wantMinCut:     da.Bounded(10010),
			wantCutEdges: []isolation.CutEdge{
				isolation.NewCutEdge("N102", "N104", "P103", "V103"),
				isolation.NewCutEdge("N103", "N104", "P104", "V104"),
			},
			wantRecommend: pkg.RECOMMEND_ISOLATION_OK,
		},
		{
			name:           "simulated failure moves the cut upstream to tier B",
			request:        da.NewLeakRequest("P103", da.LEAK_ORDINARY, "V104"),
			wantClose:      []string{"V102", "V103"},
			wantLost:       []string{"V104"},
			wantIsolatable: isolation.ISOLATABLE,
			wantMinCut:     da.Bounded(1_000_010),
			wantCutEdges: []isolation.CutEdge{
				isolation.NewCutEdge("N101", "N103", "P102", "V102"),
				isolation.NewCutEdge("N102", "N104", "P103", "V103"),
			},
			wantRecommend: pkg.RECOMMEND_ISOLATION_OK,
		},
		{
			name:           "persisted failure behaves like the simulated one",
			persisted:      []string{"V104"},
			request:        da.NewLeakRequest("P103", da.LEAK_ORDINARY, "none"),
			wantClose:      []string{"V102", "V103"},
			wantLost:       []string{"V104"},
			wantIsolatable: isolation.ISOLATABLE,
			wantMinCut:     da.Bounded(1_000_010),
			wantCutEdges: []isolation.CutEdge{
				isolation.NewCutEdge("N101", "N103", "P102", "V102"),
				isolation.NewCutEdge("N102", "N104", "P103", "V103"),
			},
			wantRecommend: pkg.RECOMMEND_ISOLATION_OK,
		},
		{
			name:           "uncuttable supply pipe",
			request:        da.NewLeakRequest("P100", da.LEAK_ORDINARY, "V100"),
			wantClose:      []string{},
			wantLost:       []string{"V100"},
			wantIsolatable: isolation.NOT_ISOLATABLE,
			wantMinCut:     da.Unbounded(),
			wantRecommend:  pkg.RECOMMEND_ISOLATION_IMPOSSIB,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			s := newSampleSnapshot(t, e, tt.persisted...)
			res, err := e.Evaluate(context.Background(), s, tt.request)
			require.NoError(t, err)

			assert.False(t, res.IsFailure())
			assert.NoError(t, res.Err())
			assert.Equal(t, tt.wantClose, res.NeedCloseValves)
			assert.Equal(t, tt.wantLost, res.LostValves)
			assert.Equal(t, tt.wantIsolatable, res.Isolatable)
			require.NotNil(t, res.MinCutValue)
			assert.Equal(t, tt.wantMinCut, *res.MinCutValue)
			if tt.wantCutEdges != nil {
				assert.Equal(t, tt.wantCutEdges, res.CutEdges)
			}
			assert.Equal(t, tt.wantRecommend, res.Recommendation)
			assert.Equal(t, da.LEAK_ORDINARY, res.LeakType)
			assert.Positive(t, res.GetAugmentations())
		})
	}
}

func TestEvaluateBurst(t *testing.T) {
	e := newTestEngine(t)

	testCases := []struct {
		name           string
		persisted      []string
		failedValve    string
		wantClose      []string
		wantIsolatable isolation.Isolatability
		wantOutcome    isolation.BurstOutcome
		wantRecommend  string
	}{
		{
			name:           "direct valve",
			wantClose:      []string{"V103"},
			wantIsolatable: isolation.ISOLATABLE,
			wantOutcome:    isolation.BURST_DIRECT_VALVE,
			wantRecommend:  pkg.RECOMMEND_CLOSE_UPSTREAM,
		},
		{
			name:           "neighbor valves",
			failedValve:    "V103",
			wantClose:      []string{"V101", "V104"},
			wantIsolatable: isolation.NOT_ISOLATABLE,
			wantOutcome:    isolation.BURST_NEIGHBOR_VALVES,
			wantRecommend:  pkg.RECOMMEND_CLOSE_NEIGHBORS,
		},
		{
			name:           "manual only",
			persisted:      []string{"V101", "V104"},
			failedValve:    "V103",
			wantClose:      []string{},
			wantIsolatable: isolation.NOT_ISOLATABLE,
			wantOutcome:    isolation.BURST_MANUAL_ONLY,
			wantRecommend:  pkg.RECOMMEND_MANUAL_ONLY,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			s := newSampleSnapshot(t, e, tt.persisted...)
			res, err := e.Evaluate(context.Background(), s, da.NewLeakRequest("P103", da.LEAK_BURST, tt.failedValve))
			require.NoError(t, err)

			assert.Equal(t, tt.wantClose, res.NeedCloseValves)
			assert.Equal(t, tt.wantIsolatable, res.Isolatable)
			assert.Equal(t, tt.wantOutcome, res.BurstOutcome)
			assert.Equal(t, tt.wantRecommend, res.Recommendation)
			assert.Empty(t, res.CutEdges)
			assert.Nil(t, res.MinCutValue)
			assert.Equal(t, 0, res.GetAugmentations())
		})
	}
}

func TestEvaluateFailures(t *testing.T) {
	e := newTestEngine(t)
	s := newSampleSnapshot(t, e, "V101")

	testCases := []struct {
		name           string
		request        da.LeakRequest
		wantFailure    isolation.FailureKind
		wantErr        error
		wantLost       []string
		wantRecommend  string
		wantIsolatable isolation.Isolatability
	}{
		{
			name:           "pipe not found",
			request:        da.NewLeakRequest("P999", da.LEAK_ORDINARY, ""),
			wantFailure:    isolation.FAILURE_PIPE_NOT_FOUND,
			wantErr:        ErrPipeNotFound,
			wantLost:       []string{"V101"},
			wantRecommend:  "pipe P999 does not exist; isolation impossible",
			wantIsolatable: isolation.NOT_ISOLATABLE,
		},
		{
			name:           "pipe not found still reports the override",
			request:        da.NewLeakRequest("P999", da.LEAK_ORDINARY, "V100"),
			wantFailure:    isolation.FAILURE_PIPE_NOT_FOUND,
			wantErr:        ErrPipeNotFound,
			wantLost:       []string{"V100", "V101"},
			wantRecommend:  "pipe P999 does not exist; isolation impossible",
			wantIsolatable: isolation.NOT_ISOLATABLE,
		},
		{
			name:           "invalid leak type",
			request:        da.ParseLeakRequest("P103", "flood", ""),
			wantFailure:    isolation.FAILURE_INVALID_LEAK_TYPE,
			wantErr:        ErrInvalidLeakType,
			wantLost:       []string{"V101"},
			wantRecommend:  `leak type "flood" is not recognized; use ordinary or burst`,
			wantIsolatable: isolation.NOT_ISOLATABLE,
		},
		{
			name:           "invalid leak type without raw text",
			request:        da.NewLeakRequest("P103", da.LEAK_INVALID, ""),
			wantFailure:    isolation.FAILURE_INVALID_LEAK_TYPE,
			wantErr:        ErrInvalidLeakType,
			wantLost:       []string{"V101"},
			wantRecommend:  `leak type "invalid" is not recognized; use ordinary or burst`,
			wantIsolatable: isolation.NOT_ISOLATABLE,
		},
		{
			name:           "unknown failure valve",
			request:        da.NewLeakRequest("P103", da.LEAK_ORDINARY, "V999"),
			wantFailure:    isolation.FAILURE_UNKNOWN_FAILURE_VALVE,
			wantErr:        ErrUnknownFailureValve,
			wantLost:       []string{"V101"},
			wantRecommend:  "valve V999 does not exist; check the failed valve id",
			wantIsolatable: isolation.NOT_ISOLATABLE,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Evaluate(context.Background(), s, tt.request)
			require.NoError(t, err)

			assert.True(t, res.IsFailure())
			assert.Equal(t, tt.wantFailure, res.Failure)
			assert.ErrorIs(t, res.Err(), tt.wantErr)
			assert.Equal(t, []string{}, res.NeedCloseValves)
			assert.Equal(t, tt.wantLost, res.LostValves)
			assert.Equal(t, tt.wantIsolatable, res.Isolatable)
			assert.Equal(t, tt.wantRecommend, res.Recommendation)
		})
	}
}

func TestEvaluateCanceled(t *testing.T) {
	e := newTestEngine(t)
	s := newSampleSnapshot(t, e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Evaluate(ctx, s, da.NewLeakRequest("P103", da.LEAK_ORDINARY, ""))
	require.NoError(t, err)
	assert.Equal(t, isolation.FAILURE_CANCELED, res.Failure)
	assert.Equal(t, isolation.ISOLATION_UNKNOWN, res.Isolatable)
	assert.ErrorIs(t, res.Err(), ErrCanceled)
	assert.Equal(t, pkg.RECOMMEND_CANCELED, res.Recommendation)

	data, err := res.JSON()
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Nil(t, raw["isolatable"])
	assert.Equal(t, "canceled", raw["failure"])
}

func TestEvaluateTimeout(t *testing.T) {
	e := newTestEngine(t, func(c *Config) {
		c.EvaluationTimeout = time.Nanosecond
	})
	s := newSampleSnapshot(t, e)

	res, err := e.Evaluate(context.Background(), s, da.NewLeakRequest("P103", da.LEAK_ORDINARY, ""))
	require.NoError(t, err)
	assert.Equal(t, isolation.FAILURE_CANCELED, res.Failure)
}

func TestEvaluateNoSupply(t *testing.T) {
	e := newTestEngine(t, func(c *Config) {
		c.SupplyNodes = []string{"N900"}
	})
	s := newSampleSnapshot(t, e)

	res, err := e.Evaluate(context.Background(), s, da.NewLeakRequest("P103", da.LEAK_ORDINARY, ""))
	require.NoError(t, err)
	assert.Equal(t, isolation.ISOLATABLE, res.Isolatable)
	assert.Empty(t, res.NeedCloseValves)
	assert.Equal(t, pkg.RECOMMEND_NO_SUPPLY, res.Recommendation)
}

func TestEvaluateResultJSON(t *testing.T) {
	e := newTestEngine(t)
	s := newSampleSnapshot(t, e)

	res, err := e.Evaluate(context.Background(), s, da.NewLeakRequest("P103", da.LEAK_ORDINARY, ""))
	require.NoError(t, err)

	data, err := res.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"leak_pipe_id": "P103",
		"need_close_valves": ["V103", "V104"],
		"lost_valves": [],
		"isolatable": true,
		"cut_edges": [
			{"start": "N102", "end": "N104", "pipe_id": "P103", "valve_id": "V103"},
			{"start": "N103", "end": "N104", "pipe_id": "P104", "valve_id": "V104"}
		],
		"leak_type": "ordinary",
		"recommendation": "isolation successful",
		"min_cut_value": 10010
	}`, string(data))
}

func TestEvaluateRecords(t *testing.T) {
	e := newTestEngine(t)

	pipes := append(samplePipes(), da.NewPipe("P105", "N104", "N999", 100, da.PIPE_NORMAL))
	_, err := e.EvaluateRecords(context.Background(), sampleNodes(), pipes, sampleValves(),
		da.NewLeakRequest("P103", da.LEAK_ORDINARY, ""))
	assert.ErrorIs(t, err, da.ErrInvalidTopology)

	res, err := e.EvaluateRecords(context.Background(), sampleNodes(), samplePipes(), sampleValves(),
		da.NewLeakRequest("P103", da.LEAK_BURST, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"V103"}, res.NeedCloseValves)
}

func TestEvaluateRecordsChecksLeakCapacity(t *testing.T) {
	e := newTestEngine(t)

	nodes := []da.Node{
		da.NewNode("N100", "", "", da.TIER_A, 0, 0),
		da.NewNode("A", "", "", da.TIER_C, 1, 0),
		da.NewNode("B", "", "", da.TIER_C, 2, 0),
	}
	pipes := []da.Pipe{
		da.NewPipe("P1", "N100", "A", 2, da.PIPE_NORMAL),
		da.NewPipe("P2", "A", "B", 100, da.PIPE_NORMAL),
	}
	valves := []da.Valve{
		da.NewValve("V1", "P1", da.VALVE_NORMAL),
		da.NewValve("V2", "P2", da.VALVE_NORMAL),
	}

	res, err := e.EvaluateRecords(context.Background(), nodes, pipes, valves,
		da.NewLeakRequest("P2", da.LEAK_ORDINARY, ""))
	assert.ErrorIs(t, err, costfunction.ErrLeakCapacityTooLarge)
	assert.Empty(t, res.NeedCloseValves)
	assert.Empty(t, res.LeakPipeID)
}

// two branches of the same shape reach the leak end; only the side feeding the C tier node
// is cut next to the supply.
func TestEvaluateTierBias(t *testing.T) {
	e := newTestEngine(t)

	nodes := []da.Node{
		da.NewNode("N100", "source", "plant", da.TIER_A, 0, 0),
		da.NewNode("X", "feeder", "user", da.TIER_C, 1, 0),
		da.NewNode("NA", "hospital", "medical", da.TIER_A, 1, 1),
		da.NewNode("NC", "depot", "user", da.TIER_C, 1, -1),
		da.NewNode("K", "leak end", "user", da.TIER_B, 2, 0),
	}
	pipes := []da.Pipe{
		da.NewPipe("PX", "N100", "X", 100, da.PIPE_NORMAL),
		da.NewPipe("PL", "X", "K", 100, da.PIPE_NORMAL),
		da.NewPipe("PA", "N100", "NA", 100, da.PIPE_NORMAL),
		da.NewPipe("PA2", "NA", "K", 100, da.PIPE_NORMAL),
		da.NewPipe("PC", "N100", "NC", 100, da.PIPE_NORMAL),
		da.NewPipe("PC2", "NC", "K", 100, da.PIPE_NORMAL),
	}
	valves := []da.Valve{
		da.NewValve("VX", "PX", da.VALVE_NORMAL),
		da.NewValve("VL", "PL", da.VALVE_NORMAL),
		da.NewValve("VA", "PA", da.VALVE_NORMAL),
		da.NewValve("VA2", "PA2", da.VALVE_NORMAL),
		da.NewValve("VC", "PC", da.VALVE_NORMAL),
		da.NewValve("VC2", "PC2", da.VALVE_NORMAL),
	}

	res, err := e.EvaluateRecords(context.Background(), nodes, pipes, valves,
		da.NewLeakRequest("PL", da.LEAK_ORDINARY, ""))
	require.NoError(t, err)

	assert.Equal(t, isolation.ISOLATABLE, res.Isolatable)
	assert.Equal(t, []string{"VA2", "VC", "VL"}, res.NeedCloseValves)
	assert.Contains(t, res.NeedCloseValves, "VC")
	assert.NotContains(t, res.NeedCloseValves, "VA")
	assert.NotContains(t, res.NeedCloseValves, "VC2")
	require.NotNil(t, res.MinCutValue)
	// leak pipe + pipe into tier B leak end on the A side + pipe into the C node
	assert.Equal(t, da.Bounded(10+100*100*pkg.TIER_B_MULTIPLIER+100*100*pkg.TIER_C_MULTIPLIER), *res.MinCutValue)
}

func TestNewEngineRejectsLeakCapacity(t *testing.T) {
	config := DefaultConfig()
	config.LeakCapacity = 1000
	_, err := NewEngine(config, zap.NewNop())
	assert.Error(t, err)
}
