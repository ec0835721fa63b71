package isolation

import (
	"encoding/json"
	"errors"
	"fmt"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
)

var (
	ErrPipeNotFound        = errors.New("leak pipe not found")
	ErrInvalidLeakType     = errors.New("invalid leak type")
	ErrUnknownFailureValve = errors.New("unknown failure valve")
	ErrCanceled            = errors.New("evaluation canceled")
)

// Isolatability is tri-state: a canceled evaluation is neither isolatable nor provably not.
type Isolatability uint8

const (
	NOT_ISOLATABLE Isolatability = iota
	ISOLATABLE
	ISOLATION_UNKNOWN
)

func IsolatabilityOf(ok bool) Isolatability {
	if ok {
		return ISOLATABLE
	}
	return NOT_ISOLATABLE
}

func (i Isolatability) String() string {
	switch i {
	case ISOLATABLE:
		return "true"
	case ISOLATION_UNKNOWN:
		return "unknown"
	default:
		return "false"
	}
}

func (i Isolatability) MarshalJSON() ([]byte, error) {
	switch i {
	case ISOLATABLE:
		return []byte("true"), nil
	case ISOLATION_UNKNOWN:
		return []byte("null"), nil
	default:
		return []byte("false"), nil
	}
}

func (i *Isolatability) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*i = ISOLATABLE
	case "false":
		*i = NOT_ISOLATABLE
	case "null":
		*i = ISOLATION_UNKNOWN
	default:
		return fmt.Errorf("isolatable: unexpected value %s", data)
	}
	return nil
}

type FailureKind string

const (
	FAILURE_NONE                  FailureKind = ""
	FAILURE_PIPE_NOT_FOUND        FailureKind = "pipe_not_found"
	FAILURE_INVALID_LEAK_TYPE     FailureKind = "invalid_leak_type"
	FAILURE_UNKNOWN_FAILURE_VALVE FailureKind = "unknown_failure_valve"
	FAILURE_CANCELED              FailureKind = "canceled"
)

func (f FailureKind) Err() error {
	switch f {
	case FAILURE_PIPE_NOT_FOUND:
		return ErrPipeNotFound
	case FAILURE_INVALID_LEAK_TYPE:
		return ErrInvalidLeakType
	case FAILURE_UNKNOWN_FAILURE_VALVE:
		return ErrUnknownFailureValve
	case FAILURE_CANCELED:
		return ErrCanceled
	default:
		return nil
	}
}

// BurstOutcome tells apart the two non-isolatable burst answers that share isolatable=false.
type BurstOutcome string

const (
	BURST_DIRECT_VALVE    BurstOutcome = "direct_valve"
	BURST_NEIGHBOR_VALVES BurstOutcome = "neighbor_valves"
	BURST_MANUAL_ONLY     BurstOutcome = "manual_only"
)

type CutEdge struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	PipeID  string `json:"pipe_id"`
	ValveID string `json:"valve_id,omitempty"`
}

func NewCutEdge(start, end, pipeId, valveId string) CutEdge {
	return CutEdge{Start: start, End: end, PipeID: pipeId, ValveID: valveId}
}

// Outcome what a strategy decides. The engine turns it into an IsolationResult.
type Outcome struct {
	NeedCloseValves []string
	Isolatable      Isolatability
	CutEdges        []CutEdge
	Recommendation  string
	MinCutValue     *da.Capacity
	BurstOutcome    BurstOutcome
	Augmentations   int
}

type IsolationResult struct {
	LeakPipeID      string        `json:"leak_pipe_id"`
	NeedCloseValves []string      `json:"need_close_valves"`
	LostValves      []string      `json:"lost_valves"`
	Isolatable      Isolatability `json:"isolatable"`
	CutEdges        []CutEdge     `json:"cut_edges"`
	LeakType        da.LeakType   `json:"leak_type"`
	Recommendation  string        `json:"recommendation"`
	Failure         FailureKind   `json:"failure,omitempty"`
	OrphanValves    []string      `json:"orphan_valves,omitempty"`
	MinCutValue     *da.Capacity  `json:"min_cut_value,omitempty"`
	BurstOutcome    BurstOutcome  `json:"burst_outcome,omitempty"`

	augmentations int
}

// Err typed error of a failure result, nil for a computed result.
func (r IsolationResult) Err() error {
	return r.Failure.Err()
}

func (r IsolationResult) IsFailure() bool {
	return r.Failure != FAILURE_NONE
}

// GetAugmentations augmenting paths the max-flow pushed, 0 for burst leaks.
func (r IsolationResult) GetAugmentations() int {
	return r.augmentations
}

// Clone copy that shares no slice or pointer with r.
func (r IsolationResult) Clone() IsolationResult {
	c := r
	c.NeedCloseValves = cloneStrings(r.NeedCloseValves)
	c.LostValves = cloneStrings(r.LostValves)
	c.OrphanValves = cloneStrings(r.OrphanValves)
	if r.CutEdges != nil {
		c.CutEdges = append(make([]CutEdge, 0, len(r.CutEdges)), r.CutEdges...)
	}
	if r.MinCutValue != nil {
		value := *r.MinCutValue
		c.MinCutValue = &value
	}
	return c
}

func cloneStrings(xs []string) []string {
	if xs == nil {
		return nil
	}
	return append(make([]string, 0, len(xs)), xs...)
}

func (r IsolationResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func NewIsolationResult(leakPipeId string, leakType da.LeakType, lostValves, orphanValves []string,
	outcome Outcome) IsolationResult {
	res := IsolationResult{
		LeakPipeID:      leakPipeId,
		NeedCloseValves: nonNil(outcome.NeedCloseValves),
		LostValves:      nonNil(lostValves),
		Isolatable:      outcome.Isolatable,
		CutEdges:        outcome.CutEdges,
		LeakType:        leakType,
		Recommendation:  outcome.Recommendation,
		OrphanValves:    orphanValves,
		MinCutValue:     outcome.MinCutValue,
		BurstOutcome:    outcome.BurstOutcome,
		augmentations:   outcome.Augmentations,
	}
	if res.CutEdges == nil {
		res.CutEdges = []CutEdge{}
	}
	if len(res.OrphanValves) == 0 {
		res.OrphanValves = nil
	}
	return res
}

// NewFailureResult nothing is closed, isolatable is false unless the failure is a cancellation.
func NewFailureResult(leakPipeId string, leakType da.LeakType, lostValves, orphanValves []string,
	failure FailureKind, recommendation string) IsolationResult {
	isolatable := NOT_ISOLATABLE
	if failure == FAILURE_CANCELED {
		isolatable = ISOLATION_UNKNOWN
	}
	res := NewIsolationResult(leakPipeId, leakType, lostValves, orphanValves, Outcome{
		Isolatable:     isolatable,
		Recommendation: recommendation,
	})
	res.Failure = failure
	return res
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
