package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/new4mezdz/guandao/pkg"
	"github.com/new4mezdz/guandao/pkg/costfunction"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine/isolation"
	"github.com/new4mezdz/guandao/pkg/network"
	"github.com/new4mezdz/guandao/pkg/overlay"
	"go.uber.org/zap"
)

var (
	ErrPipeNotFound        = isolation.ErrPipeNotFound
	ErrInvalidLeakType     = isolation.ErrInvalidLeakType
	ErrUnknownFailureValve = isolation.ErrUnknownFailureValve
	ErrCanceled            = isolation.ErrCanceled
)

type Config struct {
	SupplyNodes        []string
	LeakCapacity       float64
	MinDiameter        float64 // mm
	SkipDecommissioned bool
	StrictValves       bool
	EvaluationTimeout  time.Duration // 0 = no timeout besides the caller's context
}

func DefaultConfig() Config {
	return Config{
		SupplyNodes:  append([]string(nil), pkg.DEFAULT_SUPPLY_NODES...),
		LeakCapacity: pkg.DEFAULT_LEAK_CAPACITY,
		MinDiameter:  pkg.DEFAULT_MIN_DIAMETER,
	}
}

// Engine decides valve closures for one leak at a time. It holds no per-evaluation state,
// Evaluate is safe for concurrent use as long as snapshots are not mutated.
type Engine struct {
	config     Config
	policy     *costfunction.TierCapacityPolicy
	model      *network.NetworkModel
	strategies map[da.LeakType]isolation.Strategy
	logger     *zap.Logger
}

func NewEngine(config Config, logger *zap.Logger) (*Engine, error) {
	policy, err := costfunction.NewTierCapacityPolicy(config.LeakCapacity, config.MinDiameter,
		costfunction.WithSkipDecommissioned(config.SkipDecommissioned))
	if err != nil {
		return nil, err
	}
	model := network.NewNetworkModel(config.SupplyNodes, policy)

	logger.Info("isolation engine ready",
		zap.Strings("supply_nodes", config.SupplyNodes),
		zap.Float64("leak_capacity", config.LeakCapacity),
		zap.Duration("evaluation_timeout", config.EvaluationTimeout))

	return &Engine{
		config: config,
		policy: policy,
		model:  model,
		strategies: map[da.LeakType]isolation.Strategy{
			da.LEAK_BURST:    isolation.NewBurstStrategy(),
			da.LEAK_ORDINARY: isolation.NewMinCutStrategy(model, logger),
		},
		logger: logger,
	}, nil
}

func (e *Engine) GetConfig() Config {
	return e.config
}

func (e *Engine) GetSupplyNodes() []string {
	return e.model.GetSupplyNodes()
}

// NewSnapshot validates records into an immutable snapshot using the engine's valve strictness.
func (e *Engine) NewSnapshot(nodes []da.Node, pipes []da.Pipe, valves []da.Valve) (*da.NetworkSnapshot, error) {
	return da.NewNetworkSnapshot(nodes, pipes, valves, da.StrictValves(e.config.StrictValves))
}

// CheckSnapshot verifies the leak capacity stays below every pipe of the snapshot.
func (e *Engine) CheckSnapshot(snapshot *da.NetworkSnapshot) error {
	return e.policy.CheckSnapshot(snapshot)
}

// EvaluateRecords builds and checks the snapshot then evaluates. An invalid topology or a leak
// capacity that does not stay below every pipe yields no result.
func (e *Engine) EvaluateRecords(ctx context.Context, nodes []da.Node, pipes []da.Pipe, valves []da.Valve,
	request da.LeakRequest) (isolation.IsolationResult, error) {
	snapshot, err := e.NewSnapshot(nodes, pipes, valves)
	if err != nil {
		return isolation.IsolationResult{}, err
	}
	if err := e.CheckSnapshot(snapshot); err != nil {
		return isolation.IsolationResult{}, err
	}
	return e.Evaluate(ctx, snapshot, request)
}

// Evaluate. failures the operator can act on (unknown pipe, leak type, failure valve, cancellation)
// come back as a result with Failure set and a nil error.
func (e *Engine) Evaluate(ctx context.Context, snapshot *da.NetworkSnapshot,
	request da.LeakRequest) (isolation.IsolationResult, error) {
	request.FailedValveID = da.NormalizeValveID(request.FailedValveID)
	// an unknown override id is ignored by the overlay, so lost valves stay exact for every outcome
	valves := overlay.NewValveOverlay(snapshot, request.FailedValveID)
	lost := valves.GetLostValves()
	orphans := valves.GetOrphanValves()

	leakPipe, ok := snapshot.GetPipe(request.PipeID)
	if !ok {
		return isolation.NewFailureResult(request.PipeID, request.LeakType, lost, orphans,
			isolation.FAILURE_PIPE_NOT_FOUND, fmt.Sprintf(pkg.RECOMMEND_PIPE_NOT_FOUND, request.PipeID)), nil
	}

	strategy, ok := e.strategies[request.LeakType]
	if !ok {
		return isolation.NewFailureResult(request.PipeID, request.LeakType, lost, orphans,
			isolation.FAILURE_INVALID_LEAK_TYPE, fmt.Sprintf(pkg.RECOMMEND_INVALID_LEAK_TYPE, request.GetLeakTypeText())), nil
	}

	if request.FailedValveID != "" {
		if _, ok := snapshot.GetValve(request.FailedValveID); !ok {
			return isolation.NewFailureResult(request.PipeID, request.LeakType, lost, orphans,
				isolation.FAILURE_UNKNOWN_FAILURE_VALVE, fmt.Sprintf(pkg.RECOMMEND_UNKNOWN_VALVE, request.FailedValveID)), nil
		}
	}

	if e.config.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.EvaluationTimeout)
		defer cancel()
	}

	outcome, err := strategy.Isolate(ctx, &isolation.Evaluation{
		Snapshot: snapshot,
		LeakPipe: leakPipe,
		Valves:   valves,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			e.logger.Debug("evaluation canceled", zap.String("leak_pipe", request.PipeID), zap.Error(err))
			return isolation.NewFailureResult(request.PipeID, request.LeakType, lost, orphans,
				isolation.FAILURE_CANCELED, pkg.RECOMMEND_CANCELED), nil
		}
		return isolation.IsolationResult{}, err
	}

	return isolation.NewIsolationResult(request.PipeID, request.LeakType, lost, orphans, outcome), nil
}
