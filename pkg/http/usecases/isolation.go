package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/new4mezdz/guandao/pkg/concurrent"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine/isolation"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/new4mezdz/guandao/pkg/util"
	"go.uber.org/zap"
)

const MAX_BATCH_SIZE = 64

type cacheKey struct {
	revision      uint64
	pipeId        string
	leakType      da.LeakType
	leakTypeText  string
	failedValveId string
}

type IsolationService struct {
	log       *zap.Logger
	engine    IsolationEngine
	store     SnapshotStore
	cache     *lru.Cache[cacheKey, isolation.IsolationResult]
	metrics   *metrics.Registry
	publisher ResultPublisher
	workers   int
}

// NewIsolationService cacheSize 0 disables the result cache.
func NewIsolationService(log *zap.Logger, engine IsolationEngine, store SnapshotStore, registry *metrics.Registry,
	cacheSize, workers int) (*IsolationService, error) {
	s := &IsolationService{
		log:     log,
		engine:  engine,
		store:   store,
		metrics: registry,
		workers: workers,
	}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, isolation.IsolationResult](cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

func (s *IsolationService) SetPublisher(publisher ResultPublisher) {
	s.publisher = publisher
}

// EvaluationEvent what the result feed broadcasts.
type EvaluationEvent struct {
	Revision uint64                    `json:"revision"`
	BatchID  string                    `json:"batch_id,omitempty"`
	Result   isolation.IsolationResult `json:"result"`
}

// Evaluate one leak against the current snapshot.
func (s *IsolationService) Evaluate(ctx context.Context, request da.LeakRequest) (isolation.IsolationResult, uint64, error) {
	snapshot, revision, err := s.store.Current()
	if err != nil {
		return isolation.IsolationResult{}, 0, err
	}
	res, err := s.evaluate(ctx, snapshot, revision, request)
	if err != nil {
		return isolation.IsolationResult{}, revision, err
	}
	s.publish(EvaluationEvent{Revision: revision, Result: res})
	return res, revision, nil
}

func (s *IsolationService) evaluate(ctx context.Context, snapshot *da.NetworkSnapshot, revision uint64,
	request da.LeakRequest) (isolation.IsolationResult, error) {
	request.FailedValveID = da.NormalizeValveID(request.FailedValveID)
	key := cacheKey{revision: revision, pipeId: request.PipeID, leakType: request.LeakType, failedValveId: request.FailedValveID}
	if request.LeakType == da.LEAK_INVALID {
		// the failure text echoes what was sent
		key.leakTypeText = request.LeakTypeText
	}
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			s.metrics.CacheHitsTotal.Inc()
			return res.Clone(), nil
		}
	}

	start := time.Now()
	res, err := s.engine.Evaluate(ctx, snapshot, request)
	elapsed := time.Since(start)
	if err != nil {
		s.log.Error("evaluation failed", zap.String("leak_pipe", request.PipeID), zap.Error(err))
		return isolation.IsolationResult{}, util.WrapErrorf(err, util.ErrInternalServerError, "evaluate leak on pipe %s", request.PipeID)
	}

	s.metrics.ObserveEvaluation(request.LeakType.String(), outcomeLabel(res), elapsed, res.GetAugmentations())
	s.log.Info("leak evaluated",
		zap.String("leak_pipe", request.PipeID),
		zap.String("leak_type", request.LeakType.String()),
		zap.String("failed_valve", request.FailedValveID),
		zap.Int("close_valves", len(res.NeedCloseValves)),
		zap.String("isolatable", res.Isolatable.String()),
		zap.String("failure", string(res.Failure)),
		zap.Uint64("revision", revision),
		zap.Duration("duration", elapsed))

	// a canceled answer says nothing about the network, do not keep it
	if s.cache != nil && res.Failure != isolation.FAILURE_CANCELED {
		s.cache.Add(key, res.Clone())
	}
	return res, nil
}

func outcomeLabel(res isolation.IsolationResult) string {
	if res.IsFailure() {
		return string(res.Failure)
	}
	switch res.Isolatable {
	case isolation.ISOLATABLE:
		return "isolatable"
	case isolation.ISOLATION_UNKNOWN:
		return "unknown"
	default:
		return "not_isolatable"
	}
}

// BatchResult independent evaluations against one snapshot plus their merged closure plan.
type BatchResult struct {
	BatchID         string                      `json:"batch_id"`
	Revision        uint64                      `json:"revision"`
	Results         []isolation.IsolationResult `json:"results"`
	NeedCloseValves []string                    `json:"need_close_valves"`
	LostValves      []string                    `json:"lost_valves"`
	Isolatable      isolation.Isolatability     `json:"isolatable"`
}

type batchOutput struct {
	res isolation.IsolationResult
	err error
}

// EvaluateBatch every leak gets its own request and override; all of them see the same snapshot.
func (s *IsolationService) EvaluateBatch(ctx context.Context, requests []da.LeakRequest) (BatchResult, error) {
	if len(requests) == 0 || len(requests) > MAX_BATCH_SIZE {
		return BatchResult{}, util.WrapErrorf(nil, util.ErrBadParamInput, "batch must contain 1 to %d leaks", MAX_BATCH_SIZE)
	}
	snapshot, revision, err := s.store.Current()
	if err != nil {
		return BatchResult{}, err
	}

	outputs := concurrent.Map(ctx, s.workers, requests, func(ctx context.Context, request da.LeakRequest) batchOutput {
		res, err := s.evaluate(ctx, snapshot, revision, request)
		return batchOutput{res: res, err: err}
	})

	batch := BatchResult{
		BatchID:  uuid.NewString(),
		Revision: revision,
		Results:  make([]isolation.IsolationResult, 0, len(outputs)),
	}
	for _, out := range outputs {
		if out.err != nil {
			return BatchResult{}, out.err
		}
		batch.Results = append(batch.Results, out.res)
	}
	batch.NeedCloseValves, batch.LostValves, batch.Isolatable = MergeResults(batch.Results)

	for _, res := range batch.Results {
		s.publish(EvaluationEvent{Revision: revision, BatchID: batch.BatchID, Result: res})
	}
	s.log.Info("batch evaluated", zap.String("batch_id", batch.BatchID), zap.Int("leaks", len(requests)),
		zap.Int("close_valves", len(batch.NeedCloseValves)), zap.String("isolatable", batch.Isolatable.String()))
	return batch, nil
}

// MergeResults union of closure and lost valves. the merged plan is isolatable only when every
// leak is; any false wins over unknown.
func MergeResults(results []isolation.IsolationResult) ([]string, []string, isolation.Isolatability) {
	closures := make([][]string, 0, len(results))
	lost := make([][]string, 0, len(results))
	merged := isolation.ISOLATABLE
	for _, res := range results {
		closures = append(closures, res.NeedCloseValves)
		lost = append(lost, res.LostValves)
		switch res.Isolatable {
		case isolation.NOT_ISOLATABLE:
			merged = isolation.NOT_ISOLATABLE
		case isolation.ISOLATION_UNKNOWN:
			if merged == isolation.ISOLATABLE {
				merged = isolation.ISOLATION_UNKNOWN
			}
		}
	}
	return util.Union(closures...), util.Union(lost...), merged
}

func (s *IsolationService) publish(event EvaluationEvent) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}
