package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/new4mezdz/guandao/pkg/costfunction"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/new4mezdz/guandao/pkg/overlay"
	"github.com/new4mezdz/guandao/pkg/spatialindex"
	"github.com/new4mezdz/guandao/pkg/util"
	"go.uber.org/zap"
)

type NetworkSummary struct {
	Revision      uint64         `json:"revision"`
	Nodes         int            `json:"nodes"`
	Pipes         int            `json:"pipes"`
	Valves        int            `json:"valves"`
	NodesByTier   map[string]int `json:"nodes_by_tier"`
	PipesByStatus map[string]int `json:"pipes_by_status"`
	SupplyNodes   []string       `json:"supply_nodes"` // configured origins present in the snapshot
	LostValves    []string       `json:"lost_valves"`
	OrphanValves  []string       `json:"orphan_valves"`
}

func Summarize(snapshot *da.NetworkSnapshot, revision uint64, supplyNodes []string) NetworkSummary {
	summary := NetworkSummary{
		Revision:      revision,
		Nodes:         snapshot.NumberOfNodes(),
		Pipes:         snapshot.NumberOfPipes(),
		Valves:        snapshot.NumberOfValves(),
		NodesByTier:   map[string]int{},
		PipesByStatus: map[string]int{},
		SupplyNodes:   make([]string, 0),
		OrphanValves:  util.SortedUnique(snapshot.GetOrphanValves()),
	}
	snapshot.ForEachNode(func(n da.Node) {
		summary.NodesByTier[n.GetTier().String()]++
	})
	snapshot.ForEachPipe(func(p da.Pipe) {
		summary.PipesByStatus[p.GetStatus().String()]++
	})
	for _, id := range supplyNodes {
		if _, ok := snapshot.GetNode(id); ok {
			summary.SupplyNodes = append(summary.SupplyNodes, id)
		}
	}
	summary.SupplyNodes = util.SortedUnique(summary.SupplyNodes)
	summary.LostValves = overlay.NewValveOverlay(snapshot, "").GetLostValves()
	return summary
}

// NetworkService topology facing operations. the pipe index is rebuilt lazily once per revision.
type NetworkService struct {
	log     *zap.Logger
	engine  IsolationEngine
	store   SnapshotStore
	metrics *metrics.Registry

	mu            sync.Mutex
	index         SpatialIndex
	indexRevision uint64
}

func NewNetworkService(log *zap.Logger, engine IsolationEngine, store SnapshotStore, registry *metrics.Registry) *NetworkService {
	return &NetworkService{
		log:     log,
		engine:  engine,
		store:   store,
		metrics: registry,
	}
}

func (ns *NetworkService) Summary(ctx context.Context) (NetworkSummary, error) {
	snapshot, revision, err := ns.store.Current()
	if err != nil {
		return NetworkSummary{}, err
	}
	return Summarize(snapshot, revision, ns.engine.GetSupplyNodes()), nil
}

func (ns *NetworkService) Reload(ctx context.Context) (NetworkSummary, error) {
	if _, err := ns.store.Reload(ctx); err != nil {
		ns.log.Error("topology reload failed", zap.Error(err))
		if errors.Is(err, da.ErrInvalidTopology) || errors.Is(err, costfunction.ErrLeakCapacityTooLarge) {
			return NetworkSummary{}, util.WrapErrorf(err, util.ErrConflict, "topology rejected, previous snapshot kept")
		}
		return NetworkSummary{}, err
	}
	summary, err := ns.Summary(ctx)
	if err != nil {
		return NetworkSummary{}, err
	}
	ns.metrics.SnapshotRevision.Set(float64(summary.Revision))
	return summary, nil
}

// NearestPipes pipes within radius of the reported point, closest first.
func (ns *NetworkService) NearestPipes(ctx context.Context, x, y, radius float64, limit int) ([]spatialindex.PipeHit, uint64, error) {
	index, revision, err := ns.spatialIndex()
	if err != nil {
		return nil, 0, err
	}
	return index.SearchWithinRadius(x, y, radius, limit), revision, nil
}

func (ns *NetworkService) spatialIndex() (SpatialIndex, uint64, error) {
	snapshot, revision, err := ns.store.Current()
	if err != nil {
		return nil, 0, err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.index == nil || ns.indexRevision != revision {
		rt := spatialindex.NewRtree()
		rt.Build(snapshot, ns.log)
		ns.index = rt
		ns.indexRevision = revision
	}
	return ns.index, revision, nil
}
