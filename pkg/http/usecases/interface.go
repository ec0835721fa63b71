package usecases

import (
	"context"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine/isolation"
	"github.com/new4mezdz/guandao/pkg/spatialindex"
)

type IsolationEngine interface {
	Evaluate(ctx context.Context, snapshot *da.NetworkSnapshot, request da.LeakRequest) (isolation.IsolationResult, error)
	GetSupplyNodes() []string
}

type SnapshotStore interface {
	Current() (*da.NetworkSnapshot, uint64, error)
	Reload(ctx context.Context) (uint64, error)
}

type SpatialIndex interface {
	SearchWithinRadius(x, y, radius float64, limit int) []spatialindex.PipeHit
}

// ResultPublisher receives every computed evaluation, e.g. the websocket result feed.
type ResultPublisher interface {
	Publish(message interface{})
}
