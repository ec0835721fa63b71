package controllers

import (
	"context"

	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine/isolation"
	"github.com/new4mezdz/guandao/pkg/http/usecases"
	"github.com/new4mezdz/guandao/pkg/spatialindex"
)

type IsolationService interface {
	Evaluate(ctx context.Context, request da.LeakRequest) (isolation.IsolationResult, uint64, error)
	EvaluateBatch(ctx context.Context, requests []da.LeakRequest) (usecases.BatchResult, error)
}

type NetworkService interface {
	Summary(ctx context.Context) (usecases.NetworkSummary, error)
	Reload(ctx context.Context) (usecases.NetworkSummary, error)
	NearestPipes(ctx context.Context, x, y, radius float64, limit int) ([]spatialindex.PipeHit, uint64, error)
}
