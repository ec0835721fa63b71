package controllers

import (
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine/isolation"
	"github.com/new4mezdz/guandao/pkg/spatialindex"
)

// leak_type is free text on purpose: an unrecognized type is answered with a failure result,
// not rejected as a bad request.
type evaluateRequest struct {
	LeakPipeID    string `json:"leak_pipe_id" validate:"required,max=64"`
	LeakType      string `json:"leak_type" validate:"required,max=32"`
	FailedValveID string `json:"failed_valve_id" validate:"omitempty,max=64"`
}

func (r evaluateRequest) ToLeakRequest() da.LeakRequest {
	return da.ParseLeakRequest(r.LeakPipeID, r.LeakType, r.FailedValveID)
}

type batchRequest struct {
	Leaks []evaluateRequest `json:"leaks" validate:"required,min=1,max=64,dive"`
}

type nearestPipesRequest struct {
	X      float64 `validate:"min=-1000000000,max=1000000000"`
	Y      float64 `validate:"min=-1000000000,max=1000000000"`
	Radius float64 `validate:"gt=0"`
	Limit  int     `validate:"min=0,max=100"`
}

type evaluateResponse struct {
	Revision uint64 `json:"revision"`
	isolation.IsolationResult
}

func NewEvaluateResponse(revision uint64, res isolation.IsolationResult) evaluateResponse {
	return evaluateResponse{Revision: revision, IsolationResult: res}
}

type nearestPipesResponse struct {
	Revision uint64                 `json:"revision"`
	Pipes    []spatialindex.PipeHit `json:"pipes"`
}

func NewNearestPipesResponse(revision uint64, pipes []spatialindex.PipeHit) nearestPipesResponse {
	return nearestPipesResponse{Revision: revision, Pipes: pipes}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
