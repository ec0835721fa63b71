package controllers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	helper "github.com/new4mezdz/guandao/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type isolationAPI struct {
	baseAPI
	isolationService IsolationService
}

func NewIsolationAPI(isolationService IsolationService, log *zap.Logger) *isolationAPI {
	return &isolationAPI{
		baseAPI:          baseAPI{log: log},
		isolationService: isolationService,
	}
}

func (api *isolationAPI) Routes(group *helper.RouteGroup) {
	group.POST("/isolation/evaluate", api.evaluate)
	group.POST("/isolation/batch", api.batch)
}

// evaluate
//
//	@Summary		valve closure plan for one leak
//	@Tags			isolation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		evaluateRequest	true	"leak"
//	@Success		200		{object}	evaluateResponse
//	@Failure		400		{object}	errorResponse
//	@Router			/isolation/evaluate [post]
func (api *isolationAPI) evaluate(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request evaluateRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	res, revision, err := api.isolationService.Evaluate(r.Context(), request.ToLeakRequest())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewEvaluateResponse(revision, res)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// batch
//
//	@Summary		independent closure plans for several leaks plus their union
//	@Tags			isolation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		batchRequest	true	"leaks"
//	@Success		200		{object}	usecases.BatchResult
//	@Failure		400		{object}	errorResponse
//	@Router			/isolation/batch [post]
func (api *isolationAPI) batch(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request batchRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	requests := make([]da.LeakRequest, 0, len(request.Leaks))
	for _, leak := range request.Leaks {
		requests = append(requests, leak.ToLeakRequest())
	}

	batch, err := api.isolationService.EvaluateBatch(r.Context(), requests)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": batch}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
