package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	helper "github.com/new4mezdz/guandao/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type networkAPI struct {
	baseAPI
	networkService NetworkService
}

func NewNetworkAPI(networkService NetworkService, log *zap.Logger) *networkAPI {
	return &networkAPI{
		baseAPI:        baseAPI{log: log},
		networkService: networkService,
	}
}

func (api *networkAPI) Routes(group *helper.RouteGroup) {
	group.GET("/network", api.summary)
	group.GET("/network/nearestPipes", api.nearestPipes)
	group.POST("/network/reload", api.reload)
}

// summary
//
//	@Summary		counts, supply origins present, lost and orphan valves of the loaded snapshot
//	@Tags			network
//	@Produce		json
//	@Success		200	{object}	usecases.NetworkSummary
//	@Router			/network [get]
func (api *networkAPI) summary(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	summary, err := api.networkService.Summary(r.Context())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": summary}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// reload
//
//	@Summary		re-read the configured topology source
//	@Tags			network
//	@Produce		json
//	@Success		200	{object}	usecases.NetworkSummary
//	@Router			/network/reload [post]
func (api *networkAPI) reload(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	summary, err := api.networkService.Reload(r.Context())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": summary}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// nearestPipes
//
//	@Summary		pipes closest to a reported leak location
//	@Tags			network
//	@Produce		json
//	@Param			x		query		number	true	"x"
//	@Param			y		query		number	true	"y"
//	@Param			radius	query		number	true	"search radius, network units"
//	@Param			limit	query		int		false	"max pipes"
//	@Success		200		{object}	nearestPipesResponse
//	@Failure		400		{object}	errorResponse
//	@Router			/network/nearestPipes [get]
func (api *networkAPI) nearestPipes(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request nearestPipesRequest
		err     error
	)

	query := r.URL.Query()

	request.X, err = strconv.ParseFloat(query.Get("x"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("x is required and must be a valid float"))
		return
	}
	request.Y, err = strconv.ParseFloat(query.Get("y"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("y is required and must be a valid float"))
		return
	}
	request.Radius, err = strconv.ParseFloat(query.Get("radius"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("radius is required and must be a valid float"))
		return
	}
	if l := query.Get("limit"); l != "" {
		request.Limit, err = strconv.Atoi(l)
		if err != nil {
			api.BadRequestResponse(w, r, errors.New("limit must be a valid int"))
			return
		}
	}
	if err := api.validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	pipes, revision, err := api.networkService.NearestPipes(r.Context(), request.X, request.Y, request.Radius, request.Limit)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewNearestPipesResponse(revision, pipes)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
