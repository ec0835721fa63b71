package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/new4mezdz/guandao/pkg/http/router/controllers"
	router_helper "github.com/new4mezdz/guandao/pkg/http/router/routerhelper"
	http_server "github.com/new4mezdz/guandao/pkg/http/server"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/rs/cors"
	"go.uber.org/zap"

	httpSwagger "github.com/swaggo/http-swagger"
)

type API struct {
	log     *zap.Logger
	hub     *controllers.Hub
	metrics *metrics.Registry
}

func NewAPI(log *zap.Logger, hub *controllers.Hub, registry *metrics.Registry) *API {
	return &API{log: log, hub: hub, metrics: registry}
}

//	@title			Guandao API
//	@version		1.0
//	@description	Valve closure planning for leaks in a water distribution network.

//	@license.name	MIT

// @host		localhost
// @BasePath	/api
func (api *API) Handler(
	useRateLimit bool,
	isolationService controllers.IsolationService,
	networkService controllers.NetworkService,
) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", REQUEST_ID_HEADER},
		ExposedHeaders:   []string{"Link", REQUEST_ID_HEADER},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore
	})

	router.GET("/doc/*any", swaggerHandler)
	router.Handler(http.MethodGet, "/metrics", api.metrics.Handler())
	router.GET("/ws/results", api.handleResultFeed)

	group := router_helper.NewRouteGroup(router, "/api")
	controllers.NewIsolationAPI(isolationService, api.log).Routes(group)
	controllers.NewNetworkAPI(networkService, api.log).Routes(group)

	mwChain := []alice.Constructor{corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Labels, Logger(api.log), Metrics(api.metrics, router)}
	if useRateLimit {
		mwChain = append(mwChain, Limit)
	}
	return alice.New(mwChain...).Then(router)
}

func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	useRateLimit bool,
	isolationService controllers.IsolationService,
	networkService controllers.NetworkService,
) error {
	api.log.Info("Run httprouter API")

	srv := http_server.New(ctx, api.Handler(useRateLimit, isolationService, networkService), config)
	api.log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		api.log.Info("HTTP server stopped", zap.Error(err))
		api.hub.RemoveAll()
		return err
	case <-ctx.Done():
		api.log.Info("Context canceled, shutting down server")
		api.hub.RemoveAll()
		_ = srv.Shutdown(context.Background())
		return ctx.Err()
	}
}

func swaggerHandler(res http.ResponseWriter, req *http.Request, p httprouter.Params) {
	httpSwagger.WrapHandler(res, req)
}
