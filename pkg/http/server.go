package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	http_router "github.com/new4mezdz/guandao/pkg/http/router"
	"github.com/new4mezdz/guandao/pkg/http/router/controllers"
	http_server "github.com/new4mezdz/guandao/pkg/http/server"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the api in the background. Wait returns once it stopped.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	useRateLimit bool,
	hub *controllers.Hub,
	registry *metrics.Registry,
	isolationService controllers.IsolationService,
	networkService controllers.NetworkService,
) (*Server, error) {
	config := http_server.Config{
		Port:    viper.GetInt("API_PORT"),
		Timeout: viper.GetDuration("API_TIMEOUT"),
	}

	server := http_router.NewAPI(log, hub, registry)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(
			gctx, config,
			useRateLimit, isolationService, networkService,
		)
	})
	s.g = g

	return s, nil
}

func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}

func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
