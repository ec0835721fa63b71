package main

import (
	"context"
	"flag"
	"io"

	"github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/engine"
	"github.com/new4mezdz/guandao/pkg/http"
	"github.com/new4mezdz/guandao/pkg/http/router/controllers"
	"github.com/new4mezdz/guandao/pkg/http/usecases"
	"github.com/new4mezdz/guandao/pkg/logger"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/new4mezdz/guandao/pkg/topology"
	"github.com/new4mezdz/guandao/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configDir    = flag.String("config", "./data/", "directory holding config.yaml")
	useRateLimit = flag.Bool("rate_limit", true, "enable the api token bucket (RATE_LIMIT_RPS, RATE_LIMIT_BURST)")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(*configDir); err != nil {
		panic(err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	isolationEngine, err := engine.NewEngine(engine.ConfigFromViper(), logger)
	if err != nil {
		logger.Fatal("invalid isolation config", zap.Error(err))
	}

	source, err := topology.NewSource(viper.GetString("topology.source"), viper.GetString("topology.path"))
	if err != nil {
		logger.Fatal("invalid topology source", zap.Error(err))
	}
	store := topology.NewSnapshotStore(source, isolationEngine.CheckSnapshot, logger,
		datastructure.StrictValves(isolationEngine.GetConfig().StrictValves))

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}

	revision, err := store.Reload(ctx)
	if err != nil {
		logger.Fatal("load topology", zap.String("path", viper.GetString("topology.path")), zap.Error(err))
	}

	registry := metrics.NewRegistry()
	registry.SnapshotRevision.Set(float64(revision))

	isolationService, err := usecases.NewIsolationService(logger, isolationEngine, store, registry,
		viper.GetInt("cache.size"), viper.GetInt("batch.workers"))
	if err != nil {
		logger.Fatal("create isolation service", zap.Error(err))
	}
	networkService := usecases.NewNetworkService(logger, isolationEngine, store, registry)

	hub := controllers.NewHub(logger, registry)
	isolationService.SetPublisher(hub)

	api := http.NewServer(logger)
	api.Use(ctx, logger, *useRateLimit, hub, registry, isolationService, networkService)

	signal := http.GracefulShutdown()

	logger.Info("Guandao Isolation Engine Server Stopped", zap.String("signal", signal.String()))
	cleanup()
	_ = api.Wait()
	if closer, ok := source.(io.Closer); ok {
		_ = closer.Close()
	}
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
