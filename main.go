package main

import (
	"ScanFlow/impl/core"
	"ScanFlow/internal/config"
	"ScanFlow/internal/database"
	"ScanFlow/internal/gateway"
	"ScanFlow/internal/http-server/api"
	"ScanFlow/internal/lib/logger"
	"ScanFlow/internal/lib/sl"
	"ScanFlow/internal/ws"
	"ScanFlow/scenario"
	"ScanFlow/scenario/catalog"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alitto/pond/v2"
	"golang.org/x/sync/errgroup"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting scanflow", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	registry := scenario.NewRegistry()
	err := catalog.Install(registry, catalog.Features{
		PackageMeasurement: conf.Features.PackageMeasurement,
	})
	if err != nil {
		lg.Error("scenario registry", sl.Err(err))
		os.Exit(1)
	}
	registry.Freeze()
	for _, e := range registry.List() {
		lg.With(
			slog.String("scenario", e.Key),
			slog.Int("states", len(e.States)),
		).Debug("scenario registered")
	}

	gw := gateway.New(conf, lg)
	lg.With(
		slog.String("url", conf.Backend.BaseURL),
		sl.Secret("api_key", conf.Backend.ApiKey),
		slog.Duration("timeout", conf.Backend.Timeout),
	).Info("backend gateway initialized")

	pool := pond.NewPool(conf.Backend.Workers)

	handler := core.New(lg, registry, gw)
	handler.SetAuthKey(conf.Listen.ApiKey)
	handler.SetExecutor(pool)
	handler.SetFailureMessage(conf.Session.FailureMessage)
	handler.SetWaitTimeout(conf.Session.WaitTimeout)
	handler.SetStreamSigning(conf.Session.StreamSecret, conf.Session.StreamTTL)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	hub := ws.NewHub(lg)
	hub.SetHandler(handler)
	handler.SetBroadcaster(hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.New(conf, lg, handler, hub)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gCtx)
	})
	g.Go(func() error {
		return server.Start(gCtx)
	})

	err = g.Wait()
	handler.Shutdown()
	pool.StopAndWait()
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Info("service stopped")
}
