package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"routeplanner/internal/api"
	"routeplanner/internal/buildinfo"
	"routeplanner/internal/config"
	"routeplanner/internal/logging"
	"routeplanner/internal/metrics"
)

func main() { os.Exit(run()) }

// run returns the process exit code; deferred log flushes happen before exit.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		return 1
	}
	log, err := logging.New(cfg.Development(), cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := serve(cfg, log); err != nil {
		log.Error("server error", zap.Error(err))
		return 1
	}
	return 0
}

func serve(cfg config.Config, log *zap.Logger) error {
	metrics.RegisterDefault()

	srvDeps, err := api.NewServer(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = srvDeps.Close() }()

	for name, key := range map[string]string{
		"TOMTOM_API_KEY":       cfg.TomTomAPIKey,
		"GOOGLE_API_KEY":       cfg.GoogleAPIKey,
		"OPEN_WEATHER_API_KEY": cfg.OpenWeatherAPIKey,
	} {
		if key == "" {
			log.Warn("upstream key not set", zap.String("env", name))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srvDeps.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	srvDeps.StartWebhooks(gctx)
	g.Go(func() error {
		log.Info("API listening", zap.String("addr", srv.Addr), zap.String("version", buildinfo.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
