package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jbarros93/dws-challenge/internal/accounts"
	"github.com/jbarros93/dws-challenge/internal/config"
	"github.com/jbarros93/dws-challenge/internal/handler"
	"github.com/jbarros93/dws-challenge/internal/journal"
	"github.com/jbarros93/dws-challenge/internal/middleware"
	"github.com/jbarros93/dws-challenge/internal/notify"
	"github.com/jbarros93/dws-challenge/internal/queue"
	"github.com/jbarros93/dws-challenge/internal/store"
	"github.com/jbarros93/dws-challenge/internal/telemetry"
	"github.com/jbarros93/dws-challenge/internal/transfer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	parseFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := telemetry.InitLogger(cfg.ServiceName, telemetry.ParseLevel(cfg.LogLevel))

	cleanup, err := telemetry.InitTracer(telemetry.TracerConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.OTLPEndpoint,
		Environment:    cfg.Environment,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer", slog.String("error", err.Error()))
	} else {
		defer cleanup()
	}

	gin.SetMode(cfg.GinMode)

	// 1. Notification sinks
	sinks := notify.Fanout{notify.NewLog(logger)}

	if cfg.NATSUrl != "" {
		logger.Info("connecting to NATS", slog.String("url", cfg.NATSUrl))
		natsClient, err := queue.NewNATSClient(cfg.NATSUrl, cfg.ServiceName)
		if err != nil {
			return err
		}
		defer natsClient.Close()
		sinks = append(sinks, notify.NewNATS(natsClient, notify.Subject))
	}

	if cfg.JournalPath != "" {
		logger.Info("opening notification journal", slog.String("path", cfg.JournalPath))
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		sinks = append(sinks, j)
	}

	// 2. Store, executor and service
	accountStore := store.NewMemory()

	opts := []transfer.Option{transfer.WithLogger(logger)}
	if cfg.NotifyAfterRelease {
		opts = append(opts, transfer.WithNotifyAfterRelease())
	}
	executor := transfer.NewExecutor(accountStore, sinks, opts...)
	service := accounts.NewService(accountStore, executor, logger)

	// 3. HTTP API
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Tracing())
	router.Use(middleware.Metrics())
	handler.SetupRoutes(router, handler.NewHandler(service))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.Int("port", cfg.Port))
		return listen(srv)
	})
	g.Go(func() error {
		logger.Info("metrics server listening", slog.Int("port", cfg.MetricsPort))
		return listen(metricsSrv)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("service stopped")
	return nil
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s: %w", srv.Addr, err)
	}
	return nil
}

// parseFlags lets command line flags override the environment.
func parseFlags(cfg *config.Config) {
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.IntVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "Metrics server port")
	flag.StringVar(&cfg.NATSUrl, "nats-url", cfg.NATSUrl, "NATS server URL, empty disables NATS notifications")
	flag.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Notification journal path, empty disables it")
	flag.StringVar(&cfg.GinMode, "gin-mode", cfg.GinMode, "Gin mode (debug/release)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug/info/warn/error)")
	flag.BoolVar(&cfg.NotifyAfterRelease, "notify-after-release", cfg.NotifyAfterRelease, "Dispatch notifications after releasing account locks")

	flag.Parse()
}
