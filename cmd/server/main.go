package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"intake/internal/assistant"
	"intake/internal/extraction"
	"intake/internal/handoff"
	intakehandler "intake/internal/intake/handler"
	intakemetrics "intake/internal/intake/metrics"
	"intake/internal/intake/service"
	"intake/internal/platform/config"
	"intake/internal/platform/httpserver"
	"intake/internal/platform/logger"
	"intake/internal/platform/metrics"
	"intake/internal/platform/redis"
	httptransport "intake/internal/transport/http"
	"intake/pkg/platform/audit/publisher"
	"intake/pkg/platform/audit/store/memory"
)

const auditBuffer = 256

// main wires dependencies and owns the server lifecycle. Workflow logic lives
// in the internal packages.
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.IsProduction(), cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("intake server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	intakeMetrics := intakemetrics.New(reg)

	slot, health, closeSlot, err := newHandoffSlot(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSlot()

	client := extraction.NewHTTPClient(cfg.Extraction.BaseURL,
		extraction.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Extraction.RPS), cfg.Extraction.Burst)),
		extraction.WithTimeouts(cfg.Extraction.Timeout, cfg.Extraction.ClassifyTimeout),
		extraction.WithObserver(intakeMetrics),
		extraction.WithLogger(log),
	)

	auditor := publisher.NewPublisher(memory.NewInMemoryStore(),
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	svc, err := service.New(client, slot,
		service.WithLogger(log),
		service.WithMetrics(intakeMetrics),
		service.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Options{
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
		Health:         health,
	},
		intakehandler.New(svc, log, cfg.MaxUploadBytes),
		intakehandler.NewAuditHandler(auditor, log),
		assistant.NewHandler(assistant.NewClient(cfg.QABaseURL, cfg.Extraction.Timeout), log),
	)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting intake server", "addr", cfg.Addr, "extraction_base_url", cfg.Extraction.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down intake server")
	return srv.Shutdown(shutdownCtx)
}

// newHandoffSlot returns the Redis slot when REDIS_URL is set and the
// in-memory slot otherwise. health is nil for the in-memory slot.
func newHandoffSlot(ctx context.Context, cfg config.Server, log *slog.Logger) (handoff.Slot, httptransport.HealthChecker, func(), error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		log.Info("hand-off slot in memory")
		return handoff.NewMemorySlot(), nil, func() {}, nil
	}
	log.Info("hand-off slot in redis", "ttl", cfg.HandoffTTL)
	return handoff.NewRedisSlot(client, cfg.HandoffTTL), client, func() { _ = client.Close() }, nil
}
