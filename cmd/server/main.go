package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"opsconsole/internal/crypto/local"
	"opsconsole/internal/eventbus"
	kafkasink "opsconsole/internal/eventbus/sink/kafka"
	postgressink "opsconsole/internal/eventbus/sink/postgres"
	"opsconsole/internal/exchange"
	"opsconsole/internal/identity"
	identitymem "opsconsole/internal/identity/store/memory"
	identityredis "opsconsole/internal/identity/store/redis"
	"opsconsole/internal/perf"
	"opsconsole/internal/platform/config"
	"opsconsole/internal/platform/httpserver"
	"opsconsole/internal/platform/logger"
	"opsconsole/internal/platform/metrics"
	platformredis "opsconsole/internal/platform/redis"
	"opsconsole/internal/task"
	"opsconsole/internal/threat"
	httptransport "opsconsole/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal subsystem packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	provider, err := local.New([]byte(cfg.ProviderSecret))
	if err != nil {
		log.Error("crypto provider init failed", "error", err)
		os.Exit(1)
	}

	var sinks []eventbus.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := kafkasink.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka sink init failed", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, kafka)
		log.Info("kafka event mirror enabled", "topic", cfg.KafkaTopic)
	}
	if cfg.DatabaseURL != "" {
		archive, err := postgressink.New(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres archive init failed", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, archive)
		log.Info("postgres event archive enabled")
	}

	bus := eventbus.New(cfg.LogRingCapacity,
		eventbus.WithLogger(log),
		eventbus.WithMetrics(m),
		eventbus.WithHeartbeatInterval(cfg.HeartbeatInterval),
		eventbus.WithBufferSize(cfg.SubscriberBuffer),
		eventbus.WithSinks(sinks...),
	)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	var ledgerStore identity.Store = identitymem.New()
	if redisClient != nil {
		ledgerStore = identityredis.New(redisClient.Client)
		log.Info("redis ledger store enabled")
	}

	identitySvc, err := identity.New(ledgerStore, provider, provider,
		identity.WithLogger(log),
		identity.WithPublisher(bus),
	)
	if err != nil {
		log.Error("identity service init failed", "error", err)
		os.Exit(1)
	}

	monitor := threat.New(threat.NewPatternSet(threat.DefaultPatterns...),
		threat.WithLogger(log),
		threat.WithPublisher(bus),
		threat.WithDetectedHook(m.ThreatsDetected.Inc),
	)

	simulator := task.New(
		task.WithLogger(log),
		task.WithPublisher(bus),
	)

	exchangeSvc, err := exchange.New(provider, provider,
		exchange.WithLogger(log),
		exchange.WithPublisher(bus),
	)
	if err != nil {
		log.Error("exchange service init failed", "error", err)
		os.Exit(1)
	}

	recorder := perf.New()

	handler := httptransport.New(bus, simulator, monitor, identitySvc, exchangeSvc, recorder, m, log, httptransport.Config{
		AdminTokenSecret: cfg.AdminTokenSecret,
		MaxConcurrentOps: cfg.MaxConcurrentOps,
	})

	router := chi.NewRouter()
	handler.Register(router)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("console backend listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.RemediationDrainTimeout)
	defer drainCancel()
	if err := monitor.Close(drainCtx); err != nil {
		log.Warn("remediation drain incomplete", "error", err)
	}

	if err := bus.Close(); err != nil {
		log.Error("bus close failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
