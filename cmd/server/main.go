package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifeline/internal/donation"
	"lifeline/internal/donor"
	"lifeline/internal/inventory"
	"lifeline/internal/ledger"
	"lifeline/internal/matching"
	"lifeline/internal/notify"
	"lifeline/internal/platform/config"
	"lifeline/internal/platform/httpserver"
	"lifeline/internal/platform/logger"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/platform/middleware"
	"lifeline/internal/platform/postgres"
	"lifeline/internal/platform/redis"
	"lifeline/internal/request"
	"lifeline/internal/stats"
	httptransport "lifeline/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Every backing
// service degrades gracefully: without Postgres the in-memory stores serve,
// without Redis the leaderboard reads the store, without Kafka notifications
// go to the log.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		donorStore    donor.Store
		requestStore  request.Store
		invStore      inventory.Store
		ledgerStore   ledger.Store
		donationStore donation.Store
	)
	if db != nil {
		donorStore = donor.NewPostgresStore(db)
		requestStore = request.NewPostgresStore(db)
		invStore = inventory.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
		donationStore = donation.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		donorStore = donor.NewInMemoryStore()
		requestStore = request.NewInMemoryStore()
		invStore = inventory.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
		donationStore = donation.NewInMemoryStore()
		log.Warn("postgres not configured, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	donorOpts := []donor.Option{donor.WithLogger(log)}
	if redisClient != nil {
		defer redisClient.Close()
		cache := donor.NewRedisLeaderboardCache(redisClient.Client, cfg.LeaderboardTTL)
		donorOpts = append(donorOpts, donor.WithLeaderboardCache(cache))
		log.Info("leaderboard cache enabled")
	}
	donors := donor.New(donorStore, donorOpts...)

	requests := request.New(requestStore, request.WithLogger(log))

	inv := inventory.New(invStore,
		inventory.WithLogger(log),
		inventory.WithThresholds(inventory.Thresholds{
			Critical: cfg.CriticalBelow,
			Low:      cfg.LowBelow,
		}),
	)

	chain := ledger.New(ledgerStore,
		ledger.WithLogger(log),
		ledger.WithMetrics(m),
		ledger.WithDifficulty(cfg.Difficulty),
		ledger.WithMaxRetries(cfg.AppendRetries),
	)

	var sink notify.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = notify.NewResilientSink(kafkaSink, notify.NewLogSink(log), log)
		log.Info("kafka notification sink enabled", "topic", cfg.KafkaTopic)
	} else {
		sink = notify.NewLogSink(log)
		log.Warn("kafka not configured, notifications go to the log")
	}

	cooldown := time.Duration(cfg.CooldownDays) * 24 * time.Hour
	orchestrator := matching.NewOrchestrator(donorStore, sink,
		matching.WithLogger(log),
		matching.WithMetrics(m),
		matching.WithRadius(cfg.RadiusKm),
		matching.WithCooldown(cooldown),
		matching.WithFanoutCap(cfg.FanoutCap),
		matching.WithDispatchTimeout(cfg.NotifyTimeout),
	)

	coordinatorOpts := []donation.CoordinatorOption{
		donation.WithLogger(log),
		donation.WithMetrics(m),
		donation.WithCooldown(cooldown),
		donation.WithRadius(cfg.RadiusKm),
	}
	if db != nil {
		coordinatorOpts = append(coordinatorOpts, donation.WithDB(db))
	}
	coordinator := donation.NewCoordinator(donors, requests, inv, chain, donationStore, coordinatorOpts...)

	statistics := stats.New(donationStore, requests, inv, ledgerStore, stats.WithLogger(log))

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := chain.Init(startupCtx); err != nil {
		cancelStartup()
		log.Error("ledger initialization failed", "error", err)
		os.Exit(1)
	}
	if recovered, err := coordinator.Recover(startupCtx); err != nil {
		// Pending donations stay queued for the next start; the API still serves.
		log.Warn("donation ledger recovery incomplete", "recovered", recovered, "error", err)
	}
	cancelStartup()

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      m,
		Validator:    middleware.NewJWTValidator(cfg.JWTSigningKey),
		Donors:       donors,
		Requests:     requests,
		Inventory:    inv,
		Ledger:       chain,
		Coordinator:  coordinator,
		Orchestrator: orchestrator,
		Stats:        statistics,
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("lifeline server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
