package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/batchreg"
	"pharmatrace/internal/coldchain"
	"pharmatrace/internal/compliance"
	"pharmatrace/internal/custody"
	jwttoken "pharmatrace/internal/jwt_token"
	"pharmatrace/internal/ledger"
	ledgerkafka "pharmatrace/internal/ledger/kafka"
	"pharmatrace/internal/platform/config"
	"pharmatrace/internal/platform/httpserver"
	"pharmatrace/internal/platform/logger"
	"pharmatrace/internal/platform/metrics"
	platformredis "pharmatrace/internal/platform/redis"
	"pharmatrace/internal/prescription"
	"pharmatrace/internal/quality"
	"pharmatrace/internal/recall"
	"pharmatrace/internal/trace"
	httptransport "pharmatrace/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	meters := metrics.New()

	// Event log: Kafka when brokers are configured, in-process otherwise.
	var eventLog ledger.Ledger
	if cfg.KafkaBrokers != "" {
		publisher, err := ledgerkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		eventLog = publisher
	} else {
		eventLog = ledger.NewMemory()
	}

	// Stores: Postgres when a DSN is configured, in-memory otherwise. The
	// quality, compliance, cold-chain, and batch registries stay in memory
	// until their relational schemas land.
	auditStore := audit.Store(audit.NewInMemoryStore())
	custodyStore := custody.Store(custody.NewInMemoryStore())
	prescriptionStore := prescription.Store(prescription.NewInMemoryStore())
	recallStore := recall.Store(recall.NewInMemoryStore())
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		auditStore = audit.NewPostgresStore(db)
		custodyStore = custody.NewPostgresStore(db)
		prescriptionStore = prescription.NewPostgresStore(db)
		recallStore = recall.NewPostgresStore(db)
	}

	trail := audit.NewService(auditStore, eventLog, audit.WithLogger(log), audit.WithMetrics(meters))

	batches := batchreg.NewService(batchreg.NewInMemoryStore(), eventLog, trail, batchreg.WithMetrics(meters))
	custodySvc := custody.NewService(custodyStore, eventLog, trail,
		custody.WithOriginResolver(batches),
		custody.WithMetrics(meters),
	)
	prescriptions := prescription.NewService(prescriptionStore, eventLog, trail, prescription.WithMetrics(meters))
	qualitySvc := quality.NewService(quality.NewInMemoryStore(), eventLog, trail, quality.WithMetrics(meters))
	complianceSvc := compliance.NewService(compliance.NewInMemoryStore(), eventLog, trail, compliance.WithMetrics(meters))
	recalls := recall.NewService(recallStore, eventLog, trail, recall.WithMetrics(meters))
	coldchainSvc := coldchain.NewService(coldchain.NewInMemoryStore(), eventLog, trail, coldchain.WithMetrics(meters))

	traceOpts := []trace.Option{trace.WithLogger(log)}
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		traceOpts = append(traceOpts, trace.WithCache(trace.NewRedisCache(redisClient, config.StatusCacheTTL)))
	}
	status := trace.NewService(batches, custodySvc, qualitySvc, recalls, complianceSvc, coldchainSvc, trail, traceOpts...)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "pharmatrace", "pharmatrace-api")

	handler := httptransport.NewHandler(log, batches, custodySvc, prescriptions,
		qualitySvc, complianceSvc, recalls, coldchainSvc, trail, status)
	router := httptransport.NewRouter(handler, tokens)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting pharmatrace", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
