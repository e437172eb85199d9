// Command server runs the procurement invoice lifecycle service: HTTP API,
// Postgres record store, optional Redis dashboard cache, and the optional
// Kafka audit stream.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement/internal/audit"
	auditpublisher "procurement/internal/audit/publisher"
	"procurement/internal/authority"
	"procurement/internal/dashboard"
	dashboardhandler "procurement/internal/dashboard/handler"
	invoicehandler "procurement/internal/invoice/handler"
	invoiceservice "procurement/internal/invoice/service"
	invoicestore "procurement/internal/invoice/store"
	paymenthandler "procurement/internal/payment/handler"
	paymentservice "procurement/internal/payment/service"
	paymentstore "procurement/internal/payment/store"
	"procurement/internal/platform/config"
	"procurement/internal/platform/httpserver"
	"procurement/internal/platform/logger"
	"procurement/internal/platform/metrics"
	"procurement/internal/platform/postgres"
	"procurement/internal/platform/redis"
	httptransport "procurement/internal/transport/http"
	"procurement/internal/validation"
	"procurement/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	cache, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	m := metrics.New()
	runner := tx.NewSQLRunner(db)

	invoices := invoicestore.NewPostgres(db)
	vendors := invoicestore.NewPostgresVendors(db)
	documents := invoicestore.NewPostgresDocuments(db)
	payments := paymentstore.NewPostgres(db)
	auditStore := audit.NewPostgres(db)

	documentAuthority := authority.NewDocumentClient(cfg.DocumentAuthorityURL)
	paymentAuthority := authority.NewPaymentClient(cfg.PaymentAuthorityURL)

	coordinator := validation.NewCoordinator(documentAuthority, paymentAuthority, validation.Config{
		DocumentTimeout: cfg.DocumentTimeout,
		PaymentTimeout:  cfg.PaymentTimeout,
		Logger:          log,
		Metrics:         m,
	})
	processor := paymentservice.NewProcessor(payments, paymentAuthority, auditStore, runner, paymentservice.Config{
		SettlementTimeout: cfg.SettlementTimeout,
		Logger:            log,
		Metrics:           m,
	})

	dashCache := dashboard.NewCache(cache, cfg.DashboardTTL)
	dashService := dashboard.NewService(dashboard.NewPostgresStats(db), dashCache, log)

	orchestrator := invoiceservice.NewOrchestrator(invoiceservice.Deps{
		Invoices:  invoices,
		Vendors:   vendors,
		Documents: documents,
		Payments:  payments,
		Validator: coordinator,
		Processor: processor,
		Audit:     auditStore,
		Tx:        runner,
		Cache:     dashCache,
		Metrics:   m,
		Logger:    log,
	})

	router := httptransport.NewRouter(httptransport.Deps{
		Logger: log,
		DB:     db,
		Redis:  cache,
		Handlers: []httptransport.Registerer{
			invoicehandler.New(orchestrator, log),
			paymenthandler.New(orchestrator, payments, log),
			dashboardhandler.New(dashService),
		},
	})

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := auditpublisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		go auditpublisher.NewWorker(auditStore, kafka, 0, log).Run(ctx)
		log.Info("audit stream enabled", "topic", cfg.AuditTopic, "brokers", cfg.KafkaBrokers)
	}

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting procurement service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
