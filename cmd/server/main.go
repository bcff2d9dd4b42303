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

	"golang.org/x/sync/errgroup"

	assethandler "crest/internal/asset/handler"
	assetservice "crest/internal/asset/service"
	assetstore "crest/internal/asset/store"
	"crest/internal/engine"
	enginehandler "crest/internal/engine/handler"
	"crest/internal/engine/ledger"
	enginemetrics "crest/internal/engine/metrics"
	"crest/internal/engine/volume"
	"crest/internal/identity"
	identityhandler "crest/internal/identity/handler"
	moduleconfighandler "crest/internal/moduleconfig/handler"
	moduleconfigservice "crest/internal/moduleconfig/service"
	modulestore "crest/internal/moduleconfig/store"
	offeringhandler "crest/internal/offering/handler"
	offeringservice "crest/internal/offering/service"
	offeringstore "crest/internal/offering/store"
	"crest/internal/platform/config"
	"crest/internal/platform/httpserver"
	"crest/internal/platform/logger"
	"crest/internal/platform/postgres"
	"crest/internal/platform/redis"
	httptransport "crest/internal/transport/http"
	"crest/pkg/platform/audit"
	auditkafka "crest/pkg/platform/audit/kafka"
)

// main wires stores, services, and handlers, then runs the HTTP server until
// SIGINT/SIGTERM. Business logic lives in the internal packages; main only
// chooses backends (memory, postgres, redis, kafka) from configuration.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		log.Info("postgres stores enabled")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis volume store enabled")
	}

	var pub audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := auditkafka.New(cfg.Kafka.Brokers, auditkafka.WithTopic(cfg.Kafka.Topic))
		if err != nil {
			return err
		}
		defer kp.Close()
		pub = kp
		log.Info("kafka audit publisher enabled", "topic", cfg.Kafka.Topic)
	}

	// Stores.
	var (
		assets    assetstore.Store       = assetstore.NewInMemory()
		offerings offeringstore.Store    = offeringstore.NewInMemory()
		modules   modulestore.Store      = modulestore.NewInMemory()
		idstore   identity.Store         = identity.NewInMemoryStore()
		volumes   volume.Store           = volume.NewInMemoryStore()
	)
	if db != nil {
		assets = assetstore.NewPostgres(db)
		offerings = offeringstore.NewPostgres(db)
		modules = modulestore.NewPostgres(db)
		idstore = identity.NewPostgresStore(db)
	}
	if rdb != nil {
		volumes = volume.NewRedisStore(rdb.Client)
	}
	positions := ledger.NewInMemoryLedger()

	// Services.
	assetSvc, err := assetservice.New(assets,
		assetservice.WithLogger(log), assetservice.WithAuditPublisher(pub))
	if err != nil {
		return err
	}
	offeringSvc, err := offeringservice.New(offerings, assets,
		offeringservice.WithLogger(log), offeringservice.WithAuditPublisher(pub))
	if err != nil {
		return err
	}
	moduleSvc, err := moduleconfigservice.New(modules, assets,
		moduleconfigservice.WithLogger(log), moduleconfigservice.WithAuditPublisher(pub))
	if err != nil {
		return err
	}
	identitySvc, err := identity.New(idstore,
		identity.WithLogger(log), identity.WithAuditPublisher(pub))
	if err != nil {
		return err
	}
	engineSvc, err := engine.New(assets, offerings, modules, identitySvc, positions, volumes,
		engine.WithLogger(log),
		engine.WithAuditPublisher(pub),
		engine.WithMetrics(enginemetrics.New()))
	if err != nil {
		return err
	}

	checks := map[string]httptransport.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = rdb.Health
	}

	router := httptransport.NewRouter(log, cfg.JWTSigningKey, checks,
		enginehandler.New(engineSvc, log),
		assethandler.New(assetSvc, log),
		offeringhandler.New(offeringSvc, log),
		moduleconfighandler.New(moduleSvc, log),
		identityhandler.New(identitySvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting crest", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
