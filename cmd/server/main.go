// Command server runs the vouch attestation ledger. It wires the stores,
// registries, audit pipeline and HTTP transport from environment config.
// Business logic lives in the internal services packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	attshandler "vouch/internal/attestation/handler"
	attmetrics "vouch/internal/attestation/metrics"
	attservice "vouch/internal/attestation/service"
	attstore "vouch/internal/attestation/store"
	"vouch/internal/clock"
	expiryhandler "vouch/internal/expiry/handler"
	expirymetrics "vouch/internal/expiry/metrics"
	expiryservice "vouch/internal/expiry/service"
	expirystore "vouch/internal/expiry/store"
	granthandler "vouch/internal/grant/handler"
	grantmetrics "vouch/internal/grant/metrics"
	grantservice "vouch/internal/grant/service"
	grantstore "vouch/internal/grant/store"
	granttracer "vouch/internal/grant/tracer"
	jwttoken "vouch/internal/jwt_token"
	"vouch/internal/platform/config"
	"vouch/internal/platform/database"
	"vouch/internal/platform/health"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/kafka"
	"vouch/internal/platform/kafka/producer"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/metrics"
	redisplatform "vouch/internal/platform/redis"
	"vouch/internal/registry"
	httptransport "vouch/internal/transport/http"
	"vouch/pkg/platform/audit"
	auditkafka "vouch/pkg/platform/audit/publishers/kafka"
	"vouch/pkg/platform/audit/publisher"
	auditpg "vouch/pkg/platform/audit/store/postgres"
	"vouch/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.New(cfg.Postgres)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
		if err := pool.Migrate(ctx); err != nil {
			return err
		}
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	clk := clock.New(0)
	serial := tx.NewSerializer()

	// Audit pipeline: durable store plus optional Kafka stream.
	var sinks []audit.Store
	if pool != nil {
		sinks = append(sinks, auditpg.New(pool.DB()))
	} else {
		sinks = append(sinks, audit.NewInMemoryStore())
	}

	var kafkaProducer *producer.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		pcfg := kafka.DefaultProducerConfig()
		pcfg.Brokers = strings.Join(cfg.Kafka.Brokers, ",")
		kafkaProducer, err = producer.New(pcfg, log)
		if err != nil {
			return err
		}
		defer kafkaProducer.Close()
		sinks = append(sinks, auditkafka.NewSink(producerAdapter{kafkaProducer}, cfg.Kafka.Topic))
	}

	auditor := publisher.New(audit.NewFanOut(sinks...),
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	// Stores fall back to memory when Postgres is not configured.
	var (
		attStore   attstore.Store
		grantStore grantstore.Store
		expStore   expirystore.Store
	)
	if pool != nil {
		attStore = attstore.NewPostgres(pool.DB())
		grantStore = grantstore.NewPostgres(pool.DB())
		expStore = expirystore.NewPostgres(pool.DB())
	} else {
		attStore = attstore.New()
		grantStore = grantstore.New()
		expStore = expirystore.New()
	}
	if redisClient != nil {
		grantStore = grantstore.NewRedisCached(grantStore, redisClient.Client, log)
	}

	// Registries: seedable in-memory pair in standalone mode, HTTP clients
	// against the external services otherwise.
	var (
		volunteers registry.Volunteers
		providers  registry.Providers
		admin      *registry.AdminHandler
	)
	if cfg.Server.StandaloneMode {
		memVolunteers := registry.NewInMemoryVolunteers()
		memProviders := registry.NewInMemoryProviders()
		volunteers = memVolunteers
		providers = memProviders
		admin = registry.NewAdminHandler(memVolunteers, memProviders)
	} else {
		volunteers = registry.NewHTTPVolunteers(cfg.Registry.VolunteersURL)
		providers = registry.NewHTTPProviders(cfg.Registry.ProvidersURL)
	}

	attService := attservice.New(attStore, volunteers, providers, clk, serial, auditor, log,
		attservice.WithMetrics(attmetrics.New()),
		attservice.WithMaxValidityWindow(uint64(cfg.Ledger.MaxValidityWindow)),
	)
	grantService := grantservice.New(grantStore, attService, volunteers, clk, serial, auditor, log,
		grantservice.WithMetrics(grantmetrics.New()),
		grantservice.WithTracer(granttracer.NewOTel()),
		grantservice.WithMaxGrantWindow(uint64(cfg.Ledger.MaxGrantWindow)),
	)
	expService := expiryservice.New(expStore, clk, serial, auditor, log,
		expiryservice.WithMetrics(expirymetrics.New()),
	)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "vouch", "vouch-api")

	healthHandler := health.New(clk)
	if pool != nil {
		healthHandler.RegisterCheck("postgres", func() error { return pool.Health(context.Background()) })
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error { return redisClient.Health(context.Background()) })
	}
	if len(cfg.Kafka.Brokers) > 0 {
		checker := kafka.NewHealthChecker(strings.Join(cfg.Kafka.Brokers, ","))
		healthHandler.RegisterCheck(checker.Name(), func() error { return checker.Check(context.Background()) })
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Attestations: attshandler.New(attService, clk, log),
		Grants:       granthandler.New(grantService, clk, log),
		Expiry:       expiryhandler.New(expService, log),
		Health:       healthHandler,
		Admin:        admin,
		Validator:    jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:       log,
		HTTP:         metrics.NewHTTP(),
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting vouch", "addr", cfg.Server.Addr, "standalone", cfg.Server.StandaloneMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// producerAdapter bridges the franz-go producer to the audit sink's minimal
// producing interface.
type producerAdapter struct {
	p *producer.Producer
}

func (a producerAdapter) Produce(ctx context.Context, msg *auditkafka.Message) error {
	return a.p.Produce(ctx, &producer.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: msg.Headers,
	})
}
