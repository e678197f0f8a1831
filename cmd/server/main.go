package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"collabgate/pkg/platform/audit/publisher"
	auditkafka "collabgate/pkg/platform/audit/publishers/kafka"
	auditmemory "collabgate/pkg/platform/audit/store/memory"

	"collabgate/internal/dataformat"
	"collabgate/internal/decision"
	"collabgate/internal/docstore"
	"collabgate/internal/jwttoken"
	"collabgate/internal/onboarding"
	"collabgate/internal/platform/config"
	"collabgate/internal/platform/httpserver"
	"collabgate/internal/platform/logger"
	"collabgate/internal/platform/metrics"
	platformredis "collabgate/internal/platform/redis"
	"collabgate/internal/policy"
	"collabgate/internal/questionnaire"
	"collabgate/internal/registry"
)

const jwtIssuer = "collabgate"

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer, jwtIssuer)
	docs := docstore.New(filepath.Join(cfg.DataDir, "documents"))
	schema := questionnaire.LoadSchema(filepath.Join(cfg.DataDir, "questionnaire.json"), log)

	// Audit: in-process store of record, optional kafka sink for external
	// retention.
	auditStore := auditmemory.NewInMemoryStore()
	emitters := []publisher.Emitter{publisher.NewPublisher(auditStore)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka audit sink unavailable", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		emitters = append(emitters, sink)
	}
	auditor := publisher.NewFanout(emitters...)

	// Request store: postgres when configured, file-backed otherwise.
	var requestStore onboarding.Store
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		requestStore = onboarding.NewPostgres(db)
	} else {
		requestStore = onboarding.NewFileStore(filepath.Join(cfg.DataDir, "requests.json"))
	}
	projectStore := registry.NewFileStore(filepath.Join(cfg.DataDir, "project_registry.json"))

	// Optional verdict cache.
	var verdictCache decision.VerdictCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		verdictCache = decision.NewRedisCache(redisClient)
	}

	registryService := registry.NewService(projectStore, auditor, log)
	onboardingService := onboarding.NewService(requestStore, registryService, docs, schema, m, auditor, log)
	matcher := dataformat.NewMatcher(docs, log)
	policyClient := policy.NewClient(cfg.Policy.URL, cfg.Policy.Timeout, m, log)
	decisionService := decision.NewService(
		onboardingService, registryService, matcher, policyClient,
		verdictCache, cfg.Redis.VerdictTTL, m, auditor, log,
	)

	router := chi.NewRouter()
	registry.NewHandler(registryService, log, m, jwtService).Register(router)
	onboarding.NewHandler(onboardingService, log, m, jwtService).Register(router)
	decision.NewHandler(decisionService, log, m, jwtService).Register(router)
	policy.NewHandler(policyClient, auditor, log, m, jwtService).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting collabgate", "addr", cfg.Addr, "policy_url", cfg.Policy.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("collabgate stopped")
}
