// cmd/planner-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"garden-planner/internal/common/aws"
	"garden-planner/internal/common/camunda"
	"garden-planner/internal/common/config"
	"garden-planner/internal/common/database"
	"garden-planner/internal/common/logger"
	"garden-planner/internal/common/observability"
	"garden-planner/internal/garden/cache"
	"garden-planner/internal/garden/docstore"
	"garden-planner/internal/garden/genai"
	"garden-planner/internal/garden/location"
	"garden-planner/internal/garden/plan"
	"garden-planner/internal/garden/resolver"
	"garden-planner/internal/garden/search"
	"garden-planner/internal/garden/store"

	cgp "garden-planner/internal/workers/garden/create-garden-plan"
	ggp "garden-planner/internal/workers/garden/get-garden-plan"
	ll "garden-planner/internal/workers/garden/lookup-location"
	rp "garden-planner/internal/workers/garden/resolve-plants"
	sp "garden-planner/internal/workers/garden/search-plants"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting planner manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Observability ---
	var obsOpts []observability.Option
	if cfg.Tracing.Enabled {
		exporter, err := newTraceExporter(ctx, cfg.Tracing)
		if err != nil {
			zapLog.Fatal("trace exporter failed", zap.Error(err))
		}
		obsOpts = append(obsOpts, observability.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))
	}
	obs, err := observability.New(cfg.App.Name, obsOpts...)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Plant store (Postgres or SQLite) ---
	var plants store.Backend
	err = retryWithBackoff(func() error {
		var err error
		plants, err = database.OpenPlantStore(ctx, cfg)
		return err
	}, 15, 2*time.Second, zapLog, "Plant store connection")
	if err != nil {
		zapLog.Fatal("plant store failed after retries", zap.Error(err))
	}
	zapLog.Info("Plant store ready", zap.Bool("postgres", cfg.Database.Postgres.Enabled))

	// --- Redis plan store ---
	var redisClient *database.RedisClient
	var plans *docstore.Redis
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		plans = docstore.NewRedis(redisClient.GetClient(), time.Duration(cfg.Planner.PlanTTL)*time.Hour)
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch plant index ---
	var index *search.Index
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			index = search.NewIndex(es.Client, cfg.Database.Elasticsearch.Index)
			return index.EnsureIndex(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", index.Name()))
	}

	// --- Plan events ---
	var publisher *aws.PlanPublisher
	if cfg.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = aws.NewPlanPublisher(snsClient, cfg.AWS.SNS.TopicARN)
		zapLog.Info("SNS publisher ready", zap.String("topicArn", cfg.AWS.SNS.TopicARN))
	}

	// --- Garden components ---
	plantCache := cache.New(cache.Config{
		TTL:      config.GetDuration(cfg.Cache.TTL),
		Capacity: cfg.Cache.Capacity,
	})
	go plantCache.Run(ctx, config.GetDuration(cfg.Cache.SweepInterval))

	llm := genai.NewClient(genai.Config{
		Provider:        cfg.LLM.Provider,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		APIKey:          cfg.LLM.APIKey,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		MaxRetries:      cfg.LLM.MaxRetries,
		BreakerFailures: cfg.LLM.BreakerFailures,
		BreakerTimeout:  config.GetDuration(cfg.LLM.BreakerTimeout),
	}, log.With(map[string]interface{}{"component": "genai"}))

	generator := resolver.NewGenerator(
		genai.Instrument(llm, "plant"),
		config.GetDuration(cfg.LLM.Timeout),
		log.With(map[string]interface{}{"component": "generator"}),
	)

	resolverOpts := []resolver.Option{resolver.WithTracer(obs.Tracer())}
	if index != nil {
		resolverOpts = append(resolverOpts, resolver.WithIndexer(index))
	}
	plantResolver := resolver.New(plantCache, plants, generator, resolver.Config{
		StoreTimeout:             config.GetDuration(cfg.Planner.StoreTimeout),
		MaxConcurrentGenerations: cfg.Planner.MaxConcurrentGenerations,
	}, log.With(map[string]interface{}{"component": "resolver"}), resolverOpts...)

	locator := location.New()

	planOpts := []plan.Option{plan.WithTracer(obs.Tracer())}
	if plans != nil {
		planOpts = append(planOpts, plan.WithPlanStore(plans))
	}
	if publisher != nil {
		planOpts = append(planOpts, plan.WithPublisher(publisher))
	}
	assembler := plan.New(locator, plantResolver, llm, plan.Config{
		SectionTimeout:        config.GetDuration(cfg.Planner.SectionTimeout),
		PersistTimeout:        config.GetDuration(cfg.Planner.PersistTimeout),
		MaxConcurrentSections: cfg.Planner.MaxConcurrentSections,
	}, log.With(map[string]interface{}{"component": "planner"}), planOpts...)

	// --- Workers ---
	client := zeebe.GetClient()
	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	start(cgp.TaskType, cgp.NewHandler(
		cgp.LoadConfig(config.GetWorkerConfig(cfg, cgp.TaskType)), assembler, log,
	).HandleContext)

	start(rp.TaskType, rp.NewHandler(
		rp.LoadConfig(config.GetWorkerConfig(cfg, rp.TaskType)), plantResolver, log,
	).HandleContext)

	start(ll.TaskType, ll.NewHandler(
		ll.LoadConfig(config.GetWorkerConfig(cfg, ll.TaskType)), locator, log,
	).HandleContext)

	// A nil *search.Index must not reach the handler as a non-nil interface.
	var plantIndex sp.PlantIndex
	if index != nil {
		plantIndex = index
	}
	start(sp.TaskType, sp.NewHandler(
		sp.LoadConfig(config.GetWorkerConfig(cfg, sp.TaskType)), plantIndex, plants, log,
	).HandleContext)

	if plans != nil {
		start(ggp.TaskType, ggp.NewHandler(
			ggp.LoadConfig(config.GetWorkerConfig(cfg, ggp.TaskType)), plans, log,
		).HandleContext)
	} else {
		zapLog.Warn("redis disabled, get-garden-plan worker not started")
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"genai": llm.BreakerState()}
		ready := true
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"] = err.Error()
			ready = false
		} else {
			checks["zeebe"] = "ok"
		}
		if redisClient != nil {
			if err := redisClient.Ping(checkCtx); err != nil {
				checks["redis"] = err.Error()
				ready = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !ready {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", checks)
			return
		}
		writeStatus(w, http.StatusOK, "ready", checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	stop()

	// Let fire-and-forget usage updates and write-backs land before the
	// stores close.
	plantResolver.Wait()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zapLog.Error("Error closing Redis", zap.Error(err))
		}
	}
	if err := plants.Close(); err != nil {
		zapLog.Error("Error closing plant store", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Planner manager stopped gracefully")
}

func newTraceExporter(ctx context.Context, cfg config.TracingConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
