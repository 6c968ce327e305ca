// cmd/worker-manager/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"visibility-workers/internal/common/camunda"
	"visibility-workers/internal/common/config"
	"visibility-workers/internal/common/database"
	"visibility-workers/internal/common/logger"
	"visibility-workers/internal/common/observability"
	"visibility-workers/pkg/registry"

	av "visibility-workers/internal/workers/visibility/aggregate-visibility"
	bdr "visibility-workers/internal/workers/visibility/build-dashboard-response"
	frr "visibility-workers/internal/workers/visibility/fetch-ranking-results"
	svs "visibility-workers/internal/workers/visibility/store-visibility-snapshot"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Activity Registry ---
	if cfg.Visibility.RegistryPath != "" {
		reg, err := registry.LoadRegistry(cfg.Visibility.RegistryPath)
		if err != nil {
			zapLog.Warn("activity registry not loaded", zap.Error(err))
		} else {
			zapLog.Info("activity registry loaded",
				zap.String("version", reg.Version),
				zap.Int("activities", len(reg.Activities)),
			)
		}
	}

	// --- Register Visibility Workers ---
	var workers []*camunda.CamundaWorker

	if cfg.Workers[frr.TaskType].Enabled {
		handler := frr.NewHandler(
			&frr.Config{
				Timeout:             config.GetDuration(cfg.Workers[frr.TaskType].Timeout),
				CacheTTL:            time.Duration(cfg.Visibility.ResultsCacheTTL) * time.Second,
				DefaultLookbackDays: cfg.Visibility.DefaultLookbackDays,
				MaxLookbackDays:     cfg.Visibility.MaxLookbackDays,
			},
			pg.DB, redis.Client, log,
		)
		workers = append(workers, camunda.NewWorker(zeebeClient, frr.TaskType, cfg.Workers[frr.TaskType], handler, zapLog))
	}

	if cfg.Workers[av.TaskType].Enabled {
		handler := av.NewHandler(
			&av.Config{
				Timeout: config.GetDuration(cfg.Workers[av.TaskType].Timeout),
			},
			log,
		)
		workers = append(workers, camunda.NewWorker(zeebeClient, av.TaskType, cfg.Workers[av.TaskType], handler, zapLog))
	}

	if cfg.Workers[svs.TaskType].Enabled {
		handler := svs.NewHandler(
			&svs.Config{
				Timeout:       config.GetDuration(cfg.Workers[svs.TaskType].Timeout),
				SnapshotIndex: cfg.Visibility.SnapshotIndex,
				CacheTTL:      time.Duration(cfg.Visibility.SnapshotCacheTTL) * time.Second,
			},
			pg.DB, esClient, redis.Client, log,
		)
		workers = append(workers, camunda.NewWorker(zeebeClient, svs.TaskType, cfg.Workers[svs.TaskType], handler, zapLog))
	}

	if cfg.Workers[bdr.TaskType].Enabled {
		handler := bdr.NewHandler(
			&bdr.Config{
				Timeout:      config.GetDuration(cfg.Workers[bdr.TaskType].Timeout),
				DefaultLimit: cfg.Visibility.DefaultWindowLimit,
				DefaultStep:  10,
			},
			log,
		)
		workers = append(workers, camunda.NewWorker(zeebeClient, bdr.TaskType, cfg.Workers[bdr.TaskType], handler, zapLog))
	}

	zapLog.Info("All visibility workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.App.MetricsPort)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
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
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
