// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclient "gradmatch-workers/internal/common/aws"
	"gradmatch-workers/internal/common/camunda"
	"gradmatch-workers/internal/common/config"
	"gradmatch-workers/internal/common/database"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/observability"
	"gradmatch-workers/internal/matching"

	// Profile & Onboarding Workers (2)
	aos "gradmatch-workers/internal/workers/onboarding/advance-onboarding-step"
	ncp "gradmatch-workers/internal/workers/profile/normalize-candidate-profile"

	// Data Access Workers (2)
	luc "gradmatch-workers/internal/workers/data-access/load-university-catalog"
	spc "gradmatch-workers/internal/workers/data-access/search-program-catalog"

	// Matching Workers (3)
	fai "gradmatch-workers/internal/workers/matching/fetch-ai-match-scores"
	gum "gradmatch-workers/internal/workers/matching/generate-university-matches"
	spm "gradmatch-workers/internal/workers/matching/score-program-match"

	// Selection & Communication Workers (2)
	smd "gradmatch-workers/internal/workers/communication/send-match-digest"
	pms "gradmatch-workers/internal/workers/selection/persist-match-selection"
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

func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := config.GetWorkerConfig(cfg, taskType).Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.Build(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.Observability, nil)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
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
		return esClient.Ping(ctx)
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

	// --- Init notification clients ---
	var sender awsclient.EmailSender
	var publisher awsclient.Publisher
	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclient.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		sender = sesClient
	}
	if cfg.Notifications.Alerts.Enabled {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publisher = snsClient
	}

	engine, err := matching.NewEngine(cfg.Matching.Policy())
	if err != nil {
		zapLog.Fatal("match engine init failed", zap.Error(err))
	}

	// --- START: Register Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, h camunda.HandlerFunc) {
		if jw := camunda.StartWorker(zeebe.Zeebe(), taskType, config.GetWorkerConfig(cfg, taskType), h, zapLog); jw != nil {
			workers = append(workers, jw)
		}
	}

	// --- 1. Profile & Onboarding Workers (2) ---
	if config.IsWorkerEnabled(cfg, aos.TaskType) {
		handler := aos.NewHandler(
			&aos.Config{Timeout: workerTimeout(cfg, aos.TaskType, 5*time.Second)},
			log,
		)
		start(aos.TaskType, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, ncp.TaskType) {
		handler := ncp.NewHandler(
			&ncp.Config{
				Timeout:  workerTimeout(cfg, ncp.TaskType, 10*time.Second),
				CacheTTL: config.GetTTL(cfg.Cache.ProfileTTL),
			},
			redis.Client, log,
		)
		start(ncp.TaskType, handler.Handle)
	}

	// --- 2. Data Access Workers (2) ---
	catalogLoader := luc.NewHandler(
		&luc.Config{
			Timeout:  workerTimeout(cfg, luc.TaskType, 30*time.Second),
			CacheTTL: config.GetTTL(cfg.Cache.CatalogTTL),
		},
		pg.DB, redis.Client, log,
	)
	if config.IsWorkerEnabled(cfg, luc.TaskType) {
		start(luc.TaskType, catalogLoader.Handle)
	}

	if config.IsWorkerEnabled(cfg, spc.TaskType) {
		handler := spc.NewHandler(
			&spc.Config{
				Timeout:     workerTimeout(cfg, spc.TaskType, 10*time.Second),
				DefaultSize: 200,
			},
			esClient.Client, esClient.ProgramIndex, log,
		)
		start(spc.TaskType, handler.Handle)
	}

	// --- 3. Matching Workers (3) ---
	if config.IsWorkerEnabled(cfg, fai.TaskType) {
		ai := cfg.APIs.AIScoring
		handler := fai.NewHandler(
			&fai.Config{
				Timeout:        workerTimeout(cfg, fai.TaskType, 60*time.Second),
				AttemptTimeout: config.GetDuration(ai.Timeout),
				MaxAttempts:    ai.MaxAttempts,
				Concurrency:    ai.Concurrency,
				CacheTTL:       config.GetTTL(cfg.Cache.AIScoreTTL),
				BaseURL:        ai.BaseURL,
				APIKey:         ai.APIKey,
			},
			redis.Client, log,
		)
		start(fai.TaskType, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, spm.TaskType) {
		handler := spm.NewHandler(
			&spm.Config{Timeout: workerTimeout(cfg, spm.TaskType, 10*time.Second)},
			engine, pg.DB, log,
		)
		start(spm.TaskType, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, gum.TaskType) {
		handler := gum.NewHandler(
			&gum.Config{Timeout: workerTimeout(cfg, gum.TaskType, 60*time.Second)},
			engine, catalogLoader.Loader(), obs, log,
		)
		start(gum.TaskType, handler.Handle)
	}

	// --- 4. Selection & Communication Workers (2) ---
	if config.IsWorkerEnabled(cfg, pms.TaskType) {
		handler := pms.NewHandler(
			&pms.Config{Timeout: workerTimeout(cfg, pms.TaskType, 10*time.Second)},
			pg.DB, log,
		)
		start(pms.TaskType, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, smd.TaskType) {
		notif := cfg.Notifications
		handler := smd.NewHandler(
			&smd.Config{
				Timeout:          workerTimeout(cfg, smd.TaskType, 15*time.Second),
				EmailEnabled:     notif.Email.Enabled,
				FromEmail:        notif.Email.FromEmail,
				TopN:             notif.Email.DigestTopN,
				AlertsEnabled:    notif.Alerts.Enabled,
				CoverageTopicARN: notif.Alerts.CoverageTopicARN,
				DedupeTTL:        24 * time.Hour,
			},
			sender, publisher, redis.Client, log,
		)
		start(smd.TaskType, handler.Handle)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]func(context.Context) error{
			"zeebe":         zeebe.HealthCheck,
			"postgres":      pg.Ping,
			"redis":         redis.Ping,
			"elasticsearch": esClient.Ping,
		}
		body := map[string]string{"time": time.Now().Format(time.RFC3339)}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(checkCtx); err != nil {
				body[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		body["status"] = "ready"
		if status != http.StatusOK {
			body["status"] = "not_ready"
		}
		writeStatus(w, status, body)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Observability.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	obs.Shutdown(shutdownCtx)
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
