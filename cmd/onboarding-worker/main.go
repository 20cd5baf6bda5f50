// cmd/onboarding-worker/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	awsclient "hospital-onboarding/internal/common/aws"
	"hospital-onboarding/internal/common/camunda"
	"hospital-onboarding/internal/common/config"
	"hospital-onboarding/internal/common/database"
	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/common/observability"
	"hospital-onboarding/internal/common/server"
	"hospital-onboarding/internal/lifecycle"
	"hospital-onboarding/internal/notification"
	"hospital-onboarding/pkg/registry"

	gen "hospital-onboarding/internal/workers/onboarding/generate-hospital-contract"
	nad "hospital-onboarding/internal/workers/onboarding/notify-application-decision"
	sha "hospital-onboarding/internal/workers/onboarding/score-hospital-application"
	sub "hospital-onboarding/internal/workers/onboarding/submit-hospital-application"
	uas "hospital-onboarding/internal/workers/onboarding/update-application-status"
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

// reportMigrationVersion logs the applied schema version. A failed lookup
// is a warning; the migrations themselves already succeeded.
func reportMigrationVersion(log *zap.Logger, version func() (int64, error)) {
	v, err := version()
	if err != nil {
		log.Warn("could not read migration version", zap.Error(err))
		return
	}
	log.Info("database schema up to date", zap.Int64("version", v))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format,
		logger.WithOutput(cfg.Logging.Output),
		logger.WithService(cfg.App.Name, cfg.App.Version, cfg.App.Environment))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting onboarding worker",
		zap.String("broker", cfg.Camunda.BrokerAddress))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres open failed", zap.Error(err))
	}
	err = retryWithBackoff(func() error {
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, pg.DB); err != nil {
			zapLog.Fatal("database migration failed", zap.Error(err))
		}
		reportMigrationVersion(zapLog, func() (int64, error) {
			return database.MigrationVersion(ctx, pg.DB)
		})
	}

	// --- Redis ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Domain ---
	store := lifecycle.NewPostgresStore(pg.DB)
	criteria := lifecycle.NewCachedCriteria(store, redis.Client,
		config.GetDuration(cfg.Scoring.CriteriaCacheTTL), log)
	manager := lifecycle.NewManager(store, criteria, log,
		lifecycle.WithEvaluatedBy(cfg.Scoring.EvaluatedBy))

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config load failed", zap.Error(err))
	}
	notifier := notification.NewNotifier(cfg.Notifications,
		awsclient.NewSESClient(awsCfg), awsclient.NewSNSClient(awsCfg), log)

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      30 * time.Second,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	builders := []struct {
		taskType string
		build    func(wcfg config.WorkerConfig) (camunda.JobHandler, error)
	}{
		{sub.TaskType, func(wcfg config.WorkerConfig) (camunda.JobHandler, error) {
			return sub.NewHandler(sub.LoadConfig(wcfg, reg), manager, reg, log)
		}},
		{sha.TaskType, func(wcfg config.WorkerConfig) (camunda.JobHandler, error) {
			return sha.NewHandler(sha.LoadConfig(wcfg, reg), manager, reg, log)
		}},
		{uas.TaskType, func(wcfg config.WorkerConfig) (camunda.JobHandler, error) {
			return uas.NewHandler(uas.LoadConfig(wcfg, reg), manager, reg, log)
		}},
		{gen.TaskType, func(wcfg config.WorkerConfig) (camunda.JobHandler, error) {
			return gen.NewHandler(gen.LoadConfig(wcfg, reg), manager, reg, log)
		}},
		{nad.TaskType, func(wcfg config.WorkerConfig) (camunda.JobHandler, error) {
			return nad.NewHandler(nad.LoadConfig(wcfg, reg), manager, notifier, reg, log)
		}},
	}

	var workers []*camunda.CamundaWorker
	for _, b := range builders {
		if !config.IsWorkerEnabled(cfg, b.taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", b.taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, b.taskType)
		handler, err := b.build(wcfg)
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", b.taskType), zap.Error(err))
		}
		jobTimeout := wcfg.Timeout
		if jobTimeout == 0 {
			jobTimeout = cfg.Camunda.Timeout
		}
		w := camunda.NewWorker(zeebe.GetClient(), b.taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(jobTimeout),
		}, handler, obs, log)
		w.Start()
		workers = append(workers, w)
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	ops := server.New(cfg.Server.Address, log,
		server.WithCheck("postgres", pg),
		server.WithCheck("redis", redis),
		server.WithCheck("zeebe", server.PingFunc(zeebe.HealthCheck)),
	)
	ops.Start()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := ops.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping ops server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping observability", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("onboarding worker stopped gracefully")
}
