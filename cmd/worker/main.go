package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/matiasvera/clinic-api/internal/config"
	"github.com/matiasvera/clinic-api/internal/email"
	"github.com/matiasvera/clinic-api/internal/repository/postgres"
	"github.com/matiasvera/clinic-api/internal/worker"
	"github.com/matiasvera/clinic-api/pkg/logger"
	"github.com/matiasvera/clinic-api/pkg/messaging/redis"
	"github.com/matiasvera/clinic-api/pkg/metrics"
)

// workerOptions are the worker-only knobs, taken from the environment so the
// reminder cadence can be tuned per deployment without touching the shared
// config file.
type workerOptions struct {
	IntervalMinutes int `envconfig:"REMINDER_INTERVAL_MINUTES" default:"60"`
	MetricsPort     int `envconfig:"WORKER_METRICS_PORT" default:"9102"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var opts workerOptions
	if err := envconfig.Process("", &opts); err != nil {
		log.Fatal().Err(err).Msg("failed to read worker options")
	}

	appLogger := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, TimeFormat: time.RFC3339, Output: os.Stdout}).
		WithFields(map[string]interface{}{"component": "reminder-worker"})

	location, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduling.Timezone).Msg("invalid timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	m := metrics.NewMetrics("clinic_worker")

	reminders := worker.NewReminderWorker(
		postgres.NewAppointmentRepository(db),
		postgres.NewPatientRepository(db),
		broker,
		emailSvc,
		m,
		location,
		time.Duration(opts.IntervalMinutes)*time.Minute,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", opts.MetricsPort)
		appLogger.Info("worker metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go reminders.Start(ctx)
	appLogger.Info("reminder worker started", "interval_minutes", opts.IntervalMinutes)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down worker")
	cancel()
}
