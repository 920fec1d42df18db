package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/matiasvera/clinic-api/internal/config"
	"github.com/matiasvera/clinic-api/internal/email"
	"github.com/matiasvera/clinic-api/internal/handler"
	appointmentHandler "github.com/matiasvera/clinic-api/internal/handler/appointment"
	authHandler "github.com/matiasvera/clinic-api/internal/handler/auth"
	bookingHandler "github.com/matiasvera/clinic-api/internal/handler/booking"
	patientHandler "github.com/matiasvera/clinic-api/internal/handler/patient"
	therapistHandler "github.com/matiasvera/clinic-api/internal/handler/therapist"
	treatmentHandler "github.com/matiasvera/clinic-api/internal/handler/treatment"
	"github.com/matiasvera/clinic-api/internal/middleware"
	"github.com/matiasvera/clinic-api/internal/repository/postgres"
	"github.com/matiasvera/clinic-api/internal/router"
	appointmentService "github.com/matiasvera/clinic-api/internal/service/appointment"
	authService "github.com/matiasvera/clinic-api/internal/service/auth"
	bookingService "github.com/matiasvera/clinic-api/internal/service/booking"
	patientService "github.com/matiasvera/clinic-api/internal/service/patient"
	therapistService "github.com/matiasvera/clinic-api/internal/service/therapist"
	treatmentService "github.com/matiasvera/clinic-api/internal/service/treatment"
	"github.com/matiasvera/clinic-api/pkg/auth"
	"github.com/matiasvera/clinic-api/pkg/logger"
	"github.com/matiasvera/clinic-api/pkg/messaging/redis"
	"github.com/matiasvera/clinic-api/pkg/metrics"
	"github.com/matiasvera/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, TimeFormat: time.RFC3339, Output: os.Stdout}).
		WithFields(map[string]interface{}{"component": "api"})

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

	m := metrics.NewMetrics("clinic_api")

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

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	therapistRepo := postgres.NewTherapistRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	treatmentRepo := postgres.NewTreatmentPlanRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Services
	appointmentSvc := appointmentService.NewService(appointmentRepo, broker, m, appointmentService.Config{
		HourlySlots:           cfg.Scheduling.HourlySlots,
		Location:              location,
		DefaultSessionMinutes: cfg.Scheduling.DefaultSessionMinutes,
		AvailabilityCacheTTL:  time.Duration(cfg.Scheduling.AvailabilityCacheTTL) * time.Second,
	})
	bookingSvc := bookingService.NewService(therapistRepo, appointmentSvc, emailSvc, location)
	treatmentSvc := treatmentService.NewService(treatmentRepo, appointmentRepo, patientRepo, broker, emailSvc, m, location)
	therapistSvc := therapistService.NewService(therapistRepo)
	patientSvc := patientService.NewService(patientRepo, appointmentRepo)

	tokens := auth.NewManager(auth.Config{
		Secret:      cfg.JWT.Secret,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})
	hasher := security.NewHasher(bcrypt.DefaultCost)
	authSvc := authService.NewService(userRepo, tokens, hasher)

	// Handlers
	handler.RegisterValidators()
	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	protected := []router.Handler{
		appointmentHandler.NewHandler(appointmentSvc),
		treatmentHandler.NewHandler(treatmentSvc),
		therapistHandler.NewHandler(therapistSvc),
		patientHandler.NewHandler(patientSvc),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.NewRouter(authMiddleware, authH, bookingH, protected, h, router.Config{
		RateLimitRPS:   float64(cfg.Server.RateLimitRPS),
		RateLimitBurst: cfg.Server.RateLimitBurst,
		Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORSConfig:     middleware.DefaultCORSConfig(),
		MetricsPrefix:  "clinic_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	appLogger.Info("server stopped")
}
