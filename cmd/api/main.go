package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/internal/booking"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/handlers/admin"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/handlers/public"
	internalmw "github.com/ItIsRain/OneToOne-sub009/internal/http/middleware"
	"github.com/ItIsRain/OneToOne-sub009/internal/repo/postgres"
	"github.com/ItIsRain/OneToOne-sub009/internal/timezone"
	"github.com/ItIsRain/OneToOne-sub009/pkg/config"
	"github.com/ItIsRain/OneToOne-sub009/pkg/database"
	"github.com/ItIsRain/OneToOne-sub009/pkg/events"
	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
	mw "github.com/ItIsRain/OneToOne-sub009/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	pageRepo := postgres.NewBookingPageRepo(pool)
	availabilityRepo := postgres.NewAvailabilityRepo(pool)
	appointmentRepo := postgres.NewAppointmentRepo(pool)
	tenantRepo := postgres.NewTenantRepo(pool)
	idempotencyRepo := postgres.NewIdempotencyRepo(pool, cfg.Booking.IdempotencyTTL)

	engine := booking.NewEngine(
		pageRepo,
		availabilityRepo,
		availabilityRepo,
		appointmentRepo,
		tenantRepo,
		idempotencyRepo,
		timezone.NewProjector(),
		eventBus,
	)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := idempotencyRepo.CleanupExpired(context.Background()); err != nil {
				logger.Error("Idempotency cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info("Removed expired idempotency keys", "count", n)
			}
		}
	}()

	publicHandler := public.NewBookingHandler(engine, pageRepo, appointmentRepo, eventBus)
	pagesHandler := admin.NewPagesHandler(pageRepo, eventBus, cfg.Booking)
	availabilityHandler := admin.NewAvailabilityHandler(availabilityRepo, eventBus)
	appointmentsHandler := admin.NewAppointmentsHandler(appointmentRepo, eventBus)

	publicLimiter := internalmw.NewRateLimiter(rdb, cfg.RateLimit.PublicRequests, cfg.RateLimit.PublicWindow, "public")

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("onetoone-api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Tenant-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/public", func(r chi.Router) {
			r.Use(internalmw.ResolveTenant(tenantRepo, cfg.Server.BaseDomain))
			r.Use(publicLimiter.Middleware())
			r.Mount("/", publicHandler.Routes())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(internalmw.RequireRole(cfg.Auth.JWTSecret, "admin", "member"))
			r.Mount("/pages", pagesHandler.Routes())
			r.Mount("/availability", availabilityHandler.Routes())
			r.Mount("/appointments", appointmentsHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down booking service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Booking service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting booking service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Booking service error", "error", err)
		os.Exit(1)
	}
}
