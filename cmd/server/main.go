package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pol60/bastshin-sessions/internal/config"
	"github.com/pol60/bastshin-sessions/internal/database"
	"github.com/pol60/bastshin-sessions/internal/handler"
	"github.com/pol60/bastshin-sessions/internal/identity"
	"github.com/pol60/bastshin-sessions/internal/jobs"
	"github.com/pol60/bastshin-sessions/internal/middleware"
	"github.com/pol60/bastshin-sessions/internal/redis"
	"github.com/pol60/bastshin-sessions/internal/repository"
	"github.com/pol60/bastshin-sessions/internal/service"
	"github.com/pol60/bastshin-sessions/internal/sse"
)

func main() {
	godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionRepo := repository.NewSessionRepository(db.DB)
	favoriteRepo := repository.NewFavoriteRepository(db.DB)
	migrationLogRepo := repository.NewMigrationLogRepository(db.DB)
	adminRepo := repository.NewAdminRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	identityClient := identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey)
	verifier := identity.NewVerifier(cfg.IdentityJWTSecret)

	migrationService := service.NewMigrationService(db, sessionRepo, favoriteRepo, migrationLogRepo)
	sessionService := service.NewSessionService(sessionRepo, migrationService, broker)
	presenceService := service.NewPresenceService(
		sessionRepo, redisClient, broker,
		cfg.HeartbeatMinInterval(), cfg.InactivityThreshold(),
	)
	adminService := service.NewAdminService(adminRepo, sessionRepo, broker)
	authService := service.NewAuthService(identityClient, sessionService)
	favoriteService := service.NewFavoriteService(favoriteRepo)

	authMiddleware := middleware.NewAuthMiddleware(verifier)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	sessionHandler := handler.NewSessionHandler(sessionService, presenceService)
	authHandler := handler.NewAuthHandler(authService)
	favoritesHandler := handler.NewFavoritesHandler(favoriteService)
	eventsHandler := handler.NewEventsHandler(broker, adminService)
	adminHandler := handler.NewAdminHandler(adminService, eventsHandler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

		r.Mount("/sessions", sessionHandler.Routes())
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/favorites", favoritesHandler.Routes())

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Mount("/", adminHandler.Routes())
		})
	})

	presenceJob := jobs.NewPresenceJob(
		presenceService, sessionRepo,
		cfg.PresenceSweepInterval(), cfg.StaleSessionMaxAge(),
	)
	presenceJob.Start()
	defer presenceJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
