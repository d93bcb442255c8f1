package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/config"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
	"github.com/yukikurage/ticket-tracker-api/internal/database"
	"github.com/yukikurage/ticket-tracker-api/internal/handlers"
	"github.com/yukikurage/ticket-tracker-api/internal/middleware"
	"github.com/yukikurage/ticket-tracker-api/internal/realtime"
	"github.com/yukikurage/ticket-tracker-api/internal/repository"
	"github.com/yukikurage/ticket-tracker-api/internal/services"
	"github.com/yukikurage/ticket-tracker-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		bootLog := logger.New("prod", "")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if cfg.MigrateOnly {
		return
	}

	verifier, err := auth.NewJWTVerifier(auth.JWTVerifierConfig{
		HMACSecret:    cfg.TokenHMACSecret,
		RSAPublicKey:  cfg.TokenRSAPublicKey,
		Issuer:        cfg.TokenIssuer,
		UsernameClaim: cfg.TokenUsernameClaim,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token verifier")
	}

	// Realtime notifications
	registry := realtime.NewRegistry(log)
	dispatcher := realtime.NewDispatcher(registry, log)
	handshake := realtime.NewHandshake(verifier, log)

	// Initialize AI drafting
	var drafter services.TicketDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, ticket generation disabled")
	}

	// Repositories and services
	ticketRepo := repository.NewTicketRepository(db)
	timeLogRepo := repository.NewTimeLogRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	ticketService := services.NewTicketService(ticketRepo, timeLogRepo, projectRepo, dispatcher, drafter, log)
	projectService := services.NewProjectService(projectRepo, dispatcher, log)
	commentService := services.NewCommentService(commentRepo, ticketRepo, dispatcher, log)
	monitor := services.NewDeadlineMonitor(ticketRepo, dispatcher, cfg.DeadlineWarningDays, log)

	// Initialize Gin router
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		redisAddr,
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis store")
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	notificationsPath := cfg.NotificationsPath
	if notificationsPath == "" {
		notificationsPath = constants.DefaultNotificationsPath
	}

	registerRoutes(r, routeHandlers{
		auth:         handlers.NewAuthHandler(verifier, dispatcher, log),
		project:      handlers.NewProjectHandler(projectService, ticketService),
		ticket:       handlers.NewTicketHandler(ticketService),
		comment:      handlers.NewCommentHandler(commentService),
		notification: handlers.NewNotificationHandler(dispatcher),
		socket:       realtime.NewSocketHandler(handshake, registry, dispatcher, cfg.AllowedOrigins, log),
	}, verifier, notificationsPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go monitor.Run(ctx, cfg.DeadlineScanInterval)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("notifications", notificationsPath).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	shutdown(srv, registry, log)
}

func shutdown(srv *http.Server, registry *realtime.Registry, log zerolog.Logger) {
	log.Info().Msg("shutting down")

	// Hijacked websocket connections are not tracked by the server
	registry.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
