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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/config"
	"github.com/advista/advista-server-go/internal/database"
	"github.com/advista/advista-server-go/internal/handler"
	"github.com/advista/advista-server-go/internal/jobs"
	"github.com/advista/advista-server-go/internal/llm"
	"github.com/advista/advista-server-go/internal/middleware"
	"github.com/advista/advista-server-go/internal/redis"
	"github.com/advista/advista-server-go/internal/repository"
	"github.com/advista/advista-server-go/internal/search"
	"github.com/advista/advista-server-go/internal/service"
	"github.com/advista/advista-server-go/internal/sse"
	"github.com/advista/advista-server-go/internal/worker"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(cfg.IsProduction()); err != nil {
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

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	llmClient, err := llm.NewClient(context.Background(), cfg.LLMKeys(), cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create llm client")
	}
	defer llmClient.Close()

	userRepo := repository.NewUserRepository(db.DB)
	chatSessionRepo := repository.NewChatSessionRepository(db.DB)
	researchSessionRepo := repository.NewResearchSessionRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	serpClient := search.NewSerpClient(cfg.SerpAPIKey, cfg.SearchTimeout())
	youtubeService := search.NewYouTubeService(serpClient, cfg.SearchTimeout())

	mailer := service.NewMailer(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.MailFrom, cfg.DisableMailDelivery,
	)
	authService := service.NewAuthService(userRepo, mailer, cfg.JWTSecret, cfg.TokenExpiry())
	chatService := service.NewChatService(chatSessionRepo, redisClient, llmClient, cfg.ChatTTL())
	researchService := service.NewResearchService(researchSessionRepo, chatSessionRepo, redisClient, llmClient)
	analysisService := service.NewAnalysisService()
	synthesisService := service.NewSynthesisService(llmClient, analysisService)

	pipeline := worker.NewPipeline(
		researchSessionRepo, researchService, serpClient, youtubeService,
		analysisService, synthesisService, redisClient, broker, cfg.PipelineWorkers,
	)
	pipeline.Start()
	defer pipeline.Stop()

	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	authHandler := handler.NewAuthHandler(authService, authMiddleware.Handler)
	chatHandler := handler.NewChatHandler(chatService)
	researchHandler := handler.NewResearchHandler(researchService, chatService, authMiddleware.Handler)
	streamHandler := handler.NewStreamHandler(broker, researchService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware.Handler)

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	}
	r.Get("/", healthHandler)
	r.Get("/health", healthHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Mount("/", authHandler.Routes())
	})

	r.Route("/chat", func(r chi.Router) {
		r.Use(authMiddleware.Optional)
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", chatHandler.Routes())
	})

	r.Route("/research", func(r chi.Router) {
		r.Use(authMiddleware.Optional)
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", researchHandler.Routes())
	})

	r.Get("/results/{sessionID}", researchHandler.GetResults)
	r.Get("/analyses/{sessionID}", researchHandler.GetAnalyses)
	r.Get("/reddit-analysis-stream/{sessionID}", streamHandler.ServeHTTP)

	cleanupJob := jobs.NewCleanupJob(chatSessionRepo, userRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// SSE connections stay open indefinitely; no write timeout.
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
