package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"fallakte/internal/config"
	"fallakte/internal/db"
	"fallakte/internal/email"
	apihttp "fallakte/internal/http"
	"fallakte/internal/llm"
	"fallakte/internal/repository"
	"fallakte/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	workerRepo := repository.NewPgWorkerRepository(pool)
	clientRepo := repository.NewPgClientRepository(pool)
	anamnesisRepo := repository.NewPgAnamnesisRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	indicatorRepo := repository.NewPgIndicatorRepository(pool)
	reportRepo := repository.NewPgReportRepository(pool)
	fragmentRepo := repository.NewPgFragmentRepository(pool)

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.EmbeddingModel, logger)
	transcriber := llm.NewWhisperClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.WhisperModel, logger)

	extractSvc := service.NewExtractionService(llmClient, logger)
	synthSvc := service.NewSynthesisService(llmClient, logger)
	fragmentSvc := service.NewFragmentService(llmClient, fragmentRepo, logger)
	authSvc := service.NewAuthService(workerRepo, logger)

	var emailSender email.Sender = email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var llmLimiter service.LLMRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			llmLimiter = service.NewRedisLLMRateLimiter(
				redisClient,
				time.Duration(cfg.LLMRateWindowMinutes)*time.Minute,
				cfg.LLMRateMax,
			)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	authHandler := apihttp.NewAuthHandler(logger, authSvc, jwtSvc)
	transcribeHandler := apihttp.NewTranscribeHandler(logger, transcriber, cfg.TranscribeLanguage)
	clientHandler := apihttp.NewClientHandler(logger, clientRepo, anamnesisRepo, extractSvc, fragmentSvc)
	anamnesisHandler := apihttp.NewAnamnesisHandler(logger, clientRepo, anamnesisRepo, extractSvc, fragmentSvc)
	sessionHandler := apihttp.NewSessionHandler(logger, clientRepo, sessionRepo, indicatorRepo, extractSvc, fragmentSvc)
	reportHandler := apihttp.NewReportHandler(logger, clientRepo, anamnesisRepo, sessionRepo, reportRepo, synthSvc, fragmentSvc, emailSender)

	router := apihttp.NewRouter(logger, jwtSvc, llmLimiter, authHandler, transcribeHandler, clientHandler, anamnesisHandler, sessionHandler, reportHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
