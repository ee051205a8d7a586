package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"companion-server/internal/clients"
	"companion-server/internal/config"
	"companion-server/internal/database"
	"companion-server/internal/handler"
	"companion-server/internal/messaging"
	"companion-server/internal/repository"
	"companion-server/internal/service"
	"companion-server/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Хранилища ---
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Host))

	if err := database.ApplyMigrations(pool); err != nil {
		return err
	}
	log.Info("Database migrations applied")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	defer redisClient.Close()
	log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// --- События ---
	var publisher messaging.EventPublisher = messaging.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err = messaging.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			return err
		}
		log.Info("Connected to RabbitMQ", zap.String("exchange", cfg.RabbitMQ.Exchange))
	} else {
		log.Info("RabbitMQ URL is empty, event publishing disabled")
	}
	defer publisher.Close()

	// --- Клиенты локальных inference-серверов ---
	llmClient := clients.NewLLMClient(cfg.LLM, log)
	imageClient := clients.NewImageClient(cfg.SD, log)
	searchClient := clients.NewSearchClient(cfg.Search, log)
	vectorClient := clients.NewVectorStoreClient(cfg.Vector, log)
	embedClient, err := clients.NewEmbeddingClient(cfg.Ollama, log)
	if err != nil {
		return err
	}

	// --- Репозитории ---
	storyRepo := repository.NewPgStoryRepository(pool, log)
	sceneRepo := repository.NewPgSceneRepository(pool, log)
	sessionRepo := repository.NewPgSessionRepository(pool, log)
	assetRepo := repository.NewPgAssetRepository(pool, log)
	characterRepo := repository.NewPgCharacterRepository(pool, log)
	messageRepo := repository.NewPgMessageRepository(pool, log)
	memoryRepo := repository.NewPgMemoryRepository(pool, log)
	assetCache := repository.NewRedisAssetCache(redisClient, cfg.Redis.AssetTTL, log)

	// --- Сервисы ---
	assetService := service.NewAssetService(sceneRepo, assetRepo, assetCache, imageClient, publisher, cfg.Assets, log)
	progressionService := service.NewProgressionService(storyRepo, sceneRepo, sessionRepo, assetService, publisher, log)
	memoryService := service.NewMemoryService(memoryRepo, embedClient, vectorClient, log)
	characterService := service.NewCharacterService(characterRepo, imageClient, memoryService, cfg.Assets, log)
	imageService := service.NewImageService(imageClient, cfg.Assets, log)
	chatService, err := service.NewChatService(characterRepo, messageRepo, llmClient, searchClient, memoryService, cfg.Chat, cfg.Search, log)
	if err != nil {
		return err
	}

	// --- HTTP ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.ZapLoggingMiddleware(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(router)

	h := handler.NewHandler(progressionService, assetService, characterService, chatService, memoryService, imageService, searchClient, log)
	h.RegisterRoutes(router, cfg.Assets.StoragePath)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
