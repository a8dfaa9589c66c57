package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anchal0410/peer-connect/internal/cache"
	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/handlers"
	"github.com/Anchal0410/peer-connect/internal/handlers/ws"
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/logging"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/Anchal0410/peer-connect/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("no .env file found, using system environment variables")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}

	// Redis is optional; without it presence and conversation lists go
	// straight to the store.
	var redisCache *cache.RedisCache
	if rc := cache.NewRedisCache(cfg.Redis); rc.Ping(ctx) != nil {
		log.Warn("redis unavailable, running without cache", zap.String("addr", cfg.Redis.Addr))
		_ = rc.Close()
	} else {
		redisCache = rc
		log.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr))
	}

	var objects storage.ObjectStore
	if s3, err := storage.NewS3Storage(cfg.S3); err != nil {
		log.Warn("object storage disabled, avatar endpoints return 503", zap.Error(err))
	} else {
		objects = s3
		log.Info("object storage ready", zap.String("bucket", cfg.S3.Bucket))
	}

	hub := ws.NewHub(ws.DefaultHubOptions(), log)

	tokens := service.NewTokenManager(cfg.JWT)
	presence := service.NewPresenceTracker(store.Users, cache.NewPresenceCache(redisCache), service.SystemClock, log)
	svc := handlers.Services{
		Auth:       service.NewAuthService(store.Users, tokens, presence, cfg.Limits, service.SystemClock, log),
		Users:      service.NewUserService(store.Users, store.Activities, presence, log),
		Activities: service.NewActivityService(store.Activities, store.Users, service.SystemClock, log),
		Chat:       service.NewChatService(store, cache.NewConversationCache(redisCache), hub, cfg.Limits, service.SystemClock, log),
		Avatars:    service.NewAvatarService(store.Users, objects, cfg.Server.PublicAPIBaseURL, log),
		Presence:   presence,
		Hub:        hub,
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.AppName,
		ErrorHandler: httpx.ErrorHandler,
		// Avatar uploads are capped at 5MB; leave room for multipart overhead.
		BodyLimit: 8 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(cfg.Server.AllowedOrigins),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: cfg.Server.AllowedOrigins != "" && cfg.Server.AllowedOrigins != "*",
	}))

	handlers.Register(app, svc, handlers.RouteOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthRateLimit:  20,
		AppName:        cfg.Server.AppName,
	}, log)

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	hub.Close()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		log.Error("store close", zap.Error(err))
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
}

// corsOrigins maps an empty allow-list to the wildcard, matching OriginAllowed.
func corsOrigins(allowed string) string {
	if allowed == "" {
		return "*"
	}
	return allowed
}
