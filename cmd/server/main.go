package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/converse-chat/converse/internal/auth"
	"github.com/converse-chat/converse/internal/cache"
	"github.com/converse-chat/converse/internal/config"
	"github.com/converse-chat/converse/internal/events"
	"github.com/converse-chat/converse/internal/handlers"
	"github.com/converse-chat/converse/internal/logger"
	"github.com/converse-chat/converse/internal/media"
	"github.com/converse-chat/converse/internal/middleware"
	"github.com/converse-chat/converse/internal/registry"
	"github.com/converse-chat/converse/internal/repository"
	"github.com/converse-chat/converse/internal/server"
	"github.com/converse-chat/converse/internal/service"
	"github.com/converse-chat/converse/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.Development()})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := repository.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("connect mongo", "err", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.Mongo.DB)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	pub := events.NewRedisPublisher(rdb, cfg.Redis.Prefix, zlog)
	var stream *events.Stream
	if len(cfg.Kafka.Brokers) > 0 {
		stream = events.NewStream(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)
		defer stream.Close()
	}
	recent := cache.NewRecentMessages(rdb, cfg.Redis.Prefix)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.AccessTTL)
	oauth := auth.NewOAuth(cfg.App.BaseURL,
		auth.ProviderCredentials{ClientID: cfg.OAuth.GitHub.ClientID, ClientSecret: cfg.OAuth.GitHub.ClientSecret},
		auth.ProviderCredentials{ClientID: cfg.OAuth.Google.ClientID, ClientSecret: cfg.OAuth.Google.ClientSecret},
	)

	userSvc := service.NewUserService(userRepo, zlog)
	convSvc := service.NewConversationService(convRepo, msgRepo, userRepo, pub, recent, zlog)
	var archive service.ArchiveStream
	if stream != nil {
		archive = stream
	}
	msgSvc := service.NewMessageService(convRepo, msgRepo, userRepo, pub, archive, recent, zlog)

	var mediaSvc *media.Service
	if cfg.S3.Bucket != "" {
		store, err := media.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.PublicRead)
		if err != nil {
			zlog.Fatalw("init s3", "err", err)
		}
		mediaSvc = media.NewService(store, cfg.PresignTTL)
	}

	hub := ws.NewHub()
	presence := ws.NewPresence(rdb, cfg.Redis.Prefix)
	bridge := ws.NewBridge(rdb, cfg.Redis.Prefix, hub, zlog)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Errorw("pubsub bridge stopped", "err", err)
		}
	}()

	app := server.New(server.Deps{
		Log:           zlog,
		Tokens:        tokens,
		RateLimit:     middleware.NewIPRateLimiter(300, zlog),
		Auth:          handlers.NewAuthHandler(userSvc, tokens, oauth, zlog),
		Users:         handlers.NewUserHandler(userSvc, zlog),
		Conversations: handlers.NewConversationHandler(convSvc, zlog),
		Messages:      handlers.NewMessageHandler(msgSvc, zlog),
		Media:         handlers.NewMediaHandler(mediaSvc, zlog),
		WS:            ws.NewHandler(hub, tokens, presence, zlog),
	})

	var reg *registry.Registration
	if cfg.Consul.Enabled {
		reg, err = registry.Register(cfg.Consul.Addr, cfg.Consul.Service, cfg.App.Port, zlog)
		if err != nil {
			zlog.Fatalw("consul registration", "err", err)
		}
	}

	go func() {
		zlog.Infow("listening", "port", cfg.App.Port)
		if err := app.Listen(cfg.App.PortString()); err != nil {
			zlog.Errorw("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
	reg.Deregister()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Warnw("shutdown", "err", err)
	}
}
