package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	appchat "github.com/dinilH/SkillConnect/internal/app/chat"
	apppresence "github.com/dinilH/SkillConnect/internal/app/presence"
	"github.com/dinilH/SkillConnect/internal/infra/broker/kafka"
	"github.com/dinilH/SkillConnect/internal/infra/config"
	mongodb "github.com/dinilH/SkillConnect/internal/infra/db/mongo"
	ginserver "github.com/dinilH/SkillConnect/internal/infra/http/gin"
	"github.com/dinilH/SkillConnect/internal/infra/obs"
	"github.com/dinilH/SkillConnect/internal/infra/storage/memory"
	"github.com/dinilH/SkillConnect/internal/realtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go app.tracker.RunSweep(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		app.hub.Close()
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	hub      *realtime.Hub
	tracker  *apppresence.Tracker
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	hub := realtime.NewHub(logger)
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var (
		conversations appchat.ConversationRepository
		messages      appchat.MessageRepository
		watermarks    appchat.WatermarkRepository
		presenceRepo  apppresence.Repository
		ready         = func() error { return nil }
	)
	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return application{}, cleanup, err
		}
		conversations = mongodb.NewConversationRepository(client.DB)
		messages = mongodb.NewMessageRepository(client.DB)
		watermarks = mongodb.NewWatermarkRepository(client.DB)
		presenceRepo = mongodb.NewPresenceRepository(client.DB)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		logger.Info("storage ready", "backend", "mongo", "database", cfg.MongoDB)
	} else {
		conversationsRepo := memory.NewConversationRepository()
		conversations = conversationsRepo
		messages = memory.NewMessageRepository(conversationsRepo)
		watermarks = memory.NewWatermarkRepository()
		presenceRepo = memory.NewPresenceRepository()
		logger.Warn("MONGO_URI not set, using in-memory storage")
	}

	// Fan-out stays in-process unless a broker is configured; with Kafka
	// every instance consumes the topic under its own group id and feeds
	// its local hub.
	var publisher appchat.Publisher = hub
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, cleanup, err
		}
		cleanups = append(cleanups, func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close failed", "error", err)
			}
		})
		publisher = kafka.MessagePublisher{Producer: producer, Topic: cfg.ChatTopic()}

		groupID := "skillconnect-fanout-" + uuid.NewString()
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, groupID, nil, kafka.FanoutHandler{Hub: hub, Logger: logger})
		if err != nil {
			return application{}, cleanup, err
		}
		cleanups = append(cleanups, func() {
			if err := consumer.Close(); err != nil {
				logger.Warn("kafka consumer close failed", "error", err)
			}
		})
		go func() {
			if err := consumer.Run(ctx, []string{cfg.ChatTopic()}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
		logger.Info("kafka fan-out bridge enabled", "topic", cfg.ChatTopic(), "group_id", groupID)
	}

	chatService := &appchat.Service{
		Conversations: conversations,
		Messages:      messages,
		Watermarks:    watermarks,
		Publisher:     publisher,
		Notifier:      hub,
		Logger:        logger,
	}
	tracker := &apppresence.Tracker{
		Repo:          presenceRepo,
		IdleTimeout:   cfg.PresenceIdleTimeout,
		ActiveWindow:  cfg.PresenceActiveWindow,
		SweepInterval: cfg.PresenceSweepInterval,
		Logger:        logger,
	}

	wsHandler := ginserver.NewWSHandler(chatService, tracker, hub, cfg.WSSendBuffer, cfg.HeartbeatInterval, logger)

	return application{
		handlers: ginserver.Handlers{
			Chat:      ginserver.ChatHandler{Chat: chatService, Logger: logger},
			Presence:  ginserver.PresenceHandler{Tracker: tracker, Logger: logger},
			Websocket: wsHandler.Handle,
		},
		hub:     hub,
		tracker: tracker,
		ready:   ready,
	}, cleanup, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
