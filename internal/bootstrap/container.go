package bootstrap

import (
	"context"
	"log"

	"chat-handoff-be/internal/config"
	"chat-handoff-be/internal/controller"
	"chat-handoff-be/internal/handler"
	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/internal/pkg/mailer"
	"chat-handoff-be/internal/repository/memory"
	"chat-handoff-be/internal/repository/unitofwork"
	"chat-handoff-be/internal/scheduler"
	"chat-handoff-be/internal/service"
	"chat-handoff-be/internal/websocket"
	"chat-handoff-be/pkg/assistant"

	pktNats "chat-handoff-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const eventTopic = "handoff_events"

type Container struct {
	// Controllers
	WidgetController controller.IWidgetController
	AgentController  controller.IAgentController
	AuthController   controller.IAuthController

	// Background Services (Exposed for main.go to run)
	DispatcherService service.IDispatcherService
	Scheduler         *scheduler.Scheduler

	// WebSockets
	DashboardHandler *handler.DashboardHandler
	WebSocketHub     *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/dashboard.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Upstream assistant
	assistantClient := assistant.NewClient(
		cfg.Assistant.BaseURL,
		cfg.Assistant.APIKey,
		cfg.Assistant.Model,
		cfg.Assistant.MaxAttempts,
		cfg.Assistant.RetryBase,
	)

	// 3. Services
	publisherService := service.NewPublisherService(eventTopic, pubSub, sysLogger)
	dispatcherService := service.NewDispatcherService(pubSub, eventTopic, wsHub, natsPub, sysLogger)

	bindingCache := memory.NewBindingCache()
	resolverService := service.NewResolverService(uowFactory, bindingCache, sysLogger)
	authService := service.NewAuthService(uowFactory, cfg.Auth, sysLogger)
	presenceService := service.NewPresenceService(uowFactory, cfg.Handoff.PresenceThreshold, sysLogger)
	handoffService := service.NewHandoffService(uowFactory, publisherService, emailService, cfg.Handoff.SnapshotTurns, sysLogger)
	chatService := service.NewChatService(uowFactory, assistantClient, handoffService, publisherService, cfg.Handoff.SessionIdleTimeout, sysLogger)

	// 3.5 Background jobs
	jobScheduler := scheduler.New(scheduler.NewSystemClock(), sysLogger)
	jobScheduler.Every("presence_sweep", cfg.Handoff.SweepInterval, presenceService.SweepStale)
	jobScheduler.Every("session_reaper", cfg.Handoff.ReaperInterval, chatService.ReapIdleSessions)

	// WebSocket handler
	dashboardHandler := handler.NewDashboardHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		WidgetController: controller.NewWidgetController(resolverService, chatService, handoffService),
		AgentController:  controller.NewAgentController(presenceService, handoffService, chatService),
		AuthController:   controller.NewAuthController(authService),

		DispatcherService: dispatcherService,
		Scheduler:         jobScheduler,

		DashboardHandler: dashboardHandler,
		WebSocketHub:     wsHub,
	}
}
