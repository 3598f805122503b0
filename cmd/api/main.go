package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewReplyRepository(pool)
	imageRepo := repository.NewImageRepository(pool)

	replyCounts := cache.NewReplyCountCache(redis.Client)

	store, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		logger.Fatal("failed to init upload storage", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		ReplyRepo:   replyRepo,
		ImageRepo:   imageRepo,
		ReplyCounts: replyCounts,
		Store:       store,
		Dispatcher:  dispatcher,
		Logger:      logger,
		PerPage:     cfg.Tickets.PerPage,
	})
	replyService := service.NewReplyService(service.ReplyDependencies{
		TicketRepo:  ticketRepo,
		ReplyRepo:   replyRepo,
		ReplyCounts: replyCounts,
		Dispatcher:  dispatcher,
	})
	imageService := service.NewImageService(service.ImageDependencies{
		TicketRepo: ticketRepo,
		ReplyRepo:  replyRepo,
		ImageRepo:  imageRepo,
		Store:      store,
		Config:     cfg.Upload,
		Logger:     logger,
	})

	mailer := mail.NewSMTPSender(mail.SMTPConfig{
		Host:        cfg.Notification.SMTPHost,
		Port:        cfg.Notification.SMTPPort,
		Username:    cfg.Notification.SMTPUser,
		Password:    cfg.Notification.SMTPPassword,
		FromName:    cfg.Notification.FromName,
		FromAddress: cfg.Notification.FromAddress,
	})
	notificationService := service.NewNotificationService(cfg.Notification, mailer, logger)
	notificationService.RegisterHandlers(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.AccessTokenTTLMinutes)*time.Minute)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxFileSizeBytes) * 4,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:         handlers.NewAuthHandler(cfg.Auth, tokens),
		Tickets:      handlers.NewTicketsHandler(ticketService, replyService, imageService),
		AdminTickets: handlers.NewAdminTicketsHandler(ticketService, replyService, imageService),
		Tokens:       tokens,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
