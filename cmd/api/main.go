package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/facilityworks/helpdesk/internal/api/http"
	"github.com/facilityworks/helpdesk/internal/api/http/handlers"
	"github.com/facilityworks/helpdesk/internal/auth"
	"github.com/facilityworks/helpdesk/internal/config"
	"github.com/facilityworks/helpdesk/internal/events"
	"github.com/facilityworks/helpdesk/internal/observability"
	"github.com/facilityworks/helpdesk/internal/persistence"
	"github.com/facilityworks/helpdesk/internal/repository"
	"github.com/facilityworks/helpdesk/internal/service"
	"github.com/facilityworks/helpdesk/internal/sla"
	"github.com/facilityworks/helpdesk/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketPostgres(pool)
	userRepo := repository.NewUserPostgres(pool)
	notificationRepo := repository.NewNotificationPostgres(pool)
	articleRepo := repository.NewArticlePostgres(pool)

	calculator, slaPolicy, err := sla.FromConfig(cfg.SLA)
	if err != nil {
		logger.Fatal("invalid sla configuration", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Calculator: calculator,
		SLAPolicy:  slaPolicy,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(notificationRepo, userRepo, logger, metrics)
	reportService := service.NewReportService(ticketRepo, redis, logger)
	authService := service.NewAuthService(cfg.Auth, userRepo, logger)
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost, logger)
	kbService := service.NewKBService(articleRepo)

	worker.StartNotificationWorker(notificationService, dispatcher)

	authMiddleware := auth.Middleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Reports:        handlers.NewReportsHandler(reportService, userService),
		KB:             handlers.NewKBHandler(kbService),
		AuthMiddleware: authMiddleware,
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
