package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facilityworks/helpdesk/internal/config"
	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/events"
	"github.com/facilityworks/helpdesk/internal/observability"
	"github.com/facilityworks/helpdesk/internal/repository"
	"github.com/facilityworks/helpdesk/internal/service"
	"github.com/facilityworks/helpdesk/internal/sla"
	"github.com/facilityworks/helpdesk/internal/storage"
	"github.com/facilityworks/helpdesk/internal/worker"
)

// app holds the services wired over the JSON snapshot store. Every
// command builds one; mutations land on disk before the command exits.
type app struct {
	cfg           *config.Config
	logger        *zap.Logger
	users         repository.UserRepository
	tickets       *service.TicketService
	notifications *service.NotificationService
	reports       *service.ReportService
	userService   *service.UserService
	kb            *service.KBService
}

func buildApp() (*app, error) {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	store, err := storage.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ticketRepo := repository.NewTicketSnapshot(store)
	userRepo := repository.NewUserSnapshot(store)
	notificationRepo := repository.NewNotificationSnapshot(store)
	articleRepo := repository.NewArticleSnapshot(store)

	calculator, slaPolicy, err := sla.FromConfig(cfg.SLA)
	if err != nil {
		return nil, fmt.Errorf("sla: %w", err)
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Calculator: calculator,
		SLAPolicy:  slaPolicy,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(notificationRepo, userRepo, logger, metrics)
	worker.StartNotificationWorker(notificationService, dispatcher)

	return &app{
		cfg:           cfg,
		logger:        logger,
		users:         userRepo,
		tickets:       ticketService,
		notifications: notificationService,
		reports:       service.NewReportService(ticketRepo, nil, logger),
		userService:   service.NewUserService(userRepo, cfg.Auth.BcryptCost, logger),
		kb:            service.NewKBService(articleRepo),
	}, nil
}

// actor resolves the --as flag into a user record.
func (a *app) actor(cmd *cobra.Command) (*domain.User, error) {
	username, _ := cmd.Flags().GetString("as")
	if username == "" {
		return nil, fmt.Errorf("--as <username> is required")
	}
	user, err := a.users.GetByUsername(context.Background(), username)
	if err != nil {
		return nil, fmt.Errorf("unknown user %q", username)
	}
	if !user.Active {
		return nil, fmt.Errorf("user %q is deactivated", username)
	}
	return user, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
