// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/auth"
	"github.com/unclebandit/donorhub-backend/internal/client/backend"
	"github.com/unclebandit/donorhub-backend/internal/client/stripe"
	"github.com/unclebandit/donorhub-backend/internal/client/unsplash"
	"github.com/unclebandit/donorhub-backend/internal/config"
	"github.com/unclebandit/donorhub-backend/internal/controller"
	"github.com/unclebandit/donorhub-backend/internal/db"
	"github.com/unclebandit/donorhub-backend/internal/handler"
	"github.com/unclebandit/donorhub-backend/internal/logging"
	"github.com/unclebandit/donorhub-backend/internal/metrics"
	"github.com/unclebandit/donorhub-backend/internal/queue"
	"github.com/unclebandit/donorhub-backend/internal/repository"
	"github.com/unclebandit/donorhub-backend/internal/server"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn, logger); err != nil {
		return err
	}

	m := metrics.New()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	templateRepo := &repository.EmailTemplateRepository{DB: conn}
	audienceRepo := &repository.AudienceRepository{DB: conn}
	donatorRepo := &repository.DonatorRepository{DB: conn}
	orgRepo := &repository.OrganizationRepository{DB: conn}
	deliveryRepo := &repository.CampaignDeliveryRepository{DB: conn}
	systemLogs := &service.SystemLogService{Repo: &repository.SystemLogRepository{DB: conn}, Logger: logger}

	q, err := openQueue(cfg.Queue, logger)
	if err != nil {
		return err
	}
	defer q.Close()

	// Without a broker the API process delivers campaigns itself.
	if cfg.Queue.AMQPURL == "" {
		dispatcher := &service.CampaignDispatcher{
			CampaignRepo: campaignRepo,
			TemplateRepo: templateRepo,
			AudienceRepo: audienceRepo,
			DonatorRepo:  donatorRepo,
			DeliveryRepo: deliveryRepo,
			Mailer:       &service.LogMailer{Logger: logger},
			Logs:         systemLogs,
			Logger:       logger,
		}
		if err := q.Subscribe(cfg.Queue.Topic, m.CountJobs(cfg.Queue.Topic, dispatcher.HandleCampaignSend)); err != nil {
			return err
		}
	}

	backendClient := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)

	router := server.NewRouter(server.Deps{
		Logger:         logger,
		Metrics:        m,
		Authenticator:  &auth.TokenAuthenticator{Users: backendClient},
		RequestTimeout: cfg.Server.RequestTimeout,
		Ready:          func(r *http.Request) error { return conn.PingContext(r.Context()) },
		Campaigns: &controller.CampaignController{
			CampaignService: &service.CampaignService{
				CampaignRepo: campaignRepo,
				TemplateRepo: templateRepo,
				AudienceRepo: audienceRepo,
				DonatorRepo:  donatorRepo,
				DeliveryRepo: deliveryRepo,
				Queue:        q,
				Topic:        cfg.Queue.Topic,
				Logger:       logger,
			},
			Logger: logger,
		},
		Segments: &controller.SegmentController{
			SegmentService: &service.SegmentService{
				AudienceRepo: audienceRepo,
				DonatorRepo:  donatorRepo,
				OrgRepo:      orgRepo,
			},
			Logger: logger,
		},
		Templates: &controller.TemplateController{
			TemplateService: &service.EmailTemplateService{Repo: templateRepo},
			Logger:          logger,
		},
		Workflows: &controller.WorkflowController{
			WorkflowService: &service.WorkflowService{Repo: &repository.WorkflowRepository{DB: conn}, Logger: logger},
			Logger:          logger,
		},
		Subscriptions: &controller.SubscriptionController{
			SubscriptionService: &service.SubscriptionService{Repo: &repository.SubscriptionRepository{DB: conn}},
			Logger:              logger,
		},
		Dashboard: &controller.DashboardController{
			DashboardService: &service.DashboardService{Repo: &repository.DashboardLayoutRepository{DB: conn}, Logger: logger},
			Logger:           logger,
		},
		Disputes: &controller.DisputeController{
			DisputeService: &service.DisputeService{
				Provider: stripe.NewClient(cfg.Stripe.APIURL, cfg.Stripe.SecretKey, logger),
				Logs:     systemLogs,
			},
			Logger: logger,
		},
		Users: &controller.UserController{
			UserService: &service.UserAdminService{Backend: backendClient},
			Logger:      logger,
		},
		SuperAdmin: &controller.SuperAdminController{
			OrganizationService: &service.OrganizationService{Repo: orgRepo, Logs: systemLogs},
			SystemLogService:    systemLogs,
			Logger:              logger,
		},
		Donors: &handler.DonorHandler{Backend: backendClient, Logger: logger},
		Images: &handler.ImageHandler{Images: unsplash.NewClient(cfg.Unsplash.APIURL, cfg.Unsplash.AccessKey), Logger: logger},
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openQueue(cfg config.QueueConfig, logger *zap.Logger) (queue.Queue, error) {
	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL, logger)
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	logger.Warn("AMQP_URL not set, delivering campaigns in-process")
	return queue.NewInMemoryQueue(logger), nil
}
