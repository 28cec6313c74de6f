package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/config"
	"github.com/unclebandit/donorhub-backend/internal/db"
	"github.com/unclebandit/donorhub-backend/internal/logging"
	"github.com/unclebandit/donorhub-backend/internal/metrics"
	"github.com/unclebandit/donorhub-backend/internal/queue"
	"github.com/unclebandit/donorhub-backend/internal/repository"
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
	if cfg.Queue.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL must be set for the worker")
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

	dispatcher := &service.CampaignDispatcher{
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		TemplateRepo: &repository.EmailTemplateRepository{DB: conn},
		AudienceRepo: &repository.AudienceRepository{DB: conn},
		DonatorRepo:  &repository.DonatorRepository{DB: conn},
		DeliveryRepo: &repository.CampaignDeliveryRepository{DB: conn},
		Mailer:       &service.LogMailer{Logger: logger},
		Logs:         &service.SystemLogService{Repo: &repository.SystemLogRepository{DB: conn}, Logger: logger},
		Logger:       logger,
	}

	q, err := queue.DialAMQP(cfg.Queue.AMQPURL, logger)
	if err != nil {
		return err
	}
	defer q.Close()

	m := metrics.New()
	return consume(ctx, q, cfg.Queue.Topic, m.CountJobs(cfg.Queue.Topic, dispatcher.HandleCampaignSend), logger)
}

// consume subscribes h to topic and blocks until ctx is cancelled.
func consume(ctx context.Context, q queue.Queue, topic string, h queue.Handler, logger *zap.Logger) error {
	if err := q.Subscribe(topic, h); err != nil {
		return err
	}
	logger.Info("worker running, waiting for messages", zap.String("topic", topic))
	<-ctx.Done()
	logger.Info("worker stopping")
	return nil
}
