package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/queue"
	"github.com/unclebandit/donorhub-backend/internal/repository"
)

// Email is one rendered campaign message.
type Email struct {
	To        string
	FromName  string
	FromEmail string
	Subject   string
	HTML      string
}

// Mailer delivers rendered campaign emails.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// LogMailer writes the envelope to the log instead of delivering it.
type LogMailer struct {
	Logger *zap.Logger
}

func (m *LogMailer) Send(ctx context.Context, e Email) error {
	m.Logger.Info("campaign email",
		zap.String("to", e.To),
		zap.String("from", e.FromEmail),
		zap.String("subject", e.Subject),
		zap.Int("html_bytes", len(e.HTML)),
	)
	return nil
}

// CampaignDispatcher consumes campaign_sends jobs and records one delivery per recipient.
type CampaignDispatcher struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.EmailTemplateRepositoryInterface
	AudienceRepo repository.AudienceRepositoryInterface
	DonatorRepo  repository.DonatorRepositoryInterface
	DeliveryRepo repository.CampaignDeliveryRepositoryInterface
	Mailer       Mailer
	Logs         EventLogger
	Logger       *zap.Logger
	Now          func() time.Time
}

func (d *CampaignDispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// HandleCampaignSend is a queue.Handler. Redelivered jobs skip recipients already sent.
func (d *CampaignDispatcher) HandleCampaignSend(ctx context.Context, body []byte) error {
	var job queue.CampaignSendJob
	if err := json.Unmarshal(body, &job); err != nil {
		// A malformed job never succeeds on retry.
		d.Logger.Error("dropping malformed campaign job", zap.ByteString("body", body), zap.Error(err))
		return nil
	}
	return d.Dispatch(ctx, job)
}

func (d *CampaignDispatcher) Dispatch(ctx context.Context, job queue.CampaignSendJob) error {
	c, err := d.CampaignRepo.GetByID(ctx, job.OrganizationID, job.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to load campaign %s: %w", job.CampaignID, err)
	}
	if c.Status != model.CampaignSent {
		d.Logger.Warn("skipping campaign that is not sent",
			zap.String("campaign_id", c.ID),
			zap.String("status", string(c.Status)),
		)
		return nil
	}
	t, err := d.TemplateRepo.GetByID(ctx, job.OrganizationID, c.TemplateID)
	if err != nil {
		return fmt.Errorf("failed to load template %s: %w", c.TemplateID, err)
	}
	donators, err := recipients(ctx, d.AudienceRepo, d.DonatorRepo, job.OrganizationID, c.AudienceID, 0, d.now())
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}

	var sent, failed, skipped int
	for _, donator := range donators {
		delivery, err := d.DeliveryRepo.GetOrCreate(ctx, c.ID, donator.ID)
		if err != nil {
			return err
		}
		if delivery.Status == model.DeliverySent {
			skipped++
			continue
		}

		data := DonatorPlaceholders(donator)
		html := RenderTemplate(t.HTML, data)
		err = d.Mailer.Send(ctx, Email{
			To:        donator.Email,
			FromName:  c.FromName,
			FromEmail: c.FromEmail,
			Subject:   RenderTemplate(c.Subject, data),
			HTML:      html,
		})
		if err != nil {
			failed++
			if markErr := d.DeliveryRepo.MarkFailed(ctx, delivery.ID, err.Error()); markErr != nil {
				return markErr
			}
			continue
		}
		if err := d.DeliveryRepo.MarkSent(ctx, delivery.ID, html); err != nil {
			return err
		}
		sent++
	}

	d.Logger.Info("campaign dispatched",
		zap.String("campaign_id", c.ID),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
	)
	if d.Logs != nil {
		level := model.LogInfo
		if failed > 0 {
			level = model.LogWarning
		}
		d.Logs.LogSystemEvent(ctx, LogEvent{
			Type:           "campaign",
			Level:          level,
			Message:        fmt.Sprintf("Campaign %q dispatched", c.Name),
			Details:        map[string]int{"sent": sent, "failed": failed, "skipped": skipped},
			OrganizationID: job.OrganizationID,
			UserID:         job.RequestedBy,
		})
	}
	return nil
}
