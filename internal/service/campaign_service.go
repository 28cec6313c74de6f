// internal/service/campaign_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/queue"
	"github.com/unclebandit/donorhub-backend/internal/repository"
	"github.com/unclebandit/donorhub-backend/internal/segmentation"
	"github.com/unclebandit/donorhub-backend/internal/validation"
)

const statsRecipientLimit = 100

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.EmailTemplateRepositoryInterface
	AudienceRepo repository.AudienceRepositoryInterface
	DonatorRepo  repository.DonatorRepositoryInterface
	// DeliveryRepo is optional; without it stats carry no delivery breakdown.
	DeliveryRepo repository.CampaignDeliveryRepositoryInterface
	Queue        queue.Queue
	// Topic defaults to queue.TopicCampaignSends.
	Topic  string
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *CampaignService) topic() string {
	if s.Topic != "" {
		return s.Topic
	}
	return queue.TopicCampaignSends
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type CreateCampaignInput struct {
	Name        string  `json:"name" validate:"required"`
	Subject     string  `json:"subject" validate:"required"`
	FromName    string  `json:"fromName" validate:"required"`
	FromEmail   string  `json:"fromEmail" validate:"required,email"`
	TemplateID  string  `json:"templateId" validate:"required"`
	AudienceID  string  `json:"audienceId" validate:"required"`
	ScheduledAt *string `json:"scheduledAt" validate:"omitempty,rfc3339"`
}

// CreateCampaign checks the template and the audience belong to the organization, then
// stores a DRAFT campaign, or a SCHEDULED one when a send time is given.
func (s *CampaignService) CreateCampaign(ctx context.Context, organizationID string, in CreateCampaignInput) (*model.EmailCampaign, error) {
	if in.ScheduledAt != nil && *in.ScheduledAt == "" {
		in.ScheduledAt = nil
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var (
		g              errgroup.Group
		tplErr, audErr error
		template       *model.EmailTemplate
		audience       *model.Audience
	)
	g.Go(func() error {
		template, tplErr = s.TemplateRepo.GetByID(ctx, organizationID, in.TemplateID)
		return nil
	})
	g.Go(func() error {
		audience, audErr = s.AudienceRepo.GetByID(ctx, organizationID, in.AudienceID)
		return nil
	})
	_ = g.Wait()
	if tplErr != nil {
		return nil, tplErr
	}
	if audErr != nil {
		return nil, audErr
	}

	c := &model.EmailCampaign{
		OrganizationID: organizationID,
		Name:           in.Name,
		Subject:        in.Subject,
		FromName:       in.FromName,
		FromEmail:      in.FromEmail,
		TemplateID:     template.ID,
		AudienceID:     audience.ID,
		Status:         model.CampaignDraft,
		TemplateName:   template.Name,
		AudienceName:   audience.Name,
	}
	if in.ScheduledAt != nil {
		t, err := time.Parse(time.RFC3339, *in.ScheduledAt)
		if err != nil {
			return nil, appErrors.NewValidation("scheduledAt", "scheduledAt must be an RFC 3339 timestamp")
		}
		t = t.UTC()
		c.ScheduledAt = &t
		c.Status = model.CampaignScheduled
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

type CampaignRow struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Subject      string               `json:"subject"`
	Status       model.CampaignStatus `json:"status"`
	AudienceName string               `json:"audienceName"`
	TemplateName string               `json:"templateName"`
	SentAt       *time.Time           `json:"sentAt"`
	ScheduledAt  *time.Time           `json:"scheduledAt"`
	Sent         int                  `json:"sent"`
	Opened       int                  `json:"opened"`
	Clicked      int                  `json:"clicked"`
	OpenRate     int                  `json:"openRate"`
	ClickRate    int                  `json:"clickRate"`
}

type CampaignKPIs struct {
	TotalCampaigns int `json:"totalCampaigns"`
	AvgOpenRate    int `json:"avgOpenRate"`
	AvgClickRate   int `json:"avgClickRate"`
}

type CampaignList struct {
	Campaigns []CampaignRow `json:"campaigns"`
	Total     int           `json:"total"`
	KPIs      CampaignKPIs  `json:"kpis"`
}

// ListCampaigns pages through campaigns and computes organization-wide KPIs.
// Average rates are weighted by sent count over campaigns that sent something.
func (s *CampaignService) ListCampaigns(ctx context.Context, organizationID, status string, limit, offset int) (*CampaignList, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var filter model.CampaignStatus
	if st := model.CampaignStatus(status); st.Valid() {
		filter = st
	}

	var (
		g         errgroup.Group
		campaigns []*model.EmailCampaign
		total     int
		all       int
		sentStats []model.CampaignStats
	)
	g.Go(func() error {
		var err error
		campaigns, total, err = s.CampaignRepo.List(ctx, organizationID, filter, offset, limit)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.CampaignRepo.Count(ctx, organizationID)
		return err
	})
	g.Go(func() error {
		var err error
		sentStats, err = s.CampaignRepo.ListSentStats(ctx, organizationID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &CampaignList{Campaigns: make([]CampaignRow, 0, len(campaigns)), Total: total}
	for _, c := range campaigns {
		out.Campaigns = append(out.Campaigns, CampaignRow{
			ID:           c.ID,
			Name:         c.Name,
			Subject:      c.Subject,
			Status:       c.Status,
			AudienceName: c.AudienceName,
			TemplateName: c.TemplateName,
			SentAt:       c.SentAt,
			ScheduledAt:  c.ScheduledAt,
			Sent:         c.Stats.Sent,
			Opened:       c.Stats.Opened,
			Clicked:      c.Stats.Clicked,
			OpenRate:     c.Stats.Rate(c.Stats.Opened),
			ClickRate:    c.Stats.Rate(c.Stats.Clicked),
		})
	}

	var totals model.CampaignStats
	for _, st := range sentStats {
		if st.Sent <= 0 {
			continue
		}
		totals.Sent += st.Sent
		totals.Opened += st.Opened
		totals.Clicked += st.Clicked
	}
	out.KPIs = CampaignKPIs{
		TotalCampaigns: all,
		AvgOpenRate:    totals.Rate(totals.Opened),
		AvgClickRate:   totals.Rate(totals.Clicked),
	}
	return out, nil
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Recipient struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// DeliveryBreakdown counts per-recipient deliveries of a sent campaign.
type DeliveryBreakdown struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

type CampaignStatsResult struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Subject      string               `json:"subject"`
	Status       model.CampaignStatus `json:"status"`
	SentAt       *time.Time           `json:"sentAt"`
	Sent         int                  `json:"sent"`
	Delivered    int                  `json:"delivered"`
	Opened       int                  `json:"opened"`
	Clicked      int                  `json:"clicked"`
	Bounced      int                  `json:"bounced"`
	Unsubscribed int                  `json:"unsubscribed"`
	OpenRate     int                  `json:"openRate"`
	ClickRate    int                  `json:"clickRate"`
	OpensByDay   []DayCount           `json:"opensByDay"`
	ClicksByDay  []DayCount           `json:"clicksByDay"`
	Recipients   []Recipient          `json:"recipients"`
	Deliveries   *DeliveryBreakdown   `json:"deliveries,omitempty"`
}

// CampaignStats returns counters, rates and a seven-day engagement curve for a sent campaign.
// Without tracking data the curve is an estimate: 40% of opens on day 0 and 20% on days 1-2,
// 50% of clicks on day 1 and 30% on day 2.
func (s *CampaignService) CampaignStats(ctx context.Context, organizationID, campaignID string) (*CampaignStatsResult, error) {
	c, err := s.CampaignRepo.GetByID(ctx, organizationID, campaignID)
	if err != nil {
		return nil, err
	}

	st := c.Stats
	base := st
	if base.Sent <= 0 {
		base.Sent = st.Delivered
	}
	out := &CampaignStatsResult{
		ID:           c.ID,
		Name:         c.Name,
		Subject:      c.Subject,
		Status:       c.Status,
		SentAt:       c.SentAt,
		Sent:         st.Sent,
		Delivered:    st.Delivered,
		Opened:       st.Opened,
		Clicked:      st.Clicked,
		Bounced:      st.Bounced,
		Unsubscribed: st.Unsubscribed,
		OpenRate:     base.Rate(st.Opened),
		ClickRate:    base.Rate(st.Clicked),
		OpensByDay:   []DayCount{},
		ClicksByDay:  []DayCount{},
	}
	if c.SentAt != nil {
		out.OpensByDay, out.ClicksByDay = engagementCurve(*c.SentAt, st.Opened, st.Clicked)
	}
	if c.Status == model.CampaignSent && s.DeliveryRepo != nil {
		counts, err := s.DeliveryRepo.CountByStatus(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out.Deliveries = &DeliveryBreakdown{
			Pending: counts[model.DeliveryPending],
			Sent:    counts[model.DeliverySent],
			Failed:  counts[model.DeliveryFailed],
		}
	}

	donators, err := recipients(ctx, s.AudienceRepo, s.DonatorRepo, organizationID, c.AudienceID, statsRecipientLimit, s.now())
	if err != nil {
		return nil, err
	}
	out.Recipients = make([]Recipient, 0, len(donators))
	for _, d := range donators {
		out.Recipients = append(out.Recipients, Recipient{ID: d.ID, Email: d.Email, FirstName: d.FirstName, LastName: d.LastName})
	}
	return out, nil
}

func engagementCurve(sentAt time.Time, opened, clicked int) (opens, clicks []DayCount) {
	for i := 0; i < 7; i++ {
		date := sentAt.AddDate(0, 0, i).Format("2006-01-02")
		var o, c int
		switch {
		case i == 0:
			o = opened * 40 / 100
		case i < 3:
			o = opened * 20 / 100
		}
		switch i {
		case 1:
			c = clicked * 50 / 100
		case 2:
			c = clicked * 30 / 100
		}
		opens = append(opens, DayCount{Date: date, Count: o})
		clicks = append(clicks, DayCount{Date: date, Count: c})
	}
	return opens, clicks
}

// recipients lists the audience's donators: members for static audiences, rule
// matches for dynamic ones. limit <= 0 lists all of them.
func recipients(ctx context.Context, audiences repository.AudienceRepositoryInterface, donators repository.DonatorRepositoryInterface, organizationID, audienceID string, limit int, now time.Time) ([]*model.Donator, error) {
	a, err := audiences.GetByID(ctx, organizationID, audienceID)
	if err != nil {
		return nil, err
	}
	if a.Type == model.AudienceStatic {
		return donators.ListAudienceMembers(ctx, a.ID, limit)
	}
	rules, err := segmentation.Parse(a.Rules)
	if err != nil || rules == nil || rules.Group == nil {
		return []*model.Donator{}, nil
	}
	return donators.ListMatching(ctx, segmentation.Compile(*rules.Group, organizationID, now), limit)
}

// SendCampaign marks the campaign SENT with delivery counters set to the audience size
// and queues the delivery job. A queue failure is logged, not returned.
func (s *CampaignService) SendCampaign(ctx context.Context, organizationID, campaignID, requestedBy string) (*model.EmailCampaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, organizationID, campaignID)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case model.CampaignSent:
		return nil, appErrors.NewConflict("campaign already sent")
	case model.CampaignSending:
		return nil, appErrors.NewConflict("campaign is sending")
	}

	a, err := s.AudienceRepo.GetByID(ctx, organizationID, c.AudienceID)
	if err != nil {
		return nil, err
	}
	recipients := 0
	if a.Type == model.AudienceStatic {
		recipients = a.MemberCount
	} else if a.CachedDonatorCount != nil {
		recipients = *a.CachedDonatorCount
	}

	sentAt := s.now()
	stats := model.CampaignStats{Sent: recipients, Delivered: recipients}
	if err := s.CampaignRepo.MarkSent(ctx, c.ID, sentAt, stats); err != nil {
		return nil, err
	}
	c.Status = model.CampaignSent
	c.SentAt = &sentAt
	c.ScheduledAt = nil
	c.Stats = stats

	job := queue.CampaignSendJob{CampaignID: c.ID, OrganizationID: organizationID, RequestedBy: requestedBy}
	if err := s.Queue.Publish(ctx, s.topic(), job); err != nil {
		s.Logger.Error("failed to enqueue campaign send",
			zap.String("campaign_id", c.ID),
			zap.Error(err),
		)
	}
	return c, nil
}

// CancelCampaign cancels a DRAFT or SCHEDULED campaign.
func (s *CampaignService) CancelCampaign(ctx context.Context, organizationID, campaignID string) error {
	c, err := s.CampaignRepo.GetByID(ctx, organizationID, campaignID)
	if err != nil {
		return err
	}
	if c.Status != model.CampaignDraft && c.Status != model.CampaignScheduled {
		return appErrors.NewConflict("only draft or scheduled campaigns can be canceled")
	}
	return s.CampaignRepo.TransitionStatus(ctx, c.ID,
		[]model.CampaignStatus{model.CampaignDraft, model.CampaignScheduled}, model.CampaignCanceled)
}

// PreviewCampaign renders the campaign template for one donator.
func (s *CampaignService) PreviewCampaign(ctx context.Context, organizationID, campaignID, donatorID string) (string, error) {
	c, err := s.CampaignRepo.GetByID(ctx, organizationID, campaignID)
	if err != nil {
		return "", err
	}
	t, err := s.TemplateRepo.GetByID(ctx, organizationID, c.TemplateID)
	if err != nil {
		return "", err
	}
	d, err := s.DonatorRepo.GetByID(ctx, organizationID, donatorID)
	if err != nil {
		return "", err
	}
	return RenderTemplate(t.HTML, DonatorPlaceholders(d)), nil
}

type ChartPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type CampaignDashboard struct {
	TotalCampaigns   int          `json:"totalCampaigns"`
	SentThisMonth    int          `json:"sentThisMonth"`
	DraftCount       int          `json:"draftCount"`
	SentCount        int          `json:"sentCount"`
	ChartByStatus    []ChartPoint `json:"chartByStatus"`
	ChartSentByMonth []ChartPoint `json:"chartSentByMonth"`
}

const dashboardMonths = 6

// CampaignDashboard summarises an organization's campaigns: counts by status and the
// number of sends in each of the last six calendar months, current month included.
func (s *CampaignService) CampaignDashboard(ctx context.Context, organizationID string) (*CampaignDashboard, error) {
	activity, err := s.CampaignRepo.ListActivity(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := thisMonth.AddDate(0, -(dashboardMonths - 1), 0)
	byMonth := make([]int, dashboardMonths)

	out := &CampaignDashboard{TotalCampaigns: len(activity)}
	for _, a := range activity {
		switch a.Status {
		case model.CampaignDraft:
			out.DraftCount++
		case model.CampaignSent:
			out.SentCount++
			if a.SentAt != nil && !a.SentAt.Before(thisMonth) {
				out.SentThisMonth++
			}
		}
		if a.SentAt == nil {
			continue
		}
		sent := a.SentAt.UTC()
		if sent.Before(first) || !sent.Before(thisMonth.AddDate(0, 1, 0)) {
			continue
		}
		i := (sent.Year()-first.Year())*12 + int(sent.Month()) - int(first.Month())
		byMonth[i]++
	}

	out.ChartByStatus = []ChartPoint{}
	for _, p := range []ChartPoint{
		{Label: "Drafts", Value: out.DraftCount},
		{Label: "Sent", Value: out.SentCount},
		{Label: "Other", Value: out.TotalCampaigns - out.DraftCount - out.SentCount},
	} {
		if p.Value > 0 {
			out.ChartByStatus = append(out.ChartByStatus, p)
		}
	}
	out.ChartSentByMonth = make([]ChartPoint, dashboardMonths)
	for i := range byMonth {
		out.ChartSentByMonth[i] = ChartPoint{Label: first.AddDate(0, i, 0).Format("Jan 06"), Value: byMonth[i]}
	}
	return out, nil
}
