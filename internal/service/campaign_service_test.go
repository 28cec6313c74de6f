package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/queue"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

type campaignFixture struct {
	svc        *service.CampaignService
	campaigns  *mockCampaignRepo
	audiences  *mockAudienceRepo
	donators   *mockDonatorRepo
	deliveries *mockDeliveryRepo
	queue      *fakeQueue
}

func newCampaignFixture(cs ...*model.EmailCampaign) *campaignFixture {
	alice := &model.Donator{ID: "d1", OrganizationID: "org-1", Email: "alice@example.org", FirstName: strPtr("Alice")}
	bob := &model.Donator{ID: "d2", OrganizationID: "org-1", Email: "bob@example.org"}
	donators := newMockDonatorRepo(alice, bob)
	donators.members["aud-static"] = []string{"d1", "d2"}
	donators.matching = []*model.Donator{bob}

	f := &campaignFixture{
		campaigns: newMockCampaignRepo(cs...),
		audiences: newMockAudienceRepo(
			&model.Audience{ID: "aud-static", OrganizationID: "org-1", Name: "Monthly donors", Type: model.AudienceStatic, MemberCount: 2},
			&model.Audience{ID: "aud-dyn", OrganizationID: "org-1", Name: "Lapsed", Type: model.AudienceDynamic,
				Rules:              []byte(`{"group":{"logic":"AND","conditions":[{"field":"score","operator":"gte","value":50}]}}`),
				CachedDonatorCount: intPtr(7)},
		),
		donators:   donators,
		deliveries: newMockDeliveryRepo(),
		queue:      &fakeQueue{},
	}
	f.svc = &service.CampaignService{
		CampaignRepo: f.campaigns,
		TemplateRepo: newMockTemplateRepo(&model.EmailTemplate{ID: "tpl-1", OrganizationID: "org-1", Name: "Spring", HTML: "<p>Hi {first_name}</p>"}),
		AudienceRepo: f.audiences,
		DonatorRepo:  f.donators,
		DeliveryRepo: f.deliveries,
		Queue:        f.queue,
		Logger:       zap.NewNop(),
		Now:          clock,
	}
	return f
}

func validCampaignInput() service.CreateCampaignInput {
	return service.CreateCampaignInput{
		Name:       "Spring appeal",
		Subject:    "Help us grow",
		FromName:   "Food Bank",
		FromEmail:  "hello@foodbank.org",
		TemplateID: "tpl-1",
		AudienceID: "aud-static",
	}
}

func TestCreateCampaign_Draft(t *testing.T) {
	f := newCampaignFixture()

	c, err := f.svc.CreateCampaign(context.Background(), "org-1", validCampaignInput())
	require.NoError(t, err)

	assert.Equal(t, model.CampaignDraft, c.Status)
	assert.Nil(t, c.ScheduledAt)
	assert.Equal(t, model.CampaignStats{}, c.Stats)
	assert.Equal(t, "Spring", c.TemplateName)
	require.Len(t, f.campaigns.created, 1)
}

func TestCreateCampaign_Scheduled(t *testing.T) {
	f := newCampaignFixture()
	in := validCampaignInput()
	in.ScheduledAt = strPtr("2026-04-01T09:00:00-04:00")

	c, err := f.svc.CreateCampaign(context.Background(), "org-1", in)
	require.NoError(t, err)

	assert.Equal(t, model.CampaignScheduled, c.Status)
	require.NotNil(t, c.ScheduledAt)
	assert.Equal(t, 13, c.ScheduledAt.Hour())
}

func TestCreateCampaign_Errors(t *testing.T) {
	f := newCampaignFixture()

	in := validCampaignInput()
	in.TemplateID = "missing"
	in.AudienceID = "missing"
	_, err := f.svc.CreateCampaign(context.Background(), "org-1", in)
	assert.EqualError(t, err, "template not found")

	in = validCampaignInput()
	in.AudienceID = "missing"
	_, err = f.svc.CreateCampaign(context.Background(), "org-1", in)
	assert.EqualError(t, err, "audience not found")

	_, err = f.svc.CreateCampaign(context.Background(), "org-2", validCampaignInput())
	assert.Equal(t, http.StatusNotFound, appErrors.StatusCode(err))

	in = validCampaignInput()
	in.ScheduledAt = strPtr("next tuesday")
	_, err = f.svc.CreateCampaign(context.Background(), "org-1", in)
	assert.Equal(t, http.StatusBadRequest, appErrors.StatusCode(err))

	in = validCampaignInput()
	in.FromEmail = "nope"
	_, err = f.svc.CreateCampaign(context.Background(), "org-1", in)
	assert.EqualError(t, err, "invalid email")
	assert.Empty(t, f.campaigns.created)
}

func TestListCampaigns_RatesAndKPIs(t *testing.T) {
	f := newCampaignFixture(
		&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", Status: model.CampaignSent,
			Stats: model.CampaignStats{Sent: 200, Delivered: 200, Opened: 50, Clicked: 9}},
		&model.EmailCampaign{ID: "c2", OrganizationID: "org-1", Status: model.CampaignDraft},
	)
	f.campaigns.sentStats = []model.CampaignStats{
		{Sent: 200, Opened: 50, Clicked: 9},
		{Sent: 100, Opened: 40, Clicked: 6},
		{Sent: 0, Opened: 10},
	}

	list, err := f.svc.ListCampaigns(context.Background(), "org-1", string(model.CampaignSent), 0, 0)
	require.NoError(t, err)

	require.Len(t, list.Campaigns, 1)
	assert.Equal(t, 25, list.Campaigns[0].OpenRate)
	assert.Equal(t, 5, list.Campaigns[0].ClickRate)
	assert.Equal(t, service.CampaignKPIs{TotalCampaigns: 2, AvgOpenRate: 30, AvgClickRate: 5}, list.KPIs)
}

func TestListCampaigns_IgnoresUnknownStatus(t *testing.T) {
	f := newCampaignFixture(
		&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", Status: model.CampaignSent},
		&model.EmailCampaign{ID: "c2", OrganizationID: "org-1", Status: model.CampaignDraft},
	)

	list, err := f.svc.ListCampaigns(context.Background(), "org-1", "ARCHIVED", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
}

func TestListCampaigns_RepoError(t *testing.T) {
	f := newCampaignFixture()
	f.campaigns.listErr = errors.New("connection reset")

	_, err := f.svc.ListCampaigns(context.Background(), "org-1", "", 20, 0)
	assert.Error(t, err)
}

func TestCampaignStats(t *testing.T) {
	sentAt := fixedNow.AddDate(0, 0, -3)
	f := newCampaignFixture(&model.EmailCampaign{
		ID: "c1", OrganizationID: "org-1", AudienceID: "aud-static", Status: model.CampaignSent, SentAt: &sentAt,
		Stats: model.CampaignStats{Delivered: 100, Opened: 50, Clicked: 10},
	})

	st, err := f.svc.CampaignStats(context.Background(), "org-1", "c1")
	require.NoError(t, err)

	assert.Equal(t, 50, st.OpenRate, "rates fall back to delivered when sent is zero")
	assert.Equal(t, 10, st.ClickRate)
	require.Len(t, st.OpensByDay, 7)
	assert.Equal(t, sentAt.Format("2006-01-02"), st.OpensByDay[0].Date)
	assert.Equal(t, []int{20, 10, 10, 0, 0, 0, 0}, counts(st.OpensByDay))
	assert.Equal(t, []int{0, 5, 3, 0, 0, 0, 0}, counts(st.ClicksByDay))
	require.Len(t, st.Recipients, 2)
	assert.Equal(t, "alice@example.org", st.Recipients[0].Email)
	assert.Equal(t, &service.DeliveryBreakdown{}, st.Deliveries)
}

func TestCampaignStats_DeliveryBreakdown(t *testing.T) {
	sentAt := fixedNow.AddDate(0, 0, -1)
	f := newCampaignFixture(&model.EmailCampaign{
		ID: "c1", OrganizationID: "org-1", AudienceID: "aud-static", Status: model.CampaignSent, SentAt: &sentAt,
	})
	ctx := context.Background()
	d1, _ := f.deliveries.GetOrCreate(ctx, "c1", "d1")
	d2, _ := f.deliveries.GetOrCreate(ctx, "c1", "d2")
	_, _ = f.deliveries.GetOrCreate(ctx, "c1", "d3")
	_, _ = f.deliveries.GetOrCreate(ctx, "other", "d1")
	require.NoError(t, f.deliveries.MarkSent(ctx, d1.ID, "<p>Hi</p>"))
	require.NoError(t, f.deliveries.MarkFailed(ctx, d2.ID, "mailbox full"))

	st, err := f.svc.CampaignStats(ctx, "org-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, &service.DeliveryBreakdown{Pending: 1, Sent: 1, Failed: 1}, st.Deliveries)
}

func TestCampaignStats_DraftHasNoCurve(t *testing.T) {
	f := newCampaignFixture(&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", AudienceID: "aud-dyn", Status: model.CampaignDraft})

	st, err := f.svc.CampaignStats(context.Background(), "org-1", "c1")
	require.NoError(t, err)

	assert.Empty(t, st.OpensByDay)
	assert.Nil(t, st.Deliveries)
	assert.Equal(t, 0, st.OpenRate)
	require.Len(t, st.Recipients, 1)
	assert.Equal(t, "d2", st.Recipients[0].ID)
}

func counts(days []service.DayCount) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, d.Count)
	}
	return out
}

func TestSendCampaign_Static(t *testing.T) {
	scheduled := fixedNow.Add(48 * time.Hour)
	f := newCampaignFixture(&model.EmailCampaign{
		ID: "c1", OrganizationID: "org-1", AudienceID: "aud-static", Status: model.CampaignScheduled, ScheduledAt: &scheduled,
	})

	c, err := f.svc.SendCampaign(context.Background(), "org-1", "c1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, model.CampaignSent, c.Status)
	assert.Nil(t, c.ScheduledAt)
	assert.Equal(t, fixedNow, *c.SentAt)
	assert.Equal(t, model.CampaignStats{Sent: 2, Delivered: 2}, f.campaigns.markedSent["c1"])

	require.Len(t, f.queue.published, 1)
	assert.Equal(t, queue.TopicCampaignSends, f.queue.published[0].topic)
	assert.Equal(t, queue.CampaignSendJob{CampaignID: "c1", OrganizationID: "org-1", RequestedBy: "user-1"}, f.queue.published[0].payload)
}

func TestSendCampaign_DynamicUsesCachedCount(t *testing.T) {
	f := newCampaignFixture(&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", AudienceID: "aud-dyn", Status: model.CampaignDraft})

	c, err := f.svc.SendCampaign(context.Background(), "org-1", "c1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Stats.Sent)
	assert.Equal(t, 7, c.Stats.Delivered)
}

func TestSendCampaign_ConfiguredTopic(t *testing.T) {
	f := newCampaignFixture(&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", AudienceID: "aud-static", Status: model.CampaignDraft})
	f.svc.Topic = "staging_campaign_sends"

	_, err := f.svc.SendCampaign(context.Background(), "org-1", "c1", "user-1")
	require.NoError(t, err)
	require.Len(t, f.queue.published, 1)
	assert.Equal(t, "staging_campaign_sends", f.queue.published[0].topic)
}

func TestSendCampaign_QueueFailureIsNotReturned(t *testing.T) {
	f := newCampaignFixture(&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", AudienceID: "aud-static", Status: model.CampaignDraft})
	f.queue.err = errors.New("broker down")

	c, err := f.svc.SendCampaign(context.Background(), "org-1", "c1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.CampaignSent, c.Status)
}

func TestSendCampaign_Conflicts(t *testing.T) {
	f := newCampaignFixture(
		&model.EmailCampaign{ID: "sent", OrganizationID: "org-1", Status: model.CampaignSent},
		&model.EmailCampaign{ID: "sending", OrganizationID: "org-1", Status: model.CampaignSending},
	)

	_, err := f.svc.SendCampaign(context.Background(), "org-1", "sent", "u")
	assert.EqualError(t, err, "campaign already sent")
	assert.Equal(t, http.StatusConflict, appErrors.StatusCode(err))

	_, err = f.svc.SendCampaign(context.Background(), "org-1", "sending", "u")
	assert.EqualError(t, err, "campaign is sending")

	_, err = f.svc.SendCampaign(context.Background(), "org-1", "missing", "u")
	assert.Equal(t, http.StatusNotFound, appErrors.StatusCode(err))
	assert.Empty(t, f.queue.published)
}

func TestCancelCampaign(t *testing.T) {
	f := newCampaignFixture(
		&model.EmailCampaign{ID: "draft", OrganizationID: "org-1", Status: model.CampaignDraft},
		&model.EmailCampaign{ID: "sent", OrganizationID: "org-1", Status: model.CampaignSent},
	)

	require.NoError(t, f.svc.CancelCampaign(context.Background(), "org-1", "draft"))
	assert.Equal(t, model.CampaignCanceled, f.campaigns.campaigns["draft"].Status)

	err := f.svc.CancelCampaign(context.Background(), "org-1", "sent")
	assert.Equal(t, http.StatusConflict, appErrors.StatusCode(err))
}

func TestPreviewCampaign(t *testing.T) {
	f := newCampaignFixture(&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", TemplateID: "tpl-1", Status: model.CampaignDraft})

	html, err := f.svc.PreviewCampaign(context.Background(), "org-1", "c1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi Alice</p>", html)

	html, err = f.svc.PreviewCampaign(context.Background(), "org-1", "c1", "d2")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi Friend</p>", html)
}

func TestCampaignDashboard(t *testing.T) {
	at := func(y int, m time.Month, d int) *time.Time {
		ts := time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
		return &ts
	}
	f := newCampaignFixture(
		&model.EmailCampaign{ID: "c1", OrganizationID: "org-1", Status: model.CampaignDraft},
		&model.EmailCampaign{ID: "c2", OrganizationID: "org-1", Status: model.CampaignSent, SentAt: at(2026, 3, 2)},
		&model.EmailCampaign{ID: "c3", OrganizationID: "org-1", Status: model.CampaignSent, SentAt: at(2026, 2, 28)},
		&model.EmailCampaign{ID: "c4", OrganizationID: "org-1", Status: model.CampaignSent, SentAt: at(2025, 10, 1)},
		&model.EmailCampaign{ID: "c5", OrganizationID: "org-1", Status: model.CampaignSent, SentAt: at(2025, 9, 30)},
		&model.EmailCampaign{ID: "c6", OrganizationID: "org-1", Status: model.CampaignCanceled},
		&model.EmailCampaign{ID: "c7", OrganizationID: "org-2", Status: model.CampaignSent, SentAt: at(2026, 3, 1)},
	)

	got, err := f.svc.CampaignDashboard(context.Background(), "org-1")
	require.NoError(t, err)

	want := &service.CampaignDashboard{
		TotalCampaigns: 6,
		SentThisMonth:  1,
		DraftCount:     1,
		SentCount:      4,
		ChartByStatus: []service.ChartPoint{
			{Label: "Drafts", Value: 1}, {Label: "Sent", Value: 4}, {Label: "Other", Value: 1},
		},
		ChartSentByMonth: []service.ChartPoint{
			{Label: "Oct 25", Value: 1}, {Label: "Nov 25", Value: 0}, {Label: "Dec 25", Value: 0},
			{Label: "Jan 26", Value: 0}, {Label: "Feb 26", Value: 1}, {Label: "Mar 26", Value: 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dashboard mismatch (-want +got):\n%s", diff)
	}
}

func TestCampaignDashboard_Empty(t *testing.T) {
	got, err := newCampaignFixture().svc.CampaignDashboard(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, 0, got.TotalCampaigns)
	assert.Empty(t, got.ChartByStatus)
	assert.NotNil(t, got.ChartByStatus)
	require.Len(t, got.ChartSentByMonth, 6)
	for _, p := range got.ChartSentByMonth {
		assert.Zero(t, p.Value)
	}
}
