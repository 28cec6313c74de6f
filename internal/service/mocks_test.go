package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/unclebandit/donorhub-backend/internal/client/backend"
	"github.com/unclebandit/donorhub-backend/internal/client/stripe"
	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/queue"
	"github.com/unclebandit/donorhub-backend/internal/repository"
	"github.com/unclebandit/donorhub-backend/internal/segmentation"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

// Mock repositories

type mockCampaignRepo struct {
	mu         sync.Mutex
	campaigns  map[string]*model.EmailCampaign
	sentStats  []model.CampaignStats
	created    []*model.EmailCampaign
	markedSent map[string]model.CampaignStats
	listErr    error
}

func newMockCampaignRepo(cs ...*model.EmailCampaign) *mockCampaignRepo {
	m := &mockCampaignRepo{campaigns: map[string]*model.EmailCampaign{}, markedSent: map[string]model.CampaignStats{}}
	for _, c := range cs {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *mockCampaignRepo) Create(ctx context.Context, c *model.EmailCampaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = "cmp-new"
	m.created = append(m.created, c)
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) GetByID(ctx context.Context, organizationID, id string) (*model.EmailCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.OrganizationID != organizationID {
		return nil, appErrors.NewNotFound("campaign", "")
	}
	cp := *c
	return &cp, nil
}

func (m *mockCampaignRepo) List(ctx context.Context, organizationID string, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []*model.EmailCampaign
	for _, c := range m.campaigns {
		if c.OrganizationID == organizationID && (status == "" || c.Status == status) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockCampaignRepo) Count(ctx context.Context, organizationID string) (int, error) {
	return len(m.campaigns), nil
}

func (m *mockCampaignRepo) ListSentStats(ctx context.Context, organizationID string) ([]model.CampaignStats, error) {
	return m.sentStats, nil
}

func (m *mockCampaignRepo) ListActivity(ctx context.Context, organizationID string) ([]repository.CampaignActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.CampaignActivity
	for _, c := range m.campaigns {
		if c.OrganizationID == organizationID {
			out = append(out, repository.CampaignActivity{Status: c.Status, SentAt: c.SentAt})
		}
	}
	return out, nil
}

func (m *mockCampaignRepo) MarkSent(ctx context.Context, id string, sentAt time.Time, stats model.CampaignStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markedSent[id] = stats
	if c, ok := m.campaigns[id]; ok {
		c.Status = model.CampaignSent
		c.SentAt = &sentAt
		c.Stats = stats
	}
	return nil
}

func (m *mockCampaignRepo) TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewConflict("campaign status changed")
	}
	for _, f := range from {
		if c.Status == f {
			c.Status = to
			return nil
		}
	}
	return appErrors.NewConflict("campaign status changed")
}

type mockTemplateRepo struct {
	templates map[string]*model.EmailTemplate
	updated   *model.EmailTemplate
}

func newMockTemplateRepo(ts ...*model.EmailTemplate) *mockTemplateRepo {
	m := &mockTemplateRepo{templates: map[string]*model.EmailTemplate{}}
	for _, t := range ts {
		m.templates[t.ID] = t
	}
	return m
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *model.EmailTemplate) error {
	t.ID = "tpl-new"
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, organizationID, id string) (*model.EmailTemplate, error) {
	t, ok := m.templates[id]
	if !ok || t.OrganizationID != organizationID {
		return nil, appErrors.NewNotFound("template", "")
	}
	cp := *t
	return &cp, nil
}

func (m *mockTemplateRepo) List(ctx context.Context, organizationID string) ([]*model.EmailTemplate, error) {
	var out []*model.EmailTemplate
	for _, t := range m.templates {
		if t.OrganizationID == organizationID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, t *model.EmailTemplate) error {
	m.updated = t
	m.templates[t.ID] = t
	return nil
}

type mockAudienceRepo struct {
	audiences   map[string]*model.Audience
	suggestions map[string]*model.SegmentSuggestion
	created     *model.Audience
	members     []string
	cached      map[string]int
	accepted    []string
}

func newMockAudienceRepo(as ...*model.Audience) *mockAudienceRepo {
	m := &mockAudienceRepo{
		audiences:   map[string]*model.Audience{},
		suggestions: map[string]*model.SegmentSuggestion{},
		cached:      map[string]int{},
	}
	for _, a := range as {
		m.audiences[a.ID] = a
	}
	return m
}

func (m *mockAudienceRepo) ListByName(ctx context.Context, organizationID string) ([]*model.Audience, error) {
	var out []*model.Audience
	for _, a := range m.audiences {
		if a.OrganizationID == organizationID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAudienceRepo) ListSegments(ctx context.Context, organizationID string, typ model.AudienceType, offset, limit int) ([]*model.Audience, int, error) {
	var out []*model.Audience
	for _, a := range m.audiences {
		if a.OrganizationID == organizationID && (typ == "" || a.Type == typ) {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAudienceRepo) GetByID(ctx context.Context, organizationID, id string) (*model.Audience, error) {
	a, ok := m.audiences[id]
	if !ok || a.OrganizationID != organizationID {
		return nil, appErrors.NewNotFound("audience", "")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAudienceRepo) Create(ctx context.Context, a *model.Audience, donatorIDs []string) error {
	a.ID = "aud-new"
	a.MemberCount = len(donatorIDs)
	m.created = a
	m.members = donatorIDs
	m.audiences[a.ID] = a
	return nil
}

func (m *mockAudienceRepo) SetCachedCount(ctx context.Context, id string, count int) error {
	m.cached[id] = count
	return nil
}

func (m *mockAudienceRepo) GetSuggestion(ctx context.Context, id string) (*model.SegmentSuggestion, error) {
	s, ok := m.suggestions[id]
	if !ok {
		return nil, appErrors.NewNotFound("suggestion", "")
	}
	return s, nil
}

func (m *mockAudienceRepo) AcceptSuggestion(ctx context.Context, id string, at time.Time) error {
	m.accepted = append(m.accepted, id)
	return nil
}

type mockDonatorRepo struct {
	donators   map[string]*model.Donator
	members    map[string][]string
	matching   []*model.Donator
	matchCount int
	predicates []segmentation.Predicate
}

func newMockDonatorRepo(ds ...*model.Donator) *mockDonatorRepo {
	m := &mockDonatorRepo{donators: map[string]*model.Donator{}, members: map[string][]string{}}
	for _, d := range ds {
		m.donators[d.ID] = d
	}
	return m
}

func (m *mockDonatorRepo) GetByID(ctx context.Context, organizationID, id string) (*model.Donator, error) {
	d, ok := m.donators[id]
	if !ok || d.OrganizationID != organizationID {
		return nil, appErrors.NewNotFound("donator", "")
	}
	return d, nil
}

func (m *mockDonatorRepo) CountMatching(ctx context.Context, p segmentation.Predicate) (int, error) {
	m.predicates = append(m.predicates, p)
	return m.matchCount, nil
}

func (m *mockDonatorRepo) ListMatching(ctx context.Context, p segmentation.Predicate, limit int) ([]*model.Donator, error) {
	m.predicates = append(m.predicates, p)
	return m.matching, nil
}

func (m *mockDonatorRepo) ListAudienceMembers(ctx context.Context, audienceID string, limit int) ([]*model.Donator, error) {
	out := []*model.Donator{}
	for _, id := range m.members[audienceID] {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.donators[id])
	}
	return out, nil
}

type mockDeliveryRepo struct {
	mu         sync.Mutex
	deliveries map[string]*model.CampaignDelivery
}

func newMockDeliveryRepo() *mockDeliveryRepo {
	return &mockDeliveryRepo{deliveries: map[string]*model.CampaignDelivery{}}
}

func (m *mockDeliveryRepo) GetOrCreate(ctx context.Context, campaignID, donatorID string) (*model.CampaignDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := campaignID + "/" + donatorID
	if d, ok := m.deliveries[key]; ok {
		return d, nil
	}
	d := &model.CampaignDelivery{ID: key, CampaignID: campaignID, DonatorID: donatorID, Status: model.DeliveryPending}
	m.deliveries[key] = d
	return d, nil
}

func (m *mockDeliveryRepo) MarkSent(ctx context.Context, id, renderedContent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	d.Status = model.DeliverySent
	d.RenderedContent = &renderedContent
	return nil
}

func (m *mockDeliveryRepo) MarkFailed(ctx context.Context, id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	d.Status = model.DeliveryFailed
	d.LastError = &lastError
	d.RetryCount++
	return nil
}

func (m *mockDeliveryRepo) CountByStatus(ctx context.Context, campaignID string) (map[model.DeliveryStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.DeliveryStatus]int{}
	for _, d := range m.deliveries {
		if d.CampaignID == campaignID {
			out[d.Status]++
		}
	}
	return out, nil
}

type mockOrgRepo struct {
	orgs       map[string]*model.Organization
	slugs      map[string]bool
	subs       map[string]*model.OrganizationSubscription
	created    *model.OrganizationSubscription
	lastFilter repository.OrganizationFilter
	suspended  []string
	saved      *model.OrganizationSubscription
}

func newMockOrgRepo(orgs ...*model.Organization) *mockOrgRepo {
	m := &mockOrgRepo{
		orgs:  map[string]*model.Organization{},
		slugs: map[string]bool{},
		subs:  map[string]*model.OrganizationSubscription{},
	}
	for _, o := range orgs {
		m.orgs[o.ID] = o
		m.slugs[o.Slug] = true
	}
	return m
}

func (m *mockOrgRepo) Create(ctx context.Context, org *model.Organization, sub *model.OrganizationSubscription) error {
	org.ID = "org-new"
	sub.OrganizationID = org.ID
	org.Subscription = sub
	m.orgs[org.ID] = org
	m.created = sub
	return nil
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, appErrors.NewNotFound("organization", "")
	}
	return o, nil
}

func (m *mockOrgRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return m.slugs[slug], nil
}

func (m *mockOrgRepo) List(ctx context.Context, f repository.OrganizationFilter) ([]*model.Organization, int, error) {
	m.lastFilter = f
	out := []*model.Organization{}
	for _, o := range m.orgs {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *mockOrgRepo) Suspend(ctx context.Context, id string) error {
	m.suspended = append(m.suspended, id)
	return nil
}

func (m *mockOrgRepo) GetSubscription(ctx context.Context, organizationID string) (*model.OrganizationSubscription, error) {
	return m.subs[organizationID], nil
}

func (m *mockOrgRepo) SaveSubscription(ctx context.Context, sub *model.OrganizationSubscription) error {
	m.saved = sub
	m.subs[sub.OrganizationID] = sub
	return nil
}

type mockWorkflowRepo struct {
	workflows map[string]*model.Workflow
	updated   *model.Workflow
}

func newMockWorkflowRepo(ws ...*model.Workflow) *mockWorkflowRepo {
	m := &mockWorkflowRepo{workflows: map[string]*model.Workflow{}}
	for _, w := range ws {
		m.workflows[w.ID] = w
	}
	return m
}

func (m *mockWorkflowRepo) Create(ctx context.Context, w *model.Workflow) error {
	w.ID = "wf-new"
	m.workflows[w.ID] = w
	return nil
}

func (m *mockWorkflowRepo) GetByID(ctx context.Context, organizationID, id string) (*model.Workflow, error) {
	w, ok := m.workflows[id]
	if !ok || w.OrganizationID != organizationID {
		return nil, appErrors.NewNotFound("workflow", "")
	}
	cp := *w
	return &cp, nil
}

func (m *mockWorkflowRepo) List(ctx context.Context, organizationID string) ([]*model.Workflow, error) {
	var out []*model.Workflow
	for _, w := range m.workflows {
		if w.OrganizationID == organizationID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockWorkflowRepo) Update(ctx context.Context, w *model.Workflow) error {
	m.updated = w
	m.workflows[w.ID] = w
	return nil
}

type mockSubscriptionRepo struct {
	subs       map[string]*model.Subscription
	lastFilter repository.SubscriptionFilter
	updated    *model.Subscription
}

func (m *mockSubscriptionRepo) List(ctx context.Context, organizationID string, f repository.SubscriptionFilter) ([]*model.Subscription, error) {
	m.lastFilter = f
	return []*model.Subscription{}, nil
}

func (m *mockSubscriptionRepo) GetByID(ctx context.Context, organizationID, id string) (*model.Subscription, error) {
	s, ok := m.subs[id]
	if !ok || s.OrganizationID != organizationID {
		return nil, appErrors.NewNotFound("subscription", "")
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubscriptionRepo) UpdateStatus(ctx context.Context, s *model.Subscription) error {
	m.updated = s
	return nil
}

type mockDashboardRepo struct {
	layouts map[string]json.RawMessage
}

func (m *mockDashboardRepo) Get(ctx context.Context, userID string) (json.RawMessage, error) {
	return m.layouts[userID], nil
}

func (m *mockDashboardRepo) Save(ctx context.Context, userID string, layout json.RawMessage) error {
	if m.layouts == nil {
		m.layouts = map[string]json.RawMessage{}
	}
	m.layouts[userID] = layout
	return nil
}

type mockSystemLogRepo struct {
	entries    []*model.SystemLog
	err        error
	lastFilter repository.SystemLogFilter
}

func (m *mockSystemLogRepo) Create(ctx context.Context, e *model.SystemLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockSystemLogRepo) List(ctx context.Context, f repository.SystemLogFilter) ([]*model.SystemLog, int, error) {
	m.lastFilter = f
	return m.entries, len(m.entries), nil
}

// Fakes for the other collaborators

type recordingLogs struct {
	mu     sync.Mutex
	events []service.LogEvent
}

func (r *recordingLogs) LogSystemEvent(ctx context.Context, e service.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type publishedJob struct {
	topic   string
	payload any
}

type fakeQueue struct {
	mu        sync.Mutex
	published []publishedJob
	err       error
}

func (q *fakeQueue) Publish(ctx context.Context, topic string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, publishedJob{topic: topic, payload: payload})
	return nil
}

func (q *fakeQueue) Subscribe(topic string, h queue.Handler) error { return nil }

func (q *fakeQueue) Close() error { return nil }

type fakeMailer struct {
	mu     sync.Mutex
	sent   []service.Email
	failTo map[string]bool
}

func (m *fakeMailer) Send(ctx context.Context, e service.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[e.To] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, e)
	return nil
}

type fakeUserBackend struct {
	registered []backend.RegisterRequest
	updates    map[string]backend.UpdateUserRequest
	deleted    []string
	updateResp *backend.UpdateUserResponse
	err        error
}

func (f *fakeUserBackend) RegisterUser(ctx context.Context, token string, req backend.RegisterRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.registered = append(f.registered, req)
	return "user-new", nil
}

func (f *fakeUserBackend) UpdateUser(ctx context.Context, token, userID string, req backend.UpdateUserRequest) (*backend.UpdateUserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updates == nil {
		f.updates = map[string]backend.UpdateUserRequest{}
	}
	f.updates[userID] = req
	return f.updateResp, nil
}

func (f *fakeUserBackend) DeleteUser(ctx context.Context, token, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeDisputes struct {
	got stripe.Evidence
	err error
}

func (f *fakeDisputes) SubmitDisputeEvidence(ctx context.Context, disputeID string, ev stripe.Evidence) (*stripe.Dispute, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = ev
	return &stripe.Dispute{ID: disputeID, Status: "under_review", Amount: 5000}, nil
}

var (
	_ repository.CampaignRepositoryInterface         = (*mockCampaignRepo)(nil)
	_ repository.EmailTemplateRepositoryInterface    = (*mockTemplateRepo)(nil)
	_ repository.AudienceRepositoryInterface         = (*mockAudienceRepo)(nil)
	_ repository.DonatorRepositoryInterface          = (*mockDonatorRepo)(nil)
	_ repository.CampaignDeliveryRepositoryInterface = (*mockDeliveryRepo)(nil)
	_ repository.OrganizationRepositoryInterface     = (*mockOrgRepo)(nil)
	_ repository.WorkflowRepositoryInterface         = (*mockWorkflowRepo)(nil)
	_ repository.SubscriptionRepositoryInterface     = (*mockSubscriptionRepo)(nil)
	_ repository.DashboardLayoutRepositoryInterface  = (*mockDashboardRepo)(nil)
	_ repository.SystemLogRepositoryInterface        = (*mockSystemLogRepo)(nil)
	_ queue.Queue                                    = (*fakeQueue)(nil)
	_ service.Mailer                                 = (*fakeMailer)(nil)
	_ service.UserBackend                            = (*fakeUserBackend)(nil)
	_ service.DisputeSubmitter                       = (*fakeDisputes)(nil)
)
