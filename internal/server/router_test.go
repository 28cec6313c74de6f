package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/auth"
	"github.com/unclebandit/donorhub-backend/internal/controller"
	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/handler"
	"github.com/unclebandit/donorhub-backend/internal/metrics"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/server"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

type tokenTable map[string]*auth.Principal

func (t tokenTable) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	p, ok := t[token]
	if !ok {
		return nil, appErrors.NewUnauthorized()
	}
	return p, nil
}

type fakeTemplates struct{}

func (fakeTemplates) Create(ctx context.Context, organizationID string, in service.CreateTemplateInput) (*model.EmailTemplate, error) {
	return &model.EmailTemplate{ID: "t1", OrganizationID: organizationID, Name: in.Name}, nil
}

func (fakeTemplates) Get(ctx context.Context, organizationID, id string) (*model.EmailTemplate, error) {
	return nil, appErrors.NewNotFound("template", id)
}

func (fakeTemplates) List(ctx context.Context, organizationID string) ([]*model.EmailTemplate, error) {
	return []*model.EmailTemplate{{ID: "t1", OrganizationID: organizationID, Name: "Welcome"}}, nil
}

func (fakeTemplates) Update(ctx context.Context, organizationID, id string, in service.UpdateTemplateInput) (*model.EmailTemplate, error) {
	return nil, errors.New("boom")
}

type fakeLogs struct{}

func (fakeLogs) List(ctx context.Context, in service.ListSystemLogsInput) (*service.SystemLogList, error) {
	return &service.SystemLogList{}, nil
}

func newTestRouter(ready func(*http.Request) error) http.Handler {
	logger := zap.NewNop()
	tokens := tokenTable{
		"admin":   {UserID: "u1", OrganizationID: "org-1", Role: model.RoleAdmin},
		"manager": {UserID: "u2", OrganizationID: "org-1", Role: model.RoleManager},
		"root":    {UserID: "u0", Role: model.RoleSuperAdmin},
	}
	return server.NewRouter(server.Deps{
		Logger:        logger,
		Metrics:       metrics.New(),
		Authenticator: tokens,
		Ready:         ready,
		Templates:     &controller.TemplateController{TemplateService: fakeTemplates{}, Logger: logger},
		SuperAdmin:    &controller.SuperAdminController{SystemLogService: fakeLogs{}, Logger: logger},
		Campaigns:     &controller.CampaignController{Logger: logger},
		Segments:      &controller.SegmentController{Logger: logger},
		Workflows:     &controller.WorkflowController{Logger: logger},
		Subscriptions: &controller.SubscriptionController{Logger: logger},
		Dashboard:     &controller.DashboardController{Logger: logger},
		Disputes:      &controller.DisputeController{Logger: logger},
		Users:         &controller.UserController{Logger: logger},
		Donors:        &handler.DonorHandler{Logger: logger},
		Images:        &handler.ImageHandler{Logger: logger},
	})
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Access(t *testing.T) {
	h := newTestRouter(nil)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"no token", http.MethodGet, "/api/organizations/org-1/templates", "", "", http.StatusUnauthorized},
		{"unknown token", http.MethodGet, "/api/organizations/org-1/templates", "nope", "", http.StatusUnauthorized},
		{"member of org", http.MethodGet, "/api/organizations/org-1/templates", "manager", "", http.StatusOK},
		{"other org", http.MethodGet, "/api/organizations/org-2/templates", "admin", "", http.StatusForbidden},
		{"super admin any org", http.MethodGet, "/api/organizations/org-2/templates", "root", "", http.StatusOK},
		{"not found mapped", http.MethodGet, "/api/organizations/org-1/templates/t9", "admin", "", http.StatusNotFound},
		{"unexpected error", http.MethodPut, "/api/organizations/org-1/templates/t1", "admin", `{"name":"x"}`, http.StatusInternalServerError},
		{"superadmin route as admin", http.MethodGet, "/api/superadmin/system-logs", "admin", "", http.StatusForbidden},
		{"superadmin route", http.MethodGet, "/api/superadmin/system-logs", "root", "", http.StatusOK},
		{"user admin as manager", http.MethodPost, "/api/admin/users/", "manager", `{}`, http.StatusForbidden},
		{"disputes as manager", http.MethodPost, "/api/organizations/org-1/disputes/dp_1/evidence", "manager", `{}`, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/nothing", "admin", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(h, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestRouter_GenericMessageOnUnexpectedError(t *testing.T) {
	h := newTestRouter(nil)

	w := call(h, http.MethodPut, "/api/organizations/org-1/templates/t1", "admin", `{"name":"x"}`)

	assert.JSONEq(t, `{"error":"Failed to update template"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Content-Type"))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestRouter(nil)
	call(h, http.MethodGet, "/api/organizations/org-1/templates", "admin", "")

	w := call(h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = call(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/api/organizations/{orgID}/templates`)
}

func TestRouter_NotReady(t *testing.T) {
	h := newTestRouter(func(*http.Request) error { return errors.New("db down") })

	w := call(h, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
