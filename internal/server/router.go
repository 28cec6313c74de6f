// Package server assembles the HTTP routes of the API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/auth"
	"github.com/unclebandit/donorhub-backend/internal/controller"
	"github.com/unclebandit/donorhub-backend/internal/handler"
	"github.com/unclebandit/donorhub-backend/internal/logging"
	"github.com/unclebandit/donorhub-backend/internal/metrics"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/render"
)

// Deps carries everything the routes dispatch to.
type Deps struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Authenticator  auth.Authenticator
	RequestTimeout time.Duration
	// Ready reports whether the service can take traffic. Nil means always ready.
	Ready func(r *http.Request) error

	Campaigns     *controller.CampaignController
	Segments      *controller.SegmentController
	Templates     *controller.TemplateController
	Workflows     *controller.WorkflowController
	Subscriptions *controller.SubscriptionController
	Dashboard     *controller.DashboardController
	Disputes      *controller.DisputeController
	Users         *controller.UserController
	SuperAdmin    *controller.SuperAdminController
	Donors        *handler.DonorHandler
	Images        *handler.ImageHandler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r); err != nil {
				render.Error(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.RequestTimeout))
		}

		// The backend API authorizes donor reads itself from the forwarded header.
		r.Get("/donators", d.Donors.ListDonators)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(d.Authenticator, d.Logger))

			r.Get("/images/search", d.Images.Search)

			r.Get("/dashboard/layout", d.Dashboard.GetLayout)
			r.Put("/dashboard/layout", d.Dashboard.SaveLayout)

			r.Route("/admin/users", func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleAdmin))
				r.Post("/", d.Users.Create)
				r.Put("/{id}", d.Users.Update)
				r.Delete("/{id}", d.Users.Delete)
				r.Post("/{id}/toggle-status", d.Users.ToggleStatus)
			})

			r.Route("/superadmin", func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleSuperAdmin))
				r.Get("/organizations", d.SuperAdmin.ListOrganizations)
				r.Post("/organizations", d.SuperAdmin.CreateOrganization)
				r.Post("/organizations/{orgID}/suspend", d.SuperAdmin.SuspendOrganization)
				r.Put("/organizations/{orgID}/subscription", d.SuperAdmin.UpdateSubscription)
				r.Get("/system-logs", d.SuperAdmin.ListSystemLogs)
			})

			r.Route("/organizations/{orgID}", func(r chi.Router) {
				r.Use(auth.RequireOrganization)
				mountTenant(r, d)
			})
		})
	})
	return r
}

func mountTenant(r chi.Router, d Deps) {
	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", d.Campaigns.ListCampaigns)
		r.Post("/", d.Campaigns.CreateCampaign)
		r.Get("/dashboard", d.Campaigns.GetCampaignDashboard)
		r.Get("/{id}/stats", d.Campaigns.GetCampaignStats)
		r.Post("/{id}/send", d.Campaigns.SendCampaign)
		r.Post("/{id}/cancel", d.Campaigns.CancelCampaign)
		r.Post("/{id}/preview", d.Campaigns.PreviewCampaign)
	})

	r.Get("/audiences", d.Segments.ListAudiences)
	r.Route("/segments", func(r chi.Router) {
		r.Get("/", d.Segments.ListSegments)
		r.Post("/", d.Segments.CreateSegment)
		r.Post("/evaluate", d.Segments.EvaluateRules)
		r.Post("/{id}/refresh", d.Segments.RefreshSegment)
	})
	r.Post("/segment-suggestions/generate", d.Segments.GenerateSuggestions)
	r.Post("/segment-suggestions/{id}/accept", d.Segments.AcceptSuggestion)

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", d.Templates.List)
		r.Post("/", d.Templates.Create)
		r.Get("/{id}", d.Templates.Get)
		r.Put("/{id}", d.Templates.Update)
	})

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", d.Workflows.List)
		r.Post("/", d.Workflows.Create)
		r.Get("/{id}", d.Workflows.Get)
		r.Put("/{id}", d.Workflows.Update)
		r.Put("/{id}/status", d.Workflows.SetStatus)
		r.Post("/{id}/execute", d.Workflows.Execute)
	})

	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", d.Subscriptions.List)
		r.Post("/{id}/cancel", d.Subscriptions.Cancel)
		r.Post("/{id}/pause", d.Subscriptions.Pause)
		r.Post("/{id}/resume", d.Subscriptions.Resume)
	})

	r.With(auth.RequireRole(model.RoleAdmin, model.RoleSuperAdmin)).
		Post("/disputes/{id}/evidence", d.Disputes.SubmitEvidence)
}
