package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/repository"
	"github.com/unclebandit/donorhub-backend/internal/validation"
)

type OrganizationService struct {
	Repo repository.OrganizationRepositoryInterface
	Logs EventLogger
	Now  func() time.Time
}

type CreateOrganizationInput struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Slug        string  `json:"slug" validate:"required,min=2"`
	Email       string  `json:"email" validate:"required,email"`
	Logo        *string `json:"logo"`
	Website     *string `json:"website" validate:"omitempty,url"`
	Description *string `json:"description"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Province    *string `json:"province"`
	PostalCode  *string `json:"postalCode"`
	Country     string  `json:"country"`
	Plan        string  `json:"plan" validate:"omitempty,oneof=FREE STARTER PROFESSIONAL ENTERPRISE"`

	// Subscription overrides; absent fields take the trial defaults.
	SubscriptionStatus string     `json:"subscriptionStatus" validate:"omitempty,oneof=ACTIVE TRIAL CANCELED EXPIRED"`
	TrialEndDate       *time.Time `json:"trialEndDate"`
	MaxUsers           *int       `json:"maxUsers" validate:"omitempty,gte=0"`
	MaxDonors          *int       `json:"maxDonors" validate:"omitempty,gte=0"`
	MaxForms           *int       `json:"maxForms" validate:"omitempty,gte=0"`
	MaxCampaigns       *int       `json:"maxCampaigns" validate:"omitempty,gte=0"`
}

func (s *OrganizationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create inserts an organization with a trial subscription on the requested plan.
func (s *OrganizationService) Create(ctx context.Context, actorID string, in CreateOrganizationInput) (*model.Organization, error) {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.Repo.SlugExists(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.NewConflict("slug already exists")
	}

	org := &model.Organization{
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.Slug,
		Email:       in.Email,
		Logo:        in.Logo,
		Website:     in.Website,
		Description: in.Description,
		Phone:       in.Phone,
		Address:     in.Address,
		City:        in.City,
		Province:    in.Province,
		PostalCode:  in.PostalCode,
		Country:     in.Country,
		IsActive:    true,
	}
	if org.Country == "" {
		org.Country = model.DefaultCountry
	}
	plan := model.Plan(in.Plan)
	if plan == "" {
		plan = model.PlanFree
	}
	status := model.OrganizationSubscriptionStatus(in.SubscriptionStatus)
	if status == "" {
		status = model.OrgSubscriptionTrial
	}
	sub := &model.OrganizationSubscription{
		Plan:         plan,
		Status:       status,
		StartDate:    s.now(),
		TrialEndDate: in.TrialEndDate,
		MaxUsers:     intOr(in.MaxUsers, model.DefaultMaxUsers),
		MaxDonors:    intOr(in.MaxDonors, model.DefaultMaxDonors),
		MaxForms:     intOr(in.MaxForms, model.DefaultMaxForms),
		MaxCampaigns: intOr(in.MaxCampaigns, model.DefaultMaxCampaigns),
	}

	if err := s.Repo.Create(ctx, org, sub); err != nil {
		return nil, err
	}

	s.Logs.LogSystemEvent(ctx, LogEvent{
		Type:           "organization",
		Level:          model.LogInfo,
		Message:        fmt.Sprintf("Organization %s created", org.Name),
		OrganizationID: org.ID,
		UserID:         actorID,
		Details:        map[string]any{"slug": org.Slug, "plan": sub.Plan, "status": sub.Status},
	})
	return org, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

type ListOrganizationsInput struct {
	Search string
	Plan   string
	Status string
	Page   int
	Limit  int
}

type OrganizationList struct {
	Organizations []*model.Organization `json:"organizations"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

func (s *OrganizationService) List(ctx context.Context, in ListOrganizationsInput) (*OrganizationList, error) {
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	f := repository.OrganizationFilter{
		Search: strings.TrimSpace(in.Search),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if p := model.Plan(in.Plan); p.Valid() {
		f.Plan = p
	}
	if st := model.OrganizationSubscriptionStatus(in.Status); st.Valid() {
		f.Status = st
	}

	orgs, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &OrganizationList{Organizations: orgs, Total: total, Page: page, Limit: limit}, nil
}

// Suspend deactivates an organization and cancels its subscription.
func (s *OrganizationService) Suspend(ctx context.Context, actorID, organizationID, reason string) error {
	org, err := s.Repo.GetByID(ctx, organizationID)
	if err != nil {
		return err
	}
	if err := s.Repo.Suspend(ctx, organizationID); err != nil {
		return err
	}

	if strings.TrimSpace(reason) == "" {
		reason = "No reason provided"
	}
	s.Logs.LogSystemEvent(ctx, LogEvent{
		Type:           "organization",
		Level:          model.LogWarning,
		Message:        fmt.Sprintf("Organization %s suspended", org.Name),
		OrganizationID: organizationID,
		UserID:         actorID,
		Details:        map[string]any{"reason": reason},
	})
	return nil
}

// UpdateSubscriptionInput is a partial update; nil fields are left unchanged.
type UpdateSubscriptionInput struct {
	Plan         *string    `json:"plan" validate:"omitempty,oneof=FREE STARTER PROFESSIONAL ENTERPRISE"`
	Status       *string    `json:"status" validate:"omitempty,oneof=ACTIVE TRIAL CANCELED EXPIRED"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	TrialEndDate *time.Time `json:"trialEndDate"`
	MaxUsers     *int       `json:"maxUsers" validate:"omitempty,gte=0"`
	MaxDonors    *int       `json:"maxDonors" validate:"omitempty,gte=0"`
	MaxForms     *int       `json:"maxForms" validate:"omitempty,gte=0"`
	MaxCampaigns *int       `json:"maxCampaigns" validate:"omitempty,gte=0"`
}

// UpdateSubscription merges in into the organization's subscription, creating one
// with default limits when none exists.
func (s *OrganizationService) UpdateSubscription(ctx context.Context, actorID, organizationID string, in UpdateSubscriptionInput) (*model.OrganizationSubscription, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	org, err := s.Repo.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	sub, err := s.Repo.GetSubscription(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		sub = &model.OrganizationSubscription{
			OrganizationID: organizationID,
			Plan:           model.PlanFree,
			Status:         model.OrgSubscriptionTrial,
			StartDate:      s.now(),
			MaxUsers:       model.DefaultMaxUsers,
			MaxDonors:      model.DefaultMaxDonors,
			MaxForms:       model.DefaultMaxForms,
			MaxCampaigns:   model.DefaultMaxCampaigns,
		}
	}

	changes := map[string]any{}
	if in.Plan != nil {
		sub.Plan = model.Plan(*in.Plan)
		changes["plan"] = sub.Plan
	}
	if in.Status != nil {
		sub.Status = model.OrganizationSubscriptionStatus(*in.Status)
		changes["status"] = sub.Status
	}
	if in.StartDate != nil {
		sub.StartDate = *in.StartDate
		changes["startDate"] = sub.StartDate
	}
	if in.EndDate != nil {
		sub.EndDate = in.EndDate
		changes["endDate"] = sub.EndDate
	}
	if in.TrialEndDate != nil {
		sub.TrialEndDate = in.TrialEndDate
		changes["trialEndDate"] = sub.TrialEndDate
	}
	if in.MaxUsers != nil {
		sub.MaxUsers = *in.MaxUsers
		changes["maxUsers"] = sub.MaxUsers
	}
	if in.MaxDonors != nil {
		sub.MaxDonors = *in.MaxDonors
		changes["maxDonors"] = sub.MaxDonors
	}
	if in.MaxForms != nil {
		sub.MaxForms = *in.MaxForms
		changes["maxForms"] = sub.MaxForms
	}
	if in.MaxCampaigns != nil {
		sub.MaxCampaigns = *in.MaxCampaigns
		changes["maxCampaigns"] = sub.MaxCampaigns
	}

	if err := s.Repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.Logs.LogSystemEvent(ctx, LogEvent{
		Type:           "subscription",
		Level:          model.LogInfo,
		Message:        fmt.Sprintf("Subscription updated for organization %s", org.Name),
		OrganizationID: organizationID,
		UserID:         actorID,
		Details:        map[string]any{"plan": sub.Plan, "status": sub.Status, "changes": changes},
	})
	return sub, nil
}
