package service

import (
	"context"
	"strings"
	"time"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/repository"
)

// SubscriptionService manages donors' recurring donations.
type SubscriptionService struct {
	Repo repository.SubscriptionRepositoryInterface
	Now  func() time.Time
}

func (s *SubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// List ignores a status outside the known set.
func (s *SubscriptionService) List(ctx context.Context, organizationID, donatorID, status string) ([]*model.Subscription, error) {
	f := repository.SubscriptionFilter{DonatorID: strings.TrimSpace(donatorID)}
	if st := model.SubscriptionStatus(status); st.Valid() {
		f.Status = st
	}
	return s.Repo.List(ctx, organizationID, f)
}

func (s *SubscriptionService) Cancel(ctx context.Context, organizationID, id, reason string) (*model.Subscription, error) {
	sub, err := s.Repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == model.SubscriptionCancelled {
		return nil, appErrors.NewConflict("subscription already cancelled")
	}

	now := s.now()
	sub.Status = model.SubscriptionCancelled
	sub.CancelledAt = &now
	sub.CancellationReason = optional(strings.TrimSpace(reason))
	if err := s.Repo.UpdateStatus(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) Pause(ctx context.Context, organizationID, id string) (*model.Subscription, error) {
	return s.transition(ctx, organizationID, id, model.SubscriptionActive, model.SubscriptionPaused,
		"only active subscriptions can be paused")
}

func (s *SubscriptionService) Resume(ctx context.Context, organizationID, id string) (*model.Subscription, error) {
	return s.transition(ctx, organizationID, id, model.SubscriptionPaused, model.SubscriptionActive,
		"only paused subscriptions can be resumed")
}

func (s *SubscriptionService) transition(ctx context.Context, organizationID, id string, from, to model.SubscriptionStatus, conflict string) (*model.Subscription, error) {
	sub, err := s.Repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != from {
		return nil, appErrors.NewConflict(conflict)
	}
	sub.Status = to
	if err := s.Repo.UpdateStatus(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}
