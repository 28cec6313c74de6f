package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/repository"
)

type DashboardService struct {
	Repo   repository.DashboardLayoutRepositoryInterface
	Logger *zap.Logger
}

// GetLayout falls back to the default layout when nothing usable is stored.
func (s *DashboardService) GetLayout(ctx context.Context, userID string) ([]model.LayoutItem, error) {
	raw, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return model.DefaultDashboardLayout(), nil
	}
	var items []model.LayoutItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.Logger.Warn("stored dashboard layout is invalid", zap.String("user_id", userID), zap.Error(err))
		return model.DefaultDashboardLayout(), nil
	}
	return items, nil
}

func (s *DashboardService) SaveLayout(ctx context.Context, userID string, items []model.LayoutItem) error {
	for idx, it := range items {
		if strings.TrimSpace(it.I) == "" {
			return appErrors.NewValidation("layout", fmt.Sprintf("layout item %d has no id", idx))
		}
		if it.W <= 0 || it.H <= 0 {
			return appErrors.NewValidation("layout", fmt.Sprintf("layout item %q must have a positive size", it.I))
		}
		if it.X < 0 || it.Y < 0 {
			return appErrors.NewValidation("layout", fmt.Sprintf("layout item %q has a negative position", it.I))
		}
	}
	if items == nil {
		items = []model.LayoutItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard layout: %w", err)
	}
	return s.Repo.Save(ctx, userID, raw)
}
