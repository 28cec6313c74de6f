package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/repository"
)

// LogEvent describes one audit entry.
type LogEvent struct {
	Type           string
	Level          model.LogLevel
	Message        string
	Details        any
	OrganizationID string
	UserID         string
	IPAddress      string
	UserAgent      string
	Endpoint       string
	Method         string
	StatusCode     int
}

// EventLogger records audit events. Implementations never fail the caller.
type EventLogger interface {
	LogSystemEvent(ctx context.Context, e LogEvent)
}

type SystemLogService struct {
	Repo   repository.SystemLogRepositoryInterface
	Logger *zap.Logger
}

// LogSystemEvent stores e. Failures are logged and swallowed.
func (s *SystemLogService) LogSystemEvent(ctx context.Context, e LogEvent) {
	entry := &model.SystemLog{
		Type:           e.Type,
		Level:          e.Level,
		Message:        e.Message,
		OrganizationID: optional(e.OrganizationID),
		UserID:         optional(e.UserID),
		IPAddress:      optional(e.IPAddress),
		UserAgent:      optional(e.UserAgent),
		Endpoint:       optional(e.Endpoint),
		Method:         optional(e.Method),
	}
	if entry.Level == "" {
		entry.Level = model.LogInfo
	}
	if e.StatusCode != 0 {
		code := e.StatusCode
		entry.StatusCode = &code
	}
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			s.Logger.Warn("dropping unencodable log details", zap.String("type", e.Type), zap.Error(err))
		} else {
			entry.Details = b
		}
	}

	if err := s.Repo.Create(ctx, entry); err != nil {
		s.Logger.Error("failed to write system log",
			zap.String("type", e.Type),
			zap.String("message", e.Message),
			zap.Error(err),
		)
	}
}

type ListSystemLogsInput struct {
	Type           string
	Level          string
	OrganizationID string
	Limit          int
	Offset         int
}

type SystemLogList struct {
	Logs  []*model.SystemLog `json:"logs"`
	Total int                `json:"total"`
}

func (s *SystemLogService) List(ctx context.Context, in ListSystemLogsInput) (*SystemLogList, error) {
	limit := in.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	f := repository.SystemLogFilter{
		Type:           in.Type,
		OrganizationID: in.OrganizationID,
		Offset:         offset,
		Limit:          limit,
	}
	switch lvl := model.LogLevel(in.Level); lvl {
	case model.LogInfo, model.LogWarning, model.LogError, model.LogCritical:
		f.Level = lvl
	}

	logs, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &SystemLogList{Logs: logs, Total: total}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ EventLogger = (*SystemLogService)(nil)
