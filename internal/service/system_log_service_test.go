package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

func TestLogSystemEvent_Stores(t *testing.T) {
	repo := &mockSystemLogRepo{}
	svc := &service.SystemLogService{Repo: repo, Logger: zap.NewNop()}

	svc.LogSystemEvent(context.Background(), service.LogEvent{
		Type:       "auth",
		Message:    "login failed",
		Details:    map[string]string{"email": "a@example.org"},
		StatusCode: 401,
	})

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, model.LogInfo, e.Level)
	assert.JSONEq(t, `{"email":"a@example.org"}`, string(e.Details))
	assert.Nil(t, e.OrganizationID)
	require.NotNil(t, e.StatusCode)
	assert.Equal(t, 401, *e.StatusCode)
}

func TestLogSystemEvent_NeverFails(t *testing.T) {
	core, logged := observer.New(zap.ErrorLevel)
	svc := &service.SystemLogService{Repo: &mockSystemLogRepo{err: errors.New("disk full")}, Logger: zap.New(core)}

	svc.LogSystemEvent(context.Background(), service.LogEvent{Type: "system", Message: "boot"})

	require.Equal(t, 1, logged.Len())
	assert.Equal(t, "failed to write system log", logged.All()[0].Message)
}

func TestListSystemLogs_Bounds(t *testing.T) {
	repo := &mockSystemLogRepo{}
	svc := &service.SystemLogService{Repo: repo, Logger: zap.NewNop()}

	_, err := svc.List(context.Background(), service.ListSystemLogsInput{Level: "loud", Limit: 1000, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastFilter.Limit)
	assert.Equal(t, 0, repo.lastFilter.Offset)
	assert.Equal(t, model.LogLevel(""), repo.lastFilter.Level)

	_, err = svc.List(context.Background(), service.ListSystemLogsInput{Level: "critical", Limit: 10, OrganizationID: "org-1"})
	require.NoError(t, err)
	assert.Equal(t, model.LogCritical, repo.lastFilter.Level)
	assert.Equal(t, "org-1", repo.lastFilter.OrganizationID)
}
