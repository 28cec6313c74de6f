package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/queue"
)

func TestConsume_DeliversUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := queue.NewInMemoryQueue(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu   sync.Mutex
		got  []string
		seen = make(chan struct{}, 1)
	)
	h := func(ctx context.Context, body []byte) error {
		mu.Lock()
		got = append(got, string(body))
		mu.Unlock()
		seen <- struct{}{}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- consume(ctx, q, queue.TopicCampaignSends, h, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		return q.Publish(ctx, queue.TopicCampaignSends, queue.CampaignSendJob{CampaignID: "c1", OrganizationID: "org-1"}) == nil
	}, time.Second, 10*time.Millisecond)

	select {
	case <-seen:
	case <-time.After(time.Second):
		t.Fatal("job was not delivered")
	}

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, q.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"campaign_id":"c1","organization_id":"org-1"}`, got[0])
}
