// Package queue carries background jobs from the API to the worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicCampaignSends receives one job per sent email campaign.
const TopicCampaignSends = "campaign_sends"

const defaultMaxRetries = 3

// CampaignSendJob asks the worker to deliver a campaign that was marked SENT.
type CampaignSendJob struct {
	CampaignID     string `json:"campaign_id"`
	OrganizationID string `json:"organization_id"`
	RequestedBy    string `json:"requested_by,omitempty"`
}

// Handler processes one message body. A returned error triggers a retry.
type Handler func(ctx context.Context, body []byte) error

type Queue interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

// InMemoryQueue delivers messages to in-process subscribers with bounded retries.
type InMemoryQueue struct {
	Logger     *zap.Logger
	MaxRetries int
	// Backoff returns the wait before the given retry attempt (1-based).
	Backoff func(attempt int) time.Duration

	mu       sync.Mutex
	closed   bool
	handlers map[string][]Handler
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemoryQueue{
		Logger:     logger,
		MaxRetries: defaultMaxRetries,
		Backoff:    func(attempt int) time.Duration { return time.Duration(attempt*500) * time.Millisecond },
		handlers:   make(map[string][]Handler),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// jobPayload wraps a message body with its retry state.
type jobPayload struct {
	Topic      string
	Body       []byte
	RetryCount int
	MaxRetries int
}

// Publish encodes payload as JSON and hands it to every subscriber of topic.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s job: %w", topic, err)
	}

	// The closed check and wg.Add share the lock with Close so no job starts after Wait.
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	handlers := q.handlers[topic]
	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, h := range handlers {
		job := jobPayload{Topic: topic, Body: body, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go q.processJob(h, job)
	}
	return nil
}

func (q *InMemoryQueue) processJob(handler Handler, job jobPayload) {
	defer q.wg.Done()

	for {
		err := handler(q.ctx, job.Body)
		if err == nil {
			q.Logger.Debug("job processed", zap.String("topic", job.Topic))
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			q.Logger.Error("job permanently failed",
				zap.String("topic", job.Topic),
				zap.Int("attempts", job.RetryCount),
				zap.Error(err),
			)
			return
		}
		q.Logger.Warn("job failed, retrying",
			zap.String("topic", job.Topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)

		select {
		case <-time.After(q.Backoff(job.RetryCount)):
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close stops pending retries and waits for running handlers.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
