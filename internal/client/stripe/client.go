// Package stripe submits dispute evidence through the official Stripe SDK.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/dispute"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
)

type Client struct {
	SecretKey string
	disputes  dispute.Client
}

// NewClient builds a client against apiURL. An empty apiURL targets the live Stripe API.
func NewClient(apiURL, secretKey string, logger *zap.Logger) *Client {
	cfg := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 20 * time.Second},
		LeveledLogger:     logger.Named("stripe").Sugar(),
		MaxNetworkRetries: stripego.Int64(1),
		EnableTelemetry:   stripego.Bool(false),
	}
	if apiURL != "" {
		cfg.URL = stripego.String(apiURL)
	}
	return &Client{
		SecretKey: secretKey,
		disputes:  dispute.Client{B: stripego.GetBackendWithConfig(stripego.APIBackend, cfg), Key: secretKey},
	}
}

// Evidence is the subset of dispute evidence the dashboard collects.
type Evidence struct {
	Receipt               string `json:"receipt"`
	CustomerCommunication string `json:"customer_communication"`
	UncategorizedText     string `json:"uncategorized_text"`
}

type Dispute struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// SubmitDisputeEvidence attaches evidence to a dispute and submits it for review.
func (c *Client) SubmitDisputeEvidence(ctx context.Context, disputeID string, ev Evidence) (*Dispute, error) {
	if c.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is not configured")
	}

	params := &stripego.DisputeParams{
		Submit:   stripego.Bool(true),
		Evidence: &stripego.DisputeEvidenceParams{},
	}
	params.Context = ctx
	if ev.Receipt != "" {
		params.Evidence.Receipt = stripego.String(ev.Receipt)
	}
	if ev.CustomerCommunication != "" {
		params.Evidence.CustomerCommunication = stripego.String(ev.CustomerCommunication)
	}
	if ev.UncategorizedText != "" {
		params.Evidence.UncategorizedText = stripego.String(ev.UncategorizedText)
	}

	d, err := c.disputes.Update(disputeID, params)
	if err != nil {
		var stripeErr *stripego.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode != 0 {
			msg := stripeErr.Msg
			if msg == "" {
				msg = http.StatusText(stripeErr.HTTPStatusCode)
			}
			return nil, appErrors.NewUpstream(stripeErr.HTTPStatusCode, msg)
		}
		return nil, fmt.Errorf("failed to reach stripe: %w", err)
	}
	return &Dispute{ID: d.ID, Status: string(d.Status), Amount: d.Amount}, nil
}
