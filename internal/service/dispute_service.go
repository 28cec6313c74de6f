package service

import (
	"context"
	"strings"

	"github.com/unclebandit/donorhub-backend/internal/client/stripe"
	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type DisputeSubmitter interface {
	SubmitDisputeEvidence(ctx context.Context, disputeID string, ev stripe.Evidence) (*stripe.Dispute, error)
}

type DisputeService struct {
	Provider DisputeSubmitter
	Logs     EventLogger
}

type SubmitEvidenceInput struct {
	Receipt               string `json:"receipt"`
	CustomerCommunication string `json:"customer_communication"`
	UncategorizedText     string `json:"uncategorized_text"`
}

// SubmitEvidence sends the evidence and closes the dispute's evidence phase.
func (s *DisputeService) SubmitEvidence(ctx context.Context, organizationID, actorID, disputeID string, in SubmitEvidenceInput) (*stripe.Dispute, error) {
	disputeID = strings.TrimSpace(disputeID)
	if disputeID == "" {
		return nil, appErrors.NewValidation("disputeId", "dispute id is required")
	}
	ev := stripe.Evidence{
		Receipt:               strings.TrimSpace(in.Receipt),
		CustomerCommunication: strings.TrimSpace(in.CustomerCommunication),
		UncategorizedText:     strings.TrimSpace(in.UncategorizedText),
	}
	if ev == (stripe.Evidence{}) {
		return nil, appErrors.NewValidation("evidence", "at least one evidence field is required")
	}

	d, err := s.Provider.SubmitDisputeEvidence(ctx, disputeID, ev)
	if err != nil {
		return nil, err
	}
	if s.Logs != nil {
		s.Logs.LogSystemEvent(ctx, LogEvent{
			Type:           "payment",
			Level:          model.LogInfo,
			Message:        "Dispute evidence submitted",
			Details:        map[string]any{"dispute_id": d.ID, "status": d.Status},
			OrganizationID: organizationID,
			UserID:         actorID,
		})
	}
	return d, nil
}
