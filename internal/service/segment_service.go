package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/repository"
	"github.com/unclebandit/donorhub-backend/internal/segmentation"
)

// SuggestionScriptMessage is returned by GenerateSuggestions: clustering runs offline.
const SuggestionScriptMessage = "use the generate-segment-suggestions script to generate suggestions"

type SegmentService struct {
	AudienceRepo repository.AudienceRepositoryInterface
	DonatorRepo  repository.DonatorRepositoryInterface
	OrgRepo      repository.OrganizationRepositoryInterface
	Now          func() time.Time
}

func (s *SegmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// AudienceSummary is the list shape shared by audiences and segments.
type AudienceSummary struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  *string            `json:"description"`
	Type         model.AudienceType `json:"type"`
	DonatorCount *int               `json:"donatorCount"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func summarize(a *model.Audience) AudienceSummary {
	return AudienceSummary{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Type:         a.Type,
		DonatorCount: a.DonatorCount(),
		CreatedAt:    a.CreatedAt,
	}
}

// ListAudiences returns every audience of the organization ordered by name.
func (s *SegmentService) ListAudiences(ctx context.Context, organizationID string) ([]AudienceSummary, error) {
	audiences, err := s.AudienceRepo.ListByName(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	out := make([]AudienceSummary, 0, len(audiences))
	for _, a := range audiences {
		out = append(out, summarize(a))
	}
	return out, nil
}

type SegmentList struct {
	Segments []AudienceSummary `json:"segments"`
	Total    int               `json:"total"`
}

// ListSegments pages through segments newest first. Unknown type filters are ignored.
func (s *SegmentService) ListSegments(ctx context.Context, organizationID, typ string, limit, offset int) (*SegmentList, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var filter model.AudienceType
	if t := model.AudienceType(typ); t == model.AudienceStatic || t == model.AudienceDynamic {
		filter = t
	}

	rows, total, err := s.AudienceRepo.ListSegments(ctx, organizationID, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	out := &SegmentList{Segments: make([]AudienceSummary, 0, len(rows)), Total: total}
	for _, a := range rows {
		out.Segments = append(out.Segments, summarize(a))
	}
	return out, nil
}

type CreateSegmentInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Type        string          `json:"type"`
	Rules       json.RawMessage `json:"rules"`
	DonatorIDs  []string        `json:"donatorIds"`
}

// CreateSegment stores a segment. Dynamic segments with rules get their count cached
// immediately; static segments may start with members.
func (s *SegmentService) CreateSegment(ctx context.Context, organizationID string, in CreateSegmentInput) (*AudienceSummary, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, appErrors.NewValidation("name", "name is required")
	}
	typ := model.AudienceType(in.Type)
	if typ == "" {
		typ = model.AudienceStatic
	}
	if typ != model.AudienceStatic && typ != model.AudienceDynamic {
		return nil, appErrors.NewValidation("type", "type must be one of: STATIC, DYNAMIC")
	}

	a := &model.Audience{
		OrganizationID: organizationID,
		Name:           name,
		Description:    in.Description,
		Type:           typ,
	}

	var members []string
	if typ == model.AudienceDynamic {
		rules, err := segmentation.Parse(in.Rules)
		if err != nil {
			return nil, appErrors.NewValidation("rules", err.Error())
		}
		if rules != nil && rules.Group != nil {
			count, err := s.count(ctx, organizationID, *rules.Group)
			if err != nil {
				return nil, err
			}
			a.Rules = in.Rules
			a.CachedDonatorCount = &count
		}
	} else {
		members = in.DonatorIDs
	}

	if err := s.AudienceRepo.Create(ctx, a, members); err != nil {
		return nil, err
	}
	sum := summarize(a)
	return &sum, nil
}

// RefreshSegment re-evaluates a dynamic segment and stores the new count.
func (s *SegmentService) RefreshSegment(ctx context.Context, organizationID, segmentID string) (int, error) {
	a, err := s.AudienceRepo.GetByID(ctx, organizationID, segmentID)
	if err != nil {
		return 0, err
	}
	if a.Type != model.AudienceDynamic {
		return 0, appErrors.NewValidation("type", "refresh only applies to dynamic segments")
	}
	rules, err := segmentation.Parse(a.Rules)
	if err != nil {
		return 0, appErrors.NewValidation("rules", err.Error())
	}
	if rules == nil || rules.Group == nil {
		return 0, appErrors.NewValidation("rules", "segment has no rules")
	}

	count, err := s.count(ctx, organizationID, *rules.Group)
	if err != nil {
		return 0, err
	}
	if err := s.AudienceRepo.SetCachedCount(ctx, a.ID, count); err != nil {
		return 0, err
	}
	return count, nil
}

// EvaluateRules counts the organization's donators matching rules without saving anything.
func (s *SegmentService) EvaluateRules(ctx context.Context, organizationID string, raw json.RawMessage) (int, error) {
	rules, err := segmentation.Parse(raw)
	if err != nil {
		return 0, appErrors.NewValidation("rules", err.Error())
	}
	if rules == nil || rules.Group == nil {
		return 0, appErrors.NewValidation("rules", "rules are required")
	}
	return s.count(ctx, organizationID, *rules.Group)
}

func (s *SegmentService) count(ctx context.Context, organizationID string, group segmentation.RuleGroup) (int, error) {
	return s.DonatorRepo.CountMatching(ctx, segmentation.Compile(group, organizationID, s.now()))
}

type GenerateSuggestionsResult struct {
	Success            bool   `json:"success"`
	SuggestionsCreated int    `json:"suggestionsCreated"`
	Message            string `json:"message"`
}

// GenerateSuggestions only checks the organization exists. Suggestions come from an offline job.
func (s *SegmentService) GenerateSuggestions(ctx context.Context, organizationID string) (*GenerateSuggestionsResult, error) {
	if _, err := s.OrgRepo.GetByID(ctx, organizationID); err != nil {
		return nil, err
	}
	return &GenerateSuggestionsResult{Success: true, SuggestionsCreated: 0, Message: SuggestionScriptMessage}, nil
}

// AcceptSuggestion marks a suggestion accepted. The segment itself is created separately.
func (s *SegmentService) AcceptSuggestion(ctx context.Context, organizationID, suggestionID string) error {
	sug, err := s.AudienceRepo.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return err
	}
	if sug.OrganizationID != organizationID {
		return appErrors.NewForbidden("suggestion belongs to another organization")
	}
	if sug.IsAccepted {
		return appErrors.NewConflict("suggestion already accepted")
	}
	return s.AudienceRepo.AcceptSuggestion(ctx, suggestionID, s.now())
}
