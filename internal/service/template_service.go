// internal/service/template_service.go
package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/repository"
)

// RenderTemplate replaces every {key} placeholder in template with data[key] in a
// single pass, so substituted values are never expanded again.
func RenderTemplate(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// DonatorPlaceholders are the values a campaign template can reference.
// Missing names fall back to the generic "Friend".
func DonatorPlaceholders(d *model.Donator) map[string]string {
	first, last := "", ""
	if d.FirstName != nil {
		first = *d.FirstName
	}
	if d.LastName != nil {
		last = *d.LastName
	}
	if first == "" {
		first = "Friend"
	}
	return map[string]string{
		"first_name": first,
		"last_name":  last,
		"full_name":  d.DisplayName(),
		"email":      d.Email,
	}
}

type EmailTemplateService struct {
	Repo repository.EmailTemplateRepositoryInterface
}

type CreateTemplateInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Content     json.RawMessage `json:"content"`
	HTML        string          `json:"html"`
	Thumbnail   *string         `json:"thumbnail"`
}

func (s *EmailTemplateService) Create(ctx context.Context, organizationID string, in CreateTemplateInput) (*model.EmailTemplate, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, appErrors.NewValidation("name", "name is required")
	}
	if strings.TrimSpace(in.HTML) == "" {
		return nil, appErrors.NewValidation("html", "html is required")
	}
	if len(in.Content) > 0 && !json.Valid(in.Content) {
		return nil, appErrors.NewValidation("content", "content must be valid JSON")
	}
	t := &model.EmailTemplate{
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Content:        in.Content,
		HTML:           in.HTML,
		Thumbnail:      in.Thumbnail,
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *EmailTemplateService) Get(ctx context.Context, organizationID, id string) (*model.EmailTemplate, error) {
	return s.Repo.GetByID(ctx, organizationID, id)
}

func (s *EmailTemplateService) List(ctx context.Context, organizationID string) ([]*model.EmailTemplate, error) {
	return s.Repo.List(ctx, organizationID)
}

// UpdateTemplateInput is a partial update; nil fields are left unchanged.
type UpdateTemplateInput struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Content     json.RawMessage `json:"content"`
	HTML        *string         `json:"html"`
	Thumbnail   *string         `json:"thumbnail"`
}

func (s *EmailTemplateService) Update(ctx context.Context, organizationID, id string, in UpdateTemplateInput) (*model.EmailTemplate, error) {
	t, err := s.Repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, appErrors.NewValidation("name", "name is required")
		}
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if len(in.Content) > 0 {
		if !json.Valid(in.Content) {
			return nil, appErrors.NewValidation("content", "content must be valid JSON")
		}
		t.Content = in.Content
	}
	if in.HTML != nil {
		if strings.TrimSpace(*in.HTML) == "" {
			return nil, appErrors.NewValidation("html", "html is required")
		}
		t.HTML = *in.HTML
	}
	if in.Thumbnail != nil {
		t.Thumbnail = in.Thumbnail
	}
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
