package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	d := &model.Donator{Email: "sam@example.org", FirstName: strPtr("Sam"), LastName: strPtr("Hill")}

	got := service.RenderTemplate("Hi {first_name} {last_name} ({email}), {unknown}", service.DonatorPlaceholders(d))
	assert.Equal(t, "Hi Sam Hill (sam@example.org), {unknown}", got)

	anon := service.DonatorPlaceholders(&model.Donator{Email: "x@example.org"})
	assert.Equal(t, "Friend", anon["first_name"])
	assert.Equal(t, "x@example.org", anon["full_name"])
}

func TestRenderTemplate_ValuesAreNotReexpanded(t *testing.T) {
	d := &model.Donator{Email: "x@y.z", FirstName: strPtr("{email}")}

	for i := 0; i < 50; i++ {
		got := service.RenderTemplate("Hi {first_name}", service.DonatorPlaceholders(d))
		require.Equal(t, "Hi {email}", got)
	}
}

func TestEmailTemplateCreate(t *testing.T) {
	svc := &service.EmailTemplateService{Repo: newMockTemplateRepo()}

	tpl, err := svc.Create(context.Background(), "org-1", service.CreateTemplateInput{
		Name: " Thank you ", HTML: "<p>Thanks</p>", Content: json.RawMessage(`[{"type":"text"}]`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Thank you", tpl.Name)
	assert.Equal(t, "org-1", tpl.OrganizationID)

	_, err = svc.Create(context.Background(), "org-1", service.CreateTemplateInput{Name: "x"})
	assert.EqualError(t, err, "html is required")

	_, err = svc.Create(context.Background(), "org-1", service.CreateTemplateInput{Name: "x", HTML: "y", Content: json.RawMessage(`[`)})
	assert.EqualError(t, err, "content must be valid JSON")
}

func TestEmailTemplateUpdate_Partial(t *testing.T) {
	repo := newMockTemplateRepo(&model.EmailTemplate{ID: "tpl-1", OrganizationID: "org-1", Name: "Old", HTML: "<p>old</p>"})
	svc := &service.EmailTemplateService{Repo: repo}

	tpl, err := svc.Update(context.Background(), "org-1", "tpl-1", service.UpdateTemplateInput{HTML: strPtr("<p>new</p>")})
	require.NoError(t, err)
	assert.Equal(t, "Old", tpl.Name)
	assert.Equal(t, "<p>new</p>", repo.updated.HTML)

	_, err = svc.Update(context.Background(), "org-1", "tpl-1", service.UpdateTemplateInput{Name: strPtr(" ")})
	assert.EqualError(t, err, "name is required")

	_, err = svc.Update(context.Background(), "org-2", "tpl-1", service.UpdateTemplateInput{})
	assert.EqualError(t, err, "template not found")
}
