package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/render"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

type UserAdminService interface {
	Create(ctx context.Context, token string, in service.CreateUserInput) (string, error)
	Update(ctx context.Context, token, userID string, in service.UpdateUserInput) error
	Delete(ctx context.Context, token, actorID, userID string) error
	ToggleStatus(ctx context.Context, token, actorID, userID string, currentIsActive bool) (bool, error)
}

// UserController manages accounts through the backend API with the caller's token.
type UserController struct {
	UserService UserAdminService
	Logger      *zap.Logger
}

func (c *UserController) Create(w http.ResponseWriter, r *http.Request) {
	var body service.CreateUserInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to create user")
		return
	}
	id, err := c.UserService.Create(r.Context(), principal(r).Token, body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to create user")
		return
	}
	render.JSON(w, http.StatusCreated, map[string]any{"success": true, "userId": id})
}

func (c *UserController) Update(w http.ResponseWriter, r *http.Request) {
	var body service.UpdateUserInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to update user")
		return
	}
	if err := c.UserService.Update(r.Context(), principal(r).Token, chi.URLParam(r, "id"), body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to update user")
		return
	}
	render.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (c *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := c.UserService.Delete(r.Context(), p.Token, p.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err, "Failed to delete user")
		return
	}
	render.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (c *UserController) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsActive bool `json:"isActive"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to update user status")
		return
	}
	p := principal(r)
	active, err := c.UserService.ToggleStatus(r.Context(), p.Token, p.UserID, chi.URLParam(r, "id"), body.IsActive)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to update user status")
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"success": true, "isActive": active})
}
