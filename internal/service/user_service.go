package service

import (
	"context"
	"strings"

	"github.com/unclebandit/donorhub-backend/internal/client/backend"
	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/validation"
)

// UserBackend is the part of the backend API that owns user accounts.
type UserBackend interface {
	RegisterUser(ctx context.Context, token string, req backend.RegisterRequest) (string, error)
	UpdateUser(ctx context.Context, token, userID string, req backend.UpdateUserRequest) (*backend.UpdateUserResponse, error)
	DeleteUser(ctx context.Context, token, userID string) error
}

// UserAdminService lets organization admins manage accounts through the backend API.
type UserAdminService struct {
	Backend UserBackend
}

type CreateUserInput struct {
	FirstName       string `json:"firstName" validate:"required,min=2"`
	LastName        string `json:"lastName" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Avatar          string `json:"avatar" validate:"omitempty,url"`
	Password        string `json:"password" validate:"password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=ADMIN DIRECTOR MANAGER"`
}

type UpdateUserInput struct {
	FirstName       string `json:"firstName" validate:"required,min=2"`
	LastName        string `json:"lastName" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Avatar          string `json:"avatar" validate:"omitempty,url"`
	Password        string `json:"password" validate:"omitempty,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=ADMIN DIRECTOR MANAGER"`
	IsActive        *bool  `json:"isActive"`
}

func (s *UserAdminService) Create(ctx context.Context, token string, in CreateUserInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return "", err
	}
	return s.Backend.RegisterUser(ctx, token, backend.RegisterRequest{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	})
}

func (s *UserAdminService) Update(ctx context.Context, token, userID string, in UpdateUserInput) error {
	in.Email = strings.TrimSpace(in.Email)
	// The confirmation only matters when a new password is set.
	if in.Password == "" {
		in.ConfirmPassword = ""
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	req := backend.UpdateUserRequest{
		FirstName: &firstName,
		LastName:  &lastName,
		Email:     &in.Email,
		Phone:     optional(in.Phone),
		Avatar:    optional(in.Avatar),
		Password:  optional(in.Password),
		Role:      optional(in.Role),
		IsActive:  in.IsActive,
	}
	_, err := s.Backend.UpdateUser(ctx, token, userID, req)
	return err
}

func (s *UserAdminService) Delete(ctx context.Context, token, actorID, userID string) error {
	if actorID == userID {
		return appErrors.NewForbidden("you cannot delete your own account")
	}
	return s.Backend.DeleteUser(ctx, token, userID)
}

// ToggleStatus flips is_active and reports the resulting value.
func (s *UserAdminService) ToggleStatus(ctx context.Context, token, actorID, userID string, currentIsActive bool) (bool, error) {
	if actorID == userID {
		return false, appErrors.NewForbidden("you cannot deactivate your own account")
	}
	next := !currentIsActive
	resp, err := s.Backend.UpdateUser(ctx, token, userID, backend.UpdateUserRequest{IsActive: &next})
	if err != nil {
		return false, err
	}
	if resp != nil && resp.IsActive != nil {
		return *resp.IsActive, nil
	}
	return next, nil
}
