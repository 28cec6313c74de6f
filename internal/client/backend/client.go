// Package backend is the client for the platform's backend HTTP API, which owns user
// accounts and donor records.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// RegisterRequest is the payload of POST /api/v1/auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UpdateUserRequest is the payload of PUT /api/v1/users/{id}. Nil fields are omitted.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Password  *string `json:"password,omitempty"`
	Role      *string `json:"role,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type UpdateUserResponse struct {
	ID       string `json:"id"`
	IsActive *bool  `json:"is_active"`
}

// Me resolves the user owning token.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterUser creates an account and returns its ID.
func (c *Client) RegisterUser(ctx context.Context, token string, req RegisterRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", token, req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UpdateUser(ctx context.Context, token, userID string, req UpdateUserRequest) (*UpdateUserResponse, error) {
	var out UpdateUserResponse
	path := "/api/v1/users/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodPut, path, token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(userID), token, nil, nil)
}

// ProxyResponse is an upstream answer passed through as is.
type ProxyResponse struct {
	StatusCode int
	Body       []byte
}

// ListDonors forwards a donor search to /api/v1/organizations/{id}/donors.
// authHeader is the caller's Authorization header, forwarded untouched.
func (c *Client) ListDonors(ctx context.Context, authHeader, organizationID string, query url.Values) (*ProxyResponse, error) {
	u := fmt.Sprintf("%s/api/v1/organizations/%s/donors", c.BaseURL, url.PathEscape(organizationID))
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}
	return &ProxyResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErrors.NewUpstream(resp.StatusCode, errorDetail(raw, resp.StatusCode))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

// errorDetail extracts FastAPI-style error details: a string, or a list of {msg}
// joined by ", ". It falls back to the HTTP status text.
func errorDetail(raw []byte, status int) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Detail) > 0 {
		var s string
		if json.Unmarshal(env.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(env.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				msgs = append(msgs, it.Msg)
			}
			return strings.Join(msgs, ", ")
		}
	}
	return http.StatusText(status)
}
