// Package handler holds the pass-through endpoints that front external APIs.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/client/backend"
	"github.com/unclebandit/donorhub-backend/internal/render"
)

type DonorLister interface {
	ListDonors(ctx context.Context, authHeader, organizationID string, query url.Values) (*backend.ProxyResponse, error)
}

// DonorHandler proxies donor searches to the backend API.
type DonorHandler struct {
	Backend DonorLister
	Logger  *zap.Logger
}

// ListDonators forwards every query parameter except organizationId, and the caller's
// Authorization header. The upstream status and JSON body are passed through.
func (h *DonorHandler) ListDonators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	organizationID := q.Get("organizationId")
	if organizationID == "" {
		render.Error(w, http.StatusBadRequest, "organizationId is required")
		return
	}
	q.Del("organizationId")

	resp, err := h.Backend.ListDonors(r.Context(), r.Header.Get("Authorization"), organizationID, q)
	if err != nil {
		h.Logger.Error("failed to fetch donators", zap.String("organization_id", organizationID), zap.Error(err))
		render.Error(w, http.StatusInternalServerError, "Failed to fetch donators")
		return
	}

	body := resp.Body
	if !json.Valid(body) {
		body = []byte("{}")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}
