package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/client/unsplash"
	"github.com/unclebandit/donorhub-backend/internal/render"
)

type ImageSearcher interface {
	Search(ctx context.Context, query string) ([]unsplash.Image, error)
}

// ImageHandler serves stock photo search for the template editor.
type ImageHandler struct {
	Images ImageSearcher
	Logger *zap.Logger
}

func (h *ImageHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		render.Error(w, http.StatusBadRequest, "Missing query")
		return
	}
	images, err := h.Images.Search(r.Context(), q)
	if errors.Is(err, unsplash.ErrNotConfigured) {
		render.Error(w, http.StatusServiceUnavailable, "Image search not configured")
		return
	}
	if err != nil {
		h.Logger.Error("image search failed", zap.String("query", q), zap.Error(err))
		render.Error(w, http.StatusInternalServerError, "Search failed")
		return
	}
	if images == nil {
		images = []unsplash.Image{}
	}
	render.JSON(w, http.StatusOK, images)
}
