// Package controller holds the HTTP handlers of the tenant and admin API.
package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/auth"
	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/render"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeError answers typed application errors with their own status and message.
// Anything else is logged and answered 500 with fallback.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, fallback string) {
	if appErrors.IsExpected(err) {
		render.Error(w, appErrors.StatusCode(err), err.Error())
		return
	}
	logger.Error(fallback,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	render.Error(w, http.StatusInternalServerError, fallback)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return appErrors.NewValidation("body", "request body is required")
		}
		return appErrors.NewValidation("body", "invalid request body")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be omitted.
func decodeOptionalJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.NewValidation("body", "invalid request body")
	}
	return nil
}

// queryInt returns the integer query parameter key, or def when absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func orgID(r *http.Request) string {
	return chi.URLParam(r, "orgID")
}

func principal(r *http.Request) *auth.Principal {
	if p := auth.FromContext(r.Context()); p != nil {
		return p
	}
	return &auth.Principal{}
}
