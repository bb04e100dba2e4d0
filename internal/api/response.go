package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/uosnotice/programrank/internal/logging"
	"github.com/uosnotice/programrank/internal/recommend"
	"github.com/uosnotice/programrank/internal/service"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Error APIError `json:"error"`
}

// APIError describes a failed request
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		log := logging.Ctx(r.Context())
		log.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log := logging.Ctx(r.Context())
		log.Debug().Err(err).Msg("failed to write JSON response")
	}
}

// respondError sends an error response. err is logged, never sent.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		log := logging.Ctx(r.Context())
		log.Error().Err(err).Str("code", code).Str("path", r.URL.Path).Msg("API error")
	}
	respondJSON(w, r, status, ErrorBody{Error: APIError{Code: code, Message: message}})
}

// respondServiceError maps service errors onto status codes
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", err)
	}
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// unchanged.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
