// Package handler exposes the identity-resolution HTTP surface.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brighthive/master-client-index/internal/individual/models"
	"github.com/brighthive/master-client-index/internal/individual/service"
	"github.com/brighthive/master-client-index/internal/transport/http/shared"
	dErrors "github.com/brighthive/master-client-index/pkg/domain-errors"
)

// Verbatim API error texts. Part of the wire contract; do not reword.
const (
	errMalformedBody    = "Malformed or empty JSON object found in request body."
	errPagingNotInteger = "Offset and Limit must be integers."
	errPagingNegative   = "Offset and Limit must be positive integers."
)

// Service defines the resolution operations the handler depends on.
type Service interface {
	Submit(ctx context.Context, raw map[string]any) (service.Outcome, error)
	Get(ctx context.Context, mciID string) (models.Detail, error)
	List(ctx context.Context, offset, limit int) (service.Page, error)
	RemovePII(ctx context.Context, mciID string) error
}

// Handler handles the /users endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates the individual Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register mounts the individual routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/users", h.handleSubmit)
	r.Get("/users", h.handleList)
	r.Get("/users/{mci_id}", h.handleGet)
	r.Post("/users/remove-pii", h.handleRemovePII)
}

// handleSubmit resolves one submitted record. 201 when a new individual was
// created, 200 with a match probability when an existing one matched.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, ok := decodeObject(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, errMalformedBody))
		return
	}

	outcome, err := h.service.Submit(ctx, raw)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if outcome.Created {
		shared.WriteJSON(w, http.StatusCreated, outcome.Summary)
		return
	}
	shared.WriteJSON(w, http.StatusOK, matchedResponse{
		Summary:          outcome.Summary,
		MatchProbability: *outcome.MatchProbability,
	})
}

// handleGet returns one individual by identifier. Unknown identifiers are
// 410: they never existed or are permanently gone, either way unresolvable.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	mciID := chi.URLParam(r, "mci_id")

	detail, err := h.service.Get(r.Context(), mciID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, detail)
}

// handleList returns one page of the population. An empty page is a 404
// with an empty users array.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parsePaging(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	page, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if len(page.Individuals) == 0 {
		shared.WriteJSON(w, http.StatusNotFound, listResponse{Users: []models.Summary{}, Total: page.Total})
		return
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Users: page.Individuals, Total: page.Total})
}

// handleRemovePII erases the PII of the identified individual.
func (h *Handler) handleRemovePII(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeObject(r)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, errMalformedBody))
		return
	}
	mciID, ok := raw["mci_id"].(string)
	if !ok || mciID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, errMalformedBody))
		return
	}

	if err := h.service.RemovePII(r.Context(), mciID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Successfully removed PII for " + mciID,
	})
}

type matchedResponse struct {
	models.Summary
	MatchProbability float64 `json:"match_probability"`
}

type listResponse struct {
	Users []models.Summary `json:"users"`
	Total int              `json:"total"`
}

// decodeObject decodes the request body as a single JSON object. Anything
// else, an array, a bare scalar, an empty body, or trailing garbage, is
// malformed.
func decodeObject(r *http.Request) (map[string]any, bool) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return raw, true
}

// parsePaging reads offset and limit query parameters. Absent parameters
// default to the first page; present ones must be non-negative integers.
func parsePaging(r *http.Request) (offset, limit int, err error) {
	query := r.URL.Query()

	offset, err = pagingParam(query.Get("offset"), 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err = pagingParam(query.Get("limit"), 0)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func pagingParam(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, errPagingNotInteger)
	}
	if n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, errPagingNegative)
	}
	return n, nil
}
