package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/server"
)

// Handler serves the workflow history API.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a history API handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/history", h.handleList)
	mux.HandleFunc("GET /api/v1/history/{id}", h.handleGet)
}

// handleList returns recent entries, optionally filtered by ?interface=.
//
//	@Summary		List workflow history
//	@Description	Returns journaled set and reset workflows, newest first.
//	@Tags			history
//	@Produce		json
//	@Param			interface query string false "Only entries for this interface"
//	@Param			limit query int false "Maximum entries to return" default(50)
//	@Success		200 {array} Entry
//	@Failure		400 {object} server.Problem
//	@Failure		500 {object} server.Problem
//	@Router			/history [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ListOptions{Interface: q.Get("interface")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	entries, err := h.repo.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list journal", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGet returns one journal entry by ID.
//
//	@Summary		Get workflow history entry
//	@Tags			history
//	@Produce		json
//	@Param			id path string true "Entry ID"
//	@Success		200 {object} Entry
//	@Failure		404 {object} server.Problem
//	@Failure		500 {object} server.Problem
//	@Router			/history/{id} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.repo.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "no such journal entry")
	case err != nil:
		h.logger.Error("failed to read journal entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read history")
	default:
		writeJSON(w, http.StatusOK, e)
	}
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an RFC 7807 problem response.
func writeError(w http.ResponseWriter, status int, detail string) {
	server.Error(w, status, detail, "")
}
