package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/server"
	pkgcatalog "github.com/HerbHall/dnsswitch/pkg/catalog"
)

// ProvidersResponse is the response for GET /api/v1/providers.
type ProvidersResponse struct {
	Count     int                   `json:"count"`
	Providers []pkgcatalog.Provider `json:"providers"`
}

// Handler serves the provider catalog API.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a new catalog API handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/providers", h.handleList)
	mux.HandleFunc("GET /api/v1/providers/{name}", h.handleGet)
}

// handleList returns every known provider.
//
//	@Summary		List DoH providers
//	@Description	Returns the built-in DoH provider catalog in display order.
//	@Tags			providers
//	@Produce		json
//	@Success		200 {object} ProvidersResponse
//	@Failure		500 {object} server.Problem
//	@Router			/providers [get]
func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	providers, err := h.engine.Providers()
	if err != nil {
		h.logger.Error("failed to load catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	if providers == nil {
		providers = []pkgcatalog.Provider{}
	}
	writeJSON(w, http.StatusOK, ProvidersResponse{Count: len(providers), Providers: providers})
}

// handleGet returns one provider by name.
//
//	@Summary		Get DoH provider
//	@Tags			providers
//	@Produce		json
//	@Param			name path string true "Provider name"
//	@Success		200 {object} pkgcatalog.Provider
//	@Failure		404 {object} server.Problem
//	@Failure		500 {object} server.Problem
//	@Router			/providers/{name} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Lookup(r.PathValue("name"))
	switch {
	case errors.Is(err, ErrUnknownProvider):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.logger.Error("failed to load catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
	default:
		writeJSON(w, http.StatusOK, p)
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
