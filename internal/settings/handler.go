package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/server"
)

// InterfaceRequest is the body of PUT /api/v1/settings/default-interface.
type InterfaceRequest struct {
	InterfaceName string `json:"interface_name"`
}

// InterfaceResolver checks that an interface can be configured.
type InterfaceResolver interface {
	Resolve(ctx context.Context, name string) (netif.Interface, error)
}

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	repo       Repository
	interfaces InterfaceResolver
	logger     *zap.Logger
}

// NewHandler creates a settings Handler.
func NewHandler(repo Repository, interfaces InterfaceResolver, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, interfaces: interfaces, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings", h.handleList)
	mux.HandleFunc("GET /api/v1/settings/default-interface", h.handleGetDefault)
	mux.HandleFunc("PUT /api/v1/settings/default-interface", h.handleSetDefault)
}

// handleList returns every saved setting.
//
//	@Summary		List settings
//	@Description	Get all saved key/value settings.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{array}		Setting			"Saved settings"
//	@Failure		500	{object}	server.Problem	"Internal server error"
//	@Router			/settings [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list settings")
		return
	}
	if all == nil {
		all = []Setting{}
	}
	writeJSON(w, http.StatusOK, all)
}

// handleGetDefault returns the default interface, empty when unset.
//
//	@Summary		Get default interface
//	@Description	Get the interface used when a command names none.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	InterfaceRequest	"Default interface"
//	@Failure		500	{object}	server.Problem		"Internal server error"
//	@Router			/settings/default-interface [get]
func (h *Handler) handleGetDefault(w http.ResponseWriter, r *http.Request) {
	name, err := DefaultInterface(r.Context(), h.repo)
	if err != nil {
		h.logger.Error("failed to get default interface", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get default interface")
		return
	}
	writeJSON(w, http.StatusOK, InterfaceRequest{InterfaceName: name})
}

// handleSetDefault saves the default interface. An empty name clears it.
//
//	@Summary		Set default interface
//	@Description	Remember which interface to configure when none is named.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		InterfaceRequest	true	"Interface to use"
//	@Success		200		{object}	InterfaceRequest	"Interface saved"
//	@Failure		400		{object}	server.Problem		"Invalid request or interface not found"
//	@Failure		500		{object}	server.Problem		"Internal server error"
//	@Router			/settings/default-interface [put]
func (h *Handler) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	var req InterfaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	if req.InterfaceName == "" {
		if err := h.repo.Delete(ctx, KeyDefaultInterface); err != nil && !errors.Is(err, ErrNotFound) {
			h.logger.Error("failed to clear default interface", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to clear default interface")
			return
		}
		writeJSON(w, http.StatusOK, req)
		return
	}

	if _, err := h.interfaces.Resolve(ctx, req.InterfaceName); err != nil {
		if errors.Is(err, netif.ErrInterfaceNotFound) {
			writeError(w, http.StatusBadRequest, "interface not found: "+req.InterfaceName)
			return
		}
		h.logger.Error("failed to validate interface", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to validate interface")
		return
	}
	if err := h.repo.Set(ctx, KeyDefaultInterface, req.InterfaceName); err != nil {
		h.logger.Error("failed to set default interface", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save default interface")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an RFC 7807 problem response.
func writeError(w http.ResponseWriter, status int, detail string) {
	server.Error(w, status, detail, "")
}
