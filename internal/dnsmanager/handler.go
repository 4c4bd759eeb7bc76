package dnsmanager

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/server"
)

// InterfaceResponse describes one configurable interface.
type InterfaceResponse struct {
	netif.Interface
	MAC string `json:"mac,omitempty"`
}

// WorkflowRequest is the body of PUT /api/v1/interfaces/{name}/dns.
type WorkflowRequest struct {
	Servers   []string `json:"servers"`
	EnableDoh bool     `json:"enable_doh"`
	Template  string   `json:"template"`
}

// WorkflowResponse reports the outcome and status messages of a workflow.
type WorkflowResponse struct {
	Success  bool     `json:"success"`
	Messages []string `json:"messages"`
}

// StatusResponse is the response for GET /api/v1/interfaces/{name}/status.
type StatusResponse struct {
	Interface string `json:"interface"`
	Status    string `json:"status"`
}

// Handler exposes the workflows over HTTP. Mutating requests run one at a
// time.
type Handler struct {
	mgr    *Manager
	logger *zap.Logger
	mu     sync.Mutex
}

// NewHandler creates a workflow API handler.
func NewHandler(mgr *Manager, logger *zap.Logger) *Handler {
	return &Handler{mgr: mgr, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/interfaces", h.handleList)
	mux.HandleFunc("GET /api/v1/interfaces/{name}/status", h.handleStatus)
	mux.HandleFunc("PUT /api/v1/interfaces/{name}/dns", h.handleSet)
	mux.HandleFunc("DELETE /api/v1/interfaces/{name}/dns", h.handleReset)
}

// handleList returns the interfaces that can be configured.
//
//	@Summary		List interfaces
//	@Description	Get the active Ethernet and wireless interfaces.
//	@Tags			interfaces
//	@Produce		json
//	@Success		200	{array}		InterfaceResponse	"Configurable interfaces"
//	@Failure		500	{object}	server.Problem		"Internal server error"
//	@Router			/interfaces [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ifaces, err := h.mgr.ListActiveInterfaces(r.Context())
	if err != nil {
		h.logger.Error("failed to list interfaces", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to enumerate interfaces")
		return
	}
	out := make([]InterfaceResponse, len(ifaces))
	for i := range ifaces {
		out[i] = InterfaceResponse{Interface: ifaces[i], MAC: ifaces[i].MAC()}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStatus describes the resolvers and DoH state of one interface.
//
//	@Summary		Get interface DNS status
//	@Tags			interfaces
//	@Produce		json
//	@Param			name	path		string			true	"Interface name"
//	@Success		200		{object}	StatusResponse	"Status text"
//	@Router			/interfaces/{name}/status [get]
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	writeJSON(w, http.StatusOK, StatusResponse{
		Interface: name,
		Status:    h.mgr.GetStatus(r.Context(), name),
	})
}

// handleSet applies static resolvers and DoH to one interface.
//
//	@Summary		Set DNS
//	@Description	Point the interface at up to two servers and enable or disable DoH. Runs to completion even if the client disconnects.
//	@Tags			interfaces
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string			true	"Interface name"
//	@Param			request		body		WorkflowRequest	true	"Servers and DoH settings"
//	@Success		200			{object}	WorkflowResponse	"Workflow succeeded"
//	@Failure		400			{object}	server.Problem		"Invalid request body"
//	@Failure		422			{object}	WorkflowResponse	"Workflow failed"
//	@Router			/interfaces/{name}/dns [put]
func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req WorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	name := r.PathValue("name")
	h.run(w, func(m *Manager) bool {
		return m.SetDNS(r.Context(), name, req.Servers, req.EnableDoh, req.Template)
	})
}

// handleReset returns one interface to DHCP resolvers and clears DoH.
//
//	@Summary		Reset DNS
//	@Tags			interfaces
//	@Produce		json
//	@Param			name	path		string				true	"Interface name"
//	@Success		200		{object}	WorkflowResponse	"Workflow succeeded"
//	@Failure		422		{object}	WorkflowResponse	"Workflow failed"
//	@Router			/interfaces/{name}/dns [delete]
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	h.run(w, func(m *Manager) bool {
		return m.ResetDNS(r.Context(), name)
	})
}

// run executes fn with a per-request status collector and writes the
// collected messages.
func (h *Handler) run(w http.ResponseWriter, fn func(*Manager) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	messages := []string{}
	ok := fn(h.mgr.WithStatus(func(msg string) {
		messages = append(messages, msg)
	}))

	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, WorkflowResponse{Success: ok, Messages: messages})
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
