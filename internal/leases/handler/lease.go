package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"autolease/internal/leases/service"
	"autolease/internal/lifecycle"
	httputil "autolease/pkg/http"
	"autolease/pkg/logger"
	"autolease/pkg/middleware"
)

type LeaseHandler struct {
	service     service.LeaseService
	coordinator lifecycle.Coordinator
	log         *logger.Logger
}

func NewLeaseHandler(service service.LeaseService, coordinator lifecycle.Coordinator, log *logger.Logger) *LeaseHandler {
	return &LeaseHandler{
		service:     service,
		coordinator: coordinator,
		log:         log,
	}
}

type createLeaseRequest struct {
	VehicleID  string    `json:"vehicle_id"`
	LeaseStart time.Time `json:"lease_start"`
	LeaseEnd   time.Time `json:"lease_end"`
}

func (h *LeaseHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	now := time.Now().UTC()
	holderID := middleware.HolderID(r.Context())

	contract, err := h.coordinator.ConvertToLease(r.Context(), req.VehicleID, holderID, req.LeaseStart, req.LeaseEnd, now)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, service.NewLeaseView(contract, now)); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *LeaseHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	holderID := middleware.HolderID(r.Context())
	leases, total, err := h.service.GetByHolder(r.Context(), holderID, limit, offset, time.Now().UTC())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, leases, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *LeaseHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/leases", h.Create)
	router.GET("/api/v1/leases", h.GetAll)
}
