package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"autolease/internal/lifecycle"
	"autolease/internal/reservations/service"
	httputil "autolease/pkg/http"
	"autolease/pkg/logger"
	"autolease/pkg/middleware"
	"autolease/pkg/model"
)

type ReservationHandler struct {
	service     service.ReservationService
	coordinator lifecycle.Coordinator
	log         *logger.Logger
}

func NewReservationHandler(service service.ReservationService, coordinator lifecycle.Coordinator, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:     service,
		coordinator: coordinator,
		log:         log,
	}
}

type createReservationRequest struct {
	VehicleID   string    `json:"vehicle_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	reservation := &model.Reservation{
		VehicleID:   req.VehicleID,
		HolderID:    middleware.HolderID(r.Context()),
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
	}

	if err := h.coordinator.Reserve(r.Context(), reservation, time.Now().UTC()); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	now := time.Now().UTC()

	// Expiry is settled lazily on the read path, so listings never show
	// reservations whose window has already ended.
	if err := h.coordinator.SweepExpired(r.Context(), now); err != nil {
		h.log.Warn("Expiry sweep failed, listing may include stale entries", "error", err)
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	vehicleID := r.URL.Query().Get("vehicle_id")

	reservations, total, err := h.service.GetActive(r.Context(), vehicleID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	reservation, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	holderID := middleware.HolderID(r.Context())

	if err := h.coordinator.Release(r.Context(), id, holderID, time.Now().UTC()); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Release", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.GetAll)
	router.GET("/api/v1/reservations/:id", h.GetByID)
	router.DELETE("/api/v1/reservations/:id", h.Release)
}
