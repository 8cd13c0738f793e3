package handlers

import (
	"context"
	"delivery-sim-service/internal/api/dto"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/ports"
	"delivery-sim-service/internal/services"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// DeliveryResetter clears persisted delivery timestamps of a vehicle.
type DeliveryResetter interface {
	ResetDeliveries(ctx context.Context, vehicleID string) error
}

// VehicleTracker drops whatever a live feed remembers about a vehicle.
type VehicleTracker interface {
	Forget(ctx context.Context, vehicleID string) error
}

// SessionHandler exposes the simulation session lifecycle over HTTP.
// Resetter and Tracker are optional.
type SessionHandler struct {
	Orchestrator *services.Orchestrator
	Launcher     *services.Launcher
	Resetter     DeliveryResetter
	Tracker      VehicleTracker
}

// Sessions serves GET (list states) and POST (launch a session) on /sessions.
func (h *SessionHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.launch(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	states := h.Orchestrator.States()
	res := dto.ListSessionsResponse{Vehicles: make([]dto.VehicleStateResponse, 0, len(states))}
	for _, st := range states {
		res.Vehicles = append(res.Vehicles, toStateResponse(st))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *SessionHandler) launch(w http.ResponseWriter, r *http.Request) {
	var req dto.VehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vehicleID := strings.TrimSpace(req.VehicleID)
	if vehicleID == "" {
		writeError(w, r, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	sess, err := h.Launcher.Launch(r.Context(), vehicleID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}

	st, err := h.Orchestrator.State(vehicleID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.SessionStateResponse{
		Session: toSessionResponse(sess, st),
		State:   toStateResponse(st),
	})
}

// State returns the session and current state of ?vehicle_id=.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	vehicleID := strings.TrimSpace(r.URL.Query().Get("vehicle_id"))
	if vehicleID == "" {
		writeError(w, r, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	sess, err := h.Orchestrator.Session(vehicleID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	st, err := h.Orchestrator.State(vehicleID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SessionStateResponse{
		Session: toSessionResponse(sess, st),
		State:   toStateResponse(st),
	})
}

// Stop pauses a running session.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dto.VehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VehicleID) == "" {
		writeError(w, r, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	if err := h.Orchestrator.Stop(req.VehicleID); err != nil {
		writeSessionError(w, r, err)
		return
	}
	st, err := h.Orchestrator.State(req.VehicleID)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStateResponse(st))
}

// Clear discards a session, optionally resetting persisted deliveries.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dto.ClearSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VehicleID) == "" {
		writeError(w, r, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	if err := h.Orchestrator.Clear(req.VehicleID); err != nil {
		writeSessionError(w, r, err)
		return
	}

	if h.Tracker != nil {
		if err := h.Tracker.Forget(r.Context(), req.VehicleID); err != nil {
			log.Warn().Err(err).Str("vehicle_id", req.VehicleID).Msg("forget vehicle failed")
		}
	}
	if req.ResetDeliveries && h.Resetter != nil {
		if err := h.Resetter.ResetDeliveries(r.Context(), req.VehicleID); err != nil {
			log.Error().Err(err).Str("vehicle_id", req.VehicleID).Msg("reset deliveries failed")
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// FastForward reads (GET) or changes (POST) the simulated-time multiplier.
func (h *SessionHandler) FastForward(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req dto.FastForwardRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := h.Orchestrator.SetFastForward(req.Multiplier); err != nil {
			writeError(w, r, http.StatusBadRequest, "multiplier must be a positive number")
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FastForwardResponse{Multiplier: h.Orchestrator.FastForward()})
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, services.ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrSessionActive), errors.Is(err, services.ErrSessionComplete):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNoWaypoints), errors.Is(err, services.ErrDegeneratePath):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("session request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toPosition(c domain.Coordinates) dto.PositionResponse {
	return dto.PositionResponse{Lon: c.Lon, Lat: c.Lat}
}

func toStateResponse(st domain.VehicleSimulationState) dto.VehicleStateResponse {
	delivered := st.DeliveredPackageIDs
	if delivered == nil {
		delivered = []int{}
	}
	return dto.VehicleStateResponse{
		VehicleID:           st.VehicleID,
		Position:            toPosition(st.Position),
		RouteProgress:       st.RouteProgress,
		SpeedMph:            st.SpeedMph,
		DeliveredPackageIDs: delivered,
		IsActive:            st.IsActive,
		LastUpdate:          st.LastUpdate,
	}
}

func toSessionResponse(s services.Session, st domain.VehicleSimulationState) dto.SessionResponse {
	res := dto.SessionResponse{
		SessionID: s.ID,
		VehicleID: s.VehicleID,
		Status:    string(s.Status),
		SpeedMph:  s.SpeedMph,
		CreatedAt: s.CreatedAt,
		Waypoints: make([]dto.WaypointResponse, 0, len(s.Waypoints)),
		Skipped:   make([]dto.SkippedPackageResponse, 0, len(s.Skipped)),
	}
	for _, wp := range s.Waypoints {
		res.Waypoints = append(res.Waypoints, dto.WaypointResponse{
			PackageID:        wp.PackageID,
			Destination:      wp.DestinationLabel,
			RecipientName:    wp.RecipientName,
			Position:         toPosition(wp.Coordinates),
			RouteProgress:    wp.RouteProgress,
			DistanceFromPath: wp.DistanceFromPath,
			Delivered:        st.HasDelivered(wp.PackageID),
		})
	}
	for _, sk := range s.Skipped {
		res.Skipped = append(res.Skipped, dto.SkippedPackageResponse{
			PackageID:        sk.PackageID,
			Reason:           string(sk.Reason),
			DistanceFromPath: sk.DistanceFromPath,
		})
	}
	return res
}
