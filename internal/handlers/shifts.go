package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/middleware"
	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/pkg/response"
	"github.com/cgtm/cgtm_backend/internal/shiftengine"
	"github.com/cgtm/cgtm_backend/internal/store"
	"github.com/cgtm/cgtm_backend/internal/ws"
)

type ShiftsHandler struct {
	store  *store.Client
	engine *shiftengine.Engine
	hub    *ws.Hub
	logger *zap.Logger
}

func NewShiftsHandler(st *store.Client, engine *shiftengine.Engine, hub *ws.Hub, logger *zap.Logger) *ShiftsHandler {
	return &ShiftsHandler{store: st, engine: engine, hub: hub, logger: logger}
}

// failureStatus maps an engine failure to an HTTP status code.
func failureStatus(kind shiftengine.FailureKind) int {
	switch kind {
	case shiftengine.KindNotFound:
		return http.StatusNotFound
	case shiftengine.KindNotOwner:
		return http.StatusForbidden
	case shiftengine.KindNotActive:
		return http.StatusBadRequest
	default:
		// Unavailable, Conflict, TooLate, HandoffRequired
		return http.StatusConflict
	}
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

// GetAvailableShiftsHandler lists the published shifts a caregiver can see:
// every open shift plus their own assignments.
func (h *ShiftsHandler) GetAvailableShiftsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	visible := []models.ScheduledShift{}
	for _, s := range h.store.ListScheduledShifts(r.Context()) {
		if s.IsOpen() || s.CaregiverID == userID {
			visible = append(visible, s)
		}
	}
	response.RespondWithJSON(w, http.StatusOK, visible)
}

// GetMyShiftsHandler lists the caregiver's claimed upcoming shifts.
func (h *ShiftsHandler) GetMyShiftsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	mine := []models.ScheduledShift{}
	for _, s := range h.store.ListScheduledShifts(r.Context()) {
		if s.CaregiverID == userID {
			mine = append(mine, s)
		}
	}
	response.RespondWithJSON(w, http.StatusOK, mine)
}

func (h *ShiftsHandler) ClaimShiftHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	shiftID := chi.URLParam(r, "shiftID")

	result := h.engine.ClaimShift(r.Context(), shiftID, userID)
	if !result.Success {
		response.RespondWithError(w, failureStatus(result.Kind), result.Message)
		return
	}

	h.hub.BroadcastEvent("shift_claimed", map[string]string{
		"shiftId":     shiftID,
		"caregiverId": userID,
	})
	response.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ShiftsHandler) DropShiftHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	shiftID := chi.URLParam(r, "shiftID")

	result := h.engine.DropShift(r.Context(), shiftID, userID)
	if !result.Success {
		response.RespondWithError(w, failureStatus(result.Kind), result.Message)
		return
	}

	h.hub.BroadcastEvent("shift_dropped", map[string]string{
		"shiftId":     shiftID,
		"caregiverId": userID,
	})
	response.RespondWithJSON(w, http.StatusOK, result)
}

// ClockInHandler starts a worked shift. When another caregiver is still
// clocked in and the handoff has not been confirmed, the conflict response
// names them so the client can ask for confirmation.
func (h *ShiftsHandler) ClockInHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body struct {
		ConfirmHandoff bool `json:"confirmHandoff"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	result := h.engine.ClockIn(r.Context(), userID, body.ConfirmHandoff)
	if !result.Success {
		response.RespondWithJSON(w, failureStatus(result.Kind), result)
		return
	}

	h.hub.BroadcastEvent("clock_in", map[string]string{
		"shiftId":     result.Shift.ID,
		"caregiverId": userID,
	})
	response.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *ShiftsHandler) ClockOutHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var body struct {
		ShiftID string `json:"shiftId"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	shiftID := body.ShiftID
	if shiftID == "" {
		active, found := h.activeShiftFor(r, userID)
		if !found {
			response.RespondWithError(w, http.StatusNotFound, "No active shift found")
			return
		}
		shiftID = active.ID
	}

	shift, found := h.store.GetShift(r.Context(), shiftID)
	if !found {
		response.RespondWithError(w, http.StatusNotFound, "Shift not found")
		return
	}
	if shift.CaregiverID != userID {
		response.RespondWithError(w, http.StatusForbidden, "This is not your shift")
		return
	}

	summary := h.engine.ClockOut(r.Context(), shiftID)
	if !summary.Success {
		response.RespondWithError(w, failureStatus(summary.Kind), summary.Message)
		return
	}

	h.hub.BroadcastEvent("clock_out", map[string]string{
		"shiftId":     shiftID,
		"caregiverId": userID,
	})
	response.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    summary.Message,
		"shift":      summary.Shift,
		"workedTime": response.FormatDuration(summary.DurationHours),
		"amount":     summary.Amount,
	})
}

// GetActiveShiftHandler returns the caregiver's in-progress shift, or a
// JSON null when they are not clocked in.
func (h *ShiftsHandler) GetActiveShiftHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	active, found := h.activeShiftFor(r, userID)
	if !found {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("null"))
		return
	}
	response.RespondWithJSON(w, http.StatusOK, active)
}

// GetShiftHistoryHandler lists the caregiver's completed shifts with worked
// time and the computed amount.
func (h *ShiftsHandler) GetShiftHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	history := []map[string]any{}
	for _, s := range h.store.ListShifts(r.Context()) {
		if s.CaregiverID != userID || s.Status != models.StatusCompleted {
			continue
		}
		history = append(history, map[string]any{
			"id":         s.ID,
			"startTime":  s.StartTime,
			"endTime":    s.EndTime,
			"workedTime": response.FormatDuration(shiftengine.ShiftDuration(s)),
			"payType":    s.PayType,
			"amount":     shiftengine.CalculatePay(s),
			"isPaid":     s.IsPaid,
		})
	}
	response.RespondWithJSON(w, http.StatusOK, history)
}

func (h *ShiftsHandler) activeShiftFor(r *http.Request, userID string) (*models.Shift, bool) {
	for _, s := range h.store.ListShifts(r.Context()) {
		if s.CaregiverID == userID && s.IsActive() {
			return &s, true
		}
	}
	return nil, false
}
