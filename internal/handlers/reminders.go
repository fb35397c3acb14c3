package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/pkg/response"
	"github.com/cgtm/cgtm_backend/internal/reminder"
)

type ReminderHandler struct {
	service *reminder.Service
	logger  *zap.Logger
}

func NewReminderHandler(service *reminder.Service, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{service: service, logger: logger}
}

// ScanHandler runs one reminder sweep. This is the endpoint external cron
// hits; the in-process loop calls the service directly.
func (h *ReminderHandler) ScanHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ScanAndSend(r.Context())
	if err != nil {
		h.logger.Error("Reminder scan failed", zap.Error(err))
		response.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.RespondWithJSON(w, http.StatusOK, report)
}

// SendNowHandler pushes a single reminder immediately, skipping the
// lead-window check.
func (h *ReminderHandler) SendNowHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CaregiverID        string `json:"caregiverId"`
		ShiftName          string `json:"shiftName"`
		ScheduledStartTime string `json:"scheduledStartTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if body.CaregiverID == "" || body.ScheduledStartTime == "" {
		response.RespondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "Missing required fields",
			"required": []string{"caregiverId", "scheduledStartTime"},
		})
		return
	}

	startAt, err := time.Parse(time.RFC3339, body.ScheduledStartTime)
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "scheduledStartTime must be RFC 3339")
		return
	}

	result, err := h.service.SendNow(r.Context(), body.CaregiverID, body.ShiftName, startAt)
	if err != nil {
		var noToken *reminder.NoTokenError
		if errors.As(err, &noToken) {
			response.RespondWithJSON(w, http.StatusNotFound, map[string]any{
				"error":           "Caregiver has no registered push token",
				"caregiverId":     noToken.CaregiverID,
				"hint":            "The caregiver must open the app and allow notifications first",
				"registeredUsers": noToken.Registered,
			})
			return
		}
		h.logger.Error("Manual reminder failed", zap.Error(err))
		response.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !result.Success {
		status := result.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		response.RespondWithJSON(w, status, map[string]any{
			"success":  false,
			"status":   result.Status,
			"error":    "Push delivery failed",
			"response": result.Response,
		})
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"status":   result.Status,
		"message":  "Reminder sent",
		"response": result.Response,
	})
}
