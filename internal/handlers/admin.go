package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/pkg/response"
	authService "github.com/cgtm/cgtm_backend/internal/services/auth"
	"github.com/cgtm/cgtm_backend/internal/shiftengine"
	"github.com/cgtm/cgtm_backend/internal/store"
	"github.com/cgtm/cgtm_backend/internal/ws"
)

type AdminHandler struct {
	store  *store.Client
	engine *shiftengine.Engine
	hub    *ws.Hub
	logger *zap.Logger
}

func NewAdminHandler(st *store.Client, engine *shiftengine.Engine, hub *ws.Hub, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{store: st, engine: engine, hub: hub, logger: logger}
}

// sanitizeUser strips the password hash before the record leaves the server.
func sanitizeUser(u models.User) models.User {
	u.Password = ""
	return u
}

func (h *AdminHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users := h.store.ListUsers(r.Context())
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, sanitizeUser(u))
	}
	response.RespondWithJSON(w, http.StatusOK, out)
}

type userRequest struct {
	Name       string         `json:"name"`
	Role       models.Role    `json:"role"`
	Phone      string         `json:"phone"`
	PIN        string         `json:"pin"`
	Email      string         `json:"email"`
	Password   string         `json:"password"`
	PayType    models.PayType `json:"payType"`
	HourlyRate float64        `json:"hourlyRate"`
	ShiftRate  float64        `json:"shiftRate"`
}

func (h *AdminHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if body.Name == "" || (body.Role != models.RoleAdmin && body.Role != models.RoleCaregiver) {
		response.RespondWithError(w, http.StatusBadRequest, "Name and a valid role are required")
		return
	}
	if body.Role == models.RoleCaregiver && (body.Phone == "" || body.PIN == "") {
		response.RespondWithError(w, http.StatusBadRequest, "Caregivers need a phone and PIN")
		return
	}
	if body.Role == models.RoleAdmin && (body.Email == "" || body.Password == "") {
		response.RespondWithError(w, http.StatusBadRequest, "Admins need an email and password")
		return
	}

	user := models.User{
		ID:         fmt.Sprintf("%s-%s", body.Role, uuid.NewString()),
		Name:       body.Name,
		Role:       body.Role,
		Phone:      body.Phone,
		PIN:        body.PIN,
		Email:      body.Email,
		PayType:    body.PayType,
		HourlyRate: body.HourlyRate,
		ShiftRate:  body.ShiftRate,
		IsActive:   true,
	}
	if user.Role == models.RoleCaregiver && user.PayType == "" {
		user.PayType = models.PayHourly
	}
	if body.Password != "" {
		hash, err := authService.HashPassword(body.Password)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		user.Password = hash
	}

	h.store.SaveUser(r.Context(), user)
	h.logger.Info("User created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	response.RespondWithJSON(w, http.StatusCreated, sanitizeUser(user))
}

type userUpdateRequest struct {
	Name       *string         `json:"name"`
	Phone      *string         `json:"phone"`
	PIN        *string         `json:"pin"`
	Email      *string         `json:"email"`
	Password   *string         `json:"password"`
	PayType    *models.PayType `json:"payType"`
	HourlyRate *float64        `json:"hourlyRate"`
	ShiftRate  *float64        `json:"shiftRate"`
	IsActive   *bool           `json:"isActive"`
}

func (h *AdminHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	updates := store.UserUpdate{
		Name:       body.Name,
		Phone:      body.Phone,
		PIN:        body.PIN,
		Email:      body.Email,
		PayType:    body.PayType,
		HourlyRate: body.HourlyRate,
		ShiftRate:  body.ShiftRate,
		IsActive:   body.IsActive,
	}
	if body.Password != nil && *body.Password != "" {
		hash, err := authService.HashPassword(*body.Password)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		updates.Password = &hash
	}

	user, found := h.store.UpdateUser(r.Context(), userID, updates)
	if !found {
		response.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	response.RespondWithJSON(w, http.StatusOK, sanitizeUser(*user))
}

func (h *AdminHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if _, found := h.store.GetUser(r.Context(), userID); !found {
		response.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	h.store.DeleteUser(r.Context(), userID)
	h.logger.Info("User deleted", zap.String("user_id", userID))
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (h *AdminHandler) ListScheduledShiftsHandler(w http.ResponseWriter, r *http.Request) {
	response.RespondWithJSON(w, http.StatusOK, h.store.ListScheduledShifts(r.Context()))
}

type scheduledShiftRequest struct {
	Date      string `json:"date"`      // "2006-01-02"
	StartTime string `json:"startTime"` // "15:04"
	EndTime   string `json:"endTime"`   // "15:04"
	ShiftName string `json:"shiftName"`
}

func parseShiftWindow(date, start, end string) (time.Time, time.Time, error) {
	startAt, err := time.ParseInLocation("2006-01-02 15:04", date+" "+start, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	endAt, err := time.ParseInLocation("2006-01-02 15:04", date+" "+end, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	// An end at or before the start means the shift runs past midnight.
	if !endAt.After(startAt) {
		endAt = endAt.Add(24 * time.Hour)
	}
	return startAt, endAt, nil
}

// PublishScheduledShiftHandler posts a new open shift to the board.
func (h *AdminHandler) PublishScheduledShiftHandler(w http.ResponseWriter, r *http.Request) {
	var body scheduledShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if body.Date == "" || body.StartTime == "" || body.EndTime == "" {
		response.RespondWithError(w, http.StatusBadRequest, "Date, start time and end time are required")
		return
	}

	startAt, endAt, err := parseShiftWindow(body.Date, body.StartTime, body.EndTime)
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	shift := models.ScheduledShift{
		ID:                 uuid.NewString(),
		Date:               body.Date,
		ScheduledStartTime: startAt,
		ScheduledEndTime:   endAt,
		Status:             models.StatusOpen,
		ShiftName:          body.ShiftName,
	}
	h.store.SaveScheduledShift(r.Context(), shift)

	h.hub.BroadcastEvent("shift_published", map[string]string{"shiftId": shift.ID})
	h.logger.Info("Scheduled shift published", zap.String("shift_id", shift.ID), zap.String("date", shift.Date))
	response.RespondWithJSON(w, http.StatusCreated, shift)
}

func (h *AdminHandler) UpdateScheduledShiftHandler(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shiftID")

	var body struct {
		scheduledShiftRequest
		CaregiverID *string `json:"caregiverId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	updates := store.ScheduledShiftUpdate{CaregiverID: body.CaregiverID}
	if body.ShiftName != "" {
		updates.ShiftName = &body.ShiftName
	}
	if body.Date != "" && body.StartTime != "" && body.EndTime != "" {
		startAt, endAt, err := parseShiftWindow(body.Date, body.StartTime, body.EndTime)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		updates.Date = &body.Date
		updates.ScheduledStartTime = &startAt
		updates.ScheduledEndTime = &endAt
	}
	// Reassigning to nobody reopens the shift.
	if body.CaregiverID != nil && *body.CaregiverID == "" {
		open := models.StatusOpen
		updates.Status = &open
	}
	if body.CaregiverID != nil && *body.CaregiverID != "" {
		assigned := models.StatusAssigned
		updates.Status = &assigned
	}

	shift, found := h.store.UpdateScheduledShift(r.Context(), shiftID, updates)
	if !found {
		response.RespondWithError(w, http.StatusNotFound, "Shift not found")
		return
	}

	h.hub.BroadcastEvent("shift_updated", map[string]string{"shiftId": shiftID})
	response.RespondWithJSON(w, http.StatusOK, shift)
}

func (h *AdminHandler) DeleteScheduledShiftHandler(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shiftID")
	if _, found := h.store.GetScheduledShift(r.Context(), shiftID); !found {
		response.RespondWithError(w, http.StatusNotFound, "Shift not found")
		return
	}
	h.store.DeleteScheduledShift(r.Context(), shiftID)
	h.hub.BroadcastEvent("shift_deleted", map[string]string{"shiftId": shiftID})
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Shift deleted"})
}

// ListShiftsHandler lists every worked shift with its computed amount.
func (h *AdminHandler) ListShiftsHandler(w http.ResponseWriter, r *http.Request) {
	shifts := h.store.ListShifts(r.Context())
	names := h.caregiverNames(r)

	out := make([]map[string]any, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, map[string]any{
			"id":            s.ID,
			"caregiverId":   s.CaregiverID,
			"caregiverName": names[s.CaregiverID],
			"startTime":     s.StartTime,
			"endTime":       s.EndTime,
			"status":        s.Status,
			"payType":       s.PayType,
			"workedTime":    response.FormatDuration(shiftengine.ShiftDuration(s)),
			"amount":        shiftengine.CalculatePay(s),
			"isPaid":        s.IsPaid,
		})
	}
	response.RespondWithJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) DeleteShiftHandler(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shiftID")
	if _, found := h.store.GetShift(r.Context(), shiftID); !found {
		response.RespondWithError(w, http.StatusNotFound, "Shift not found")
		return
	}
	h.store.DeleteShift(r.Context(), shiftID)
	h.logger.Info("Shift record deleted", zap.String("shift_id", shiftID))
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Shift deleted"})
}

func (h *AdminHandler) MarkPaidHandler(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shiftID")
	result := h.engine.MarkPaid(r.Context(), shiftID)
	if !result.Success {
		response.RespondWithError(w, failureStatus(result.Kind), result.Message)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, result)
}

// ForceEndShiftHandler ends whichever shift is currently in progress.
func (h *AdminHandler) ForceEndShiftHandler(w http.ResponseWriter, r *http.Request) {
	result := h.engine.AutoEndActiveShift(r.Context())
	if !result.Ended {
		response.RespondWithError(w, http.StatusNotFound, "No active shift found")
		return
	}

	h.hub.BroadcastEvent("clock_out", map[string]string{"shiftId": result.ShiftID})
	response.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message":       "Shift ended",
		"shiftId":       result.ShiftID,
		"caregiverName": result.CaregiverName,
	})
}

// LiabilityHandler totals the unpaid completed shifts, grouped by caregiver.
func (h *AdminHandler) LiabilityHandler(w http.ResponseWriter, r *http.Request) {
	names := h.caregiverNames(r)

	type entry struct {
		CaregiverID   string  `json:"caregiverId"`
		CaregiverName string  `json:"caregiverName"`
		Shifts        int     `json:"shifts"`
		Amount        float64 `json:"amount"`
	}
	byCaregiver := map[string]*entry{}
	total := 0.0

	for _, s := range h.store.ListShifts(r.Context()) {
		if s.Status != models.StatusCompleted || s.IsPaid {
			continue
		}
		amount := shiftengine.CalculatePay(s)
		total += amount
		e, ok := byCaregiver[s.CaregiverID]
		if !ok {
			e = &entry{CaregiverID: s.CaregiverID, CaregiverName: names[s.CaregiverID]}
			byCaregiver[s.CaregiverID] = e
		}
		e.Shifts++
		e.Amount += amount
	}

	entries := make([]entry, 0, len(byCaregiver))
	for _, e := range byCaregiver {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CaregiverID < entries[j].CaregiverID })

	response.RespondWithJSON(w, http.StatusOK, map[string]any{
		"total":      total,
		"caregivers": entries,
	})
}

// ExportPayrollHandler streams the completed shifts as an xlsx workbook.
func (h *AdminHandler) ExportPayrollHandler(w http.ResponseWriter, r *http.Request) {
	names := h.caregiverNames(r)

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Payroll"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Caregiver", "Date", "Start", "End", "Duration", "Pay Type", "Rate", "Amount", "Paid"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	row := 2
	for _, s := range h.store.ListShifts(r.Context()) {
		if s.Status != models.StatusCompleted {
			continue
		}
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Format("15:04")
		}
		rate := s.HourlyRate
		if s.PayType == models.PayPerShift {
			rate = s.ShiftRate
		}
		values := []any{
			names[s.CaregiverID],
			s.StartTime.Format("2006-01-02"),
			s.StartTime.Format("15:04"),
			endStr,
			response.FormatDuration(shiftengine.ShiftDuration(s)),
			string(s.PayType),
			rate,
			shiftengine.CalculatePay(s),
			s.IsPaid,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	filename := fmt.Sprintf("payroll_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		h.logger.Error("Payroll export write failed", zap.Error(err))
	}
}

func (h *AdminHandler) caregiverNames(r *http.Request) map[string]string {
	names := map[string]string{}
	for _, u := range h.store.ListUsers(r.Context()) {
		names[u.ID] = u.Name
	}
	return names
}
