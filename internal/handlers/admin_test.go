package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/cache"
	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/recordstore"
	"github.com/cgtm/cgtm_backend/internal/shiftengine"
	"github.com/cgtm/cgtm_backend/internal/store"
	"github.com/cgtm/cgtm_backend/internal/ws"
)

func newAdminRouter(t *testing.T) (*chi.Mux, *store.Client, *shiftengine.Engine) {
	t.Helper()
	st := store.NewClient(recordstore.NewMemory(), cache.NewMemory(), zap.NewNop())
	st.ListUsers(context.Background())
	engine := shiftengine.NewEngine(st, zap.NewNop())
	handler := NewAdminHandler(st, engine, ws.NewHub(zap.NewNop()), zap.NewNop())

	router := chi.NewRouter()
	router.Use(asUser("admin-1"))
	router.Get("/api/admin/users", handler.ListUsersHandler)
	router.Post("/api/admin/users", handler.CreateUserHandler)
	router.Patch("/api/admin/users/{userID}", handler.UpdateUserHandler)
	router.Delete("/api/admin/users/{userID}", handler.DeleteUserHandler)
	router.Post("/api/admin/scheduled-shifts", handler.PublishScheduledShiftHandler)
	router.Put("/api/admin/scheduled-shifts/{shiftID}", handler.UpdateScheduledShiftHandler)
	router.Delete("/api/admin/scheduled-shifts/{shiftID}", handler.DeleteScheduledShiftHandler)
	router.Post("/api/admin/shifts/{shiftID}/mark-paid", handler.MarkPaidHandler)
	router.Post("/api/admin/end-active-shift", handler.ForceEndShiftHandler)
	router.Get("/api/admin/payroll/liability", handler.LiabilityHandler)
	router.Get("/api/admin/payroll/export", handler.ExportPayrollHandler)
	return router, st, engine
}

func TestCreateUserEndpoint(t *testing.T) {
	router, st, _ := newAdminRouter(t)

	rec := doRequest(router, http.MethodPost, "/api/admin/users",
		`{"name":"New Caregiver","role":"caregiver","phone":"5559999","pin":"9999","payType":"perShift","shiftRate":150}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, models.PayPerShift, created.PayType)

	stored, found := st.GetUser(context.Background(), created.ID)
	require.True(t, found)
	assert.Equal(t, "New Caregiver", stored.Name)
}

func TestCreateUserValidation(t *testing.T) {
	router, _, _ := newAdminRouter(t)

	// Caregiver without a phone.
	rec := doRequest(router, http.MethodPost, "/api/admin/users",
		`{"name":"No Phone","role":"caregiver","pin":"1111"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bogus role.
	rec = doRequest(router, http.MethodPost, "/api/admin/users",
		`{"name":"Bad Role","role":"superuser"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsersHidesPasswordHash(t *testing.T) {
	router, _, _ := newAdminRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/admin/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateUserEndpoint(t *testing.T) {
	router, st, _ := newAdminRouter(t)

	rec := doRequest(router, http.MethodPatch, "/api/admin/users/caregiver-1",
		`{"hourlyRate":32.5,"isActive":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	user, found := st.GetUser(context.Background(), "caregiver-1")
	require.True(t, found)
	assert.Equal(t, 32.5, user.HourlyRate)
	assert.False(t, user.IsActive)
	assert.Equal(t, "Jane Doe", user.Name)

	missing := doRequest(router, http.MethodPatch, "/api/admin/users/nobody", `{"name":"X"}`)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestPublishScheduledShiftEndpoint(t *testing.T) {
	router, st, _ := newAdminRouter(t)

	rec := doRequest(router, http.MethodPost, "/api/admin/scheduled-shifts",
		`{"date":"2026-04-01","startTime":"09:00","endTime":"17:00","shiftName":"Day Shift"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.ScheduledShift
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.StatusOpen, created.Status)
	assert.Empty(t, created.CaregiverID)
	assert.Equal(t, 8*time.Hour, created.ScheduledEndTime.Sub(created.ScheduledStartTime))

	shifts := st.ListScheduledShifts(context.Background())
	require.Len(t, shifts, 1)
}

func TestPublishOvernightShift(t *testing.T) {
	router, _, _ := newAdminRouter(t)

	rec := doRequest(router, http.MethodPost, "/api/admin/scheduled-shifts",
		`{"date":"2026-04-01","startTime":"22:00","endTime":"06:00","shiftName":"Night Shift"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.ScheduledShift
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 8*time.Hour, created.ScheduledEndTime.Sub(created.ScheduledStartTime))
}

func TestUpdateScheduledShiftReassignment(t *testing.T) {
	router, st, engine := newAdminRouter(t)
	ctx := context.Background()

	st.SaveScheduledShift(ctx, models.ScheduledShift{
		ID:                 "sched-1",
		Date:               "2026-04-01",
		ScheduledStartTime: time.Now().Add(48 * time.Hour),
		ScheduledEndTime:   time.Now().Add(56 * time.Hour),
		Status:             models.StatusOpen,
	})
	require.True(t, engine.ClaimShift(ctx, "sched-1", "caregiver-1").Success)

	// Clearing the assignee reopens the shift.
	rec := doRequest(router, http.MethodPut, "/api/admin/scheduled-shifts/sched-1", `{"caregiverId":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	shift, found := st.GetScheduledShift(ctx, "sched-1")
	require.True(t, found)
	assert.Equal(t, models.StatusOpen, shift.Status)
	assert.Empty(t, shift.CaregiverID)
}

func TestForceEndShiftEndpoint(t *testing.T) {
	router, _, engine := newAdminRouter(t)

	// Nothing active yet.
	rec := doRequest(router, http.MethodPost, "/api/admin/end-active-shift", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No active shift found")

	require.True(t, engine.ClockIn(context.Background(), "caregiver-1", false).Success)
	rec = doRequest(router, http.MethodPost, "/api/admin/end-active-shift", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jane Doe")
}

func TestLiabilityEndpoint(t *testing.T) {
	router, _, engine := newAdminRouter(t)
	ctx := context.Background()

	// Per-shift pay keeps the expected amount independent of wall time.
	started := engine.ClockIn(ctx, "caregiver-2", false)
	require.True(t, started.Success)
	require.True(t, engine.ClockOut(ctx, started.Shift.ID).Success)

	rec := doRequest(router, http.MethodGet, "/api/admin/payroll/liability", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total      float64 `json:"total"`
		Caregivers []struct {
			CaregiverID string  `json:"caregiverId"`
			Shifts      int     `json:"shifts"`
			Amount      float64 `json:"amount"`
		} `json:"caregivers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 200.0, body.Total, 0.001)
	require.Len(t, body.Caregivers, 1)
	assert.Equal(t, "caregiver-2", body.Caregivers[0].CaregiverID)

	// Paying the shift zeroes the liability.
	rec = doRequest(router, http.MethodPost, "/api/admin/shifts/"+started.Shift.ID+"/mark-paid", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/admin/payroll/liability", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.Total)
}

func TestPayrollExportEndpoint(t *testing.T) {
	router, _, engine := newAdminRouter(t)
	ctx := context.Background()

	started := engine.ClockIn(ctx, "caregiver-1", false)
	require.True(t, started.Success)
	require.True(t, engine.ClockOut(ctx, started.Shift.ID).Success)

	rec := doRequest(router, http.MethodGet, "/api/admin/payroll/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payroll_")
	assert.NotZero(t, rec.Body.Len())
}
