package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/cache"
	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/recordstore"
	"github.com/cgtm/cgtm_backend/internal/store"
)

type fakeGateway struct {
	status   int
	response string
	sent     []string // tokens, in send order
	lastBody string
	lastData map[string]string
}

func (g *fakeGateway) Send(ctx context.Context, token, title, body string, data map[string]string) (int, string, error) {
	g.sent = append(g.sent, token)
	g.lastBody = body
	g.lastData = data
	status := g.status
	if status == 0 {
		status = 200
	}
	return status, g.response, nil
}

var scanClock = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Client, recordstore.Client, *fakeGateway) {
	t.Helper()
	records := recordstore.NewMemory()
	st := store.NewClient(records, cache.NewMemory(), zap.NewNop())
	gateway := &fakeGateway{}

	service := NewService(st, records, gateway, 5*time.Minute, zap.NewNop())
	service.now = func() time.Time { return scanClock }
	return service, st, records, gateway
}

func registerToken(t *testing.T, records recordstore.Client, caregiverID, token string) {
	t.Helper()
	require.NoError(t, records.Set(context.Background(), "notificationTokens/"+caregiverID, TokenRecord{Token: token}))
}

func scheduleAt(t *testing.T, st *store.Client, id, caregiverID string, start time.Time, status models.ShiftStatus) {
	t.Helper()
	st.SaveScheduledShift(context.Background(), models.ScheduledShift{
		ID:                 id,
		Date:               start.Format("2006-01-02"),
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(8 * time.Hour),
		CaregiverID:        caregiverID,
		Status:             status,
		ShiftName:          "Morning Shift",
	})
}

func TestScanAndSendWindow(t *testing.T) {
	service, st, records, gateway := newTestService(t)
	ctx := context.Background()
	registerToken(t, records, "caregiver-1", "tok-1")

	scheduleAt(t, st, "in-window", "caregiver-1", scanClock.Add(3*time.Minute), models.StatusAssigned)
	scheduleAt(t, st, "too-far", "caregiver-1", scanClock.Add(10*time.Minute), models.StatusAssigned)
	scheduleAt(t, st, "already-started", "caregiver-1", scanClock.Add(-1*time.Minute), models.StatusAssigned)
	scheduleAt(t, st, "unclaimed", "", scanClock.Add(3*time.Minute), models.StatusOpen)

	report, err := service.ScanAndSend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, gateway.sent, 1)
	assert.Equal(t, "tok-1", gateway.sent[0])
	assert.Equal(t, `Your shift "Morning Shift" is starting soon.`, gateway.lastBody)
	assert.Equal(t, "Morning Shift", gateway.lastData["shiftName"])
	assert.Equal(t, scanClock.Add(3*time.Minute).Format(time.RFC3339), gateway.lastData["scheduledStartTime"])
}

func TestScanSendsOncePerShift(t *testing.T) {
	service, st, records, gateway := newTestService(t)
	ctx := context.Background()
	registerToken(t, records, "caregiver-1", "tok-1")
	scheduleAt(t, st, "in-window", "caregiver-1", scanClock.Add(3*time.Minute), models.StatusAssigned)

	first, err := service.ScanAndSend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent)

	second, err := service.ScanAndSend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent)
	assert.Len(t, gateway.sent, 1)
}

func TestScanCountsMissingTokens(t *testing.T) {
	service, st, _, gateway := newTestService(t)
	ctx := context.Background()
	scheduleAt(t, st, "in-window", "caregiver-2", scanClock.Add(3*time.Minute), models.StatusAssigned)

	report, err := service.ScanAndSend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.NoToken)
	assert.Equal(t, 0, report.Sent)
	assert.Empty(t, gateway.sent)
}

func TestSendNowBypassesWindow(t *testing.T) {
	service, _, records, gateway := newTestService(t)
	ctx := context.Background()
	registerToken(t, records, "caregiver-1", "tok-1")

	// Two hours out, far beyond the lead window.
	result, err := service.SendNow(ctx, "caregiver-1", "Evening Shift", scanClock.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Evening Shift", result.ShiftName)
	assert.Len(t, gateway.sent, 1)
}

func TestSendNowNoTokenListsRegistered(t *testing.T) {
	service, _, records, _ := newTestService(t)
	ctx := context.Background()
	registerToken(t, records, "caregiver-1", "tok-1")
	registerToken(t, records, "caregiver-2", "tok-2")

	_, err := service.SendNow(ctx, "caregiver-9", "Shift", scanClock)
	var noToken *NoTokenError
	require.ErrorAs(t, err, &noToken)
	assert.Equal(t, "caregiver-9", noToken.CaregiverID)
	assert.Equal(t, []string{"caregiver-1", "caregiver-2"}, noToken.Registered)
}

func TestSendNowRelaysGatewayStatus(t *testing.T) {
	service, _, records, gateway := newTestService(t)
	ctx := context.Background()
	registerToken(t, records, "caregiver-1", "stale-token")
	gateway.status = 404
	gateway.response = `{"error":{"status":"NOT_FOUND"}}`

	result, err := service.SendNow(ctx, "caregiver-1", "Shift", scanClock)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 404, result.Status)
	assert.Contains(t, result.Response, "NOT_FOUND")
}

func TestNilGatewayIsAnError(t *testing.T) {
	records := recordstore.NewMemory()
	st := store.NewClient(records, cache.NewMemory(), zap.NewNop())
	service := NewService(st, records, nil, 5*time.Minute, zap.NewNop())

	_, err := service.ScanAndSend(context.Background())
	assert.Error(t, err)
	_, err = service.SendNow(context.Background(), "caregiver-1", "Shift", scanClock)
	assert.Error(t, err)
}

func TestDefaultShiftName(t *testing.T) {
	service, st, records, gateway := newTestService(t)
	ctx := context.Background()
	registerToken(t, records, "caregiver-1", "tok-1")

	st.SaveScheduledShift(ctx, models.ScheduledShift{
		ID:                 "unnamed",
		ScheduledStartTime: scanClock.Add(2 * time.Minute),
		ScheduledEndTime:   scanClock.Add(8 * time.Hour),
		CaregiverID:        "caregiver-1",
		Status:             models.StatusAssigned,
	})

	report, err := service.ScanAndSend(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	assert.Equal(t, `Your shift "Scheduled Shift" is starting soon.`, gateway.lastBody)
	assert.Equal(t, "Scheduled Shift", gateway.lastData["shiftName"])
}
