package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/cache"
	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/recordstore"
)

// flakyRemote wraps a record store and can be switched into a failing
// state to exercise the cache fallback path.
type flakyRemote struct {
	inner recordstore.Client
	fail  bool
}

func (f *flakyRemote) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if f.fail {
		return nil, recordstore.ErrUnavailable
	}
	return f.inner.Get(ctx, path)
}

func (f *flakyRemote) Set(ctx context.Context, path string, value any) error {
	if f.fail {
		return recordstore.ErrUnavailable
	}
	return f.inner.Set(ctx, path, value)
}

func (f *flakyRemote) Remove(ctx context.Context, path string) error {
	if f.fail {
		return recordstore.ErrUnavailable
	}
	return f.inner.Remove(ctx, path)
}

func (f *flakyRemote) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	if f.fail {
		return nil, recordstore.ErrUnavailable
	}
	return f.inner.List(ctx, path)
}

func newTestClient(t *testing.T) (*Client, *flakyRemote) {
	t.Helper()
	remote := &flakyRemote{inner: recordstore.NewMemory()}
	return NewClient(remote, cache.NewMemory(), zap.NewNop()), remote
}

func TestListUsersSeedsDefaults(t *testing.T) {
	client, remote := newTestClient(t)
	ctx := context.Background()

	users := client.ListUsers(ctx)
	require.Len(t, users, 3)

	// The seed is written through to the remote store.
	records, err := remote.List(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// A second read does not duplicate the seed.
	assert.Len(t, client.ListUsers(ctx), 3)
}

func TestSeedRunsOnlyOnce(t *testing.T) {
	client, remote := newTestClient(t)
	ctx := context.Background()

	client.ListUsers(ctx)
	for _, id := range []string{"admin-1", "caregiver-1", "caregiver-2"} {
		require.NoError(t, remote.Remove(ctx, "users/"+id))
	}

	// The initialized marker prevents re-seeding a deliberately emptied
	// collection.
	assert.Empty(t, client.ListUsers(ctx))
}

func TestEnsureAdminReseedsDefaultAdmin(t *testing.T) {
	client, remote := newTestClient(t)
	ctx := context.Background()

	client.ListUsers(ctx)
	require.NoError(t, remote.Remove(ctx, "users/admin-1"))

	users := client.ListUsers(ctx)
	found := false
	for _, u := range users {
		if u.IsAdmin() {
			found = true
		}
	}
	assert.True(t, found, "default admin should be re-seeded")
}

func TestListUsersFallsBackToCacheWhenRemoteFails(t *testing.T) {
	client, remote := newTestClient(t)
	ctx := context.Background()

	require.Len(t, client.ListUsers(ctx), 3)

	remote.fail = true
	users := client.ListUsers(ctx)
	assert.Len(t, users, 3, "cached snapshot should serve the read")
}

func TestNormalizeUserBackfillsPayType(t *testing.T) {
	client, remote := newTestClient(t)
	ctx := context.Background()
	client.ListUsers(ctx)

	require.NoError(t, remote.Set(ctx, "users/caregiver-9", models.User{
		ID:       "caregiver-9",
		Name:     "Old Record",
		Role:     models.RoleCaregiver,
		IsActive: true,
	}))

	user, found := client.GetUser(ctx, "caregiver-9")
	require.True(t, found)
	assert.Equal(t, models.PayHourly, user.PayType)
}

func TestUpdateUserPartialMerge(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	client.ListUsers(ctx)

	rate := 30.0
	name := "Jane D."
	user, found := client.UpdateUser(ctx, "caregiver-1", UserUpdate{
		Name:       &name,
		HourlyRate: &rate,
	})
	require.True(t, found)
	assert.Equal(t, "Jane D.", user.Name)
	assert.Equal(t, 30.0, user.HourlyRate)
	// Untouched fields survive the merge.
	assert.Equal(t, "5551234", user.Phone)
	assert.Equal(t, "1234", user.PIN)

	_, found = client.UpdateUser(ctx, "missing", UserUpdate{Name: &name})
	assert.False(t, found)
}

func TestSaveUserSurvivesRemoteOutage(t *testing.T) {
	client, remote := newTestClient(t)
	ctx := context.Background()
	client.ListUsers(ctx)

	remote.fail = true
	client.SaveUser(ctx, models.User{
		ID:       "caregiver-9",
		Name:     "Offline Add",
		Role:     models.RoleCaregiver,
		PayType:  models.PayHourly,
		IsActive: true,
	})

	// The write landed locally even though the remote was down.
	user, found := client.GetUser(ctx, "caregiver-9")
	require.True(t, found)
	assert.Equal(t, "Offline Add", user.Name)
}

func TestListShiftsNewestFirst(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	client.SaveShift(ctx, models.Shift{ID: "older", CaregiverID: "caregiver-1", StartTime: base, Status: models.StatusCompleted})
	client.SaveShift(ctx, models.Shift{ID: "newer", CaregiverID: "caregiver-1", StartTime: base.Add(24 * time.Hour), Status: models.StatusCompleted})

	shifts := client.ListShifts(ctx)
	require.Len(t, shifts, 2)
	assert.Equal(t, "newer", shifts[0].ID)
	assert.Equal(t, "older", shifts[1].ID)
}

func TestListScheduledShiftsSoonestFirst(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	client.SaveScheduledShift(ctx, models.ScheduledShift{ID: "later", ScheduledStartTime: base.Add(48 * time.Hour), ScheduledEndTime: base.Add(56 * time.Hour), Status: models.StatusOpen})
	client.SaveScheduledShift(ctx, models.ScheduledShift{ID: "sooner", ScheduledStartTime: base, ScheduledEndTime: base.Add(8 * time.Hour), Status: models.StatusOpen})

	shifts := client.ListScheduledShifts(ctx)
	require.Len(t, shifts, 2)
	assert.Equal(t, "sooner", shifts[0].ID)
	assert.Equal(t, "later", shifts[1].ID)
}

func TestGetAnyActiveShift(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, found := client.GetAnyActiveShift(ctx)
	assert.False(t, found)

	client.SaveShift(ctx, models.Shift{
		ID:          "active",
		CaregiverID: "caregiver-1",
		StartTime:   time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Status:      models.StatusInProgress,
	})

	active, found := client.GetAnyActiveShift(ctx)
	require.True(t, found)
	assert.Equal(t, "active", active.ID)
}
