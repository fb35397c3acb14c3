package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgtm/cgtm_backend/internal/cache"
)

func TestResetTokenRedeem(t *testing.T) {
	store := NewResetTokenStore(cache.NewMemory())
	ctx := context.Background()

	token := store.Issue(ctx, "admin-1", "admin@example.com")
	require.NotEmpty(t, token.ID)

	redeemed, err := store.Redeem(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", redeemed.UserID)
	assert.Equal(t, "admin@example.com", redeemed.Email)
}

func TestResetTokenSingleUse(t *testing.T) {
	store := NewResetTokenStore(cache.NewMemory())
	ctx := context.Background()

	token := store.Issue(ctx, "admin-1", "admin@example.com")
	_, err := store.Redeem(ctx, token.ID)
	require.NoError(t, err)

	_, err = store.Redeem(ctx, token.ID)
	assert.Error(t, err)
}

func TestResetTokenExpiry(t *testing.T) {
	store := NewResetTokenStore(cache.NewMemory())
	ctx := context.Background()

	issued := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return issued }
	token := store.Issue(ctx, "admin-1", "admin@example.com")

	store.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err := store.Redeem(ctx, token.ID)
	assert.Error(t, err)
}

func TestResetTokenUnknown(t *testing.T) {
	store := NewResetTokenStore(cache.NewMemory())
	_, err := store.Redeem(context.Background(), "no-such-token")
	assert.Error(t, err)
}
