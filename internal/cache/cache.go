// Package cache is the client-local snapshot cache. It is advisory only:
// remote data supersedes it whenever a remote read succeeds.
package cache

import "context"

// Keys for the persisted local snapshots.
const (
	KeyUsers           = "cgtm_users"
	KeyShifts          = "cgtm_shifts"
	KeyScheduledShifts = "cgtm_scheduled_shifts"
	KeyInitialized     = "cgtm_initialized"
	KeyResetTokens     = "cgtm_reset_tokens"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, key string)
}
