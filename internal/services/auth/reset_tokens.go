package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cgtm/cgtm_backend/internal/cache"
)

// ResetToken is a locally-issued password reset token, used when the
// hosted identity service is not configured. Tokens expire one hour after
// issue and are single-use.
type ResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ResetTokenStore struct {
	cache cache.Cache
	now   func() time.Time
}

func NewResetTokenStore(c cache.Cache) *ResetTokenStore {
	return &ResetTokenStore{cache: c, now: time.Now}
}

func (s *ResetTokenStore) Issue(ctx context.Context, userID, email string) ResetToken {
	token := ResetToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		ExpiresAt: s.now().Add(time.Hour),
	}
	tokens := s.load(ctx)
	tokens = append(tokens, token)
	s.save(ctx, tokens)
	return token
}

// Redeem consumes a token, returning an error when it is unknown or
// expired. Expired tokens are pruned as a side effect.
func (s *ResetTokenStore) Redeem(ctx context.Context, tokenID string) (*ResetToken, error) {
	tokens := s.load(ctx)
	now := s.now()

	var redeemed *ResetToken
	kept := tokens[:0]
	for _, t := range tokens {
		if t.ID == tokenID {
			if now.After(t.ExpiresAt) {
				continue // expired, drop it
			}
			redeemed = &ResetToken{ID: t.ID, UserID: t.UserID, Email: t.Email, ExpiresAt: t.ExpiresAt}
			continue // consumed
		}
		if now.After(t.ExpiresAt) {
			continue
		}
		kept = append(kept, t)
	}
	s.save(ctx, kept)

	if redeemed == nil {
		return nil, fmt.Errorf("reset token invalid or expired")
	}
	return redeemed, nil
}

func (s *ResetTokenStore) load(ctx context.Context) []ResetToken {
	data, ok := s.cache.Get(ctx, cache.KeyResetTokens)
	if !ok {
		return nil
	}
	var tokens []ResetToken
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil
	}
	return tokens
}

func (s *ResetTokenStore) save(ctx context.Context, tokens []ResetToken) {
	data, err := json.Marshal(tokens)
	if err != nil {
		return
	}
	s.cache.Set(ctx, cache.KeyResetTokens, data)
}
