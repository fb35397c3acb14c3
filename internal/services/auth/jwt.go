package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cgtm/cgtm_backend/internal/models"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
	refreshPrefix   = "refresh:"
)

type JWTService struct {
	secretKey []byte
	redis     *redis.Client
}

func NewJWTService(secretKey string, redisClient *redis.Client) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		redis:     redisClient,
	}
}

// GenerateTokenPair issues a signed access token plus an opaque refresh
// token tracked in Redis.
func (s *JWTService) GenerateTokenPair(ctx context.Context, userID, name string, role models.Role) (string, string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"role":    string(role),
		"exp":     time.Now().Add(accessTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %v", err)
	}

	refreshToken := uuid.NewString()
	if err := s.redis.Set(ctx, refreshPrefix+refreshToken, userID, refreshTokenTTL).Err(); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %v", err)
	}
	return accessToken, refreshToken, nil
}

// ValidateRefreshToken resolves a refresh token to its user id.
func (s *JWTService) ValidateRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.redis.Get(ctx, refreshPrefix+refreshToken).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("refresh token not found or expired")
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *JWTService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, refreshPrefix+refreshToken).Err()
}
