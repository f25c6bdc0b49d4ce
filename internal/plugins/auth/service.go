package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/hkdf"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
)

// revokedKeyPrefix is the Redis key prefix for revoked token ids.
const revokedKeyPrefix = "auth:revoked:"

const (
	tokenIssuer   = "bizconsole"
	maxOwnerIDLen = 64
)

// TokenService defines the owner-token contract. Handlers and middleware
// call these methods; nothing else touches the signing key.
type TokenService interface {
	Issue(ctx context.Context, ownerID string) (token string, expiresAt time.Time, err error)
	Validate(ctx context.Context, token string) (*Claims, error)
	Revoke(ctx context.Context, claims *Claims) error
}

// tokenService implements TokenService with HS256 JWTs and a Redis
// revocation list.
type tokenService struct {
	key   []byte
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewTokenService derives the signing key from secret and returns a
// TokenService issuing tokens valid for ttl.
func NewTokenService(secret string, rdb *redis.Client, ttl time.Duration) (TokenService, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &tokenService{key: key, redis: rdb, ttl: ttl, now: time.Now}, nil
}

// deriveKey stretches the configured secret into a 32-byte HMAC key so
// the raw SECRET_KEY is never used for signing directly.
func deriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("auth: empty secret key")
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("bizconsole owner token v1"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving signing key: %w", err)
	}
	return key, nil
}

// Issue signs a new token for ownerID.
func (s *tokenService) Issue(_ context.Context, ownerID string) (string, time.Time, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", time.Time{}, apperror.NewValidation("owner_id is required")
	}
	if len(ownerID) > maxOwnerIDLen {
		return "", time.Time{}, apperror.NewValidation(fmt.Sprintf("owner_id must be at most %d characters", maxOwnerIDLen))
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   ownerID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, apperror.NewInternal(fmt.Errorf("signing token: %w", err))
	}

	slog.Info("owner token issued", slog.String("owner_id", ownerID), slog.String("jti", claims.ID))
	return signed, expiresAt, nil
}

// Validate parses and verifies a token and checks it was not revoked.
func (s *tokenService) Validate(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperror.NewUnauthorized("token expired")
		}
		return nil, apperror.NewUnauthorized("invalid token")
	}
	if claims.Subject == "" || claims.ID == "" || !claims.VerifyIssuer(tokenIssuer, true) {
		return nil, apperror.NewUnauthorized("invalid token")
	}

	n, err := s.redis.Exists(ctx, revokedKeyPrefix+claims.ID).Result()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking revocation: %w", err))
	}
	if n > 0 {
		return nil, apperror.NewUnauthorized("token revoked")
	}
	return claims, nil
}

// Revoke blocks the token's id until its expiry.
func (s *tokenService) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Time.Sub(s.now()); left > 0 {
			ttl = left
		}
	}
	if err := s.redis.Set(ctx, revokedKeyPrefix+claims.ID, claims.Subject, ttl).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("revoking token: %w", err))
	}

	slog.Info("owner token revoked", slog.String("owner_id", claims.Subject), slog.String("jti", claims.ID))
	return nil
}
