package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/taskkeeper/internal/errs"
)

// TokenService issues and verifies HS256 bearer tokens whose subject is the owner id.
// Identity itself is established elsewhere; this only carries it.
type TokenService struct {
	signKey []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(signKey []byte, ttl time.Duration) *TokenService {
	return &TokenService{signKey: signKey, ttl: ttl, now: time.Now}
}

// Issue creates a signed HS256 JWT for ownerID.
func (s *TokenService) Issue(ownerID uuid.UUID) (string, time.Time, error) {
	if ownerID == uuid.Nil {
		return "", time.Time{}, errs.Invalid("ownerId", "empty")
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   ownerID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// Verify checks signature and validity window and returns the subject as owner id.
// All failures wrap errs.ErrUnauthorized.
func (s *TokenService) Verify(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("bad subject: %w", errs.ErrUnauthorized)
	}
	return id, nil
}
