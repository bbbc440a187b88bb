// Package auth checks admin credentials: a shared API key, or an HS256 JWT
// obtained by exchanging that key at login.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer    = "midnight-tickets"
	adminRole = "admin"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrInvalidAPIKey  = errors.New("invalid api key")
	ErrTokensDisabled = errors.New("admin JWT secret not configured")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	apiKey     string
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewService(apiKey, jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		apiKey:     strings.TrimSpace(apiKey),
		signingKey: []byte(strings.TrimSpace(jwtSecret)),
		ttl:        ttl,
		now:        time.Now,
	}
}

// CheckAPIKey reports whether key matches the configured key. An unset key
// never matches.
func (s *Service) CheckAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	if s.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) == 1
}

// Login exchanges the API key for a signed token.
func (s *Service) Login(apiKey string) (string, time.Time, error) {
	if !s.CheckAPIKey(apiKey) {
		return "", time.Time{}, ErrInvalidAPIKey
	}
	return s.IssueToken(adminRole)
}

func (s *Service) IssueToken(subject string) (string, time.Time, error) {
	if len(s.signingKey) == 0 {
		return "", time.Time{}, ErrTokensDisabled
	}
	now := s.now()
	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if len(s.signingKey) == 0 {
		return nil, ErrTokensDisabled
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Role != adminRole {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
