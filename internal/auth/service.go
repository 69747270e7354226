package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aegis-platform/aegis/internal/shared"
	"github.com/aegis-platform/aegis/internal/users"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Config carries token issuance parameters.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service issues and verifies the access/refresh token pair.
type Service struct {
	users *users.Service
	store RefreshStore
	cfg   Config
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(userService *users.Service, store RefreshStore, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 14 * 24 * time.Hour
	}
	return &Service{users: userService, store: store, cfg: cfg, now: time.Now}
}

type tokenClaims struct {
	Logon     string `json:"logon,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Login authenticates logon/password credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, logon, password string) (TokenPair, error) {
	user, err := s.users.Authenticate(ctx, logon, password)
	if err != nil {
		return TokenPair{}, err
	}
	return s.Issue(ctx, user)
}

// Issue mints an access/refresh pair for the given user and records the
// refresh token so it can be revoked.
func (s *Service) Issue(ctx context.Context, user users.User) (TokenPair, error) {
	access, err := s.sign(user.Subject, user.Logon, tokenTypeAccess, "", s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	jti := uuid.NewString()
	refresh, err := s.sign(user.Subject, "", tokenTypeRefresh, jti, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Put(ctx, jti, user.Subject, s.cfg.RefreshTTL); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself stays valid until expiry or revocation; a failed exchange
// leaves no state behind.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return "", shared.ErrInvalidCredentials
	}
	if claims.TokenType != tokenTypeRefresh || claims.ID == "" {
		return "", shared.ErrInvalidCredentials
	}
	subject, err := s.store.Subject(ctx, claims.ID)
	if err != nil {
		return "", shared.ErrInvalidCredentials
	}
	if subject != claims.Subject {
		return "", shared.ErrInvalidCredentials
	}

	// Re-resolve the user so a disabled or deleted account cannot keep
	// minting access tokens from an old refresh token. Subjects are matched
	// byte for byte, same as everywhere else the claim is resolved.
	user, err := s.users.GetBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrInvalidCredentials
		}
		return "", err
	}
	if !user.Enabled {
		return "", shared.ErrInvalidCredentials
	}
	return s.sign(claims.Subject, user.Logon, tokenTypeAccess, "", s.cfg.AccessTTL)
}

// Revoke invalidates the refresh token carried in the request, if valid.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parse(refreshToken)
	if err != nil || claims.ID == "" {
		return shared.ErrInvalidCredentials
	}
	return s.store.Revoke(ctx, claims.ID)
}

// VerifyAccess validates an access token. An expired token maps to
// shared.ErrTokenExpired so the transport layer can answer 401 distinctly.
func (s *Service) VerifyAccess(token string) (Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, shared.ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, "invalid access token")
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, "not an access token")
	}
	return Claims{Subject: claims.Subject, Logon: claims.Logon}, nil
}

func (s *Service) sign(subject, logon, tokenType, jti string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := tokenClaims{
		Logon:     logon,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(raw string) (*tokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
