package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/metrics"
)

var errInvalidSession = errors.New("invalid session")

// sessionTokenClaims is the payload of the session cookie.
type sessionTokenClaims struct {
	Username string `json:"username"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// AccountService implements cookie-session login for the reference backend.
type AccountService struct {
	repo       ports.UserRepository
	revoker    ports.SessionRevoker
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

var _ ports.AccountService = (*AccountService)(nil)

func NewAccountService(repo ports.UserRepository, revoker ports.SessionRevoker, jwtSecret string, sessionTTL time.Duration, log zerolog.Logger) *AccountService {
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AccountService{
		repo:       repo,
		revoker:    revoker,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		now:        time.Now,
		log:        log.With().Str("component", "accounts").Logger(),
	}
}

// Login checks the password and returns a signed session token.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	acc, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same answer as a bad password.
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}
	if !acc.IsActive {
		metrics.LoginsTotal.WithLabelValues("disabled").Inc()
		return "", nil, domain.ErrInactiveUser
	}

	now := s.now().UTC()
	acc.LastLogin = &now
	if err := s.repo.Update(ctx, acc); err != nil {
		s.log.Warn().Err(err).Int64("id", acc.ID).Msg("failed to record last login")
	}

	token, err := s.issue(&acc.User, now)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign session: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Str("username", acc.Username).Msg("session opened")
	user := acc.User
	return token, &user, nil
}

func (s *AccountService) issue(u *domain.User, now time.Time) (string, error) {
	claims := sessionTokenClaims{
		Username: u.Username,
		UserType: string(u.UserType),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// Authenticate validates a session token and rejects revoked ones.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*ports.SessionClaims, error) {
	if token == "" {
		return nil, domain.ErrAuthRequired
	}

	var claims sessionTokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthRequired, errInvalidSession)
	}

	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthRequired, errInvalidSession)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		// Fail closed.
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: session revoked", domain.ErrAuthRequired)
	}

	out := &ports.SessionClaims{
		TokenID:  claims.ID,
		UserID:   uid,
		Username: claims.Username,
		UserType: domain.UserType(claims.UserType),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Logout revokes the session id until the token would have expired anyway.
func (s *AccountService) Logout(ctx context.Context, claims *ports.SessionClaims) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("username", claims.Username).Msg("session closed")
	return nil
}
