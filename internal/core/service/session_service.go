package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

const (
	authStatusPath = "/auth-status/"
	loginPath      = "/login/"
	logoutPath     = "/logout/"

	networkErrorMessage = "Network error"
)

// SessionService tracks the authenticated actor on the client side.
type SessionService struct {
	api ports.Requester
	log zerolog.Logger

	mu    sync.RWMutex
	state domain.Session
}

var _ ports.Session = (*SessionService)(nil)

func NewSessionService(api ports.Requester, log zerolog.Logger) *SessionService {
	return &SessionService{
		api:   api,
		log:   log.With().Str("component", "session").Logger(),
		state: domain.NewSession(),
	}
}

// Session returns a snapshot of the current state.
func (s *SessionService) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

type authStatusResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

// CheckAuth asks the backend whether the cookie session is valid. Failures
// are reported as "not authenticated" rather than errors.
func (s *SessionService) CheckAuth(ctx context.Context) bool {
	resp, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: authStatusPath})
	if err != nil {
		s.log.Warn().Err(err).Msg("auth status check failed, treating as logged out")
		s.set(domain.Session{})
		return false
	}

	var body authStatusResponse
	if err := resp.Decode(&body); err != nil {
		s.log.Warn().Err(err).Msg("auth status response unreadable, treating as logged out")
		s.set(domain.Session{})
		return false
	}

	st := domain.Session{IsAuthenticated: body.Authenticated}
	if body.Authenticated {
		st.User = body.User
	}
	s.set(st)
	return body.Authenticated
}

// Login posts credentials. On failure the returned error is a
// *domain.LoginError whose message is the backend's "error" field, or
// "Network error" when there is none.
func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	s.setLoading(true)

	resp, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodPost, Path: loginPath, Body: creds})
	if err != nil {
		s.set(domain.Session{})
		msg := loginFailureMessage(err)
		s.log.Info().Str("username", creds.Username).Str("reason", msg).Msg("login failed")
		return &domain.LoginResult{Success: false, Error: msg}, &domain.LoginError{Message: msg, Cause: err}
	}

	result, err := decodeLoginResult(resp.Body)
	if err != nil {
		s.set(domain.Session{})
		return &domain.LoginResult{Success: false, Error: err.Error()}, &domain.LoginError{Message: err.Error(), Cause: err}
	}
	if !result.Success {
		s.set(domain.Session{})
		msg := result.Error
		if msg == "" {
			msg = "Login failed"
		}
		return result, &domain.LoginError{Message: msg}
	}

	s.set(domain.Session{IsAuthenticated: true, User: result.User})
	s.log.Info().Str("username", creds.Username).Msg("logged in")
	return result, nil
}

// Logout is best effort: local state is cleared whatever the server says.
func (s *SessionService) Logout(ctx context.Context) error {
	s.setLoading(true)
	_, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodPost, Path: logoutPath})
	s.set(domain.Session{})
	if err != nil {
		s.log.Warn().Err(err).Msg("logout request failed, local session cleared anyway")
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *SessionService) set(st domain.Session) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *SessionService) setLoading(v bool) {
	s.mu.Lock()
	s.state.Loading = v
	s.mu.Unlock()
}

// decodeLoginResult accepts the canonical {success,user,error} envelope and,
// for older backends, a bare user object carrying id and username.
func decodeLoginResult(body []byte) (*domain.LoginResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("unexpected login response")
	}

	if _, ok := probe["success"]; ok {
		var res domain.LoginResult
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, fmt.Errorf("unexpected login response")
		}
		return &res, nil
	}

	_, hasID := probe["id"]
	_, hasUsername := probe["username"]
	if hasID && hasUsername {
		var u domain.User
		if err := json.Unmarshal(body, &u); err != nil {
			return nil, fmt.Errorf("unexpected login response")
		}
		return &domain.LoginResult{Success: true, User: &u}, nil
	}
	return nil, fmt.Errorf("unexpected login response")
}

func loginFailureMessage(err error) string {
	var re *domain.RequestError
	if errors.As(err, &re) && len(re.Body) > 0 {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(re.Body, &body) == nil && body.Error != "" {
			return body.Error
		}
	}
	return networkErrorMessage
}
