package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/metrics"
)

const (
	usersPath = "/users/"
	statsPath = "/users/stats/"
)

// UserResourceService is the generic CRUD + lifecycle client for /users/.
// Every specialised view (clients, vendors, ...) goes through it with a
// user_type filter.
type UserResourceService struct {
	api      ports.Requester
	validate *validator.Validate
	log      zerolog.Logger
}

var _ ports.UserResource = (*UserResourceService)(nil)

func NewUserResourceService(api ports.Requester, log zerolog.Logger) *UserResourceService {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &UserResourceService{
		api:      api,
		validate: v,
		log:      log.With().Str("component", "user_resource").Logger(),
	}
}

// List returns users matching filter. Bare arrays and {results}/{users}
// envelopes are all accepted.
func (s *UserResourceService) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	resp, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodGet,
		Path:   usersPath,
		Query:  filterQuery(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, shape, err := decodeUserList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	s.log.Debug().Str("shape", string(shape)).Int("count", len(users)).Str("user_type", string(filter.UserType)).Msg("users listed")
	return users, nil
}

// ListScoped uses the convenience endpoints (/users/clients/ etc.).
func (s *UserResourceService) ListScoped(ctx context.Context, userType domain.UserType) ([]domain.User, error) {
	seg, ok := userType.ScopedSegment()
	if !ok {
		return nil, fmt.Errorf("list scoped users %q: %w", userType, domain.ErrUnknownUserType)
	}
	resp, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: usersPath + seg + "/"})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", seg, err)
	}
	users, _, err := decodeUserList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", seg, err)
	}
	return users, nil
}

func (s *UserResourceService) Get(ctx context.Context, id int64) (*domain.User, error) {
	resp, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: userPath(id)})
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	var u domain.User
	if err := resp.Decode(&u); err != nil {
		return nil, fmt.Errorf("get user %d: decode: %w", id, err)
	}
	return &u, nil
}

// Create checks required fields locally, then posts the full form.
// Server-side field errors come back untouched inside *domain.RequestError.
func (s *UserResourceService) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if verr := s.check(in); verr != nil {
		return nil, verr
	}
	resp, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPost,
		Path:   usersPath,
		Body:   buildPayload(in, false),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	var u domain.User
	if err := resp.Decode(&u); err != nil {
		return nil, fmt.Errorf("create user: decode: %w", err)
	}
	s.log.Info().Int64("id", u.ID).Str("user_type", string(u.UserType)).Msg("user created")
	return &u, nil
}

// Update sends a PATCH. A blank password means "unchanged" and both password
// keys are left out of the body.
func (s *UserResourceService) Update(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	resp, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPatch,
		Path:   userPath(id),
		Body:   buildPayload(in, true),
	})
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	var u domain.User
	if err := resp.Decode(&u); err != nil {
		return nil, fmt.Errorf("update user %d: decode: %w", id, err)
	}
	return &u, nil
}

func (s *UserResourceService) Delete(ctx context.Context, id int64) error {
	if _, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodDelete, Path: userPath(id)}); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.log.Info().Int64("id", id).Msg("user deleted")
	return nil
}

func (s *UserResourceService) Suspend(ctx context.Context, id int64) (*domain.User, error) {
	return s.setActive(ctx, id, domain.ActionSuspended)
}

func (s *UserResourceService) Activate(ctx context.Context, id int64) (*domain.User, error) {
	return s.setActive(ctx, id, domain.ActionActivated)
}

// setActive tries the dedicated endpoint (which may notify the user) and
// falls back to a plain PATCH of is_active when it fails for any reason.
func (s *UserResourceService) setActive(ctx context.Context, id int64, action domain.LifecycleAction) (*domain.User, error) {
	verb := "suspend"
	if action == domain.ActionActivated {
		verb = "activate"
	}

	resp, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s%d/%s/", usersPath, id, verb),
	})
	if err == nil {
		var u domain.User
		if derr := resp.Decode(&u); derr == nil && u.ID != 0 {
			return &u, nil
		}
		// Endpoint answered with a status message instead of the user.
		return s.Get(ctx, id)
	}

	s.log.Warn().Err(err).Int64("id", id).Str("action", verb).Msg("dedicated lifecycle endpoint failed, falling back to PATCH")
	metrics.LifecycleFallbacksTotal.WithLabelValues(verb).Inc()

	resp, perr := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPatch,
		Path:   userPath(id),
		Body:   map[string]any{"is_active": action.ActiveFlag()},
	})
	if perr != nil {
		return nil, fmt.Errorf("%s user %d: %w", verb, id, errors.Join(perr, err))
	}
	var u domain.User
	if err := resp.Decode(&u); err != nil {
		return nil, fmt.Errorf("%s user %d: decode: %w", verb, id, err)
	}
	return &u, nil
}

func (s *UserResourceService) Stats(ctx context.Context, extended bool) (*domain.UserStats, error) {
	var q url.Values
	if extended {
		q = url.Values{"extended": {"true"}}
	}
	resp, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: statsPath, Query: q})
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	var st domain.UserStats
	if err := resp.Decode(&st); err != nil {
		return nil, fmt.Errorf("user stats: decode: %w", err)
	}
	return &st, nil
}

func (s *UserResourceService) check(in domain.UserInput) *domain.ValidationError {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	verr := &domain.ValidationError{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		verr.Add("non_field_errors", err.Error())
		return verr
	}
	for _, fe := range ve {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

// fieldMessage renders a validator failure the way the backend words its own.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "Passwords do not match."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed validation (%s).", fe.Tag())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// buildPayload turns form input into the request body. On create every field
// is sent. On edit, blank profile fields are left out and so are both
// password keys when the password is blank.
func buildPayload(in domain.UserInput, editing bool) map[string]any {
	p := map[string]any{}
	put := func(key, val string) {
		if !editing || val != "" {
			p[key] = val
		}
	}
	put("username", in.Username)
	put("email", in.Email)
	put("first_name", in.FirstName)
	put("last_name", in.LastName)
	put("user_type", string(in.UserType))
	if in.IsActive != nil {
		p["is_active"] = *in.IsActive
	}

	if editing && strings.TrimSpace(in.Password) == "" {
		return p
	}
	p["password"] = in.Password
	p["password_confirm"] = in.PasswordConfirm
	return p
}

func filterQuery(f domain.UserFilter) url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.UserType != "" {
		q.Set("user_type", string(f.UserType))
	}
	if f.IsActive != nil {
		q.Set("is_active", strconv.FormatBool(*f.IsActive))
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	return q
}

func userPath(id int64) string {
	return usersPath + strconv.FormatInt(id, 10) + "/"
}
