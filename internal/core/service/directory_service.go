package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/metrics"
)

const minPasswordLength = 8

// DirectoryService is the backend side of /users/: CRUD over the account
// repository plus the lifecycle hooks and aggregate stats.
type DirectoryService struct {
	repo       ports.UserRepository
	dispatcher ports.LifecycleDispatcher
	validate   *validator.Validate
	now        func() time.Time
	log        zerolog.Logger
}

var _ ports.DirectoryService = (*DirectoryService)(nil)

// NewDirectoryService wires the service. dispatcher may be nil, in which case
// lifecycle notifications are skipped.
func NewDirectoryService(repo ports.UserRepository, dispatcher ports.LifecycleDispatcher, log zerolog.Logger) *DirectoryService {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &DirectoryService{
		repo:       repo,
		dispatcher: dispatcher,
		validate:   v,
		now:        time.Now,
		log:        log.With().Str("component", "directory").Logger(),
	}
}

func (s *DirectoryService) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	accs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(accs))
	for _, a := range accs {
		users = append(users, a.User)
	}
	return users, nil
}

func (s *DirectoryService) Get(ctx context.Context, id int64) (*domain.User, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u := acc.User
	return &u, nil
}

// Create validates the form, hashes the password and stores the account.
// Field problems come back as *domain.ValidationError.
func (s *DirectoryService) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	verr := &domain.ValidationError{}
	if err := s.validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		for _, fe := range ve {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}
	if in.Username != "" {
		if err := s.ensureUsernameFree(ctx, in.Username, 0); err != nil {
			if !errors.Is(err, domain.ErrUserExists) {
				return nil, fmt.Errorf("create user: %w", err)
			}
			verr.Add("username", "A user with that username already exists.")
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	now := s.now().UTC()
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	acc := &domain.Account{
		User: domain.User{
			Username:   in.Username,
			Email:      in.Email,
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			UserType:   in.UserType,
			IsActive:   active,
			DateJoined: &now,
		},
		PasswordHash: string(hash),
	}

	created, err := s.repo.Create(ctx, acc)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			verr.Add("username", "A user with that username already exists.")
			return nil, verr
		}
		s.log.Error().Err(err).Str("username", in.Username).Msg("failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.UsersCreatedTotal.WithLabelValues(string(created.UserType)).Inc()
	s.log.Info().Int64("id", created.ID).Str("user_type", string(created.UserType)).Msg("user created")
	u := created.User
	return &u, nil
}

// Update applies a partial change. A password change needs a matching
// confirmation.
func (s *DirectoryService) Update(ctx context.Context, id int64, patch ports.UserPatch) (*domain.User, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		switch {
		case name == "":
			verr.Add("username", "This field may not be blank.")
		case name != acc.Username:
			if err := s.ensureUsernameFree(ctx, name, id); err != nil {
				if !errors.Is(err, domain.ErrUserExists) {
					return nil, fmt.Errorf("update user %d: %w", id, err)
				}
				verr.Add("username", "A user with that username already exists.")
			}
		}
		acc.Username = name
	}
	if patch.Email != nil {
		if err := s.validate.Var(*patch.Email, "required,email"); err != nil {
			verr.Add("email", "Enter a valid email address.")
		}
		acc.Email = *patch.Email
	}
	if patch.FirstName != nil {
		acc.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		acc.LastName = *patch.LastName
	}
	if patch.UserType != nil {
		if _, err := domain.ParseUserType(string(*patch.UserType)); err != nil {
			verr.Add("user_type", fmt.Sprintf("%q is not a valid choice.", *patch.UserType))
		}
		acc.UserType = *patch.UserType
	}
	if patch.IsActive != nil {
		acc.IsActive = *patch.IsActive
	}
	if patch.Password != nil {
		pw := *patch.Password
		confirm := ""
		if patch.PasswordConfirm != nil {
			confirm = *patch.PasswordConfirm
		}
		switch {
		case len(pw) < minPasswordLength:
			verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
		case pw != confirm:
			verr.Add("password_confirm", "Passwords do not match.")
		default:
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("update user %d: hash password: %w", id, err)
			}
			acc.PasswordHash = string(hash)
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if err := s.repo.Update(ctx, acc); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	u := acc.User
	return &u, nil
}

func (s *DirectoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Msg("user deleted")
	return nil
}

// SetActive flips is_active and, when notify is set, queues a lifecycle
// event for the background workers.
func (s *DirectoryService) SetActive(ctx context.Context, id int64, active bool, actor string, notify bool) (*domain.User, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	acc.IsActive = active
	if err := s.repo.Update(ctx, acc); err != nil {
		return nil, fmt.Errorf("set active %d: %w", id, err)
	}

	if notify && s.dispatcher != nil {
		action := domain.ActionSuspended
		if active {
			action = domain.ActionActivated
		}
		s.dispatcher.Enqueue(domain.LifecycleEvent{
			UserID:     acc.ID,
			Username:   acc.Username,
			Email:      acc.Email,
			Action:     action,
			Actor:      actor,
			OccurredAt: s.now().UTC(),
		})
	}

	u := acc.User
	return &u, nil
}

// Stats aggregates over every account. The per-type breakdown is only
// computed when extended is set.
func (s *DirectoryService) Stats(ctx context.Context, extended bool) (*domain.UserStats, error) {
	accs, err := s.repo.List(ctx, domain.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	st := &domain.UserStats{TotalUsers: len(accs)}
	for _, a := range accs {
		if a.IsActive {
			st.ActiveUsers++
		}
	}
	if !extended {
		return st, nil
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	st.ByUserType = make(map[domain.UserType]domain.TypeStats, len(domain.UserTypes))
	for _, t := range domain.UserTypes {
		st.ByUserType[t] = domain.TypeStats{ChurnRate: domain.ZeroChurn}
	}
	for _, a := range accs {
		ts := st.ByUserType[a.UserType]
		ts.Total++
		if a.IsActive {
			ts.Active++
		}
		if a.DateJoined != nil && !a.DateJoined.UTC().Before(today) {
			ts.NewToday++
		}
		st.ByUserType[a.UserType] = ts
	}
	for t, ts := range st.ByUserType {
		ts.ChurnRate = churnRate(ts.Total, ts.Active)
		st.ByUserType[t] = ts
	}
	return st, nil
}

// churnRate is the share of inactive accounts, e.g. "12.5%".
func churnRate(total, active int) string {
	if total == 0 {
		return domain.ZeroChurn
	}
	return fmt.Sprintf("%.1f%%", float64(total-active)*100/float64(total))
}

func (s *DirectoryService) ensureUsernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return domain.ErrUserExists
	}
	return nil
}
