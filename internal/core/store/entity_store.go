// Package store holds per-entity list state over the generic user resource:
// what a dashboard table binds to for clients, vendors, financial managers,
// technical support staff and users in general.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/metrics"
)

// Phase is the coarse state of a store's list.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// State is a snapshot of a store. Items always holds the last successful
// fetch; a failed fetch sets Error and leaves Items alone.
type State struct {
	Phase   Phase
	Items   []domain.User
	Loading bool
	Error   string
	Search  string
	Stats   domain.EntityStats
}

// Options tune a store. Zero values pick defaults.
type Options struct {
	SearchDebounce time.Duration
}

// EntityStore is the list state for one user type ("" for all users).
// It is safe for concurrent use.
type EntityStore struct {
	entity   string
	userType domain.UserType
	api      ports.UserResource
	log      zerolog.Logger
	debounce *Debouncer

	mu      sync.Mutex
	state   State
	issued  uint64
	applied uint64
	subs    map[int]func(State)
	nextSub int
}

func newEntityStore(entity string, userType domain.UserType, api ports.UserResource, log zerolog.Logger, opts Options) *EntityStore {
	return &EntityStore{
		entity:   entity,
		userType: userType,
		api:      api,
		log:      log.With().Str("component", "store").Str("entity", entity).Logger(),
		debounce: NewDebouncer(opts.SearchDebounce),
		state:    State{Phase: PhaseIdle, Items: []domain.User{}, Stats: domain.EntityStats{ChurnRate: domain.ZeroChurn}},
		subs:     make(map[int]func(State)),
	}
}

func NewClientStore(api ports.UserResource, log zerolog.Logger, opts Options) *EntityStore {
	return newEntityStore("clients", domain.UserTypeClient, api, log, opts)
}

func NewVendorStore(api ports.UserResource, log zerolog.Logger, opts Options) *EntityStore {
	return newEntityStore("vendors", domain.UserTypeVendor, api, log, opts)
}

func NewFinancialStore(api ports.UserResource, log zerolog.Logger, opts Options) *EntityStore {
	return newEntityStore("financial_managers", domain.UserTypeFinancial, api, log, opts)
}

func NewTechnicalSupportStore(api ports.UserResource, log zerolog.Logger, opts Options) *EntityStore {
	return newEntityStore("technical_support", domain.UserTypeTechnical, api, log, opts)
}

// NewUserStore lists every user regardless of type.
func NewUserStore(api ports.UserResource, log zerolog.Logger, opts Options) *EntityStore {
	return newEntityStore("users", "", api, log, opts)
}

// ForUserType picks the store constructor bound to t; "" gives the generic
// user store.
func ForUserType(t domain.UserType, api ports.UserResource, log zerolog.Logger, opts Options) (*EntityStore, error) {
	switch t {
	case "":
		return NewUserStore(api, log, opts), nil
	case domain.UserTypeClient:
		return NewClientStore(api, log, opts), nil
	case domain.UserTypeVendor:
		return NewVendorStore(api, log, opts), nil
	case domain.UserTypeFinancial:
		return NewFinancialStore(api, log, opts), nil
	case domain.UserTypeTechnical:
		return NewTechnicalSupportStore(api, log, opts), nil
	}
	return nil, fmt.Errorf("store for %q: %w", t, domain.ErrUnknownUserType)
}

// Entity is the label of the store ("vendors", "users", ...).
func (s *EntityStore) Entity() string { return s.entity }

// UserType is the type the store is bound to, "" for the generic store.
func (s *EntityStore) UserType() domain.UserType { return s.userType }

// State returns a snapshot safe to keep.
func (s *EntityStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *EntityStore) snapshotLocked() State {
	st := s.state
	st.Items = append([]domain.User(nil), s.state.Items...)
	if st.Items == nil {
		st.Items = []domain.User{}
	}
	return st
}

// Subscribe registers fn to receive every new state. The returned func
// unsubscribes.
func (s *EntityStore) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// update mutates state under the lock and then notifies subscribers
// outside it.
func (s *EntityStore) update(mutate func(st *State)) {
	s.mu.Lock()
	mutate(&s.state)
	snap := s.snapshotLocked()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// ClearError dismisses the error banner.
func (s *EntityStore) ClearError() {
	s.update(func(st *State) {
		st.Error = ""
		if st.Phase == PhaseError {
			st.Phase = PhaseReady
		}
	})
}

// Fetch reloads the list with the current search term. Responses older
// than one already applied are dropped.
func (s *EntityStore) Fetch(ctx context.Context) error {
	var (
		seq    uint64
		filter domain.UserFilter
	)
	s.update(func(st *State) {
		s.issued++
		seq = s.issued
		filter = domain.UserFilter{UserType: s.userType, Search: st.Search}
		st.Phase = PhaseLoading
		st.Loading = true
	})

	users, err := s.api.List(ctx, filter)

	stale := false
	s.update(func(st *State) {
		if seq < s.applied {
			stale = true
			return
		}
		s.applied = seq
		st.Loading = s.applied < s.issued
		if err != nil {
			st.Error = domain.Describe(err)
			st.Phase = PhaseError
			return
		}
		st.Items = users
		st.Error = ""
		st.Phase = PhaseReady
		if st.Loading {
			st.Phase = PhaseLoading
		}
	})

	if stale {
		metrics.StaleResponsesDroppedTotal.WithLabelValues(s.entity).Inc()
		s.log.Debug().Uint64("seq", seq).Msg("stale list response dropped")
		return nil
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("list fetch failed, keeping previous items")
		return err
	}
	return nil
}

// Refresh is Fetch under the name the tables use for their reload button.
func (s *EntityStore) Refresh(ctx context.Context) error {
	return s.Fetch(ctx)
}

// Search sets the server-side filter and fetches. An empty term lists
// everything.
func (s *EntityStore) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	s.update(func(st *State) { st.Search = term })
	return s.Fetch(ctx)
}

// SearchDebounced runs Search once typing has paused.
func (s *EntityStore) SearchDebounced(ctx context.Context, term string) {
	s.debounce.Trigger(func() {
		_ = s.Search(ctx, term)
	})
}

// Close cancels a pending debounced search.
func (s *EntityStore) Close() {
	s.debounce.Stop()
}

// Create forces the store's user type onto the input unless this is the
// generic store.
func (s *EntityStore) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if s.userType != "" {
		in.UserType = s.userType
	}
	return mutate(s, ctx, "create", func() (*domain.User, error) { return s.api.Create(ctx, in) })
}

func (s *EntityStore) Update(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	return mutate(s, ctx, "update", func() (*domain.User, error) { return s.api.Update(ctx, id, in) })
}

func (s *EntityStore) Delete(ctx context.Context, id int64) error {
	_, err := mutate(s, ctx, "delete", func() (*domain.User, error) { return nil, s.api.Delete(ctx, id) })
	return err
}

func (s *EntityStore) Suspend(ctx context.Context, id int64) (*domain.User, error) {
	return mutate(s, ctx, "suspend", func() (*domain.User, error) { return s.api.Suspend(ctx, id) })
}

func (s *EntityStore) Activate(ctx context.Context, id int64) (*domain.User, error) {
	return mutate(s, ctx, "activate", func() (*domain.User, error) { return s.api.Activate(ctx, id) })
}

// mutate runs op and follows a success with a full refetch. A failure is
// put in the error banner and returned; the list is not reloaded so field
// errors stay visible next to the form.
func mutate(s *EntityStore, ctx context.Context, op string, call func() (*domain.User, error)) (*domain.User, error) {
	u, err := call()
	if err != nil {
		msg := domain.Describe(err)
		s.update(func(st *State) {
			st.Error = msg
		})
		s.log.Warn().Err(err).Str("op", op).Msg("mutation failed")
		return nil, err
	}

	if ferr := s.Fetch(ctx); ferr != nil {
		// The mutation itself went through.
		s.log.Warn().Err(ferr).Str("op", op).Msg("refetch after mutation failed")
	}
	return u, nil
}

// LoadStats fills State.Stats from the extended stats endpoint, or from the
// current items when the endpoint fails or has no entry for this type.
func (s *EntityStore) LoadStats(ctx context.Context) domain.EntityStats {
	st, ok := s.statsFromEndpoint(ctx)
	if !ok {
		items := s.State().Items
		if s.userType != "" {
			own := items[:0]
			for _, u := range items {
				if u.UserType == s.userType {
					own = append(own, u)
				}
			}
			items = own
		}
		st = domain.DeriveStats(items)
		s.log.Debug().Msg("stats endpoint unusable, derived from list")
	}
	s.update(func(state *State) { state.Stats = st })
	return st
}

func (s *EntityStore) statsFromEndpoint(ctx context.Context) (domain.EntityStats, bool) {
	resp, err := s.api.Stats(ctx, true)
	if err != nil || resp == nil {
		if err != nil {
			s.log.Warn().Err(err).Msg("stats endpoint failed")
		}
		return domain.EntityStats{}, false
	}

	if s.userType == "" {
		out := domain.EntityStats{Total: resp.TotalUsers, Active: resp.ActiveUsers, ChurnRate: domain.ZeroChurn}
		for _, ts := range resp.ByUserType {
			out.NewToday += ts.NewToday
		}
		if resp.TotalUsers > 0 {
			out.ChurnRate = fmt.Sprintf("%.1f%%", float64(resp.TotalUsers-resp.ActiveUsers)*100/float64(resp.TotalUsers))
		}
		return out, true
	}

	ts, ok := resp.ByUserType[s.userType]
	if !ok {
		return domain.EntityStats{}, false
	}
	churn := ts.ChurnRate
	if churn == "" {
		churn = domain.ZeroChurn
	}
	return domain.EntityStats{Total: ts.Total, Active: ts.Active, NewToday: ts.NewToday, ChurnRate: churn}, true
}
