package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/service"
	"github.com/marketplace-admin/console/internal/core/store"
	"github.com/marketplace-admin/console/internal/infrastructure/apiclient"
	"github.com/marketplace-admin/console/internal/infrastructure/csrf"
	"github.com/marketplace-admin/console/internal/infrastructure/db/memory"
	"github.com/marketplace-admin/console/internal/infrastructure/queue"
)

type backend struct {
	server     *httptest.Server
	directory  *service.DirectoryService
	lifecycles *memory.LifecycleRepository
	dispatcher *queue.Dispatcher
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	log := zerolog.Nop()
	users := memory.NewUserRepository()
	lifecycles := memory.NewLifecycleRepository()

	dispatcher := queue.NewDispatcher(2, service.NewLifecycleService(lifecycles, log), log)
	dispatcher.Start(context.Background())

	directory := service.NewDirectoryService(users, dispatcher, log)
	accounts := service.NewAccountService(users, memory.NewRevoker(), "test-secret", time.Hour, log)

	reg := prometheus.NewRegistry()
	e := NewRouter(Deps{
		Accounts:   accounts,
		Directory:  directory,
		SessionTTL: time.Hour,
		Log:        log,
		Registerer: reg,
		Gatherer:   reg,
	})
	b := &backend{
		server:     httptest.NewServer(e),
		directory:  directory,
		lifecycles: lifecycles,
		dispatcher: dispatcher,
	}
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) seed(t *testing.T, username string, userType domain.UserType) *domain.User {
	t.Helper()
	u, err := b.directory.Create(context.Background(), domain.UserInput{
		Username:        username,
		Email:           username + "@shop.io",
		FirstName:       "First",
		LastName:        "Last",
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
		UserType:        userType,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
	return u
}

// dial builds the client stack the dashboard uses: one request pipeline with
// the CSRF interceptor installed, sharing its cookie jar with the resolver.
func (b *backend) dial(t *testing.T) (*service.SessionService, *service.UserResourceService) {
	t.Helper()
	log := zerolog.Nop()
	client, err := apiclient.New(apiclient.Options{BaseURL: b.server.URL + "/api"}, log)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	client.UseTokenResolver(csrf.NewResolver(client.Jar(), client.BaseURL(), nil, client, log))
	return service.NewSessionService(client, log), service.NewUserResourceService(client, log)
}

func TestRouter_AnonymousListIsAuthRequired(t *testing.T) {
	b := newBackend(t)
	sessions, users := b.dial(t)
	ctx := context.Background()

	if sessions.CheckAuth(ctx) {
		t.Fatal("fresh client must not be authenticated")
	}
	_, err := users.List(ctx, domain.UserFilter{})
	if !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected auth_required, got %v", err)
	}
	if errors.Is(err, domain.ErrForbidden) {
		t.Fatal("auth_required must not read as a plain permission error")
	}
}

func TestRouter_NonAdminIsForbidden(t *testing.T) {
	b := newBackend(t)
	b.seed(t, "vera", domain.UserTypeVendor)
	sessions, users := b.dial(t)
	ctx := context.Background()

	if _, err := sessions.Login(ctx, domain.Credentials{Username: "vera", Password: "correct-horse"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, err := users.List(ctx, domain.UserFilter{})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRouter_LoginFailureMessage(t *testing.T) {
	b := newBackend(t)
	b.seed(t, "admin", domain.UserTypeAdmin)
	sessions, _ := b.dial(t)

	_, err := sessions.Login(context.Background(), domain.Credentials{Username: "admin", Password: "nope"})
	var le *domain.LoginError
	if !errors.As(err, &le) || le.Message != "Invalid credentials" {
		t.Fatalf("expected Invalid credentials, got %v", err)
	}
	if sessions.Session().IsAuthenticated {
		t.Fatal("failed login must leave the session anonymous")
	}
}

func TestRouter_CreateThenListAndLifecycleRoundTrip(t *testing.T) {
	b := newBackend(t)
	b.seed(t, "admin", domain.UserTypeAdmin)
	sessions, users := b.dial(t)
	ctx := context.Background()

	if _, err := sessions.Login(ctx, domain.Credentials{Username: "admin", Password: "correct-horse"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sessions.CheckAuth(ctx) {
		t.Fatal("expected an authenticated session after login")
	}

	clients := store.NewClientStore(users, zerolog.Nop(), store.Options{})
	defer clients.Close()

	bob, err := clients.Create(ctx, domain.UserInput{
		Username:        "bob",
		Email:           "bob@x.com",
		FirstName:       "Bob",
		LastName:        "Buyer",
		Password:        "longenough1",
		PasswordConfirm: "longenough1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bob.ID == 0 || bob.UserType != domain.UserTypeClient || !bob.IsActive {
		t.Fatalf("unexpected created user %+v", bob)
	}

	st := clients.State()
	if st.Error != "" || len(st.Items) != 1 || st.Items[0].ID != bob.ID {
		t.Fatalf("list after create must contain bob: %+v", st)
	}

	if _, err := clients.Suspend(ctx, bob.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if st := clients.State(); st.Items[0].IsActive {
		t.Fatal("bob should be inactive after suspend")
	}
	if _, err := clients.Activate(ctx, bob.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if st := clients.State(); !st.Items[0].IsActive {
		t.Fatal("bob should be active after activate")
	}

	b.dispatcher.Stop()
	events, _ := b.lifecycles.ListByUser(ctx, bob.ID)
	if len(events) != 2 || events[0].Action != domain.ActionSuspended || events[1].Action != domain.ActionActivated {
		t.Fatalf("unexpected lifecycle trail %+v", events)
	}
	if events[0].Actor != "admin" {
		t.Fatalf("unexpected actor %q", events[0].Actor)
	}

	// A duplicate surfaces the server's field error in the banner.
	_, err = clients.Create(ctx, domain.UserInput{
		Username: "bob", Email: "b2@x.com", FirstName: "B", LastName: "B",
		Password: "longenough1", PasswordConfirm: "longenough1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := clients.State().Error; got != "username: A user with that username already exists." {
		t.Fatalf("unexpected banner %q", got)
	}

	stats := clients.LoadStats(ctx)
	if stats.Derived || stats.Total != 1 || stats.Active != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if err := sessions.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.CheckAuth(ctx) {
		t.Fatal("session must be gone after logout")
	}
}

func TestRouter_MutationWithoutCSRFTokenIsRejected(t *testing.T) {
	b := newBackend(t)
	resp, err := http.Post(b.server.URL+"/api/login/", "application/json", strings.NewReader(`{"username":"a","password":"b"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected CSRF rejection, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["detail"] == nil {
		t.Fatalf("expected a detail body, got %v %v", body, err)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	b := newBackend(t)
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		resp, err := http.Get(b.server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
