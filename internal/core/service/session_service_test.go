package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

func TestSession_InitialStateIsLoading(t *testing.T) {
	svc := NewSessionService(newStubAPI(), discardLogger)
	st := svc.Session()
	if !st.Loading || st.IsAuthenticated || st.User != nil {
		t.Fatalf("unexpected initial state %+v", st)
	}
}

func TestSession_CheckAuth_NetworkFailureMeansLoggedOut(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodGet, "/auth-status/", func(req ports.APIRequest) (int, string) { return 0, "" })
	svc := NewSessionService(api, discardLogger)

	if svc.CheckAuth(context.Background()) {
		t.Fatal("expected false on network failure")
	}
	st := svc.Session()
	if st.IsAuthenticated || st.User != nil || st.Loading {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSession_CheckAuth_ServerErrorMeansLoggedOut(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodGet, "/auth-status/", func(req ports.APIRequest) (int, string) { return 500, "boom" })
	svc := NewSessionService(api, discardLogger)

	if svc.CheckAuth(context.Background()) {
		t.Fatal("expected false on server error")
	}
}

func TestSession_CheckAuth_Authenticated(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodGet, "/auth-status/", func(req ports.APIRequest) (int, string) {
		return 200, `{"authenticated":true,"user":{"id":1,"username":"admin","user_type":"admin","is_active":true}}`
	})
	svc := NewSessionService(api, discardLogger)

	if !svc.CheckAuth(context.Background()) {
		t.Fatal("expected authenticated")
	}
	st := svc.Session()
	if !st.IsAuthenticated || st.User == nil || st.User.Username != "admin" {
		t.Fatalf("unexpected state %+v", st)
	}

	// Snapshot must not alias internal state.
	st.User.Username = "mutated"
	if svc.Session().User.Username != "admin" {
		t.Fatal("Session returned an aliased user")
	}
}

func TestSession_Login_Envelope(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodPost, "/login/", func(req ports.APIRequest) (int, string) {
		creds, ok := req.Body.(domain.Credentials)
		if !ok || creds.Username != "admin" {
			t.Errorf("unexpected login body %#v", req.Body)
		}
		return 200, `{"success":true,"user":{"id":1,"username":"admin","user_type":"admin"}}`
	})
	svc := NewSessionService(api, discardLogger)

	res, err := svc.Login(context.Background(), domain.Credentials{Username: "admin", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.User.ID != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if st := svc.Session(); !st.IsAuthenticated || st.Loading || st.User.Username != "admin" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSession_Login_BareUser(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodPost, "/login/", func(req ports.APIRequest) (int, string) {
		return 200, `{"id":3,"username":"ops","user_type":"technical"}`
	})
	svc := NewSessionService(api, discardLogger)

	res, err := svc.Login(context.Background(), domain.Credentials{Username: "ops", Password: "pw"})
	if err != nil || !res.Success || res.User.UserType != domain.UserTypeTechnical {
		t.Fatalf("unexpected result %+v err=%v", res, err)
	}
}

func TestSession_Login_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"backend error field", 400, `{"success":false,"error":"Invalid credentials"}`, "Invalid credentials"},
		{"no error field", 500, `<html>boom</html>`, "Network error"},
		{"network", 0, ``, "Network error"},
		{"success false in 200", 200, `{"success":false,"error":"Account disabled"}`, "Account disabled"},
		{"unknown shape", 200, `{"hello":"world"}`, "unexpected login response"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newStubAPI()
			api.on(http.MethodPost, "/login/", func(req ports.APIRequest) (int, string) { return tc.status, tc.body })
			svc := NewSessionService(api, discardLogger)

			res, err := svc.Login(context.Background(), domain.Credentials{Username: "x", Password: "y"})
			var le *domain.LoginError
			if !errors.As(err, &le) {
				t.Fatalf("expected LoginError, got %v", err)
			}
			if le.Message != tc.want || res.Error != tc.want || res.Success {
				t.Fatalf("message = %q / %q, want %q", le.Message, res.Error, tc.want)
			}
			if st := svc.Session(); st.IsAuthenticated || st.Loading {
				t.Fatalf("unexpected state %+v", st)
			}
		})
	}
}

func TestSession_Logout_ClearsEvenOnFailure(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodPost, "/login/", func(req ports.APIRequest) (int, string) {
		return 200, `{"success":true,"user":{"id":1,"username":"admin"}}`
	})
	api.on(http.MethodPost, "/logout/", func(req ports.APIRequest) (int, string) { return 0, "" })
	svc := NewSessionService(api, discardLogger)
	ctx := context.Background()

	if _, err := svc.Login(ctx, domain.Credentials{Username: "admin", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected wrapped network error, got %v", err)
	}
	if st := svc.Session(); st.IsAuthenticated || st.User != nil || st.Loading {
		t.Fatalf("logout must clear state, got %+v", st)
	}
}
