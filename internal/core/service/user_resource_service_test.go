package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stub transport
// ---------------------------------------------------------------------------

type routeFn func(req ports.APIRequest) (status int, body string)

// stubAPI answers by "METHOD /path/" key. Status 0 simulates a network
// failure; unknown routes answer 404 like a backend without that endpoint.
type stubAPI struct {
	routes map[string]routeFn
	calls  []ports.APIRequest
}

func newStubAPI() *stubAPI {
	return &stubAPI{routes: make(map[string]routeFn)}
}

func (s *stubAPI) on(method, path string, fn routeFn) {
	s.routes[method+" "+path] = fn
}

func (s *stubAPI) Do(_ context.Context, req ports.APIRequest) (*ports.APIResponse, error) {
	s.calls = append(s.calls, req)
	fn, ok := s.routes[req.Method+" "+req.Path]
	if !ok {
		return nil, &domain.RequestError{Method: req.Method, URL: req.Path, Status: http.StatusNotFound, Body: []byte(`{"detail":"Not found."}`), Detail: "Not found."}
	}
	status, body := fn(req)
	if status == 0 {
		return nil, &domain.RequestError{Method: req.Method, URL: req.Path, Err: errors.New("connection refused")}
	}
	if status >= 300 {
		return nil, &domain.RequestError{Method: req.Method, URL: req.Path, Status: status, Body: []byte(body)}
	}
	return &ports.APIResponse{Status: status, Body: []byte(body)}, nil
}

func (s *stubAPI) callKeys() []string {
	keys := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		keys = append(keys, c.Method+" "+c.Path)
	}
	return keys
}

func bodyMap(t *testing.T, req ports.APIRequest) map[string]any {
	t.Helper()
	m, ok := req.Body.(map[string]any)
	if !ok {
		t.Fatalf("expected map body, got %T", req.Body)
	}
	return m
}

func userJSON(u domain.User) string {
	b, _ := json.Marshal(u)
	return string(b)
}

var discardLogger = zerolog.Nop()

func validInput() domain.UserInput {
	return domain.UserInput{
		Username:        "bob",
		Email:           "bob@x.com",
		FirstName:       "Bob",
		LastName:        "X",
		Password:        "longenough1",
		PasswordConfirm: "longenough1",
		UserType:        domain.UserTypeClient,
	}
}

// ---------------------------------------------------------------------------
// List decoding
// ---------------------------------------------------------------------------

func TestDecodeUserList_AllShapesNormaliseEqually(t *testing.T) {
	items := `[{"id":1,"username":"a","user_type":"client","is_active":true},{"id":2,"username":"b","user_type":"vendor","is_active":false}]`
	bodies := map[listShape]string{
		shapeArray:   items,
		shapeResults: `{"count":2,"next":null,"previous":null,"results":` + items + `}`,
		shapeUsers:   `{"users":` + items + `}`,
	}

	var want []domain.User
	for shape, body := range bodies {
		got, gotShape, err := decodeUserList([]byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", shape, err)
		}
		if gotShape != shape {
			t.Errorf("expected shape %s, got %s", shape, gotShape)
		}
		if want == nil {
			want = got
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: normalised list differs: %+v vs %+v", shape, got, want)
		}
	}
	if len(want) != 2 || want[0].ID != 1 || want[1].UserType != domain.UserTypeVendor {
		t.Fatalf("unexpected decoded users: %+v", want)
	}
}

func TestDecodeUserList_UnknownShapesAreEmpty(t *testing.T) {
	for _, body := range []string{``, `{}`, `{"results":null}`, `{"detail":"x"}`, `"text"`} {
		got, _, err := decodeUserList([]byte(body))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", body, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("%q: expected empty non-nil list, got %#v", body, got)
		}
	}
	if _, _, err := decodeUserList([]byte(`[{"id":`)); err == nil {
		t.Error("expected error for truncated json")
	}
}

// ---------------------------------------------------------------------------
// List / scoped
// ---------------------------------------------------------------------------

func TestUserResource_List_BuildsQuery(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodGet, "/users/", func(req ports.APIRequest) (int, string) {
		return 200, `{"results":[]}`
	})
	svc := NewUserResourceService(api, discardLogger)

	active := false
	_, err := svc.List(context.Background(), domain.UserFilter{Search: "  bob ", UserType: domain.UserTypeVendor, IsActive: &active, Ordering: "-date_joined"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := api.calls[0].Query
	if q.Get("search") != "bob" || q.Get("user_type") != "vendor" || q.Get("is_active") != "false" || q.Get("ordering") != "-date_joined" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestUserResource_List_EmptyFilterSendsNoParams(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodGet, "/users/", func(req ports.APIRequest) (int, string) { return 200, `[]` })
	svc := NewUserResourceService(api, discardLogger)

	if _, err := svc.List(context.Background(), domain.UserFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.calls[0].Query) != 0 {
		t.Fatalf("expected no query params, got %v", api.calls[0].Query)
	}
}

func TestUserResource_ListScoped(t *testing.T) {
	api := newStubAPI()
	for _, seg := range []string{"clients", "vendors", "financial_managers", "technical_support"} {
		api.on(http.MethodGet, "/users/"+seg+"/", func(req ports.APIRequest) (int, string) { return 200, `[]` })
	}
	svc := NewUserResourceService(api, discardLogger)

	for _, ut := range []domain.UserType{domain.UserTypeClient, domain.UserTypeVendor, domain.UserTypeFinancial, domain.UserTypeTechnical} {
		if _, err := svc.ListScoped(context.Background(), ut); err != nil {
			t.Errorf("%s: unexpected error: %v", ut, err)
		}
	}
	if _, err := svc.ListScoped(context.Background(), domain.UserTypeAdmin); !errors.Is(err, domain.ErrUnknownUserType) {
		t.Errorf("expected ErrUnknownUserType for admin, got %v", err)
	}
	want := []string{"GET /users/clients/", "GET /users/vendors/", "GET /users/financial_managers/", "GET /users/technical_support/"}
	if !reflect.DeepEqual(api.callKeys(), want) {
		t.Fatalf("unexpected calls %v", api.callKeys())
	}
}

// ---------------------------------------------------------------------------
// Create / update payloads
// ---------------------------------------------------------------------------

func TestUserResource_Create_SendsFullForm(t *testing.T) {
	api := newStubAPI()
	var sent map[string]any
	api.on(http.MethodPost, "/users/", func(req ports.APIRequest) (int, string) {
		sent = bodyMap(t, req)
		return 201, `{"id":42,"username":"bob","email":"bob@x.com","user_type":"client","is_active":true}`
	})
	svc := NewUserResourceService(api, discardLogger)

	u, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 42 {
		t.Fatalf("expected id 42, got %d", u.ID)
	}
	for _, key := range []string{"username", "email", "first_name", "last_name", "password", "password_confirm", "user_type"} {
		if _, ok := sent[key]; !ok {
			t.Errorf("create payload missing %q", key)
		}
	}
}

func TestUserResource_Create_LocalValidation(t *testing.T) {
	api := newStubAPI()
	svc := NewUserResourceService(api, discardLogger)

	in := validInput()
	in.Username = ""
	in.Email = "not-an-email"
	in.PasswordConfirm = "different"

	_, err := svc.Create(context.Background(), in)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Error("ValidationError must match ErrValidation")
	}
	for _, field := range []string{"username", "email", "password_confirm"} {
		if len(verr.Fields[field]) == 0 {
			t.Errorf("expected error for %s, got %v", field, verr.Fields)
		}
	}
	if len(api.calls) != 0 {
		t.Fatalf("no request expected when local validation fails")
	}
}

func TestUserResource_Create_ServerFieldErrorsSurfaceAsIs(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodPost, "/users/", func(req ports.APIRequest) (int, string) {
		return 400, `{"username":["A user with that username already exists."]}`
	})
	svc := NewUserResourceService(api, discardLogger)

	_, err := svc.Create(context.Background(), validInput())
	var re *domain.RequestError
	if !errors.As(err, &re) || re.Status != 400 {
		t.Fatalf("expected 400 RequestError, got %v", err)
	}
	if string(re.Body) != `{"username":["A user with that username already exists."]}` {
		t.Fatalf("body altered: %s", re.Body)
	}
}

func TestUserResource_Update_OmitsBlankPassword(t *testing.T) {
	for _, pw := range []string{"", "   "} {
		api := newStubAPI()
		var sent map[string]any
		api.on(http.MethodPatch, "/users/7/", func(req ports.APIRequest) (int, string) {
			sent = bodyMap(t, req)
			return 200, `{"id":7,"username":"bob"}`
		})
		svc := NewUserResourceService(api, discardLogger)

		in := validInput()
		in.Password = pw
		in.PasswordConfirm = ""
		if _, err := svc.Update(context.Background(), 7, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := sent["password"]; ok {
			t.Errorf("password %q: body must not contain password", pw)
		}
		if _, ok := sent["password_confirm"]; ok {
			t.Errorf("password %q: body must not contain password_confirm", pw)
		}
		if sent["email"] != "bob@x.com" {
			t.Errorf("profile fields must still be sent: %v", sent)
		}
	}
}

func TestUserResource_Update_SendsPasswordWhenProvided(t *testing.T) {
	api := newStubAPI()
	var sent map[string]any
	api.on(http.MethodPatch, "/users/7/", func(req ports.APIRequest) (int, string) {
		sent = bodyMap(t, req)
		return 200, `{"id":7}`
	})
	svc := NewUserResourceService(api, discardLogger)

	if _, err := svc.Update(context.Background(), 7, domain.UserInput{Password: "newpass123", PasswordConfirm: "newpass123"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent["password"] != "newpass123" || sent["password_confirm"] != "newpass123" {
		t.Fatalf("password keys missing: %v", sent)
	}
	if _, ok := sent["username"]; ok {
		t.Fatalf("blank profile fields must be omitted on edit: %v", sent)
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestUserResource_Suspend_FallsBackToPatch(t *testing.T) {
	api := newStubAPI()
	var patched map[string]any
	api.on(http.MethodPatch, "/users/7/", func(req ports.APIRequest) (int, string) {
		patched = bodyMap(t, req)
		return 200, `{"id":7,"username":"carol","is_active":false}`
	})
	svc := NewUserResourceService(api, discardLogger)

	u, err := svc.Suspend(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.IsActive {
		t.Fatal("expected is_active=false")
	}
	if patched["is_active"] != false {
		t.Fatalf("fallback must PATCH is_active=false, got %v", patched)
	}
	want := []string{"POST /users/7/suspend/", "PATCH /users/7/"}
	if !reflect.DeepEqual(api.callKeys(), want) {
		t.Fatalf("unexpected call order %v", api.callKeys())
	}
}

func TestUserResource_Suspend_DedicatedEndpointSucceeds(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodPost, "/users/7/suspend/", func(req ports.APIRequest) (int, string) {
		return 200, `{"id":7,"username":"carol","is_active":false}`
	})
	svc := NewUserResourceService(api, discardLogger)

	if _, err := svc.Suspend(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("no fallback expected, calls: %v", api.callKeys())
	}
}

func TestUserResource_Activate_StatusMessageTriggersRefetch(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodPost, "/users/7/activate/", func(req ports.APIRequest) (int, string) {
		return 200, `{"status":"user activated"}`
	})
	api.on(http.MethodGet, "/users/7/", func(req ports.APIRequest) (int, string) {
		return 200, `{"id":7,"username":"carol","is_active":true}`
	})
	svc := NewUserResourceService(api, discardLogger)

	u, err := svc.Activate(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.IsActive || u.ID != 7 {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestUserResource_Suspend_BothPathsFail(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodPatch, "/users/7/", func(req ports.APIRequest) (int, string) {
		return 500, `oops`
	})
	svc := NewUserResourceService(api, discardLogger)

	_, err := svc.Suspend(context.Background(), 7)
	if !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected the PATCH failure to surface, got %v", err)
	}
}

// statefulBackend keeps one user in memory so suspend/activate round trips
// can be observed.
func statefulBackend(t *testing.T, initial domain.User, dedicated bool) *stubAPI {
	t.Helper()
	api := newStubAPI()
	user := initial
	path := fmt.Sprintf("/users/%d/", user.ID)

	api.on(http.MethodGet, path, func(req ports.APIRequest) (int, string) { return 200, userJSON(user) })
	api.on(http.MethodPatch, path, func(req ports.APIRequest) (int, string) {
		if v, ok := bodyMap(t, req)["is_active"].(bool); ok {
			user.IsActive = v
		}
		return 200, userJSON(user)
	})
	if dedicated {
		api.on(http.MethodPost, path+"suspend/", func(req ports.APIRequest) (int, string) {
			user.IsActive = false
			return 200, userJSON(user)
		})
		api.on(http.MethodPost, path+"activate/", func(req ports.APIRequest) (int, string) {
			user.IsActive = true
			return 200, userJSON(user)
		})
	}
	return api
}

func TestUserResource_SuspendActivate_RoundTrip(t *testing.T) {
	for _, dedicated := range []bool{true, false} {
		initial := domain.User{ID: 7, Username: "carol", UserType: domain.UserTypeVendor, IsActive: true}
		api := statefulBackend(t, initial, dedicated)
		svc := NewUserResourceService(api, discardLogger)
		ctx := context.Background()

		s, err := svc.Suspend(ctx, 7)
		if err != nil || s.IsActive {
			t.Fatalf("dedicated=%v: suspend failed: %v %+v", dedicated, err, s)
		}
		a, err := svc.Activate(ctx, 7)
		if err != nil || !a.IsActive {
			t.Fatalf("dedicated=%v: activate failed: %v %+v", dedicated, err, a)
		}
		final, _ := svc.Get(ctx, 7)
		if !reflect.DeepEqual(*final, initial) {
			t.Fatalf("dedicated=%v: round trip changed state: %+v vs %+v", dedicated, *final, initial)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

func TestUserResource_Stats_Extended(t *testing.T) {
	api := newStubAPI()
	api.on(http.MethodGet, "/users/stats/", func(req ports.APIRequest) (int, string) {
		if req.Query.Get("extended") != "true" {
			t.Errorf("extended flag missing: %v", req.Query)
		}
		return 200, `{"total_users":3,"active_users":2,"by_user_type":{"vendor":{"total":2,"active":1,"new_today":1,"churn_rate":"50.0%"}}}`
	})
	svc := NewUserResourceService(api, discardLogger)

	st, err := svc.Stats(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := st.ByUserType[domain.UserTypeVendor]
	if st.TotalUsers != 3 || v.Total != 2 || v.NewToday != 1 || !strings.HasSuffix(v.ChurnRate, "%") {
		t.Fatalf("unexpected stats %+v", st)
	}
}
