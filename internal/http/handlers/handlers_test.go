package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/visitor-register/internal/analytics"
	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/internal/http/middleware"
	"github.com/diagnosis/visitor-register/internal/service"
	"github.com/diagnosis/visitor-register/pkg/auth"
)

const testSecret = "handler-secret"

var checkInAt = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type stubVisitors struct {
	checkIn  func(req *domain.CheckInRequest) (*domain.Visitor, error)
	checkOut func(id string) (*domain.Visitor, error)
	list     []domain.Visitor
	err      error
	gotLimit int
}

func (s *stubVisitors) CheckIn(_ context.Context, req *domain.CheckInRequest) (*domain.Visitor, error) {
	return s.checkIn(req)
}

func (s *stubVisitors) CheckOut(_ context.Context, id string) (*domain.Visitor, error) {
	return s.checkOut(id)
}

func (s *stubVisitors) Get(_ context.Context, id string) (*domain.Visitor, error) {
	for _, v := range s.list {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "visitor", ID: id}
}

func (s *stubVisitors) ListRecent(_ context.Context, limit int) ([]domain.Visitor, error) {
	s.gotLimit = limit
	return s.list, s.err
}

func (s *stubVisitors) Board(_ context.Context, search string, limit int) (analytics.Board, error) {
	s.gotLimit = limit
	if s.err != nil {
		return analytics.Board{}, s.err
	}
	return analytics.Partition(s.list, search), nil
}

func (s *stubVisitors) Analytics(_ context.Context, search string, limit int) ([]analytics.VisitorSummary, error) {
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return analytics.Aggregate(s.list, search), nil
}

type stubUsers struct {
	users map[string]*domain.User
}

func (s *stubUsers) Create(_ context.Context, caller service.Caller, req *domain.CreateUserRequest) (*domain.User, error) {
	if _, ok := s.users[caller.ID]; ok {
		return nil, &domain.ConflictError{Resource: "user", Message: "user already exists"}
	}
	u := &domain.User{ID: caller.ID, Email: caller.Email, TeamLeaderName: req.TeamLeaderName, Organisation: req.Organisation}
	s.users[caller.ID] = u
	return u, nil
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, &domain.NotFoundError{Resource: "user", ID: id}
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "user", ID: email}
}

func (s *stubUsers) Update(_ context.Context, id string, patch *domain.UserPatch) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "user", ID: id}
	}
	if patch.Organisation != nil {
		u.Organisation = *patch.Organisation
	}
	return u, nil
}

type stubAuth struct{}

func (stubAuth) SignUp(_ context.Context, req *domain.SignUpRequest) (*domain.Credential, error) {
	if req.Email == "taken@example.com" {
		return nil, &domain.ConflictError{Resource: "credential", Message: "email already registered"}
	}
	return &domain.Credential{Subject: "sub-new", Email: req.Email}, nil
}

func (stubAuth) Login(_ context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Password != "correct-horse" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.LoginResponse{AccessToken: "t", TokenType: "Bearer", ExpiresIn: 60}, nil
}

func (stubAuth) Me(ctx context.Context) (*domain.User, error) {
	caller, err := service.ContextIdentity{}.Caller(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: caller.ID}, nil
}

type testServer struct {
	router   chi.Router
	visitors *stubVisitors
	users    *stubUsers
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	out := checkInAt.Add(time.Hour)
	ts := &testServer{
		visitors: &stubVisitors{
			list: []domain.Visitor{
				{ID: "v2", Name: "Bob Stone", IDNumber: "B2", CheckInTime: checkInAt.Add(time.Hour)},
				{ID: "v1", Name: "John Doe", IDNumber: "A1", CheckInTime: checkInAt, CheckOutTime: &out},
			},
		},
		users: &stubUsers{users: map[string]*domain.User{}},
	}

	token, err := auth.NewAccessToken("sub-1", "sam@example.com", auth.RoleHost, testSecret, time.Minute)
	require.NoError(t, err)
	ts.token = token

	h := New(ts.visitors, ts.users, stubAuth{}, service.ContextIdentity{})
	r := chi.NewRouter()
	h.Routes(r, RouteOptions{RequireJWT: middleware.RequireJWT(testSecret)})
	ts.router = r
	return ts
}

func (ts *testServer) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestVisitorRoutesRequireJWT(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/v1/visitors", "/v1/visitors/board", "/v1/users/me", "/v1/auth/me"} {
		rec := ts.do(http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestCheckInHandler(t *testing.T) {
	ts := newTestServer(t)
	ts.visitors.checkIn = func(req *domain.CheckInRequest) (*domain.Visitor, error) {
		if len(req.Name) < 2 {
			return nil, domain.NewValidationError(domain.Violation{Field: "name", Message: "name must be at least 2 characters"})
		}
		return &domain.Visitor{ID: "v9", Name: req.Name, IDNumber: req.IDNumber, CheckInTime: checkInAt}, nil
	}

	rec := ts.do(http.MethodPost, "/v1/visitors", `{"name":"Jane","idNumber":"A1","phoneNumber":"0712345678"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "v9", v["id"])
	assert.Equal(t, "A1", v["idNumber"])
	assert.Nil(t, v["checkOutTime"])
	assert.Contains(t, v, "checkInTime")

	rec = ts.do(http.MethodPost, "/v1/visitors", `{"name":"J"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.NotEmpty(t, body["details"])

	rec = ts.do(http.MethodPost, "/v1/visitors", `{not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckOutHandlers(t *testing.T) {
	ts := newTestServer(t)
	out := checkInAt.Add(2 * time.Hour)
	ts.visitors.checkOut = func(id string) (*domain.Visitor, error) {
		switch id {
		case "v2":
			return &domain.Visitor{ID: "v2", CheckInTime: checkInAt, CheckOutTime: &out}, nil
		case "v1":
			return nil, domain.ErrAlreadyCheckedOut
		case "boom":
			return nil, &domain.StoreError{Op: "visitors.checkout", Err: errors.New("db down")}
		default:
			return nil, &domain.NotFoundError{Resource: "visitor", ID: id}
		}
	}

	rec := ts.do(http.MethodPatch, "/v1/visitors/v2/checkout", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPut, "/v1/visitors", `{"id":"v2"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPatch, "/v1/visitors/v1/checkout", "", true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CHECKED_OUT", decodeError(t, rec)["code"])

	rec = ts.do(http.MethodPatch, "/v1/visitors/nope/checkout", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPatch, "/v1/visitors/boom/checkout", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestListAndGetHandlers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/visitors?limit=5", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ts.visitors.gotLimit)

	rec = ts.do(http.MethodGet, "/v1/visitors?limit=abc", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ts.visitors.gotLimit)

	rec = ts.do(http.MethodGet, "/v1/visitors/v1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, "/v1/visitors/zzz", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBoardHandler(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/visitors/board?search=", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var board struct {
		Current    []domain.Visitor `json:"current"`
		Historical []domain.Visitor `json:"historical"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Len(t, board.Current, 1)
	assert.Len(t, board.Historical, 1)

	rec = ts.do(http.MethodGet, "/v1/visitors/board?search=nobody", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"current":[],"historical":[]}`, rec.Body.String())
}

func TestAnalyticsHandler(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/visitors/analytics?search=doe", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "A1", summaries[0]["idNumber"])
	assert.Equal(t, float64(1), summaries[0]["visitCount"])

	ts.visitors.err = &domain.StoreError{Op: "visitors.list", Err: errors.New("down")}
	rec = ts.do(http.MethodGet, "/v1/visitors/analytics", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserHandlers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/users/me", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/users", `{"teamLeaderName":"Sam","organisation":"Acme","id":"spoofed"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	var u domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "sub-1", u.ID)
	assert.Equal(t, "sam@example.com", u.Email)

	rec = ts.do(http.MethodPost, "/v1/users", `{"teamLeaderName":"Sam","organisation":"Acme"}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPatch, "/v1/users/me", `{"organisation":"Globex"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"organisation":"Globex"`)

	rec = ts.do(http.MethodGet, "/v1/users?email=sam@example.com", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandlers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/v1/auth/signup", `{"email":"new@example.com","password":"correct-horse"}`, false)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/auth/signup", `{"email":"taken@example.com","password":"correct-horse"}`, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/auth/login", `{"email":"new@example.com","password":"correct-horse"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token_type":"Bearer"`)

	rec = ts.do(http.MethodPost, "/v1/auth/login", `{"email":"new@example.com","password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/auth/me", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}
