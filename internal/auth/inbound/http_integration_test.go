package inbound

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/store"
	"github.com/likhith1253/chemicalanalyzer/internal/auth/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgauth"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkguid"
)

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

type seqID struct {
	n atomic.Int64
}

func (s *seqID) Generate() int64 {
	return s.n.Add(1)
}

func newRouter() http.Handler {
	uc := usecase.New(usecase.Dependency{
		Store:  store.NewInMemoryStore(),
		Hasher: usecase.Bcrypt{Cost: bcrypt.MinCost},
		ID:     &seqID{},
	})

	router := pkgrouter.NewRouter(pkguid.NewUUID())
	RegisterHTTPEndpoint(router, uc, pkgauth.Middleware(uc))
	return router
}

func TestAuthFlow(t *testing.T) {
	router := newRouter()

	rec := send(router, http.MethodPost, "/api/auth/register", "", `{"username":"alice","password":"s3cretpass","email":"alice@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", rec.Code, rec.Body.String())
	}
	var reg envelope[AuthResponse]
	decode(t, rec, &reg)
	if reg.Data.Username != "alice" || reg.Data.Token == "" {
		t.Fatalf("register data = %+v", reg.Data)
	}

	rec = send(router, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"s3cretpass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var login envelope[AuthResponse]
	decode(t, rec, &login)
	if login.Data.Token != reg.Data.Token {
		t.Fatalf("login token = %q, want %q", login.Data.Token, reg.Data.Token)
	}

	rec = send(router, http.MethodGet, "/api/auth/profile", login.Data.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d", rec.Code)
	}
	var profile envelope[ProfileResponse]
	decode(t, rec, &profile)
	if profile.Data.Username != "alice" || profile.Data.Email != "alice@example.com" || profile.Data.ID == "" {
		t.Fatalf("profile data = %+v", profile.Data)
	}

	rec = send(router, http.MethodPost, "/api/auth/logout", login.Data.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	var out envelope[struct{}]
	decode(t, rec, &out)
	if out.Message != "Logout successful" {
		t.Fatalf("logout message = %q", out.Message)
	}

	if rec := send(router, http.MethodGet, "/api/auth/profile", login.Data.Token, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("profile after logout status = %d", rec.Code)
	}
}

func TestAuthErrors(t *testing.T) {
	router := newRouter()

	if rec := send(router, http.MethodPost, "/api/auth/register", "", `{"username":"bob","password":"longenough"}`); rec.Code != http.StatusCreated {
		t.Fatalf("seed register status = %d", rec.Code)
	}

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		field  string
	}{
		{name: "duplicate username", path: "/api/auth/register", body: `{"username":"bob","password":"longenough"}`, status: http.StatusBadRequest, field: "username"},
		{name: "short password", path: "/api/auth/register", body: `{"username":"eve","password":"short"}`, status: http.StatusBadRequest, field: "password"},
		{name: "malformed json", path: "/api/auth/register", body: `{"username":`, status: http.StatusBadRequest},
		{name: "wrong password", path: "/api/auth/login", body: `{"username":"bob","password":"nope-nope"}`, status: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := send(router, http.MethodPost, tc.path, "", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.status, rec.Body.String())
			}
			if tc.field == "" {
				return
			}
			var body errorEnvelope
			decode(t, rec, &body)
			if body.Error[tc.field] == "" {
				t.Fatalf("expected error for %q, got %v", tc.field, body.Error)
			}
		})
	}

	if rec := send(router, http.MethodGet, "/api/auth/profile", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous profile status = %d", rec.Code)
	}
}

func send(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
