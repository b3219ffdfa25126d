package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/coursepilot/coursepilot-lms/internal/auth"
	authmw "github.com/coursepilot/coursepilot-lms/internal/auth/middleware"
	"github.com/coursepilot/coursepilot-lms/internal/rbac"
)

var alice = domain.User{ID: 7, Login: "alice", FullName: "Alice A.", Role: domain.RoleStudent}

func TestIssueAndParse(t *testing.T) {
	svc := authmw.NewAuthService("test-secret")
	token, err := svc.IssueJWT(alice)
	if err != nil {
		t.Fatal(err)
	}
	c, err := svc.Parse(token)
	if err != nil || c == nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.UserID != alice.ID || c.Login != alice.Login || c.Role != alice.Role || c.FullName != alice.FullName {
		t.Fatalf("claims = %+v", c)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := authmw.NewAuthService("other-secret").IssueJWT(alice)
	if err != nil {
		t.Fatal(err)
	}
	if c, err := authmw.NewAuthService("test-secret").Parse(token); err == nil && c != nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func middlewareProbe(t *testing.T) (http.Handler, *domain.User, *string) {
	t.Helper()
	var gotUser domain.User
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := authmw.UserFromContext(r.Context())
		if !ok {
			t.Error("no user in context")
		}
		gotUser = u
		gotRole = rbac.RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return next, &gotUser, &gotRole
}

func TestJWTMiddlewareBearerHeader(t *testing.T) {
	svc := authmw.NewAuthService("test-secret")
	token, _ := svc.IssueJWT(alice)

	next, gotUser, gotRole := middlewareProbe(t)
	h := authmw.JWTMiddleware(svc)(next)

	req := httptest.NewRequest(http.MethodGet, "/session/state", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if *gotUser != alice {
		t.Fatalf("context user = %+v", *gotUser)
	}
	if *gotRole != domain.RoleStudent {
		t.Fatalf("context role = %q", *gotRole)
	}
}

func TestJWTMiddlewareQueryTokenFallback(t *testing.T) {
	svc := authmw.NewAuthService("test-secret")
	token, _ := svc.IssueJWT(alice)

	next, gotUser, _ := middlewareProbe(t)
	h := authmw.JWTMiddleware(svc)(next)

	// Websocket handshakes from a browser cannot set an Authorization header.
	req := httptest.NewRequest(http.MethodGet, "/tests/ticker?token="+token, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser.Login != "alice" {
		t.Fatalf("context user = %+v", *gotUser)
	}
}

func TestJWTMiddlewareRejections(t *testing.T) {
	svc := authmw.NewAuthService("test-secret")
	h := authmw.JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a valid token")
	}))

	for name, decorate := range map[string]func(*http.Request){
		"missing token": func(r *http.Request) {},
		"garbage token": func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") },
		"wrong scheme":  func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/session/state", nil)
		decorate(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}
