package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	domain "github.com/coursepilot/coursepilot-lms/internal/auth"
)

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// LoginHandler handles POST /auth/login {login, password}.
func LoginHandler(a *AuthService, svc *domain.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := svc.Login(r.Context(), req.Login, req.Password)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUserNotFound):
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		case errors.Is(err, domain.ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		default:
			http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
			return
		}
		writeToken(w, a, u)
	}
}

// RegisterHandler handles POST /auth/register {login, password, full_name}.
// Self-registration always yields a student; admins are created by seeding or
// by another admin through the users surface.
func RegisterHandler(a *AuthService, svc *domain.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Login    string `json:"login"`
			Password string `json:"password"`
			FullName string `json:"full_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := svc.Register(r.Context(), req.Login, req.Password, req.FullName, domain.RoleStudent)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUserExists):
			http.Error(w, "user already exists", http.StatusConflict)
			return
		case errors.Is(err, domain.ErrInvalidInput):
			http.Error(w, "login must be 3-20 chars [A-Za-z0-9_], password at least 4 chars, full name required", http.StatusBadRequest)
			return
		default:
			http.Error(w, "registration unavailable", http.StatusServiceUnavailable)
			return
		}
		writeToken(w, a, u)
	}
}

// GuestLoginHandler handles POST /auth/guest. Guests get the sentinel id, a
// unique generated login and a student token; nothing is written to storage.
func GuestLoginHandler(a *AuthService, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}
		sfx := uuid.NewString()[:8]
		writeToken(w, a, domain.Guest("guest-"+sfx))
	}
}

func writeToken(w http.ResponseWriter, a *AuthService, u domain.User) {
	tok, err := a.IssueJWT(u)
	if err != nil {
		http.Error(w, "issue token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, User: u})
}
