package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/coursepilot/coursepilot-lms/internal/auth"
	"github.com/coursepilot/coursepilot-lms/internal/rbac"
)

// AuthService issues and parses the HMAC session tokens of the local login
// flow.
type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	UserID   int64  `json:"uid"`
	Login    string `json:"login"`
	FullName string `json:"name,omitempty"`
	Role     string `json:"role"` // "student" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(u domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   u.ID,
		Login:    u.Login,
		FullName: u.FullName,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "coursepilot",
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// JWTMiddleware validates the bearer token and attaches the authenticated
// user to the request context. A websocket handshake cannot carry an
// Authorization header from a browser, so a token query parameter is accepted
// as a fallback.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			} else if t := r.URL.Query().Get("token"); t != "" {
				raw = t
			}
			if raw == "" {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(raw)
			if err != nil || c == nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			u := domain.User{ID: c.UserID, Login: c.Login, FullName: c.FullName, Role: c.Role}
			ctx := rbac.WithRole(WithUser(r.Context(), u), u.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
