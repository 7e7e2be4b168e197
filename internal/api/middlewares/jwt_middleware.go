package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	languageKey
)

// UserLoader resolves a verified token subject into an active user.
type UserLoader interface {
	Authenticate(ctx context.Context, userID string) (*models.User, error)
}

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// JWT validates the HS256 bearer token, loads the user it names and attaches
// it to the request context.
func JWT(secret string, users UserLoader, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeErr(w, r, unauthorized("missing or invalid token"))
				return
			}

			tokenStr := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeErr(w, r, unauthorized("invalid token"))
				return
			}

			userID, _ := claims["user_id"].(string)
			if userID == "" {
				userID, _ = claims.GetSubject()
			}
			if userID == "" {
				writeErr(w, r, unauthorized("invalid token claims"))
				return
			}

			user, err := users.Authenticate(r.Context(), userID)
			if err != nil {
				writeErr(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// UserID returns the authenticated user's id or "".
func UserID(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}

func unauthorized(msg string) error {
	return apperr.Unauthorized(errors.New(msg))
}
