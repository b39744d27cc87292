// Package api implements the Almanac REST API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth modes.
const (
	AuthDisabled = "disabled"
	AuthToken    = "token"
	AuthJWT      = "jwt"
)

// Auth describes how requests are authenticated.
//
//   - "disabled": every request acts as UserID.
//   - "token": a static Bearer token; requests act as UserID.
//   - "jwt": an HMAC-signed Bearer JWT; the user comes from the "sub" or
//     "user_id" claim.
type Auth struct {
	Mode      string
	Token     string
	JWTSecret string
	UserID    string
}

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id stored by AuthMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// AuthMiddleware resolves the caller and stores its id in the request context.
// Requests that cannot be attributed to a user get 401.
func AuthMiddleware(a Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := a.resolve(r)
			if !ok || userID == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func (a Auth) resolve(r *http.Request) (string, bool) {
	switch a.Mode {
	case AuthToken:
		tok, ok := bearer(r)
		if !ok || subtle.ConstantTimeCompare([]byte(tok), []byte(a.Token)) != 1 {
			return "", false
		}
		return a.UserID, true
	case AuthJWT:
		tok, ok := bearer(r)
		if !ok {
			return "", false
		}
		return a.parseJWT(tok)
	default:
		return a.UserID, true
	}
}

func (a Auth) parseJWT(raw string) (string, bool) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	if sub, _ := claims["sub"].(string); sub != "" {
		return sub, true
	}
	id, _ := claims["user_id"].(string)
	return id, id != ""
}

func bearer(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}
