package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type ctxKey int

const userIDKey ctxKey = iota

var errMissingIdentity = errors.New("missing user identity")

// UserIDFrom returns the authenticated user id stored by Identity.
func UserIDFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// Identity resolves the caller and stores the user id on the request context.
// With a secret it requires an HS256 bearer token carrying "sub" or "userId";
// websocket clients may pass the token as ?token=. Without a secret it trusts
// the X-User-ID header, which is only suitable for local development.
func Identity(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				userID string
				err    error
			)
			if jwtSecret == "" {
				userID = strings.TrimSpace(r.Header.Get("X-User-ID"))
				if userID == "" {
					err = errMissingIdentity
				}
			} else {
				userID, err = userFromToken(bearerToken(r), jwtSecret)
			}
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func userFromToken(raw, secret string) (string, error) {
	if raw == "" {
		return "", errMissingIdentity
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	for _, key := range []string{"sub", "userId"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", errors.New("token has no user id")
}
