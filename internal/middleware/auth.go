package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	ServiceKey     contextKey = "service"
	TokenClaimsKey contextKey = "jwtClaims"
)

// ServiceAuthMiddleware guards the internal API. Callers are other backend
// services presenting an HS256 bearer token; there is no anonymous mode on
// this surface, so a missing or invalid token is rejected outright.
func ServiceAuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			})

			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				ctx = context.WithValue(ctx, TokenClaimsKey, claims)
				if sub, ok := claims["sub"].(string); ok {
					ctx = context.WithValue(ctx, ServiceKey, sub)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ServiceFromContext returns the authenticated caller name, if any.
func ServiceFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ServiceKey).(string)
	return s, ok
}
