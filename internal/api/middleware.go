/**
 * @description
 * This file contains the service-to-service authentication middleware for the
 * command endpoint. The conversational channel adapter authenticates with a
 * shared-secret HS256 JWT; webhooks are NOT behind this middleware since they
 * authenticate with the per-provider HMAC signature instead.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: JWT parsing and validation.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// callerContextKey is a custom type for the context key to avoid collisions.
type callerContextKey string

const callerKey callerContextKey = "caller"

// ServiceAuthMiddleware validates the HS256 bearer token presented by internal
// callers and stores the token subject in the request context.
func ServiceAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			subject := ""
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if sub, ok := claims["sub"].(string); ok {
					subject = sub
				}
			}

			ctx := context.WithValue(r.Context(), callerKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext retrieves the authenticated caller subject, if any.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey).(string)
	return caller, ok
}
