package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tallyhq/tally/internal/actor"
)

// Claims is the token shape the upstream identity provider issues: the
// username in sub and one of the known roles in role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the caller's identity in the
// request context. The service never authenticates credentials itself; it
// only trusts tokens signed with the shared secret.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || tokenStr == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			var claims Claims

			token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}

				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			role := actor.Role(claims.Role)
			if claims.Subject == "" || !role.Valid() {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			ident := actor.Identity{Username: claims.Subject, Role: role}

			next.ServeHTTP(w, r.WithContext(actor.WithIdentity(r.Context(), ident)))
		})
	}
}
