package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// BearerAuth returns middleware that validates the Authorization: Bearer <token> header.
// The scheme is matched case-insensitively; the token is compared in constant time.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			ok := len(auth) > len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix)
			if ok {
				provided := auth[len(bearerPrefix):]
				ok = subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1
			}
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="golden-hour"`)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
