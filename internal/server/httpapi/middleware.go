package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/ralexclark/ballabove/internal/common"
	"github.com/ralexclark/ballabove/internal/server/auth"
)

type contextKey string

const usernameContextKey contextKey = "username"

const noTokenMsg = "No token provided."

// sessionToken extracts the credential part of an "Authorization: JWT <token>"
// header. An empty string means the header is missing or malformed.
func sessionToken(r *http.Request) string {
	header := r.Header.Get(common.AuthorizationHeaderName)
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != common.SessionTokenScheme {
		return ""
	}
	return parts[1]
}

// requireTokenPresence rejects requests that carry no session token.
// The token itself is not validated here; protected write routes only
// gate on presence.
func requireTokenPresence(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionToken(r) == "" {
			failForbidden(w, noTokenMsg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireValidToken verifies the session token signature and expiry and
// stores the authenticated username in the request context.
func (s *Server) requireValidToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			failForbidden(w, noTokenMsg)
			return
		}
		username, err := auth.GetUsernameFromToken(token, s.secretKey)
		if err != nil {
			failForbidden(w, "Authentication failed.")
			return
		}
		ctx := context.WithValue(r.Context(), usernameContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameContextKey).(string)
	return username
}
