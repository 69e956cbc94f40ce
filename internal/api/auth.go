package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"campaign-console/internal/auth"
)

// RequireAuth rejects calls whose ?token does not match queryToken or whose
// bearer token does not verify against secret.
func RequireAuth(queryToken, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if queryToken != "" && r.URL.Query().Get("token") != queryToken {
				writeError(w, http.StatusUnauthorized, "invalid api token")
				return
			}
			bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || bearer == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if _, err := auth.VerifyToken(secret, bearer); err != nil {
				log.Debug().Err(err).Msg("bearer rejected")
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
