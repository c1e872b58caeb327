package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// APIKey rejects requests whose X-API-Key header does not match the
// configured secret. An empty secret disables the check, which keeps local
// development keyless.
func APIKey(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				log.Warn().
					Str("url", r.URL.String()).
					Str("remote_addr", r.RemoteAddr).
					Msg("Rejected request with invalid API key")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)

				body := map[string]interface{}{
					"error": map[string]interface{}{
						"code":    "UNAUTHORIZED",
						"message": "A valid X-API-Key header is required",
					},
				}
				if err := json.NewEncoder(w).Encode(body); err != nil {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
