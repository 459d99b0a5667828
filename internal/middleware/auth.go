package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/proovit/proovit/internal/ctxkeys"
	"github.com/proovit/proovit/internal/model"
)

// TokenVerifier resolves a bearer token to a profile id.
type TokenVerifier interface {
	VerifyJWT(token string) (string, error)
}

// ProfileLoader fetches the profile a token belongs to.
type ProfileLoader interface {
	ByID(ctx context.Context, id string) (*model.Profile, error)
}

// AuthMiddleware checks the Authorization bearer token and adds the profile to context if valid.
// Requests without a valid token continue anonymously; RequireAuth rejects them.
func AuthMiddleware(tokens TokenVerifier, profiles ProfileLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.VerifyJWT(token)
			if err != nil {
				slog.Debug("rejected bearer token", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			profile, err := profiles.ByID(r.Context(), userID)
			if err != nil {
				// Token for a deleted or unknown profile
				slog.Warn("token for unknown profile", "user_id", userID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithProfile(r.Context(), profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the request carries a valid bearer token
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Profile(r.Context()) == nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
