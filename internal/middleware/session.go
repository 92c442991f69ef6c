package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"careerpath/internal/backend"
	"careerpath/internal/identity"
)

// SessionCookie is where the identity provider's browser SDK keeps the token.
const SessionCookie = "__session"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Identity, error)
}

type AuthConfig struct {
	Verifier TokenVerifier
	Backend  *backend.Client
	Cache    *identity.UserCache
	LoginURL string
	Logger   zerolog.Logger
}

// Authenticate verifies the session token and puts an identity.Session in the
// request context. Requests without a valid token get 401 and the login URL.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := identity.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				unauthorized(w, cfg.LoginURL)
				return
			}
			id, err := cfg.Verifier.Verify(r.Context(), token)
			if err != nil {
				cfg.Logger.Debug().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("session token rejected")
				unauthorized(w, cfg.LoginURL)
				return
			}
			sess := identity.NewSession(*id, cfg.Backend, cfg.Cache)
			trackUser(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(identity.WithSession(r.Context(), sess)))
		})
	}
}

func unauthorized(w http.ResponseWriter, loginURL string) {
	writeError(w, http.StatusUnauthorized, "unauthorized", "Please sign in to continue", map[string]any{"login_url": loginURL})
}
