package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"careerpath/internal/identity"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger writes one access line per request. The user id is read after the
// handler ran so it is present for authenticated routes.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			tracker := &userTracker{}
			next.ServeHTTP(rw, r.WithContext(withUserTracker(r.Context(), tracker)))

			evt := l.Info()
			if rw.status >= http.StatusInternalServerError {
				evt = l.Error()
			}
			evt = evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start))
			if rid := RequestIDFromContext(r.Context()); rid != "" {
				evt = evt.Str("request_id", rid)
			}
			if tracker.userID != "" {
				evt = evt.Str("user_id", tracker.userID)
			}
			evt.Msg("request")
		})
	}
}

// userTracker lets the auth middleware, which runs further down the chain,
// report the user back to the access log.
type userTracker struct {
	userID string
}

type userTrackerKey struct{}

func withUserTracker(ctx context.Context, t *userTracker) context.Context {
	return context.WithValue(ctx, userTrackerKey{}, t)
}

func trackUser(ctx context.Context, s *identity.Session) {
	if t, ok := ctx.Value(userTrackerKey{}).(*userTracker); ok && s != nil {
		t.userID = s.UserID()
	}
}
