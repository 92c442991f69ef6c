package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"careerpath/internal/backend"
	"careerpath/internal/identity"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(_ context.Context, token string) (*identity.Identity, error) {
	if user, ok := f[token]; ok {
		return &identity.Identity{UserID: user, Token: token}, nil
	}
	return nil, errors.New("bad token")
}

func authHandler(t *testing.T, seen *string) http.Handler {
	t.Helper()
	mw := Authenticate(AuthConfig{
		Verifier: fakeVerifier{"good": "user_1"},
		Backend:  backend.New(backend.Options{BaseURL: "http://backend.invalid"}),
		Cache:    identity.NewUserCache(),
		LoginURL: "/login",
		Logger:   zerolog.Nop(),
	})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := identity.SessionFromContext(r.Context())
		if !ok {
			t.Error("session missing from context")
			return
		}
		*seen = s.UserID()
	}))
}

func TestAuthenticateAcceptsBearerAndCookie(t *testing.T) {
	for _, name := range []string{"bearer", "cookie"} {
		t.Run(name, func(t *testing.T) {
			var seen string
			req := httptest.NewRequest(http.MethodGet, "/app/session", nil)
			if name == "bearer" {
				req.Header.Set("Authorization", "Bearer good")
			} else {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
			}
			rr := httptest.NewRecorder()
			authHandler(t, &seen).ServeHTTP(rr, req)
			if rr.Code != http.StatusOK || seen != "user_1" {
				t.Fatalf("code=%d user=%q", rr.Code, seen)
			}
		})
	}
}

func TestAuthenticateRejectsWithLoginURL(t *testing.T) {
	cases := map[string]string{"missing": "", "invalid": "Bearer forged"}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			var seen string
			req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			authHandler(t, &seen).ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("code = %d", rr.Code)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
				LoginURL string `json:"login_url"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != "unauthorized" || body.LoginURL != "/login" {
				t.Fatalf("body = %+v", body)
			}
			if seen != "" {
				t.Fatal("handler must not run")
			}
		})
	}
}

func TestRequestIDKeepsOnlyUUIDs(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "6f1c1b7e-8f7a-4c1e-9a43-2b1d8c1e0f11")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got != "6f1c1b7e-8f7a-4c1e-9a43-2b1d8c1e0f11" || rr.Header().Get(RequestIDHeader) != got {
		t.Fatalf("request id = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid; DROP")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got == "not a uuid; DROP" || got == "" {
		t.Fatalf("request id = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/app/session", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("code=%d headers=%v", rr.Code, rr.Header())
	}

	req = httptest.NewRequest(http.MethodOptions, "/app/session", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
}

func TestLoggerRecordsUser(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	var seen string
	h := Logger(logger)(authHandler(t, &seen))
	req := httptest.NewRequest(http.MethodGet, "/app/session", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line: %v (%s)", err, buf.String())
	}
	if line["user_id"] != "user_1" || line["path"] != "/app/session" {
		t.Fatalf("log line = %v", line)
	}
}
