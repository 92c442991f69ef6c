package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"careerpath/internal/backend"
	"careerpath/internal/entitlement"
	"careerpath/internal/identity"
	"careerpath/internal/interview"
	"careerpath/internal/pricing"
	"careerpath/internal/providers/ai"
)

// productAPI is an in-memory stand-in for the product backend.
type productAPI struct {
	mu        sync.Mutex
	calls     []string
	freeUsed  int
	hasGoal   bool
	saveFails bool
}

func (p *productAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.calls = append(p.calls, r.Method+" "+r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/auth/me":
			writeJSON(w, map[string]any{"user": map[string]any{"id": 1, "email": "a@example.com", "free_interviews_used": p.freeUsed}})
		case "/api/roadmap":
			if !p.hasGoal {
				writeJSON(w, map[string]any{"roadmap": []any{}, "goal": nil})
				return
			}
			writeJSON(w, map[string]any{
				"goal":    map[string]any{"id": 9, "target_role": "SRE"},
				"roadmap": []any{map[string]any{"id": 1, "day_number": 1, "title": "Linux", "tasks": []any{map[string]any{"id": 5, "type": "LEARNING", "title": "Read", "is_completed": true}}}},
			})
		case "/api/tasks/5/toggle":
			w.WriteHeader(http.StatusOK)
		case "/api/onboarding":
			writeJSON(w, map[string]any{"goalId": 9, "resumeText": "resume text"})
		case "/api/ai/generate-roadmap":
			writeJSON(w, map[string]any{"roadmap": []any{map[string]any{"day": 1, "title": "Linux", "tasks": []any{map[string]any{"type": "LEARNING", "title": "Read"}}}}})
		case "/api/roadmap/save":
			if p.saveFails {
				w.WriteHeader(http.StatusInternalServerError)
				writeJSON(w, map[string]any{"error": "Failed to save roadmap"})
				return
			}
			p.hasGoal = true
			w.WriteHeader(http.StatusCreated)
		case "/api/interview/start":
			if p.freeUsed >= 1 {
				w.WriteHeader(http.StatusForbidden)
				writeJSON(w, map[string]any{"error": "Free limit reached"})
				return
			}
			p.freeUsed++
			writeJSON(w, map[string]any{"targetRole": "SRE", "resumeText": "resume text"})
		case "/api/ai/interview-chat":
			writeJSON(w, map[string]any{"response": "Why SRE?"})
		case "/api/interview/finish":
			w.WriteHeader(http.StatusOK)
		case "/api/checkout/create":
			writeJSON(w, map[string]any{"url": "https://pay.example.com/c/1"})
		case "/api/cheat-code":
			var body struct{ Code string }
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Code != "FREEPASS" {
				w.WriteHeader(http.StatusBadRequest)
				writeJSON(w, map[string]any{"error": "Invalid code"})
				return
			}
			writeJSON(w, map[string]any{"message": "Premium unlocked", "expiresAt": time.Now().Add(30 * 24 * time.Hour).UnixMilli()})
		default:
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (p *productAPI) called(call string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.calls {
		if c == call {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	app     *App
	api     *productAPI
	client  *backend.Client
	cache   *identity.UserCache
	store   *entitlement.MemoryStore
	created time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &productAPI{}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	store := entitlement.NewMemoryStore()
	calc := entitlement.NewCalculator(store, nil)
	return &harness{
		api:     api,
		client:  backend.New(backend.Options{BaseURL: srv.URL}),
		cache:   identity.NewUserCache(),
		store:   store,
		created: time.Now().Add(-30 * 24 * time.Hour),
		app: &App{
			Logger:       zerolog.Nop(),
			Settings:     Settings{LoginURL: "/login", AIProvider: "backend"},
			Entitlements: calc,
			Notices:      entitlement.NewNoticeTracker(),
			AI:           ai.BackendProvider{},
			Interviews:   interview.NewRegistry(time.Hour, backend.NoRetry, zerolog.Nop()),
			Pricing:      pricing.NewService(calc, zerolog.Nop()),
		},
	}
}

func (h *harness) do(handler http.HandlerFunc, req *http.Request, params map[string]string) *httptest.ResponseRecorder {
	sess := identity.NewSession(identity.Identity{UserID: "user_1", Token: "tok", CreatedAt: h.created}, h.client, h.cache)
	ctx := identity.WithSession(req.Context(), sess)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	rr := httptest.NewRecorder()
	handler(rr, req.WithContext(ctx))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSessionTrialNoticeFiresOnce(t *testing.T) {
	h := newHarness(t)
	h.created = time.Now().Add(-24 * time.Hour)

	type view struct {
		Premium     bool `json:"premium"`
		TrialNotice bool `json:"trialNotice"`
		Entitlement struct {
			Plan       string `json:"plan"`
			TrialLabel string `json:"trialEndDate"`
		} `json:"entitlement"`
	}
	first := decode[view](t, h.do(h.app.Session, httptest.NewRequest(http.MethodGet, "/app/session", nil), nil))
	if !first.Premium || !first.TrialNotice || first.Entitlement.TrialLabel != entitlement.TrialLabel || first.Entitlement.Plan != "none" {
		t.Fatalf("first = %+v", first)
	}
	second := decode[view](t, h.do(h.app.Session, httptest.NewRequest(http.MethodGet, "/app/session", nil), nil))
	if second.TrialNotice {
		t.Fatal("notice must fire once per sign in")
	}

	rr := h.do(h.app.SignOut, httptest.NewRequest(http.MethodPost, "/app/session/signout", nil), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("signout code = %d", rr.Code)
	}
	third := decode[view](t, h.do(h.app.Session, httptest.NewRequest(http.MethodGet, "/app/session", nil), nil))
	if !third.TrialNotice {
		t.Fatal("sign out should re-arm the notice")
	}
}

func TestSessionWithoutContextIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	rr := httptest.NewRecorder()
	h.app.Dashboard(rr, httptest.NewRequest(http.MethodGet, "/app/dashboard", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if body.LoginURL != "/login" {
		t.Fatalf("body = %+v", body)
	}
}

func TestDashboardEmptyState(t *testing.T) {
	h := newHarness(t)
	rr := h.do(h.app.Dashboard, httptest.NewRequest(http.MethodGet, "/app/dashboard", nil), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	if v := decode[map[string]any](t, rr); v["empty"] != true {
		t.Fatalf("view = %v", v)
	}
}

func TestToggleTaskReturnsRefetchedView(t *testing.T) {
	h := newHarness(t)
	h.api.hasGoal = true
	rr := h.do(h.app.ToggleTask, httptest.NewRequest(http.MethodPost, "/app/tasks/5/toggle", nil), map[string]string{"id": "5"})
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body)
	}
	if !h.api.called("POST /api/tasks/5/toggle") || !h.api.called("GET /api/roadmap") {
		t.Fatalf("calls = %v", h.api.calls)
	}
}

func onboardingRequest(t *testing.T, role string, resume []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("targetRole", role)
	if resume != nil {
		part, err := mw.CreateFormFile("resume", "cv.pdf")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(resume)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/app/onboarding", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestOnboardingSubmit(t *testing.T) {
	h := newHarness(t)
	rr := h.do(h.app.Onboarding, onboardingRequest(t, "SRE", []byte("%PDF-1.4")), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body)
	}
	out := decode[map[string]any](t, rr)
	if out["step"] != "confirmation" || out["goalId"] != float64(9) {
		t.Fatalf("response = %v", out)
	}
	if !h.api.called("POST /api/roadmap/save") {
		t.Fatal("roadmap not saved")
	}
}

func TestOnboardingSaveFailure(t *testing.T) {
	h := newHarness(t)
	h.api.saveFails = true
	rr := h.do(h.app.Onboarding, onboardingRequest(t, "SRE", []byte("%PDF-1.4")), nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", rr.Code)
	}
	out := decode[onboardingFailure](t, rr)
	if out.Step != "resume-upload" || out.Error.Message != "Failed to save roadmap" {
		t.Fatalf("response = %+v", out)
	}
	if h.api.hasGoal {
		t.Fatal("no roadmap should exist")
	}
}

func TestOnboardingRequiresGoalAndResume(t *testing.T) {
	h := newHarness(t)
	if rr := h.do(h.app.Onboarding, onboardingRequest(t, " ", []byte("x")), nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("blank goal code = %d", rr.Code)
	}
	if rr := h.do(h.app.Onboarding, onboardingRequest(t, "SRE", nil), nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing resume code = %d", rr.Code)
	}
	if h.api.called("POST /api/onboarding") {
		t.Fatal("backend must not be called")
	}
}

func TestOnboardingRejectsOversizedResume(t *testing.T) {
	h := newHarness(t)
	resume := bytes.Repeat([]byte("a"), maxResumeBytes+maxResumeBytes/20)
	rr := h.do(h.app.Onboarding, onboardingRequest(t, "SRE", resume), nil)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body)
	}
	if h.api.called("POST /api/onboarding") {
		t.Fatal("oversized resume must not reach the backend")
	}
}

func TestOnboardingAcceptsResumeAtLimit(t *testing.T) {
	h := newHarness(t)
	resume := bytes.Repeat([]byte("a"), maxResumeBytes)
	if rr := h.do(h.app.Onboarding, onboardingRequest(t, "SRE", resume), nil); rr.Code != http.StatusCreated {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body)
	}
}

func TestInterviewLifecycle(t *testing.T) {
	h := newHarness(t)
	rr := h.do(h.app.StartInterview, httptest.NewRequest(http.MethodPost, "/app/interviews", nil), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("start code = %d body = %s", rr.Code, rr.Body)
	}
	started := decode[interviewResponse](t, rr)
	if started.State != interview.StateInProgress || len(started.Transcript) != 1 {
		t.Fatalf("started = %+v", started)
	}
	if started.InterviewQuota != "0 free interview remaining." {
		t.Fatalf("quota copy = %q", started.InterviewQuota)
	}
	params := map[string]string{"id": started.ID}

	msg := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"I like reliability"}`))
	rr = h.do(h.app.SendMessage, msg, params)
	if rr.Code != http.StatusOK {
		t.Fatalf("send code = %d body = %s", rr.Code, rr.Body)
	}
	if sent := decode[sendMessageResponse](t, rr); sent.Reply != "Why SRE?" || len(sent.Transcript) != 3 {
		t.Fatalf("sent = %+v", sent)
	}

	rr = h.do(h.app.FinishInterview, httptest.NewRequest(http.MethodPost, "/", nil), params)
	if rr.Code != http.StatusOK {
		t.Fatalf("finish code = %d body = %s", rr.Code, rr.Body)
	}
	if done := decode[interviewResponse](t, rr); done.Feedback != ai.DefaultFeedback || done.State != interview.StateFinished {
		t.Fatalf("done = %+v", done)
	}

	rr = h.do(h.app.GetInterview, httptest.NewRequest(http.MethodGet, "/", nil), params)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("finished interview should be discarded, code = %d", rr.Code)
	}
}

func TestStartInterviewQuotaCheckedLocally(t *testing.T) {
	h := newHarness(t)
	h.api.freeUsed = 1
	rr := h.do(h.app.StartInterview, httptest.NewRequest(http.MethodPost, "/app/interviews", nil), nil)
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("code = %d", rr.Code)
	}
	if h.api.called("POST /api/interview/start") {
		t.Fatal("backend start must not be called")
	}
	if h.app.Interviews.Len() != 0 {
		t.Fatal("refused interview must not stay registered")
	}
}

func TestRedeemInvalidCode(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/app/vouchers/redeem", strings.NewReader(`{"code":"NOPE"}`))
	rr := h.do(h.app.RedeemVoucher, req, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rr.Code)
	}
	if body := decode[errorBody](t, rr); body.Error.Message != "Invalid code" {
		t.Fatalf("body = %+v", body)
	}
	if h.api.called("GET /api/auth/me") {
		t.Fatal("profile must not refresh after a rejected code")
	}
}

func TestRedeemGrantsVoucher(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/app/vouchers/redeem", strings.NewReader(`{"code":"FREEPASS"}`))
	rr := h.do(h.app.RedeemVoucher, req, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body)
	}
	out := decode[map[string]any](t, rr)
	if out["message"] != "Premium unlocked" || out["premium"] != true {
		t.Fatalf("response = %v", out)
	}
	if _, ok, _ := h.store.VoucherExpiry(context.Background(), "user_1"); !ok {
		t.Fatal("voucher not recorded")
	}
}

func TestCheckoutFormPostRedirects(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/app/checkout", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := h.do(h.app.Checkout, req, nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "https://pay.example.com/c/1" {
		t.Fatalf("code = %d location = %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = h.do(h.app.Checkout, httptest.NewRequest(http.MethodPost, "/app/checkout", nil), nil)
	if body := decode[checkoutResponse](t, rr); body.URL != "https://pay.example.com/c/1" {
		t.Fatalf("body = %+v", body)
	}
}

func TestConfigAndDemoArePublic(t *testing.T) {
	h := newHarness(t)
	h.app.Settings.AIDegraded = true
	rr := httptest.NewRecorder()
	h.app.Config(rr, httptest.NewRequest(http.MethodGet, "/app/config", nil))
	if cfg := decode[configResponse](t, rr); !cfg.AIDegraded || cfg.LoginURL != "/login" {
		t.Fatalf("config = %+v", cfg)
	}
	rr = httptest.NewRecorder()
	h.app.Demo(rr, httptest.NewRequest(http.MethodGet, "/app/demo", nil))
	body, _ := io.ReadAll(rr.Body)
	if rr.Code != http.StatusOK || !bytes.Contains(body, []byte("Frontend Developer")) {
		t.Fatalf("demo = %d %s", rr.Code, body)
	}
}
