package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

func completionServer(t *testing.T, status int, content string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if capture != nil {
			_ = json.NewDecoder(r.Body).Decode(capture)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL + "/v1", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	return p
}

func TestOpenAIGenerateRoadmap(t *testing.T) {
	content := "```json\n" + `{"roadmap":[{"title":"Go basics","tasks":[{"type":"learning","title":"Tour of Go"}]},{"day":2,"title":"Concurrency","tasks":[{"type":"PRACTICE","title":"Worker pool"}]}]}` + "\n```"
	var captured map[string]any
	p := newTestProvider(t, completionServer(t, http.StatusOK, content, &captured))

	plan, err := p.GenerateRoadmap(context.Background(), "Go Developer", "resume")
	if err != nil {
		t.Fatalf("GenerateRoadmap: %v", err)
	}
	if len(plan) != 2 || plan[0].Day != 1 || plan[0].Tasks[0].Type != domain.TaskTypeLearning {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if captured["model"] != "gpt-4o-mini" {
		t.Fatalf("model = %v", captured["model"])
	}
}

func TestOpenAIGenerateRoadmapRejectsEmptyPlan(t *testing.T) {
	p := newTestProvider(t, completionServer(t, http.StatusOK, `{"roadmap":[]}`, nil))
	_, err := p.GenerateRoadmap(context.Background(), "Go Developer", "resume")
	if !backend.IsKind(err, backend.KindDecode) {
		t.Fatalf("err = %v, want decode", err)
	}
}

func TestOpenAIInterviewReplyMapsHistoryRoles(t *testing.T) {
	var captured map[string]any
	p := newTestProvider(t, completionServer(t, http.StatusOK, "Tell me about a hard bug.", &captured))

	reply, err := p.InterviewReply(context.Background(), backend.InterviewChatRequest{
		Message:    "I build APIs",
		History:    []domain.HistoryEntry{{Role: domain.RoleModel, Content: "Hello"}, {Role: domain.RoleUser, Content: "Hi"}},
		TargetRole: "SRE",
	})
	if err != nil {
		t.Fatalf("InterviewReply: %v", err)
	}
	if reply != "Tell me about a hard bug." {
		t.Fatalf("reply = %q", reply)
	}
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	second, _ := msgs[1].(map[string]any)
	if second["role"] != "assistant" {
		t.Fatalf("history role = %v, want assistant", second["role"])
	}
}

func TestOpenAIRateLimitIsQuota(t *testing.T) {
	p := newTestProvider(t, completionServer(t, http.StatusTooManyRequests, "", nil))
	_, err := p.Feedback(context.Background(), "SRE", nil)
	if !backend.IsKind(err, backend.KindQuota) {
		t.Fatalf("err = %v, want quota", err)
	}
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIOptions{APIKey: " "}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNormalizeOpenAIModel(t *testing.T) {
	cases := []struct {
		input  string
		model  string
		reason string
	}{
		{input: "", model: "gpt-4o-mini", reason: ""},
		{input: "gpt-4o-mini", model: "gpt-4o-mini", reason: ""},
		{input: "GPT 4o", model: "gpt-4o", reason: ""},
		{input: "gpt4o", model: "gpt-4o", reason: "alias"},
		{input: "gpt-3.5", model: "gpt-3.5-turbo", reason: "alias"},
		{input: "claude", model: "gpt-4o-mini", reason: "defaulted"},
	}
	for _, tc := range cases {
		model, reason := normalizeOpenAIModel(tc.input)
		if model != tc.model || reason != tc.reason {
			t.Fatalf("normalizeOpenAIModel(%q) = %q, %q; want %q, %q", tc.input, model, reason, tc.model, tc.reason)
		}
	}
}

func TestBackendProviderFeedbackDefault(t *testing.T) {
	g := BackendProvider{}.For(backend.New(backend.Options{}))
	fb, err := g.Feedback(context.Background(), "SRE", nil)
	if err != nil || fb != DefaultFeedback {
		t.Fatalf("Feedback = %q, %v", fb, err)
	}
}

func TestGreetingNamesRole(t *testing.T) {
	if !strings.Contains(Greeting("Data Engineer"), "for the Data Engineer position") {
		t.Fatalf("greeting = %q", Greeting("Data Engineer"))
	}
}
