package dashboard

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

func TestLoadWithoutGoalIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"roadmap":[],"goal":null}`)
	}))
	defer srv.Close()
	api := backend.New(backend.Options{BaseURL: srv.URL}).WithTokens(backend.StaticToken("tok"))

	v, err := Load(context.Background(), api)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if !v.Empty || len(v.Days) != 0 {
		t.Fatalf("view = %+v, want empty", v)
	}
}

func TestToggleRefetchesServerState(t *testing.T) {
	var mu sync.Mutex
	completed := false
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/tasks/5/toggle":
			completed = !completed
		case "/api/roadmap":
			state := "false"
			if completed {
				state = "true"
			}
			_, _ = io.WriteString(w, `{"goal":{"id":1,"target_role":"SRE"},"roadmap":[{"id":3,"day_number":1,"title":"Linux","tasks":[{"id":5,"type":"PRACTICE","title":"strace","is_completed":`+state+`}]}]}`)
		}
	}))
	defer srv.Close()
	api := backend.New(backend.Options{BaseURL: srv.URL}).WithTokens(backend.StaticToken("tok"))

	v, err := Toggle(context.Background(), api, "5")
	if err != nil {
		t.Fatalf("Toggle() = %v", err)
	}
	if len(calls) != 2 || calls[0] != "POST /api/tasks/5/toggle" || calls[1] != "GET /api/roadmap" {
		t.Fatalf("calls = %v", calls)
	}
	if !v.Days[0].Tasks[0].Completed || !v.Days[0].Completed || v.CompletedDays != 1 {
		t.Fatalf("view = %+v", v)
	}
	if v.Days[0].Tasks[0].TypeLabel != "Practice" {
		t.Fatalf("type label = %q", v.Days[0].Tasks[0].TypeLabel)
	}
}

type failingToggle struct{ loads int }

func (f *failingToggle) Roadmap(context.Context) (*backend.RoadmapResponse, error) {
	f.loads++
	return &backend.RoadmapResponse{}, nil
}

func (f *failingToggle) ToggleTask(context.Context, domain.ID) error {
	return &backend.Error{Op: "toggle", Kind: backend.KindNetwork}
}

func TestToggleFailureDoesNotRefetch(t *testing.T) {
	api := &failingToggle{}
	if _, err := Toggle(context.Background(), api, "5"); !backend.IsKind(err, backend.KindNetwork) {
		t.Fatalf("Toggle() = %v", err)
	}
	if api.loads != 0 {
		t.Fatalf("loads = %d, want 0", api.loads)
	}
}

func TestBuildDerivesCompletion(t *testing.T) {
	v := Build(domain.Roadmap{TargetRole: "QA", Days: []domain.Day{
		{DayNumber: 1, Tasks: []domain.Task{{ID: "1", Completed: true}, {ID: "2", Completed: true}}},
		{DayNumber: 2, Tasks: []domain.Task{{ID: "3", Completed: true}, {ID: "4"}}},
		{DayNumber: 3},
	}})
	if v.CompletedDays != 1 || v.TotalDays != 3 {
		t.Fatalf("completed=%d total=%d", v.CompletedDays, v.TotalDays)
	}
	if !v.Days[0].Completed || v.Days[1].Completed || v.Days[2].Completed {
		t.Fatalf("days = %+v", v.Days)
	}
}

func TestTypeLabel(t *testing.T) {
	cases := map[domain.TaskType]string{
		domain.TaskTypeLearning: "Learning",
		domain.TaskTypePractice: "Practice",
		"":                      "",
	}
	for in, want := range cases {
		if got := TypeLabel(in); got != want {
			t.Fatalf("TypeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDemoIsPartlyComplete(t *testing.T) {
	v := Demo()
	if v.Empty || v.TotalDays != 3 || v.CompletedDays != 1 {
		t.Fatalf("demo = %+v", v)
	}
}
