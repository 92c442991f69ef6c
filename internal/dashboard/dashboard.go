// Package dashboard builds the roadmap screen. The server owns task state:
// the view is always rebuilt from GET /api/roadmap and never patched locally.
package dashboard

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

// Backend is the slice of the product API the dashboard needs.
type Backend interface {
	Roadmap(ctx context.Context) (*backend.RoadmapResponse, error)
	ToggleTask(ctx context.Context, taskID domain.ID) error
}

var labelCaser = cases.Title(language.English)

// TaskView is a task as the screen renders it.
type TaskView struct {
	ID          domain.ID       `json:"id"`
	Type        domain.TaskType `json:"type"`
	TypeLabel   string          `json:"typeLabel"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Completed   bool            `json:"completed"`
}

type DayView struct {
	ID        domain.ID         `json:"id"`
	DayNumber int               `json:"dayNumber"`
	Title     string            `json:"title"`
	Completed bool              `json:"completed"`
	Tasks     []TaskView        `json:"tasks"`
	Resources []domain.Resource `json:"resources,omitempty"`
}

// View is the dashboard payload. Empty is set when the user has no goal yet
// and should be sent to onboarding.
type View struct {
	Empty         bool      `json:"empty"`
	TargetRole    string    `json:"targetRole,omitempty"`
	CompletedDays int       `json:"completedDays"`
	TotalDays     int       `json:"totalDays"`
	Days          []DayView `json:"days"`
}

// Load fetches the roadmap and derives the view.
func Load(ctx context.Context, api Backend) (*View, error) {
	resp, err := api.Roadmap(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Goal == nil {
		return &View{Empty: true, Days: []DayView{}}, nil
	}
	return Build(domain.Roadmap{TargetRole: resp.Goal.TargetRole, Days: resp.Days}), nil
}

// Toggle flips a task on the server and returns the refetched view. Two
// toggles racing on the same task are not merged; the server applies them in
// arrival order and the last refetch wins.
func Toggle(ctx context.Context, api Backend, taskID domain.ID) (*View, error) {
	if err := api.ToggleTask(ctx, taskID); err != nil {
		return nil, err
	}
	return Load(ctx, api)
}

// Build derives completion state from the roadmap.
func Build(rm domain.Roadmap) *View {
	v := &View{
		TargetRole:    rm.TargetRole,
		CompletedDays: rm.CompletedDays(),
		TotalDays:     len(rm.Days),
		Days:          make([]DayView, 0, len(rm.Days)),
	}
	for _, d := range rm.Days {
		dv := DayView{
			ID:        d.ID,
			DayNumber: d.DayNumber,
			Title:     d.Title,
			Completed: d.Completed(),
			Tasks:     make([]TaskView, 0, len(d.Tasks)),
			Resources: d.Resources,
		}
		for _, t := range d.Tasks {
			dv.Tasks = append(dv.Tasks, TaskView{
				ID:          t.ID,
				Type:        t.Type,
				TypeLabel:   TypeLabel(t.Type),
				Title:       t.Title,
				Description: t.Description,
				Completed:   t.Completed,
			})
		}
		v.Days = append(v.Days, dv)
	}
	return v
}

// TypeLabel is the tag shown next to a task, "Learning" or "Practice".
func TypeLabel(t domain.TaskType) string {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return ""
	}
	return labelCaser.String(strings.ToLower(s))
}
