package domain

// TaskType tags a task as something to study or something to do.
type TaskType string

const (
	TaskTypeLearning TaskType = "LEARNING"
	TaskTypePractice TaskType = "PRACTICE"
)

// ResourceType marks whether a linked resource costs money.
type ResourceType string

const (
	ResourceFree ResourceType = "free"
	ResourcePaid ResourceType = "paid"
)

type Resource struct {
	Name string       `json:"name" validate:"required"`
	URL  string       `json:"url"`
	Type ResourceType `json:"type,omitempty" validate:"omitempty,oneof=free paid"`
}

// PlanTask is a task as produced by the AI generation call, before the
// backend has assigned it an id.
type PlanTask struct {
	Type        TaskType `json:"type" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
}

// PlanDay is one day of a freshly generated roadmap.
type PlanDay struct {
	Day       int        `json:"day" validate:"gte=1"`
	Title     string     `json:"title" validate:"required"`
	Tasks     []PlanTask `json:"tasks" validate:"required,min=1,dive"`
	Resources []Resource `json:"resources" validate:"dive"`
}

// Plan is the generated roadmap that is handed to POST /api/roadmap/save.
type Plan []PlanDay

// Goal is the target the user set during onboarding.
type Goal struct {
	ID         ID     `json:"id"`
	TargetRole string `json:"target_role"`
}

// Task belongs to exactly one Day. Only Completed is user mutable, and only
// through the toggle call.
type Task struct {
	ID          ID       `json:"id" validate:"required"`
	Type        TaskType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Completed   bool     `json:"is_completed"`
}

// Day is a persisted roadmap day.
type Day struct {
	ID        ID         `json:"id"`
	DayNumber int        `json:"day_number"`
	Title     string     `json:"title"`
	Tasks     []Task     `json:"tasks" validate:"dive"`
	Resources []Resource `json:"resources,omitempty"`
}

// Completed is derived: a day is done when every task in it is done. A day
// without tasks is never complete.
func (d Day) Completed() bool {
	if len(d.Tasks) == 0 {
		return false
	}
	for _, t := range d.Tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

// Roadmap is the dashboard's view of the persisted plan.
type Roadmap struct {
	TargetRole string `json:"target_role"`
	Days       []Day  `json:"days"`
}

// CompletedDays counts days whose tasks are all done.
func (r Roadmap) CompletedDays() int {
	n := 0
	for _, d := range r.Days {
		if d.Completed() {
			n++
		}
	}
	return n
}

// FindTask returns the task with the given id and whether it was found.
func (r Roadmap) FindTask(id ID) (Task, bool) {
	for _, d := range r.Days {
		for _, t := range d.Tasks {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Task{}, false
}
