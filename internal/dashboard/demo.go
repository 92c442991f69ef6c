package dashboard

import "careerpath/internal/domain"

// Demo is the sample roadmap shown on the landing page to signed-out visitors.
func Demo() *View {
	return Build(domain.Roadmap{
		TargetRole: "Frontend Developer",
		Days: []domain.Day{
			{
				ID: "demo-1", DayNumber: 1, Title: "Modern JavaScript refresher",
				Tasks: []domain.Task{
					{ID: "demo-1-1", Type: domain.TaskTypeLearning, Title: "Review ES2020+ features", Description: "Optional chaining, nullish coalescing, modules.", Completed: true},
					{ID: "demo-1-2", Type: domain.TaskTypePractice, Title: "Rewrite a callback API with async/await", Completed: true},
				},
				Resources: []domain.Resource{{Name: "MDN JavaScript Guide", URL: "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Guide", Type: domain.ResourceFree}},
			},
			{
				ID: "demo-2", DayNumber: 2, Title: "React fundamentals",
				Tasks: []domain.Task{
					{ID: "demo-2-1", Type: domain.TaskTypeLearning, Title: "Components, props and state", Completed: true},
					{ID: "demo-2-2", Type: domain.TaskTypePractice, Title: "Build a filterable list"},
				},
				Resources: []domain.Resource{{Name: "react.dev Learn", URL: "https://react.dev/learn", Type: domain.ResourceFree}},
			},
			{
				ID: "demo-3", DayNumber: 3, Title: "Interview drills",
				Tasks: []domain.Task{
					{ID: "demo-3-1", Type: domain.TaskTypePractice, Title: "Explain the event loop out loud"},
					{ID: "demo-3-2", Type: domain.TaskTypePractice, Title: "Run a mock interview"},
				},
			},
		},
	})
}
