// Package onboarding drives the three step wizard that turns a target role
// and a resume into a saved roadmap.
package onboarding

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

type Step string

const (
	StepGoalEntry    Step = "goal-entry"
	StepResumeUpload Step = "resume-upload"
	StepConfirmation Step = "confirmation"
)

const (
	StatusAnalyzing = "Analyzing resume..."
	StatusBuilding  = "Building your AI roadmap..."
	StatusSaving    = "Saving your path..."
)

// Backend is the slice of the product API the wizard needs.
type Backend interface {
	Onboard(ctx context.Context, up backend.ResumeUpload) (*backend.OnboardingResult, error)
	SaveRoadmap(ctx context.Context, goalID domain.ID, plan domain.Plan) error
}

type RoadmapGenerator interface {
	GenerateRoadmap(ctx context.Context, targetRole, resumeText string) (domain.Plan, error)
}

// ProfileRefresher re-reads the signed-in user once the roadmap is saved.
type ProfileRefresher interface {
	Refresh(ctx context.Context) (*domain.User, error)
}

// Flow is one user's pass through the wizard. It is not safe for concurrent
// use; each request builds its own.
type Flow struct {
	api     Backend
	gen     RoadmapGenerator
	profile ProfileRefresher
	logger  zerolog.Logger

	step    Step
	goal    string
	status  []string
	message string
}

func NewFlow(api Backend, gen RoadmapGenerator, profile ProfileRefresher, logger zerolog.Logger) *Flow {
	return &Flow{api: api, gen: gen, profile: profile, logger: logger, step: StepGoalEntry}
}

func (f *Flow) Step() Step { return f.step }

func (f *Flow) Goal() string { return f.goal }

// Status lists the progress messages recorded by the last Submit.
func (f *Flow) Status() []string { return append([]string(nil), f.status...) }

// Message is the error text of the last failed Submit.
func (f *Flow) Message() string { return f.message }

func (f *Flow) SetGoal(goal string) {
	f.goal = strings.TrimSpace(goal)
}

// Advance moves from goal entry to resume upload.
func (f *Flow) Advance() error {
	if f.step != StepGoalEntry {
		return fmt.Errorf("advance from %s: %w", f.step, domain.ErrInvalidState)
	}
	if f.goal == "" {
		return domain.ErrMissingGoal
	}
	f.step = StepResumeUpload
	return nil
}

// Back returns from resume upload to goal entry.
func (f *Flow) Back() error {
	if f.step != StepResumeUpload {
		return fmt.Errorf("back from %s: %w", f.step, domain.ErrInvalidState)
	}
	f.step = StepGoalEntry
	return nil
}

// Result is what a successful submit produced.
type Result struct {
	GoalID     domain.ID    `json:"goalId"`
	TargetRole string       `json:"targetRole"`
	Plan       domain.Plan  `json:"roadmap"`
	User       *domain.User `json:"user,omitempty"`
}

// Submit uploads the resume, generates the roadmap and saves it, strictly in
// that order. Any failure aborts the remaining steps and leaves the wizard on
// resume upload with the failure message recorded.
func (f *Flow) Submit(ctx context.Context, fileName string, resume []byte) (*Result, error) {
	if f.step != StepResumeUpload {
		return nil, fmt.Errorf("submit from %s: %w", f.step, domain.ErrInvalidState)
	}
	f.status = nil
	f.message = ""
	if f.goal == "" {
		return nil, f.fail(domain.ErrMissingGoal)
	}
	if len(resume) == 0 {
		return nil, f.fail(domain.ErrMissingResume)
	}

	f.status = append(f.status, StatusAnalyzing)
	onboarded, err := f.api.Onboard(ctx, backend.ResumeUpload{
		TargetRole: f.goal,
		FileName:   fileName,
		Resume:     bytes.NewReader(resume),
	})
	if err != nil {
		return nil, f.fail(err)
	}

	f.status = append(f.status, StatusBuilding)
	plan, err := f.gen.GenerateRoadmap(ctx, f.goal, onboarded.ResumeText)
	if err != nil {
		return nil, f.fail(err)
	}

	f.status = append(f.status, StatusSaving)
	if err := f.api.SaveRoadmap(ctx, onboarded.GoalID, plan); err != nil {
		return nil, f.fail(err)
	}

	f.step = StepConfirmation
	res := &Result{GoalID: onboarded.GoalID, TargetRole: f.goal, Plan: plan}
	if f.profile != nil {
		u, err := f.profile.Refresh(ctx)
		if err != nil {
			f.logger.Warn().Err(err).Msg("refresh profile after onboarding")
		} else {
			res.User = u
		}
	}
	return res, nil
}

func (f *Flow) fail(err error) error {
	f.message = backend.MessageOf(err)
	f.logger.Error().Err(err).Str("goal", f.goal).Msg("onboarding submit failed")
	return err
}
