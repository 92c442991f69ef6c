// Package ai produces roadmaps, interview replies and interview feedback,
// either through the product backend's AI endpoints or directly against
// OpenAI.
package ai

import (
	"context"
	"strings"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

// DefaultFeedback is used when the provider cannot write feedback itself.
const DefaultFeedback = "Great job! You showed strong technical knowledge and clear communication. Focus more on quantifying your achievements in future interviews."

// Generator is the AI surface the screens use.
type Generator interface {
	GenerateRoadmap(ctx context.Context, targetRole, resumeText string) (domain.Plan, error)
	InterviewReply(ctx context.Context, req backend.InterviewChatRequest) (string, error)
	Feedback(ctx context.Context, targetRole string, transcript []domain.Turn) (string, error)
}

// Provider hands out a Generator bound to the caller's backend session.
type Provider interface {
	For(api *backend.Client) Generator
	Name() string
}

// BackendProvider proxies every call through the backend AI endpoints with
// the session's bearer token.
type BackendProvider struct{}

func (BackendProvider) Name() string { return "backend" }

func (BackendProvider) For(api *backend.Client) Generator {
	return &backendGenerator{api: api}
}

type backendGenerator struct {
	api *backend.Client
}

func (g *backendGenerator) GenerateRoadmap(ctx context.Context, targetRole, resumeText string) (domain.Plan, error) {
	return g.api.GenerateRoadmap(ctx, targetRole, resumeText)
}

func (g *backendGenerator) InterviewReply(ctx context.Context, req backend.InterviewChatRequest) (string, error) {
	return g.api.InterviewChat(ctx, req)
}

func (g *backendGenerator) Feedback(context.Context, string, []domain.Turn) (string, error) {
	return DefaultFeedback, nil
}

// Greeting is the interviewer's opening line.
func Greeting(targetRole string) string {
	role := strings.TrimSpace(targetRole)
	if role == "" {
		role = "open"
	}
	return "Hello! I'm your interviewer today for the " + role + " position. I've reviewed your resume. To start, could you tell me a bit about yourself and why you're interested in this role?"
}
