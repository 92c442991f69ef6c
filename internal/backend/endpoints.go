package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"careerpath/internal/domain"
)

type meResponse struct {
	User *domain.User `json:"user" validate:"required"`
}

// Me fetches the account record for the current session.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out meResponse
	if err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ResumeUpload is the multipart payload for POST /api/onboarding.
type ResumeUpload struct {
	TargetRole string
	FileName   string
	Resume     io.Reader
}

type OnboardingResult struct {
	GoalID     domain.ID `json:"goalId" validate:"required"`
	ResumeText string    `json:"resumeText"`
}

// Onboard uploads the resume and creates the goal. The backend extracts the
// resume text and returns it so the roadmap can be generated from it.
func (c *Client) Onboard(ctx context.Context, up ResumeUpload) (*OnboardingResult, error) {
	const op = "POST /api/onboarding"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	name := up.FileName
	if name == "" {
		name = "resume.pdf"
	}
	part, err := mw.CreateFormFile("resume", name)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindValidation, Err: err}
	}
	if _, err := io.Copy(part, up.Resume); err != nil {
		return nil, &Error{Op: op, Kind: KindValidation, Err: err}
	}
	if err := mw.WriteField("targetRole", up.TargetRole); err != nil {
		return nil, &Error{Op: op, Kind: KindValidation, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Op: op, Kind: KindValidation, Err: err}
	}
	resp, err := c.Fetch(ctx, http.MethodPost, "/api/onboarding", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out OnboardingResult
	if err := c.handle(resp, op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type saveRoadmapRequest struct {
	GoalID  domain.ID   `json:"goalId"`
	Roadmap domain.Plan `json:"roadmap"`
}

// SaveRoadmap persists a generated plan against the goal.
func (c *Client) SaveRoadmap(ctx context.Context, goalID domain.ID, plan domain.Plan) error {
	return c.call(ctx, http.MethodPost, "/api/roadmap/save", saveRoadmapRequest{GoalID: goalID, Roadmap: plan}, nil)
}

// RoadmapResponse is GET /api/roadmap. Goal is nil until onboarding is done.
type RoadmapResponse struct {
	Days []domain.Day `json:"roadmap" validate:"dive"`
	Goal *domain.Goal `json:"goal"`
}

func (c *Client) Roadmap(ctx context.Context) (*RoadmapResponse, error) {
	var out RoadmapResponse
	if err := c.call(ctx, http.MethodGet, "/api/roadmap", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleTask flips the completion state of a task on the server.
func (c *Client) ToggleTask(ctx context.Context, taskID domain.ID) error {
	if taskID.IsZero() {
		return &Error{Op: "POST /api/tasks/:id/toggle", Kind: KindValidation, Err: errors.New("task id is required")}
	}
	return c.call(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(taskID.String())+"/toggle", nil, nil)
}

type InterviewStart struct {
	TargetRole string `json:"targetRole" validate:"required"`
	ResumeText string `json:"resumeText"`
}

// StartInterview opens a mock interview. The backend answers 403 when the
// free allowance is used up.
func (c *Client) StartInterview(ctx context.Context) (*InterviewStart, error) {
	var out InterviewStart
	err := c.call(ctx, http.MethodPost, "/api/interview/start", nil, &out)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Status == http.StatusForbidden {
			e.Kind = KindQuota
		}
		return nil, err
	}
	return &out, nil
}

type finishInterviewRequest struct {
	Transcript []domain.Turn `json:"transcript"`
	Feedback   string        `json:"feedback"`
}

func (c *Client) FinishInterview(ctx context.Context, transcript []domain.Turn, feedback string) error {
	return c.call(ctx, http.MethodPost, "/api/interview/finish", finishInterviewRequest{Transcript: transcript, Feedback: feedback}, nil)
}

type checkoutResponse struct {
	URL string `json:"url" validate:"required,url"`
}

// CreateCheckout returns the payment provider URL to redirect the browser to.
func (c *Client) CreateCheckout(ctx context.Context) (string, error) {
	var out checkoutResponse
	if err := c.call(ctx, http.MethodPost, "/api/checkout/create", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

type redeemRequest struct {
	Code string `json:"code"`
}

// RedeemResult is the 2xx body of POST /api/cheat-code. ExpiresAt is a unix
// millisecond timestamp some backends include for time-limited vouchers.
type RedeemResult struct {
	Message   string `json:"message"`
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}

// RedeemCode applies a voucher code. A rejected code comes back as an
// *Error whose Message is the server's {error} string.
func (c *Client) RedeemCode(ctx context.Context, code string) (*RedeemResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &Error{Op: "POST /api/cheat-code", Kind: KindValidation, Message: "Enter a code"}
	}
	var out RedeemResult
	if err := c.call(ctx, http.MethodPost, "/api/cheat-code", redeemRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type generateRoadmapRequest struct {
	TargetRole string `json:"targetRole"`
	ResumeText string `json:"resumeText"`
}

type generateRoadmapResponse struct {
	Roadmap domain.Plan `json:"roadmap" validate:"required,min=1,dive"`
}

// GenerateRoadmap asks the backend AI endpoint for a plan.
func (c *Client) GenerateRoadmap(ctx context.Context, targetRole, resumeText string) (domain.Plan, error) {
	var out generateRoadmapResponse
	if err := c.call(ctx, http.MethodPost, "/api/ai/generate-roadmap", generateRoadmapRequest{TargetRole: targetRole, ResumeText: resumeText}, &out); err != nil {
		return nil, err
	}
	return out.Roadmap, nil
}

// InterviewChatRequest carries the full prior history with every turn.
type InterviewChatRequest struct {
	Message    string                `json:"message"`
	History    []domain.HistoryEntry `json:"history"`
	TargetRole string                `json:"targetRole"`
	ResumeText string                `json:"resumeText"`
}

type interviewChatResponse struct {
	Response string `json:"response" validate:"required"`
}

func (c *Client) InterviewChat(ctx context.Context, req InterviewChatRequest) (string, error) {
	if req.History == nil {
		req.History = []domain.HistoryEntry{}
	}
	var out interviewChatResponse
	if err := c.call(ctx, http.MethodPost, "/api/ai/interview-chat", req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
