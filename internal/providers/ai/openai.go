package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

const (
	openAIDefaultTimeout = 60 * time.Second
	defaultOpenAIModel   = openai.GPT4oMini
)

var openAIModelAliases = map[string]string{
	"gpt4o-mini":    openai.GPT4oMini,
	"gpt4omini":     openai.GPT4oMini,
	"gpt-4o":        openai.GPT4o,
	"gpt4o":         openai.GPT4o,
	"gpt-3.5":       openai.GPT3Dot5Turbo,
	"gpt-35-turbo":  openai.GPT3Dot5Turbo,
	"gpt-3.5-turbo": openai.GPT3Dot5Turbo,
	"gpt-4o-mini":   openai.GPT4oMini,
}

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	OnWarning  func(reason, detail string)
}

// OpenAIProvider talks to OpenAI directly. It ignores the backend session,
// so the same generator serves every user.
type OpenAIProvider struct {
	client   *openai.Client
	model    string
	validate *validator.Validate
}

func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("openai api key is required")
	}
	cfg := openai.DefaultConfig(key)
	if base := strings.TrimRight(opts.BaseURL, "/"); base != "" {
		cfg.BaseURL = base
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: openAIDefaultTimeout}
	}
	cfg.HTTPClient = httpClient
	model, reason := normalizeOpenAIModel(opts.Model)
	if reason != "" && opts.OnWarning != nil {
		opts.OnWarning("model_"+reason, fmt.Sprintf("requested=%s resolved=%s", opts.Model, model))
	}
	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) For(*backend.Client) Generator { return p }

func (p *OpenAIProvider) GenerateRoadmap(ctx context.Context, targetRole, resumeText string) (domain.Plan, error) {
	const op = "openai generate-roadmap"
	text, err := p.complete(ctx, op, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.6,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful career planning assistant that only responds with valid JSON."},
			{Role: openai.ChatMessageRoleUser, Content: buildRoadmapPrompt(targetRole, resumeText)},
		},
	})
	if err != nil {
		return nil, err
	}
	parsed, err := parseModelPayload[roadmapPayload](text)
	if err != nil {
		return nil, &backend.Error{Op: op, Kind: backend.KindDecode, Err: err}
	}
	plan := normalizePlan(parsed.Roadmap)
	parsed.Roadmap = plan
	if err := p.validate.Struct(parsed); err != nil {
		return nil, &backend.Error{Op: op, Kind: backend.KindDecode, Err: err}
	}
	return plan, nil
}

func (p *OpenAIProvider) InterviewReply(ctx context.Context, req backend.InterviewChatRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: interviewSystemPrompt(req.TargetRole, req.ResumeText)},
	}
	for _, h := range req.History {
		role := openai.ChatMessageRoleUser
		if h.Role == domain.RoleModel || h.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: h.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})
	return p.complete(ctx, "openai interview-chat", openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   400,
	})
}

func (p *OpenAIProvider) Feedback(ctx context.Context, targetRole string, transcript []domain.Turn) (string, error) {
	return p.complete(ctx, "openai interview-feedback", openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.4,
		MaxTokens:   300,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are an encouraging but honest interview coach."},
			{Role: openai.ChatMessageRoleUser, Content: buildFeedbackPrompt(targetRole, transcript)},
		},
	})
}

func (p *OpenAIProvider) complete(ctx context.Context, op string, req openai.ChatCompletionRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", &backend.Error{Op: op, Kind: backend.KindDecode, Err: errors.New("no choices")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &backend.Error{Op: op, Kind: backend.KindDecode, Err: errors.New("empty response")}
	}
	return text, nil
}

func classifyOpenAIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := backend.KindBackend
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			kind = backend.KindConfig
		case http.StatusTooManyRequests:
			kind = backend.KindQuota
		}
		return &backend.Error{Op: op, Kind: kind, Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &backend.Error{Op: op, Kind: backend.KindBackend, Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &backend.Error{Op: op, Kind: backend.KindNetwork, Err: err}
}

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	trimmed = strings.ReplaceAll(trimmed, " ", "-")
	if canonical, ok := openAIModelAliases[trimmed]; ok {
		if canonical == trimmed {
			return canonical, ""
		}
		return canonical, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}

var (
	_ Provider  = (*OpenAIProvider)(nil)
	_ Generator = (*OpenAIProvider)(nil)
	_ Provider  = BackendProvider{}
)
