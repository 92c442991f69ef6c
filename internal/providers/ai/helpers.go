package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"careerpath/internal/domain"
)

const maxPromptResumeChars = 12000

func buildRoadmapPrompt(targetRole, resumeText string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a senior career coach. Build a day-by-day preparation roadmap for the candidate. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"roadmap":[{"day":number,"title":string,"tasks":[{"type":"LEARNING"|"PRACTICE","title":string,"description":string}],"resources":[{"name":string,"url":string,"type":"free"|"paid"}]}]}`)
	fmt.Fprintf(sb, ". Produce 7 days, 2 to 4 tasks per day. Target role: %q. Resume:\n%s", targetRole, truncate(resumeText, maxPromptResumeChars))
	return sb.String()
}

func interviewSystemPrompt(targetRole, resumeText string) string {
	return fmt.Sprintf("You are a hiring manager running a mock interview for the %s position. Ask one question at a time, follow up on weak answers, and keep replies under 120 words. Candidate resume:\n%s", targetRole, truncate(resumeText, maxPromptResumeChars))
}

func buildFeedbackPrompt(targetRole string, transcript []domain.Turn) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write short, specific interview feedback (3 to 5 sentences) for a candidate interviewing for %q. Transcript:\n", targetRole)
	for _, t := range transcript {
		fmt.Fprintf(sb, "%s: %s\n", t.Role, t.Content)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

type roadmapPayload struct {
	Roadmap domain.Plan `json:"roadmap" validate:"required,min=1,dive"`
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// normalizePlan fills in day numbers the model left out and upper-cases task
// types so the dashboard can tag them.
func normalizePlan(plan domain.Plan) domain.Plan {
	for i := range plan {
		if plan[i].Day <= 0 {
			plan[i].Day = i + 1
		}
		for j := range plan[i].Tasks {
			t := strings.ToUpper(strings.TrimSpace(string(plan[i].Tasks[j].Type)))
			if t == "" {
				t = string(domain.TaskTypeLearning)
			}
			plan[i].Tasks[j].Type = domain.TaskType(t)
		}
	}
	return plan
}
