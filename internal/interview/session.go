// Package interview runs mock interviews: a one way state machine per
// interview and an in-memory registry that hands sessions to the screens.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
	"careerpath/internal/providers/ai"
)

type State string

// ErrBusy is returned when an interview already has a backend or AI call in
// flight. It wraps domain.ErrInvalidState so screens answer 409.
var ErrBusy = fmt.Errorf("interview has a request in flight: %w", domain.ErrInvalidState)

const (
	StateNotStarted State = "not-started"
	StateInProgress State = "in-progress"
	StateFinished   State = "finished"
)

// Backend is the slice of the product API an interview needs.
type Backend interface {
	StartInterview(ctx context.Context) (*backend.InterviewStart, error)
	FinishInterview(ctx context.Context, transcript []domain.Turn, feedback string) error
}

type Replier interface {
	InterviewReply(ctx context.Context, req backend.InterviewChatRequest) (string, error)
}

type FeedbackWriter interface {
	Feedback(ctx context.Context, targetRole string, transcript []domain.Turn) (string, error)
}

// Session is one mock interview. The backend client and AI generator are
// passed per call because every request carries its own bearer token.
//
// mu is never held across a network call. busy marks the single call in
// flight; touched is read by the registry sweep without taking mu.
type Session struct {
	id      string
	ownerID string
	retry   backend.Policy
	logger  zerolog.Logger
	touched atomic.Int64

	mu         sync.Mutex
	state      State
	busy       bool
	targetRole string
	resumeText string
	transcript []domain.Turn
	feedback   string
}

func newSession(id, ownerID string, retry backend.Policy, logger zerolog.Logger) *Session {
	s := &Session{
		id:      id,
		ownerID: ownerID,
		retry:   retry,
		logger:  logger.With().Str("interview_id", id).Logger(),
		state:   StateNotStarted,
	}
	s.touch()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens the interview. Free accounts that already used their free
// interview are refused before the backend is called.
func (s *Session) Start(ctx context.Context, api Backend, user *domain.User, premium bool) error {
	s.mu.Lock()
	if err := s.beginLocked("start interview", StateNotStarted); err != nil {
		s.mu.Unlock()
		return err
	}
	if QuotaExhausted(user, premium) {
		s.busy = false
		s.mu.Unlock()
		return &backend.Error{Op: "start interview", Kind: backend.KindQuota, Err: domain.ErrQuotaExceeded}
	}
	s.mu.Unlock()

	started, err := api.StartInterview(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		return err
	}
	s.targetRole = started.TargetRole
	s.resumeText = started.ResumeText
	s.transcript = []domain.Turn{{Role: domain.RoleAssistant, Content: ai.Greeting(started.TargetRole)}}
	s.state = StateInProgress
	s.touch()
	return nil
}

// Send appends the user's message and the interviewer's reply. When the reply
// cannot be produced the user turn stays in the transcript marked failed and
// the error is returned.
func (s *Session) Send(ctx context.Context, gen Replier, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyMessage
	}
	s.mu.Lock()
	if err := s.beginLocked("send", StateInProgress); err != nil {
		s.mu.Unlock()
		return "", err
	}
	req := backend.InterviewChatRequest{
		Message:    message,
		History:    domain.HistoryFromTurns(answered(s.transcript)),
		TargetRole: s.targetRole,
		ResumeText: s.resumeText,
	}
	s.transcript = append(s.transcript, domain.Turn{Role: domain.RoleUser, Content: message})
	idx := len(s.transcript) - 1
	s.mu.Unlock()

	reply, err := backend.Retry(ctx, s.retry, func(ctx context.Context) (string, error) {
		return gen.InterviewReply(ctx, req)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.touch()
	if err != nil {
		s.transcript[idx].Failed = true
		s.logger.Warn().Err(err).Msg("interview reply failed")
		return "", err
	}
	s.transcript = append(s.transcript, domain.Turn{Role: domain.RoleAssistant, Content: reply})
	return reply, nil
}

// Finish writes feedback and records the transcript once. A finished
// interview cannot be restarted.
func (s *Session) Finish(ctx context.Context, api Backend, gen FeedbackWriter) (string, error) {
	s.mu.Lock()
	if err := s.beginLocked("finish", StateInProgress); err != nil {
		s.mu.Unlock()
		return "", err
	}
	transcript := append([]domain.Turn(nil), s.transcript...)
	targetRole := s.targetRole
	s.mu.Unlock()

	feedback := ai.DefaultFeedback
	if gen != nil {
		text, err := gen.Feedback(ctx, targetRole, transcript)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("feedback generation failed, using default")
		case strings.TrimSpace(text) != "":
			feedback = text
		}
	}
	err := api.FinishInterview(ctx, transcript, feedback)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.touch()
	if err != nil {
		return "", err
	}
	s.feedback = feedback
	s.state = StateFinished
	return feedback, nil
}

// beginLocked claims the session for one call. mu must be held.
func (s *Session) beginLocked(op string, want State) error {
	if s.state != want {
		return fmt.Errorf("%s in state %s: %w", op, s.state, domain.ErrInvalidState)
	}
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.touch()
	return nil
}

// Snapshot is a copy of the interview for rendering.
type Snapshot struct {
	ID         string        `json:"id"`
	State      State         `json:"state"`
	TargetRole string        `json:"targetRole"`
	Transcript []domain.Turn `json:"transcript"`
	Feedback   string        `json:"feedback,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.id,
		State:      s.state,
		TargetRole: s.targetRole,
		Transcript: append([]domain.Turn{}, s.transcript...),
		Feedback:   s.feedback,
	}
}

func (s *Session) touch() {
	s.touched.Store(time.Now().UnixNano())
}

func (s *Session) lastTouched() time.Time {
	return time.Unix(0, s.touched.Load())
}

// answered drops user turns that never got a reply so the model does not see
// them twice when the user resends.
func answered(turns []domain.Turn) []domain.Turn {
	out := make([]domain.Turn, 0, len(turns))
	for _, t := range turns {
		if t.Failed {
			continue
		}
		out = append(out, t)
	}
	return out
}

// QuotaExhausted is the local free-plan check.
func QuotaExhausted(user *domain.User, premium bool) bool {
	if premium || user == nil {
		return false
	}
	return user.FreeInterviewsUsed >= domain.FreeInterviewAllowance
}

// QuotaCopy is the allowance line shown on the interview screen.
func QuotaCopy(user *domain.User, premium bool) string {
	if premium {
		return "Unlimited mock interviews available."
	}
	left := domain.FreeInterviewAllowance
	if user != nil {
		left = user.FreeInterviewsRemaining()
	}
	return fmt.Sprintf("%d free interview remaining.", left)
}

// IsQuota reports whether err means the free allowance is used up.
func IsQuota(err error) bool {
	return backend.IsKind(err, backend.KindQuota) || errors.Is(err, domain.ErrQuotaExceeded)
}
