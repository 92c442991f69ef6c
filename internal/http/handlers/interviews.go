package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
	"careerpath/internal/identity"
	"careerpath/internal/interview"
)

type interviewResponse struct {
	interview.Snapshot
	InterviewQuota string `json:"interviewQuota,omitempty"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Reply      string        `json:"reply"`
	Transcript []domain.Turn `json:"transcript"`
}

type sendMessageFailure struct {
	Error      errorDetail   `json:"error"`
	Retryable  bool          `json:"retryable"`
	Transcript []domain.Turn `json:"transcript"`
}

// StartInterview creates and starts a mock interview.
func (a *App) StartInterview(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	u, err := s.User(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	_, premium := a.entitled(r.Context(), s, u)

	iv := a.Interviews.Create(s.UserID())
	if err := iv.Start(r.Context(), s.API(), u, premium); err != nil {
		a.Interviews.Remove(iv.ID())
		a.fail(w, r, err)
		return
	}
	// the backend counts the interview against the free allowance on start
	if fresh, err := s.Refresh(r.Context()); err == nil {
		u = fresh
	} else {
		a.Logger.Warn().Err(err).Msg("refresh user after interview start")
	}
	a.json(w, http.StatusCreated, interviewResponse{Snapshot: iv.Snapshot(), InterviewQuota: interview.QuotaCopy(u, premium)})
}

func (a *App) interviewFor(w http.ResponseWriter, r *http.Request) (*identity.Session, *interview.Session, bool) {
	s, ok := a.session(w, r)
	if !ok {
		return nil, nil, false
	}
	iv, err := a.Interviews.Get(s.UserID(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, nil, false
	}
	return s, iv, true
}

func (a *App) GetInterview(w http.ResponseWriter, r *http.Request) {
	_, iv, ok := a.interviewFor(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, interviewResponse{Snapshot: iv.Snapshot()})
}

// SendMessage runs one interview turn. A failed turn answers with the error
// and the transcript, whose last user turn is marked failed.
func (a *App) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, iv, ok := a.interviewFor(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	reply, err := iv.Send(r.Context(), a.AI.For(s.API()), req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) || errors.Is(err, domain.ErrInvalidState) {
			a.fail(w, r, err)
			return
		}
		a.json(w, http.StatusBadGateway, sendMessageFailure{
			Error:      errorDetail{Code: "reply_failed", Message: "Sorry, I encountered an error. Please try again."},
			Retryable:  backend.IsKind(err, backend.KindNetwork),
			Transcript: iv.Snapshot().Transcript,
		})
		return
	}
	a.json(w, http.StatusOK, sendMessageResponse{Reply: reply, Transcript: iv.Snapshot().Transcript})
}

// FinishInterview records the interview and returns its feedback. The
// interview is discarded once the backend has it.
func (a *App) FinishInterview(w http.ResponseWriter, r *http.Request) {
	s, iv, ok := a.interviewFor(w, r)
	if !ok {
		return
	}
	api := s.API()
	if _, err := iv.Finish(r.Context(), api, a.AI.For(api)); err != nil {
		a.fail(w, r, err)
		return
	}
	a.Interviews.Remove(iv.ID())
	if _, err := s.Refresh(r.Context()); err != nil {
		a.Logger.Warn().Err(err).Msg("refresh user after interview finish")
	}
	a.json(w, http.StatusOK, interviewResponse{Snapshot: iv.Snapshot()})
}
