package handlers

import (
	"context"
	"net/http"

	"careerpath/internal/domain"
	"careerpath/internal/entitlement"
	"careerpath/internal/identity"
	"careerpath/internal/interview"
)

type sessionResponse struct {
	User           *domain.User            `json:"user"`
	Entitlement    entitlement.Entitlement `json:"entitlement"`
	Premium        bool                    `json:"premium"`
	TrialNotice    bool                    `json:"trialNotice"`
	InterviewQuota string                  `json:"interviewQuota"`
	AIDegraded     bool                    `json:"aiDegraded"`
}

// entitled computes the entitlement for the session's user. Backend premium
// and local entitlement both count.
func (a *App) entitled(ctx context.Context, s *identity.Session, u *domain.User) (entitlement.Entitlement, bool) {
	ent, err := a.Entitlements.Compute(ctx, s.UserID(), s.CreatedAt(u))
	if err != nil {
		a.Logger.Warn().Err(err).Str("user_id", s.UserID()).Msg("voucher lookup failed")
	}
	return ent, ent.IsPremium || (u != nil && u.IsPremium)
}

func (a *App) sessionView(ctx context.Context, s *identity.Session, u *domain.User, observe bool) sessionResponse {
	ent, premium := a.entitled(ctx, s, u)
	resp := sessionResponse{
		User:           u,
		Entitlement:    ent,
		Premium:        premium,
		InterviewQuota: interview.QuotaCopy(u, premium),
		AIDegraded:     a.Settings.AIDegraded,
	}
	if observe && a.Notices != nil {
		resp.TrialNotice = a.Notices.Observe(s.UserID(), ent)
	}
	return resp
}

func (a *App) Session(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	u, err := s.User(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.sessionView(r.Context(), s, u, true))
}

func (a *App) SessionRefresh(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	u, err := s.Refresh(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.sessionView(r.Context(), s, u, false))
}

// SignOut forgets the cached user and re-arms the trial notice. The token
// itself is revoked by the identity provider's SDK in the browser.
func (a *App) SignOut(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	s.Forget()
	if a.Notices != nil {
		a.Notices.SignOut(s.UserID())
	}
	w.WriteHeader(http.StatusNoContent)
}
