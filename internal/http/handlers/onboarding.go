package handlers

import (
	"errors"
	"io"
	"net/http"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
	"careerpath/internal/onboarding"
)

const maxResumeBytes = 10 << 20

type onboardingFailure struct {
	Error  errorDetail     `json:"error"`
	Step   onboarding.Step `json:"step"`
	Status []string        `json:"status"`
}

type onboardingResponse struct {
	Step   onboarding.Step `json:"step"`
	Status []string        `json:"status"`
	*onboarding.Result
}

// Onboarding takes the multipart form of the wizard's last step: targetRole
// and the resume file.
func (a *App) Onboarding(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes+1<<20)
	if err := r.ParseMultipartForm(maxResumeBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "resume is too large")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid form")
		return
	}

	api := s.API()
	flow := onboarding.NewFlow(api, a.AI.For(api), s, a.Logger.With().Str("user_id", s.UserID()).Logger())
	flow.SetGoal(r.FormValue("targetRole"))
	if err := flow.Advance(); err != nil {
		a.fail(w, r, err)
		return
	}

	var (
		name   string
		resume []byte
	)
	file, hdr, err := r.FormFile("resume")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		a.error(w, http.StatusBadRequest, "bad_request", "invalid resume upload")
		return
	default:
		defer file.Close()
		name = hdr.Filename
		if hdr.Size > maxResumeBytes {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "resume is too large")
			return
		}
		resume, err = io.ReadAll(io.LimitReader(file, maxResumeBytes+1))
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "could not read resume")
			return
		}
		if len(resume) > maxResumeBytes {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "resume is too large")
			return
		}
	}

	res, err := flow.Submit(r.Context(), name, resume)
	if err != nil {
		if errors.Is(err, domain.ErrMissingResume) {
			a.fail(w, r, err)
			return
		}
		status := http.StatusBadGateway
		switch backend.KindOf(err) {
		case backend.KindUnauthorized:
			a.unauthorized(w)
			return
		case backend.KindQuota:
			status = http.StatusPaymentRequired
		case backend.KindValidation:
			status = http.StatusBadRequest
		}
		a.json(w, status, onboardingFailure{
			Error:  errorDetail{Code: "onboarding_failed", Message: flow.Message()},
			Step:   flow.Step(),
			Status: flow.Status(),
		})
		return
	}
	a.json(w, http.StatusCreated, onboardingResponse{Step: flow.Step(), Status: flow.Status(), Result: res})
}
