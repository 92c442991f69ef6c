package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error    errorDetail `json:"error"`
	LoginURL string      `json:"login_url,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

func (a *App) unauthorized(w http.ResponseWriter) {
	a.json(w, http.StatusUnauthorized, errorBody{
		Error:    errorDetail{Code: "unauthorized", Message: "Please sign in to continue"},
		LoginURL: a.Settings.LoginURL,
	})
}

// fail maps err onto a status code and writes it. Backend messages are passed
// through verbatim.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingGoal), errors.Is(err, domain.ErrMissingResume), errors.Is(err, domain.ErrEmptyMessage):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	case errors.Is(err, domain.ErrInvalidState):
		a.error(w, http.StatusConflict, "invalid_state", err.Error())
		return
	case errors.Is(err, domain.ErrSessionExpired), errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	var e *backend.Error
	if !errors.As(err, &e) {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "Something went wrong")
		return
	}
	msg := e.UserMessage()
	switch e.Kind {
	case backend.KindUnauthorized:
		a.unauthorized(w)
	case backend.KindQuota:
		a.error(w, http.StatusPaymentRequired, "quota_exceeded", msg)
	case backend.KindValidation:
		a.error(w, http.StatusBadRequest, "bad_request", msg)
	case backend.KindConfig:
		a.Logger.Error().Err(err).Msg("misconfigured upstream call")
		a.error(w, http.StatusInternalServerError, "internal", msg)
	case backend.KindNetwork:
		a.Logger.Warn().Err(err).Msg("backend unreachable")
		a.error(w, http.StatusBadGateway, "backend_unavailable", msg)
	default:
		if e.Status >= 400 && e.Status < 500 {
			a.error(w, e.Status, "rejected", msg)
			return
		}
		a.Logger.Error().Err(err).Msg("backend call failed")
		a.error(w, http.StatusBadGateway, "backend_error", msg)
	}
}
