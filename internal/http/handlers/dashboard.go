package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"careerpath/internal/dashboard"
	"careerpath/internal/domain"
)

func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	view, err := dashboard.Load(r.Context(), s.API())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, view)
}

// ToggleTask flips a task and answers with the refetched dashboard.
func (a *App) ToggleTask(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	id := domain.ID(chi.URLParam(r, "id"))
	view, err := dashboard.Toggle(r.Context(), s.API(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, view)
}
