package handlers

import (
	"net/http"

	"careerpath/internal/dashboard"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type configResponse struct {
	PublishableKey string `json:"publishableKey"`
	LoginURL       string `json:"loginUrl"`
	AIProvider     string `json:"aiProvider"`
	AIDegraded     bool   `json:"aiDegraded"`
}

// Config is what the browser needs before anyone signs in.
func (a *App) Config(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, configResponse{
		PublishableKey: a.Settings.PublishableKey,
		LoginURL:       a.Settings.LoginURL,
		AIProvider:     a.Settings.AIProvider,
		AIDegraded:     a.Settings.AIDegraded,
	})
}

func (a *App) Demo(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, dashboard.Demo())
}
