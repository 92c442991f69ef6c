package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"careerpath/internal/entitlement"
	"careerpath/internal/identity"
	"careerpath/internal/interview"
	"careerpath/internal/pricing"
	"careerpath/internal/providers/ai"
)

// Settings are the values the screens echo back to the browser.
type Settings struct {
	PublishableKey string
	LoginURL       string
	AIProvider     string
	AIDegraded     bool
}

type App struct {
	Logger       zerolog.Logger
	Settings     Settings
	Entitlements *entitlement.Calculator
	Notices      *entitlement.NoticeTracker
	AI           ai.Provider
	Interviews   *interview.Registry
	Pricing      *pricing.Service
}

// session returns the request's identity session, answering 401 when the auth
// middleware did not run or found nobody.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*identity.Session, bool) {
	s, ok := identity.SessionFromContext(r.Context())
	if !ok {
		a.unauthorized(w)
		return nil, false
	}
	return s, true
}
