package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"careerpath/internal/http/handlers"
	"careerpath/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	Auth            middleware.AuthConfig
	CORSOrigins     []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	// Middlewares dasar
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Route("/app", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/config", app.Config)
		r.Get("/demo", app.Demo)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.Auth))

			r.Get("/session", app.Session)
			r.Post("/session/refresh", app.SessionRefresh)
			r.Post("/session/signout", app.SignOut)

			r.Get("/dashboard", app.Dashboard)
			r.Post("/tasks/{id}/toggle", app.ToggleTask)

			r.Post("/checkout", app.Checkout)
			r.Post("/vouchers/redeem", app.RedeemVoucher)

			r.Get("/interviews/{id}", app.GetInterview)

			// AI backed calls
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
				r.Post("/onboarding", app.Onboarding)
				r.Post("/interviews", app.StartInterview)
				r.Post("/interviews/{id}/messages", app.SendMessage)
				r.Post("/interviews/{id}/finish", app.FinishInterview)
			})
		})
	})

	return r
}
