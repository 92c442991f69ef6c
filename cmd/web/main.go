package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"careerpath/internal/backend"
	"careerpath/internal/entitlement"
	"careerpath/internal/http/handlers"
	httpapi "careerpath/internal/http/httpapi"
	"careerpath/internal/identity"
	"careerpath/internal/infra"
	"careerpath/internal/interview"
	"careerpath/internal/middleware"
	"careerpath/internal/pricing"
	"careerpath/internal/providers/ai"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	issuer := cfg.IdentityIssuer
	if issuer == "" {
		issuer, err = identity.IssuerFromPublishableKey(cfg.IdentityPublishableKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid IDENTITY_PUBLISHABLE_KEY")
		}
	}
	verifier := identity.NewVerifier(issuer, identity.NewKeySet(issuer, "", nil))

	ctx := context.Background()

	// Voucher store: Postgres when configured, in-memory otherwise
	var vouchers entitlement.VoucherStore = entitlement.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		store := entitlement.NewPostgresStore(infra.NewSQLRunner(dbpool, logger))
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare voucher table")
		}
		vouchers = store
	} else {
		logger.Warn().Msg("DATABASE_URL not set, vouchers are kept in memory")
	}

	var provider ai.Provider = ai.BackendProvider{}
	if cfg.AIDegraded() {
		logger.Warn().Msg("OPENAI_API_KEY missing, falling back to backend AI with a degraded banner")
	} else if cfg.AIProvider == infra.AIProviderOpenAI {
		p, err := ai.NewOpenAIProvider(ai.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("reason", reason).Str("detail", detail).Msg("openai model adjusted")
			},
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init openai provider")
		}
		provider = p
	}

	api := backend.New(backend.Options{BaseURL: cfg.BackendBaseURL, Timeout: cfg.BackendTimeout})
	calc := entitlement.NewCalculator(vouchers, nil)
	users := identity.NewUserCache()

	app := &handlers.App{
		Logger: logger,
		Settings: handlers.Settings{
			PublishableKey: cfg.IdentityPublishableKey,
			LoginURL:       cfg.LoginURL,
			AIProvider:     provider.Name(),
			AIDegraded:     cfg.AIDegraded(),
		},
		Entitlements: calc,
		Notices:      entitlement.NewNoticeTracker(),
		AI:           provider,
		Interviews:   interview.NewRegistry(interview.DefaultIdleTTL, backend.RetryNetwork(2, 500*time.Millisecond), logger),
		Pricing:      pricing.NewService(calc, logger),
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger: logger,
		Auth: middleware.AuthConfig{
			Verifier: verifier,
			Backend:  api,
			Cache:    users,
			LoginURL: cfg.LoginURL,
			Logger:   logger,
		},
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("backend", cfg.BackendBaseURL).Str("ai", provider.Name()).Msgf("web tier listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
