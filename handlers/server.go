package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/atomic"

	"focusapps.app/bridge/internal/config"
	"focusapps.app/bridge/internal/email"
	"focusapps.app/bridge/internal/licensegen"
	"focusapps.app/bridge/internal/payments"
	"focusapps.app/bridge/internal/ratelimit"
	"focusapps.app/bridge/internal/version"
)

// Stats are exposed on /health so an operator can see whether webhooks are
// flowing without grepping logs.
type Stats struct {
	Processed atomic.Int64
	Ignored   atomic.Int64
	Failed    atomic.Int64
}

type Server struct {
	Router   chi.Router
	Config   *config.Config
	Licenses *licensegen.Client
	Payments payments.Provider
	Mailer   *email.Mailer
	Stats    *Stats

	version string

	// Trust policy per inbound source. LicenseGen notifications carry only
	// an event id and are re-read from the API; Stripe envelopes are taken
	// at face value.
	licensegenTrust TrustPolicy
	stripeTrust     TrustPolicy
}

func NewServer(cfg *config.Config, licenses *licensegen.Client, provider payments.Provider, mailer *email.Mailer) *Server {
	router := chi.NewRouter()

	s := &Server{
		Router:          router,
		Config:          cfg,
		Licenses:        licenses,
		Payments:        provider,
		Mailer:          mailer,
		Stats:           &Stats{},
		version:         version.Resolve(),
		licensegenTrust: VerifyByRefetch,
		stripeTrust:     TrustDirectly,
	}

	router.Use(requestID)
	router.Use(requestLogger)
	router.Use(s.recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// Webhook routes stay unlimited: a 429 would make the senders redeliver.
	router.Post("/licensegen-webhooks", s.LicensegenWebhook)
	router.Post("/stripe-webhooks", s.StripeWebhook)

	limiter := ratelimit.New(60, time.Minute)
	router.Group(func(r chi.Router) {
		r.Use(rateLimit(limiter))
		r.Get("/", s.Landing)
		r.Get("/health", s.Health)
	})

	return s
}
