package main

import (
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"focusapps.app/bridge/handlers"
	"focusapps.app/bridge/internal/config"
	"focusapps.app/bridge/internal/email"
	"focusapps.app/bridge/internal/licensegen"
	"focusapps.app/bridge/internal/logger"
	"focusapps.app/bridge/internal/payments"
	"focusapps.app/bridge/internal/version"
)

func main() {
	godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	licenses := licensegen.NewClient(cfg.LicensegenAPIURL, cfg.LicensegenAccountID, cfg.LicensegenProductToken)
	provider := payments.NewStripeProvider(cfg.StripeSecretKey)
	mailer := email.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)

	server := handlers.NewServer(cfg, licenses, provider, mailer)

	logger.Info("LicenseGen-Stripe bridge starting", map[string]interface{}{
		"version": version.Resolve(),
		"port":    cfg.Port,
	})

	log.Fatal(http.ListenAndServe(":"+cfg.Port, server.Router))
}
