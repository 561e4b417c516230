package config

import (
	"errors"
	"os"
)

// Config is built once at startup and passed to the handlers. Nothing reads
// the environment after New returns.
type Config struct {
	Port string

	StripePublishableKey string
	StripeSecretKey      string
	StripePriceID        string

	LicensegenAPIURL       string
	LicensegenProductToken string
	LicensegenAccountID    string
	LicensegenPolicyID     string

	SentryDSN string

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
}

const defaultLicensegenAPIURL = "https://licensegen-api.focusapps.app"

func New() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	publishableKey := os.Getenv("STRIPE_PUBLISHABLE_KEY")
	if publishableKey == "" {
		return nil, errors.New("STRIPE_PUBLISHABLE_KEY environment variable is required")
	}

	secretKey := os.Getenv("STRIPE_SECRET_KEY")
	if secretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY environment variable is required")
	}

	priceID := os.Getenv("STRIPE_PRICE_ID")
	if priceID == "" {
		return nil, errors.New("STRIPE_PRICE_ID environment variable is required")
	}

	productToken := os.Getenv("LICENSEGEN_PRODUCT_TOKEN")
	if productToken == "" {
		return nil, errors.New("LICENSEGEN_PRODUCT_TOKEN environment variable is required")
	}

	accountID := os.Getenv("LICENSEGEN_ACCOUNT_ID")
	if accountID == "" {
		return nil, errors.New("LICENSEGEN_ACCOUNT_ID environment variable is required")
	}

	policyID := os.Getenv("LICENSEGEN_POLICY_ID")
	if policyID == "" {
		return nil, errors.New("LICENSEGEN_POLICY_ID environment variable is required")
	}

	apiURL := os.Getenv("LICENSEGEN_API_URL")
	if apiURL == "" {
		apiURL = defaultLicensegenAPIURL
	}

	emailFrom := os.Getenv("EMAIL_FROM")
	if emailFrom == "" {
		emailFrom = "licenses@focusapps.app"
	}

	return &Config{
		Port:                   port,
		StripePublishableKey:   publishableKey,
		StripeSecretKey:        secretKey,
		StripePriceID:          priceID,
		LicensegenAPIURL:       apiURL,
		LicensegenProductToken: productToken,
		LicensegenAccountID:    accountID,
		LicensegenPolicyID:     policyID,
		SentryDSN:              os.Getenv("SENTRY_DSN"),
		SMTPHost:               os.Getenv("SMTP_HOST"),
		SMTPPort:               os.Getenv("SMTP_PORT"),
		SMTPUser:               os.Getenv("SMTP_USER"),
		SMTPPass:               os.Getenv("SMTP_PASS"),
		EmailFrom:              emailFrom,
	}, nil
}
