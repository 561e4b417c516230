package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_123")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_PRICE_ID", "price_123")
	t.Setenv("LICENSEGEN_PRODUCT_TOKEN", "prod-token")
	t.Setenv("LICENSEGEN_ACCOUNT_ID", "acct_123")
	t.Setenv("LICENSEGEN_POLICY_ID", "policy_123")
}

func TestNew_AllRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("LICENSEGEN_API_URL", "")
	t.Setenv("EMAIL_FROM", "")

	cfg, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LicensegenAPIURL != "https://licensegen-api.focusapps.app" {
		t.Errorf("Unexpected default API URL: %s", cfg.LicensegenAPIURL)
	}
	if cfg.EmailFrom != "licenses@focusapps.app" {
		t.Errorf("Unexpected default sender: %s", cfg.EmailFrom)
	}
	if cfg.StripeSecretKey != "sk_test_123" {
		t.Errorf("Unexpected secret key: %s", cfg.StripeSecretKey)
	}
}

func TestNew_MissingRequired(t *testing.T) {
	required := []string{
		"STRIPE_PUBLISHABLE_KEY",
		"STRIPE_SECRET_KEY",
		"STRIPE_PRICE_ID",
		"LICENSEGEN_PRODUCT_TOKEN",
		"LICENSEGEN_ACCOUNT_ID",
		"LICENSEGEN_POLICY_ID",
	}

	for _, name := range required {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(name, "")

			_, err := New()
			if err == nil {
				t.Fatalf("Expected error when %s is missing", name)
			}
			if !strings.Contains(err.Error(), name) {
				t.Errorf("Expected error to name %s, got: %v", name, err)
			}
		})
	}
}

func TestNew_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("LICENSEGEN_API_URL", "http://localhost:4000")

	cfg, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", cfg.Port)
	}
	if cfg.LicensegenAPIURL != "http://localhost:4000" {
		t.Errorf("Expected overridden API URL, got %s", cfg.LicensegenAPIURL)
	}
}
