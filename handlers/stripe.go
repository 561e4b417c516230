package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"

	"focusapps.app/bridge/internal/logger"
	"focusapps.app/bridge/internal/payments"
	"focusapps.app/bridge/internal/provision"
)

func (s *Server) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read webhook payload", map[string]interface{}{
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event := stripe.Event{}
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Error("Failed to parse webhook JSON", map[string]interface{}{
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	logger.Info("Stripe webhook received", map[string]interface{}{
		"event_id":     event.ID,
		"event_type":   event.Type,
		"trust_policy": s.stripeTrust.String(),
	})

	// TrustDirectly is the only strategy implemented for this source; a
	// VerifyBySignature variant would hook in here. Refusing to process
	// under any other policy keeps a misconfiguration from silently acting
	// on an unverified payload.
	if s.stripeTrust != TrustDirectly {
		s.fatal(w, "Unsupported trust policy for Stripe webhooks", fmt.Errorf("trust policy %s is not implemented for this source", s.stripeTrust), map[string]interface{}{
			"event_id": event.ID,
		})
		return
	}

	switch event.Type {
	case "customer.created":
		if event.Data == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var customer stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &customer); err != nil {
			logger.Error("Failed to unmarshal customer", map[string]interface{}{
				"error":    err.Error(),
				"event_id": event.ID,
			})
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := s.provisionLicense(ctx, &customer); err != nil {
			// The subscription may already exist by now, meaning the
			// customer has been billed for a license they did not get. The
			// 500 makes Stripe redeliver; the idempotency key keeps the
			// redelivery from charging twice.
			s.fatal(w, "Failed to provision license", err, map[string]interface{}{
				"event_id":    event.ID,
				"customer_id": customer.ID,
			})
			return
		}

		s.Stats.Processed.Inc()
		w.WriteHeader(http.StatusOK)
	default:
		logger.Info("Ignoring event type", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		s.Stats.Ignored.Inc()
		w.WriteHeader(http.StatusOK)
	}
}

// provisionLicense subscribes a freshly created Stripe customer to the
// configured price and issues a LicenseGen license for the linked user.
func (s *Server) provisionLicense(ctx context.Context, customer *stripe.Customer) error {
	userID := customer.Metadata[provision.KeyLicensegenUserID]
	if userID == "" {
		// Customer created outside this flow (dashboard, another
		// integration). Nothing to link a license to.
		return fmt.Errorf("customer %s does not have a LicenseGen user ID attached to their customer account", customer.ID)
	}

	logger.Debug("Customer state before provisioning", map[string]interface{}{
		"customer_id": customer.ID,
		"state":       provision.CustomerState(customer.Metadata).String(),
	})

	// The user id doubles as the idempotency key: however often Stripe
	// redelivers customer.created for this customer, only one subscription
	// is ever created.
	subscription, err := s.Payments.CreateSubscription(ctx, payments.SubscriptionParams{
		CustomerID:     customer.ID,
		PriceID:        s.Config.StripePriceID,
		IdempotencyKey: userID,
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	logger.Info("Subscription created", map[string]interface{}{
		"customer_id":     customer.ID,
		"subscription_id": subscription.ID,
		"state":           provision.StateSubscriptionCreated.String(),
	})

	license, err := s.Licenses.CreateLicense(ctx, s.Config.LicensegenPolicyID, userID, map[string]string{
		provision.KeyStripeSubscriptionID: subscription.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to create license for user %s: %w", userID, err)
	}

	logger.Info("License issued", map[string]interface{}{
		"user_id":         userID,
		"license_id":      license.ID,
		"subscription_id": subscription.ID,
		"state":           provision.StateLicenseIssued.String(),
	})

	s.notifyLicenseIssued(customer.Email, license.ID)

	return nil
}

// notifyLicenseIssued mails the customer about their new license. Mail is
// best effort; the license exists either way.
func (s *Server) notifyLicenseIssued(to, licenseID string) {
	if to == "" || s.Mailer == nil || !s.Mailer.Configured() {
		return
	}

	body := fmt.Sprintf(`Hello,

Your subscription is active and your license has been issued.

License ID: %s

You can manage your license from your account page.

Best regards,
The FocusApps Team`, licenseID)

	if err := s.Mailer.Send(to, "Your license is ready", body); err != nil {
		logger.Error("Failed to send license email", map[string]interface{}{
			"error":      err.Error(),
			"email":      to,
			"license_id": licenseID,
		})
		return
	}

	logger.Info("License email sent", map[string]interface{}{
		"email":      to,
		"license_id": licenseID,
	})
}
