package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"

	"focusapps.app/bridge/internal/licensegen"
	"focusapps.app/bridge/internal/logger"
	"focusapps.app/bridge/internal/payments"
	"focusapps.app/bridge/internal/provision"
)

const maxBodyBytes = int64(65536)

// licensegenNotification is all the inbound body is trusted for: the id used
// to fetch the real event.
type licensegenNotification struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (s *Server) LicensegenWebhook(w http.ResponseWriter, r *http.Request) {
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

	var notification licensegenNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		logger.Error("Failed to parse webhook JSON", map[string]interface{}{
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	logger.Info("LicenseGen webhook received", map[string]interface{}{
		"event_id":     notification.Data.ID,
		"trust_policy": s.licensegenTrust.String(),
	})

	// An unresolvable event means it does not exist (or was not sent by
	// LicenseGen); answering 200 stops the sender from redelivering a
	// forgery forever.
	event, err := s.resolveLicensegenEvent(ctx, payload, notification.Data.ID)
	if err != nil {
		logger.Warn("Webhook event not verifiable, ignoring", map[string]interface{}{
			"event_id": notification.Data.ID,
			"error":    err.Error(),
		})
		s.Stats.Ignored.Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	switch event.Event {
	case "user.created":
		if err := s.provisionCustomer(ctx, event); err != nil {
			s.fatal(w, "Failed to provision Stripe customer", err, map[string]interface{}{
				"event_id": event.ID,
			})
			return
		}

		s.Stats.Processed.Inc()
		w.WriteHeader(http.StatusOK)
	default:
		logger.Info("Ignoring event type", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Event,
		})
		s.Stats.Ignored.Inc()
		w.WriteHeader(http.StatusOK)
	}
}

// resolveLicensegenEvent turns a delivered webhook body into an event,
// according to the trust policy configured for this source. VerifyByRefetch
// discards everything but the id and asks the API for the authoritative
// event; TrustDirectly reads the event out of the body as delivered.
func (s *Server) resolveLicensegenEvent(ctx context.Context, payload []byte, eventID string) (*licensegen.WebhookEvent, error) {
	switch s.licensegenTrust {
	case TrustDirectly:
		return licensegen.ParseWebhookEvent(payload)
	default:
		return s.Licenses.FetchWebhookEvent(ctx, eventID)
	}
}

// provisionCustomer creates a Stripe customer for a freshly created
// LicenseGen user and writes the customer id back into the user's metadata.
// There is no rollback: if the write-back fails, the customer already exists
// and an operator has to reconcile by hand.
func (s *Server) provisionCustomer(ctx context.Context, event *licensegen.WebhookEvent) error {
	user, err := event.User()
	if err != nil {
		return err
	}

	token := user.Metadata[provision.KeyStripeToken]
	if token == "" {
		return fmt.Errorf("user %s does not have a Stripe token attached to their user account", user.ID)
	}

	logger.Debug("User state before provisioning", map[string]interface{}{
		"user_id": user.ID,
		"state":   provision.UserState(user.Metadata).String(),
	})

	customer, err := s.Payments.CreateCustomer(ctx, payments.CustomerParams{
		Description: fmt.Sprintf("Customer for LicenseGen user %s", user.Email),
		Email:       user.Email,
		SourceToken: token,
		Metadata: map[string]string{
			provision.KeyLicensegenUserID: user.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	err = s.Licenses.UpdateUserMetadata(ctx, user.ID, map[string]string{
		provision.KeyStripeCustomerID: customer.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to store customer id on user %s: %w", user.ID, err)
	}

	logger.Info("Stripe customer provisioned", map[string]interface{}{
		"user_id":     user.ID,
		"customer_id": customer.ID,
		"state":       provision.StateCustomerCreated.String(),
	})

	return nil
}

func (s *Server) fatal(w http.ResponseWriter, message string, err error, fields map[string]interface{}) {
	s.Stats.Failed.Inc()

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["error"] = err.Error()
	logger.Error(message, fields)
	sentry.CaptureException(fmt.Errorf("%s: %w", message, err))

	w.WriteHeader(http.StatusInternalServerError)
}
