// Package payments abstracts the payment processor behind a small Provider
// interface so handlers can be exercised without network calls.
package payments

import "context"

type Customer struct {
	ID       string
	Email    string
	Metadata map[string]string
}

type CustomerParams struct {
	Description string
	Email       string
	// SourceToken is the payment token collected client-side with Stripe.js
	// and parked in the user's metadata until provisioning.
	SourceToken string
	Metadata    map[string]string
}

type Subscription struct {
	ID string
}

type SubscriptionParams struct {
	CustomerID string
	PriceID    string
	// IdempotencyKey makes redelivered webhooks safe: the processor returns
	// the original subscription instead of creating (and charging) another.
	IdempotencyKey string
}

type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)
	CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error)
}
