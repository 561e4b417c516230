package payments

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct{}

// NewStripeProvider sets the global Stripe key. Single-tenant service, one
// key for the process.
func NewStripeProvider(secretKey string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	cp := buildCustomerParams(params)
	cp.Context = ctx

	c, err := customer.New(cp)
	if err != nil {
		return nil, err
	}

	return &Customer{
		ID:       c.ID,
		Email:    c.Email,
		Metadata: c.Metadata,
	}, nil
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error) {
	sp := buildSubscriptionParams(params)
	sp.Context = ctx

	s, err := subscription.New(sp)
	if err != nil {
		return nil, err
	}

	return &Subscription{ID: s.ID}, nil
}

func buildCustomerParams(params CustomerParams) *stripe.CustomerParams {
	cp := &stripe.CustomerParams{
		Description: stripe.String(params.Description),
		Email:       stripe.String(params.Email),
	}
	if params.SourceToken != "" {
		cp.Source = stripe.String(params.SourceToken)
	}
	for k, v := range params.Metadata {
		cp.AddMetadata(k, v)
	}
	return cp
}

func buildSubscriptionParams(params SubscriptionParams) *stripe.SubscriptionParams {
	sp := &stripe.SubscriptionParams{
		Customer: stripe.String(params.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(params.PriceID)},
		},
	}
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}
	return sp
}
