// Package provision names the cross-system lifecycle a user moves through.
// The states are never stored anywhere; they are read back out of the
// metadata cross-references the two external services hold.
package provision

// Metadata keys linking records across the two services.
const (
	KeyStripeToken          = "stripeToken"
	KeyStripeCustomerID     = "stripeCustomerId"
	KeyLicensegenUserID     = "licensegenUserId"
	KeyStripeSubscriptionID = "stripeSubscriptionId"
)

type State int

const (
	StateUnknown State = iota
	StateTokenCollected
	StateCustomerCreated
	StateSubscriptionCreated
	StateLicenseIssued
)

func (s State) String() string {
	switch s {
	case StateTokenCollected:
		return "token-collected"
	case StateCustomerCreated:
		return "customer-created"
	case StateSubscriptionCreated:
		return "subscription-created"
	case StateLicenseIssued:
		return "license-issued"
	default:
		return "unknown"
	}
}

// UserState reports how far a LicenseGen user has progressed, judged by the
// cross-references left in its metadata.
func UserState(metadata map[string]string) State {
	switch {
	case metadata[KeyStripeCustomerID] != "":
		return StateCustomerCreated
	case metadata[KeyStripeToken] != "":
		return StateTokenCollected
	default:
		return StateUnknown
	}
}

// CustomerState reports the progress visible from a Stripe customer record.
func CustomerState(metadata map[string]string) State {
	if metadata[KeyLicensegenUserID] != "" {
		return StateCustomerCreated
	}
	return StateUnknown
}
