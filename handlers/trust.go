package handlers

// TrustPolicy states how an inbound webhook payload is validated before the
// service acts on it. The two sources are deliberately asymmetric: LicenseGen
// notifications are re-read from the API, Stripe envelopes are not. Stripe
// supports signature verification; adding a VerifyBySignature variant here is
// the seam for it.
type TrustPolicy int

const (
	// TrustDirectly acts on the inbound payload as delivered.
	TrustDirectly TrustPolicy = iota
	// VerifyByRefetch discards the inbound payload beyond its event id and
	// fetches the authoritative event over the authenticated API.
	VerifyByRefetch
)

func (p TrustPolicy) String() string {
	switch p {
	case VerifyByRefetch:
		return "verify-by-refetch"
	default:
		return "trust-directly"
	}
}
