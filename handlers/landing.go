package handlers

import (
	"html/template"
	"net/http"

	"focusapps.app/bridge/internal/logger"
)

// The page only exists to hand the publishable key and account id to
// Stripe.js; checkout itself happens client-side.
var landingTmpl = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>FocusApps - Purchase a License</title>
  <script src="https://js.stripe.com/v3/"></script>
</head>
<body>
  <h1>Purchase a license</h1>
  <form id="payment-form">
    <div id="card-element"></div>
    <button type="submit">Subscribe</button>
  </form>
  <script>
    window.STRIPE_PUBLISHABLE_KEY = {{.PublishableKey}};
    window.LICENSEGEN_ACCOUNT_ID = {{.AccountID}};
    const stripe = Stripe(window.STRIPE_PUBLISHABLE_KEY);
  </script>
</body>
</html>
`))

func (s *Server) Landing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := landingTmpl.Execute(w, map[string]string{
		"PublishableKey": s.Config.StripePublishableKey,
		"AccountID":      s.Config.LicensegenAccountID,
	})
	if err != nil {
		logger.Error("Failed to render landing page", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
