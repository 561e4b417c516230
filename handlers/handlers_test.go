package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"focusapps.app/bridge/internal/config"
	"focusapps.app/bridge/internal/email"
	"focusapps.app/bridge/internal/licensegen"
	"focusapps.app/bridge/internal/payments"
)

// fakeProvider records every call so tests can assert on exactly which
// outbound payment calls a webhook triggered.
type fakeProvider struct {
	mu sync.Mutex

	customers     []payments.CustomerParams
	subscriptions []payments.SubscriptionParams

	customerErr     error
	subscriptionErr error
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, params payments.CustomerParams) (*payments.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.customerErr != nil {
		return nil, f.customerErr
	}

	f.customers = append(f.customers, params)
	return &payments.Customer{
		ID:       "cus_test123",
		Email:    params.Email,
		Metadata: params.Metadata,
	}, nil
}

func (f *fakeProvider) CreateSubscription(ctx context.Context, params payments.SubscriptionParams) (*payments.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscriptionErr != nil {
		return nil, f.subscriptionErr
	}

	f.subscriptions = append(f.subscriptions, params)
	return &payments.Subscription{ID: "sub_test123"}, nil
}

// fakeLicensegenAPI stands in for the LicenseGen REST API.
type fakeLicensegenAPI struct {
	mu sync.Mutex

	// eventDoc is returned for webhook-event fetches; empty means the
	// event does not exist.
	eventDoc   string
	patchErr   bool
	licenseErr bool

	fetches  []string
	patches  []map[string]interface{}
	licenses []map[string]interface{}
}

func (f *fakeLicensegenAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/webhook-events/"):
			parts := strings.Split(r.URL.Path, "/")
			f.fetches = append(f.fetches, parts[len(parts)-1])

			if f.eventDoc == "" {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"errors":[{"title":"Not found","detail":"The requested webhook-event was not found"}]}`)
				return
			}
			fmt.Fprint(w, f.eventDoc)

		case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/users/"):
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.patches = append(f.patches, body)

			if f.patchErr {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"errors":[{"detail":"metadata update rejected"},{"detail":"user is suspended"}]}`)
				return
			}
			fmt.Fprint(w, `{"data":{"id":"u1","type":"users"}}`)

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/licenses"):
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.licenses = append(f.licenses, body)

			if f.licenseErr {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"errors":[{"detail":"license limit reached"}]}`)
				return
			}
			fmt.Fprint(w, `{"data":{"id":"lic_test123","type":"licenses"}}`)

		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"errors":[{"detail":"unknown endpoint"}]}`)
		}
	}
}

func userCreatedEventDoc(userID, userEmail, stripeToken string) string {
	metadata := map[string]string{}
	if stripeToken != "" {
		metadata["stripeToken"] = stripeToken
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"id":   userID,
			"type": "users",
			"attributes": map[string]interface{}{
				"email":    userEmail,
				"metadata": metadata,
			},
		},
	})

	doc, _ := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"id":   "evt_1",
			"type": "webhook-events",
			"attributes": map[string]interface{}{
				"event":   "user.created",
				"payload": string(payload),
			},
		},
	})
	return string(doc)
}

func otherEventDoc(eventType string) string {
	doc, _ := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"id":   "evt_1",
			"type": "webhook-events",
			"attributes": map[string]interface{}{
				"event":   eventType,
				"payload": "{}",
			},
		},
	})
	return string(doc)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                   "8080",
		StripePublishableKey:   "pk_test_123",
		StripeSecretKey:        "sk_test_123",
		StripePriceID:          "price_test123",
		LicensegenProductToken: "prod-token",
		LicensegenAccountID:    "acct_1",
		LicensegenPolicyID:     "policy_test123",
		EmailFrom:              "licenses@focusapps.app",
	}
}

type testEnv struct {
	server   *Server
	provider *fakeProvider
	api      *fakeLicensegenAPI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := &fakeLicensegenAPI{}
	ts := httptest.NewServer(api.handler())
	t.Cleanup(ts.Close)

	provider := &fakeProvider{}
	cfg := testConfig()
	client := licensegen.NewClient(ts.URL, cfg.LicensegenAccountID, cfg.LicensegenProductToken)
	mailer := email.New("", "", "", "", cfg.EmailFrom)

	return &testEnv{
		server:   NewServer(cfg, client, provider, mailer),
		provider: provider,
		api:      api,
	}
}

func (e *testEnv) post(t *testing.T, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.server.Router.ServeHTTP(w, req)
	return w
}

func stripeEventPayload(eventType string, object map[string]interface{}) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_stripe123",
		"type": eventType,
		"data": map[string]interface{}{
			"object": object,
		},
	})
	return payload
}

func stripeCustomerObject(id, emailAddr string, metadata map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":       id,
		"object":   "customer",
		"email":    emailAddr,
		"metadata": metadata,
	}
}
