// Package licensegen is a minimal client for the LicenseGen REST API,
// covering the three calls the bridge makes: re-fetching a webhook event,
// patching a user's metadata and creating a license.
package licensegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
)

const mediaType = "application/vnd.api+json"

type Client struct {
	baseURL    string
	accountID  string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, accountID, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		accountID:  accountID,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// document is the JSON:API envelope every LicenseGen response uses. Either
// data or errors is populated, never both.
type document struct {
	Data   json.RawMessage `json:"data"`
	Errors []APIError      `json:"errors"`
}

type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// apiError folds a JSON:API errors array into a single error carrying every
// detail string.
func apiError(errs []APIError) error {
	var result *multierror.Error
	for _, e := range errs {
		result = multierror.Append(result, errors.New(e.Detail))
	}
	return result.ErrorOrNil()
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s%s", c.baseURL, c.accountID, path)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", mediaType)
	if body != nil {
		req.Header.Set("Content-Type", mediaType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(doc.Errors) > 0 {
		return nil, apiError(doc.Errors)
	}

	return doc.Data, nil
}

// WebhookEvent is the authoritative copy of a webhook notification, fetched
// back from the API so that forged notifications carry no weight.
type WebhookEvent struct {
	ID      string
	Event   string
	payload string
}

type eventResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Event   string `json:"event"`
		Payload string `json:"payload"`
	} `json:"attributes"`
}

func (c *Client) FetchWebhookEvent(ctx context.Context, id string) (*WebhookEvent, error) {
	raw, err := c.do(ctx, http.MethodGet, "/webhook-events/"+id, nil)
	if err != nil {
		return nil, err
	}

	return decodeWebhookEvent(raw)
}

// ParseWebhookEvent reads an event straight out of a delivered webhook body,
// for callers that trust the sender and skip the re-fetch.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse webhook body: %w", err)
	}
	if len(doc.Errors) > 0 {
		return nil, apiError(doc.Errors)
	}

	return decodeWebhookEvent(doc.Data)
}

func decodeWebhookEvent(raw json.RawMessage) (*WebhookEvent, error) {
	var res eventResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}

	return &WebhookEvent{
		ID:      res.ID,
		Event:   res.Attributes.Event,
		payload: res.Attributes.Payload,
	}, nil
}

type User struct {
	ID       string
	Email    string
	Metadata map[string]string
}

type userResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Email    string            `json:"email"`
		Metadata map[string]string `json:"metadata"`
	} `json:"attributes"`
}

// User parses the user document embedded in the event. The API delivers the
// event payload as a JSON string, not as a nested object.
func (e *WebhookEvent) User() (*User, error) {
	var doc struct {
		Data userResource `json:"data"`
	}
	if err := json.Unmarshal([]byte(e.payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}

	return &User{
		ID:       doc.Data.ID,
		Email:    doc.Data.Attributes.Email,
		Metadata: doc.Data.Attributes.Metadata,
	}, nil
}

func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]string) error {
	body := map[string]interface{}{
		"data": map[string]interface{}{
			"type": "users",
			"attributes": map[string]interface{}{
				"metadata": metadata,
			},
		},
	}

	_, err := c.do(ctx, http.MethodPatch, "/users/"+userID, body)
	return err
}

type License struct {
	ID string
}

// CreateLicense issues a license under the given policy for the given user,
// with the metadata recording which subscription paid for it.
func (c *Client) CreateLicense(ctx context.Context, policyID, userID string, metadata map[string]string) (*License, error) {
	body := map[string]interface{}{
		"data": map[string]interface{}{
			"type": "licenses",
			"attributes": map[string]interface{}{
				"metadata": metadata,
			},
			"relationships": map[string]interface{}{
				"policy": map[string]interface{}{
					"data": map[string]interface{}{"type": "policies", "id": policyID},
				},
				"user": map[string]interface{}{
					"data": map[string]interface{}{"type": "users", "id": userID},
				},
			},
		},
	}

	raw, err := c.do(ctx, http.MethodPost, "/licenses", body)
	if err != nil {
		return nil, err
	}

	var res struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to parse license: %w", err)
	}

	return &License{ID: res.ID}, nil
}
