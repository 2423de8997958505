package whatchimp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lavpop-sync/internal/config"
)

// ErrAlreadyExists is returned by CreateSubscriber when the provider reports
// the phone is already registered. Callers treat it as a lost race with a
// concurrent create, not a failure.
var ErrAlreadyExists = errors.New("subscriber already exists")

// APIError is a provider-level failure: the HTTP call went through but the
// response did not carry the success status.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatchimp %s failed: %s", e.Op, e.Message)
}

// callResult is the decoded provider response. The provider signals success
// exclusively through status == "1"; HTTP 200 with any other status is a
// failure. An earlier version of this pipeline trusted the HTTP status and
// reported false successes.
type callResult struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r *callResult) ok() bool {
	return r.Status == "1"
}

// Subscriber is the slice of the provider payload the pipeline needs.
type Subscriber struct {
	ID    string `json:"id"`
	Phone string `json:"phone_number"`
	Name  string `json:"name"`
}

type Client struct {
	baseURL    string
	apiToken   string
	phoneID    string
	httpClient *http.Client
}

// NewClient builds the provider client. Missing credentials are a
// configuration error and refuse to construct: a client with an empty token
// would fail every per-customer call one network round-trip at a time, long
// after startup.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.WhatChimpAPIKey == "" {
		return nil, fmt.Errorf("WHATCHIMP_API_KEY (or WHATCHIMP_API_TOKEN) is not configured")
	}
	if cfg.WhatChimpPhoneID == "" {
		return nil, fmt.Errorf("WHATCHIMP_PHONE_ID (or WHATCHIMP_PHONE_NUMBER_ID) is not configured")
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.WhatChimpBaseURL, "/"),
		apiToken: cfg.WhatChimpAPIKey,
		phoneID:  cfg.WhatChimpPhoneID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// call issues one form-encoded POST to the provider and decodes the response
// envelope. Transport and non-2xx errors come back as Go errors; a decoded
// body with status != "1" is returned to the caller for interpretation.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values) (*callResult, error) {
	form := url.Values{}
	form.Set("apiToken", c.apiToken)
	form.Set("phone_number_id", c.phoneID)
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatchimp request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatchimp response read failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("whatchimp returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result callResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("whatchimp response decode failed: %w", err)
	}

	return &result, nil
}

// GetSubscriber looks a subscriber up by phone. Returns nil when the provider
// does not know the phone (that is not an error).
func (c *Client) GetSubscriber(ctx context.Context, phone string) (*Subscriber, error) {
	params := url.Values{}
	params.Set("phone_number", phone)

	result, err := c.call(ctx, "/subscriber/get", params)
	if err != nil {
		return nil, err
	}

	if !result.ok() || len(result.Data) == 0 || string(result.Data) == "null" || string(result.Data) == "[]" {
		return nil, nil
	}

	var sub Subscriber
	if err := json.Unmarshal(result.Data, &sub); err != nil {
		return nil, fmt.Errorf("whatchimp subscriber decode failed: %w", err)
	}
	if sub.ID == "" {
		return nil, nil
	}
	return &sub, nil
}

// CreateSubscriber registers a phone with the CRM. An "already exists"
// rejection maps to ErrAlreadyExists.
func (c *Client) CreateSubscriber(ctx context.Context, phone, name string) error {
	params := url.Values{}
	params.Set("phone_number", phone)
	params.Set("first_name", name)

	result, err := c.call(ctx, "/subscriber/create", params)
	if err != nil {
		return err
	}
	if !result.ok() {
		if strings.Contains(strings.ToLower(result.Message), "already exist") {
			return ErrAlreadyExists
		}
		return &APIError{Op: "create_subscriber", Message: result.Message}
	}
	return nil
}

// AssignLabels attaches the given label IDs to a subscriber.
func (c *Client) AssignLabels(ctx context.Context, phone string, labelIDs []int) error {
	result, err := c.call(ctx, "/subscriber/assign-label", labelParams(phone, labelIDs))
	if err != nil {
		return err
	}
	if !result.ok() {
		return &APIError{Op: "assign_labels", Message: result.Message}
	}
	return nil
}

// RemoveLabels detaches the given label IDs from a subscriber.
func (c *Client) RemoveLabels(ctx context.Context, phone string, labelIDs []int) error {
	result, err := c.call(ctx, "/subscriber/remove-label", labelParams(phone, labelIDs))
	if err != nil {
		return err
	}
	if !result.ok() {
		return &APIError{Op: "remove_labels", Message: result.Message}
	}
	return nil
}

// SetCustomField writes one key/value custom field on a subscriber. The sync
// pipeline uses it for the wallet balance.
func (c *Client) SetCustomField(ctx context.Context, phone, key, value string) error {
	params := url.Values{}
	params.Set("phone_number", phone)
	params.Set("custom_field", key)
	params.Set("value", value)

	result, err := c.call(ctx, "/subscriber/assign-custom-field", params)
	if err != nil {
		return err
	}
	if !result.ok() {
		return &APIError{Op: "set_custom_field", Message: result.Message}
	}
	return nil
}

// ListSubscribers returns one page of subscribers from the CRM.
func (c *Client) ListSubscribers(ctx context.Context, page, limit int) ([]Subscriber, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	result, err := c.call(ctx, "/subscriber/list", params)
	if err != nil {
		return nil, err
	}
	if !result.ok() {
		return nil, &APIError{Op: "list_subscribers", Message: result.Message}
	}

	var subs []Subscriber
	if len(result.Data) > 0 && string(result.Data) != "null" {
		if err := json.Unmarshal(result.Data, &subs); err != nil {
			return nil, fmt.Errorf("whatchimp subscriber list decode failed: %w", err)
		}
	}
	return subs, nil
}

func labelParams(phone string, labelIDs []int) url.Values {
	ids := make([]string, len(labelIDs))
	for i, id := range labelIDs {
		ids[i] = strconv.Itoa(id)
	}
	params := url.Values{}
	params.Set("phone_number", phone)
	params.Set("label_ids", strings.Join(ids, ","))
	return params
}
