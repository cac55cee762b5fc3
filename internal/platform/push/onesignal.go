// Package push delivers push notifications through OneSignal's REST API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is a notification to deliver. Title and Body are Spanish, the
// primary interface language; TitleEN and BodyEN fall back to Title/Body
// when empty. Leave UserID empty to broadcast to all subscribed devices.
type Message struct {
	Title   string
	Body    string
	TitleEN string
	BodyEN  string
	UserID  string
}

// Result reports the delivery outcome OneSignal returned.
type Result struct {
	NotificationID string
	Recipients     int
}

// Notifier sends a push notification. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

const defaultBaseURL = "https://onesignal.com/api/v1"

// OneSignalClient sends notifications through OneSignal.
type OneSignalClient struct {
	appID   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOneSignalClient(appID, apiKey string) *OneSignalClient {
	return &OneSignalClient{
		appID:   appID,
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *OneSignalClient) WithBaseURL(url string) *OneSignalClient {
	c.baseURL = url
	return c
}

type oneSignalRequest struct {
	AppID            string            `json:"app_id"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	IncludedSegments []string          `json:"included_segments,omitempty"`
	Filters          []oneSignalFilter `json:"filters,omitempty"`
}

type oneSignalFilter struct {
	Field    string `json:"field"`
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation"`
	Value    string `json:"value"`
}

type oneSignalResponse struct {
	ID         string   `json:"id"`
	Recipients int      `json:"recipients"`
	Errors     []string `json:"errors"`
}

func (c *OneSignalClient) Send(ctx context.Context, msg Message) (*Result, error) {
	titleEN := msg.TitleEN
	if titleEN == "" {
		titleEN = msg.Title
	}
	bodyEN := msg.BodyEN
	if bodyEN == "" {
		bodyEN = msg.Body
	}

	reqBody := oneSignalRequest{
		AppID:    c.appID,
		Headings: map[string]string{"en": titleEN, "es": msg.Title},
		Contents: map[string]string{"en": bodyEN, "es": msg.Body},
	}
	if msg.UserID != "" {
		reqBody.Filters = []oneSignalFilter{
			{Field: "tag", Key: "user_id", Relation: "=", Value: msg.UserID},
		}
	} else {
		reqBody.IncludedSegments = []string{"All"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading notification response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("onesignal returned status %d: %s", resp.StatusCode, body)
	}

	var parsed oneSignalResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding notification response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("onesignal rejected notification: %v", parsed.Errors)
	}

	return &Result{NotificationID: parsed.ID, Recipients: parsed.Recipients}, nil
}

// NopNotifier discards notifications. Used when OneSignal credentials are
// not configured.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, Message) (*Result, error) {
	return &Result{}, nil
}
