package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dkarki/twinfolio/internal/config"
)

// EventResult is what a successful calendar booking returns.
type EventResult struct {
	EventID  string `json:"eventId"`
	MeetLink string `json:"meetLink"`
	EventURL string `json:"eventUrl"`
}

// SendResult is what a successful email send returns.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// User identifies the authenticated requester.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Calendar creates real events on the provider.
type Calendar interface {
	CreateEvent(ctx context.Context, title, description string, start, end time.Time, attendees []string) (EventResult, error)
}

// Email sends notification mail through the provider.
type Email interface {
	Send(ctx context.Context, to, subject, body string) (SendResult, error)
}

// ProviderClient talks to the calendar/email provider's REST bridge. A nil
// client means the provider is unconfigured and booking requires setup.
type ProviderClient struct {
	cfg  config.CalendarConfig
	http *http.Client
}

func NewProviderClient(cfg config.CalendarConfig) *ProviderClient {
	if !cfg.Enabled() {
		return nil
	}
	return &ProviderClient{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (p *ProviderClient) CreateEvent(ctx context.Context, title, description string, start, end time.Time, attendees []string) (EventResult, error) {
	if p == nil {
		return EventResult{}, fmt.Errorf("calendar provider not configured")
	}

	payload := map[string]any{
		"title":       title,
		"description": description,
		"start":       start.Format(time.RFC3339),
		"end":         end.Format(time.RFC3339),
		"attendees":   attendees,
	}

	var result EventResult
	if err := p.post(ctx, "/events", payload, &result); err != nil {
		return EventResult{}, err
	}
	return result, nil
}

func (p *ProviderClient) Send(ctx context.Context, to, subject, body string) (SendResult, error) {
	if p == nil {
		return SendResult{}, fmt.Errorf("email provider not configured")
	}

	payload := map[string]any{"to": to, "subject": subject, "body": body}

	var result SendResult
	if err := p.post(ctx, "/emails", payload, &result); err != nil {
		return SendResult{}, err
	}
	return result, nil
}

func (p *ProviderClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// HeaderIdentity trusts reverse-proxy identity headers; the outer gateway
// performs the actual OAuth exchange.
type HeaderIdentity struct{}

func (HeaderIdentity) FromRequest(r *http.Request) *User {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		return nil
	}
	name := r.Header.Get("X-User-Name")
	if name == "" {
		name = email
	}
	return &User{Email: email, Name: name}
}
