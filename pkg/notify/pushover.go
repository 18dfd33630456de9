// Package notify delivers push notifications about upcoming and overdue
// payments.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultPushoverURL = "https://api.pushover.net"

// Notifier sends human-readable status messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	Error(ctx context.Context, message string) error
}

// Pushover implements Notifier against the Pushover message API.
type Pushover struct {
	token   string
	user    string
	baseURL string
	client  *http.Client
}

// NewPushover creates a client with application token and user key.
func NewPushover(token, user string) *Pushover {
	return &Pushover{
		token:   token,
		user:    user,
		baseURL: defaultPushoverURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL redirects API calls, used by tests.
func (p *Pushover) WithBaseURL(url string) *Pushover {
	p.baseURL = url
	return p
}

// Notify sends one message.
func (p *Pushover) Notify(ctx context.Context, message string) error {
	form := url.Values{
		"token":   {p.token},
		"user":    {p.user},
		"message": {message},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/1/messages.json", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pushover: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Error sends an error-prefixed message.
func (p *Pushover) Error(ctx context.Context, message string) error {
	return p.Notify(ctx, "ERROR:"+message)
}
