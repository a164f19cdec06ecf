// Package webhook delivers notifications as HTTP POST requests.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menu-planning/go-menuplan"
)

// HeaderPrefix is prepended to notification headers on the request.
const HeaderPrefix = "X-Menuplan-"

// Publisher publishes notifications as HTTP POST requests.
// Destination format: "webhook:https://example.com/events"
type Publisher struct {
	client         *http.Client
	defaultURL     string
	defaultHeaders map[string]string
}

var _ menuplan.Publisher = (*Publisher)(nil)

// Option configures a webhook Publisher.
type Option func(*Publisher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Publisher) {
		p.client = client
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.client.Timeout = d
	}
}

// WithDefaultURL sets the URL used when a destination is just "webhook:".
func WithDefaultURL(url string) Option {
	return func(p *Publisher) {
		p.defaultURL = url
	}
}

// WithDefaultHeaders sets default headers added to all requests.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(p *Publisher) {
		for k, v := range headers {
			p.defaultHeaders[k] = v
		}
	}
}

// New creates a new webhook Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		defaultHeaders: map[string]string{
			"Content-Type": "application/json",
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Destination returns the destination prefix this publisher handles.
func (p *Publisher) Destination() string {
	return "webhook"
}

// Publish POSTs each notification to the URL in its destination.
// Every notification is attempted; errors are joined.
func (p *Publisher) Publish(ctx context.Context, notifications []*menuplan.Notification) error {
	var errs []error
	for _, n := range notifications {
		if err := p.deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) deliver(ctx context.Context, n *menuplan.Notification) error {
	url := extractURL(n.Destination)
	if url == "" {
		url = p.defaultURL
	}
	if url == "" {
		return fmt.Errorf("webhook: invalid destination %q: missing URL", n.Destination)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(n.Payload))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	for k, v := range p.defaultHeaders {
		req.Header.Set(k, v)
	}
	if ct, ok := n.Headers["content-type"]; ok {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set(HeaderPrefix+"Notification-Id", n.ID)
	for k, v := range n.Headers {
		req.Header.Set(HeaderPrefix+k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed for %s: %w", url, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("webhook: server error %d from %s", resp.StatusCode, url)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: client error %d from %s", resp.StatusCode, url)
	}
	return nil
}

// extractURL removes the "webhook:" prefix from a destination.
func extractURL(destination string) string {
	const prefix = "webhook:"
	if strings.HasPrefix(destination, prefix) {
		return destination[len(prefix):]
	}
	return ""
}
