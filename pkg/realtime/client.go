// Package realtime publishes fire-and-forget events through Pusher Channels.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	pusher "github.com/pusher/pusher-http-go/v5"
)

// Publisher emits fire-and-forget realtime events keyed by channel + event
// name. Implementations must never block the caller beyond their configured
// timeout; delivery failures are the caller's to log and swallow.
type Publisher interface {
	Trigger(ctx context.Context, channel, event string, data any) error
}

// Options configure the Pusher Channels client.
type Options struct {
	AppID   string
	Key     string
	Secret  string
	Cluster string
	Timeout time.Duration
	// BaseURL overrides the cluster-derived endpoint, used by tests.
	BaseURL string
}

// Client wraps the official Pusher HTTP client behind the Publisher
// interface.
type Client struct {
	pusher *pusher.Client
}

const defaultTimeout = 5 * time.Second

// NewClient builds a Pusher Channels client.
func NewClient(opts Options) (*Client, error) {
	if opts.AppID == "" || opts.Key == "" || opts.Secret == "" {
		return nil, errors.New("pusher app id, key and secret are required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cluster := opts.Cluster
	if cluster == "" {
		cluster = "eu"
	}

	inner := &pusher.Client{
		AppID:      opts.AppID,
		Key:        opts.Key,
		Secret:     opts.Secret,
		Cluster:    cluster,
		Secure:     true,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if opts.BaseURL != "" {
		parsed, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		inner.Host = parsed.Host
		inner.Secure = parsed.Scheme == "https"
	}
	return &Client{pusher: inner}, nil
}

// Trigger posts a single event to a single channel. The SDK signs the
// request and bounds it by the configured HTTP timeout; the context is
// checked up front since the SDK call itself is not context-aware.
func (c *Client) Trigger(ctx context.Context, channel, event string, data any) error {
	if channel == "" || event == "" {
		return errors.New("channel and event are required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.pusher.Trigger(channel, event, data); err != nil {
		return fmt.Errorf("trigger %q on %q: %w", event, channel, err)
	}
	return nil
}
