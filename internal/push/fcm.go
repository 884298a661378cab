package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ErrTokenInvalid marks a delivery failure caused by a dead device token.
var ErrTokenInvalid = errors.New("device token is no longer valid")

// Message is one push notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
	Icon  string
}

// messageSender is the slice of the firebase messaging client the sender
// uses.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMClient delivers messages through Firebase Cloud Messaging.
type FCMClient struct {
	sender  messageSender
	timeout time.Duration
}

// FCMOptions configure the client.
type FCMOptions struct {
	ProjectID       string
	CredentialsJSON string
	Timeout         time.Duration
	// Sender overrides the SDK-built messaging client, used by tests.
	Sender messageSender
}

// NewFCMClient builds an FCM sender from service-account credentials.
func NewFCMClient(ctx context.Context, opts FCMOptions) (*FCMClient, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	sender := opts.Sender
	if sender == nil {
		if opts.ProjectID == "" {
			return nil, errors.New("fcm project id is required")
		}
		if opts.CredentialsJSON == "" {
			return nil, errors.New("fcm credentials are required")
		}
		app, err := firebase.NewApp(ctx,
			&firebase.Config{ProjectID: opts.ProjectID},
			option.WithCredentialsJSON([]byte(opts.CredentialsJSON)),
		)
		if err != nil {
			return nil, fmt.Errorf("init firebase app: %w", err)
		}
		client, err := app.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("init fcm messaging client: %w", err)
		}
		sender = client
	}
	return &FCMClient{sender: sender, timeout: timeout}, nil
}

// Send delivers one message to one device token. A dead token yields
// ErrTokenInvalid so the caller can deactivate it.
func (c *FCMClient) Send(ctx context.Context, token string, msg Message) error {
	if token == "" {
		return errors.New("device token is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.sender.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.Icon,
		},
		Data: msg.Data,
	})
	if err == nil {
		return nil
	}
	if isDeadToken(err) {
		return fmt.Errorf("fcm rejected token (%v): %w", err, ErrTokenInvalid)
	}
	return fmt.Errorf("send fcm message: %w", err)
}

// isDeadToken reports whether the provider error means the token will never
// work again. UNREGISTERED covers uninstalled apps, INVALID_ARGUMENT and
// NOT_FOUND cover malformed or expired registrations.
func isDeadToken(err error) bool {
	return messaging.IsUnregistered(err) ||
		errorutils.IsInvalidArgument(err) ||
		errorutils.IsNotFound(err)
}
