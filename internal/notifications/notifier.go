package notifications

import (
	"context"
	"fmt"

	"github.com/dmagan/asadmindset-admin/internal/push"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
	"github.com/dmagan/asadmindset-admin/pkg/realtime"
)

const adminChannel = "admin"

// Event names carried over the realtime channel and mirrored as push
// notification data.
const (
	EventNewSubscription     = "new-subscription"
	EventSubscriptionUpdated = "subscription-approved"
	EventSubscriptionDenied  = "subscription-rejected"
	EventSubscriptionExpired = "subscription-expired"
	EventRenewalReminder     = "renewal-reminder"
	EventWinBack             = "win-back"
)

// Notifier fans subscription lifecycle events out to the realtime relay and
// the push sender. Everything is best effort: failures are logged and
// swallowed so a state change never fails because a message did.
type Notifier struct {
	relay realtime.Publisher
	push  push.Service
	logg  *logger.Logger
}

// NotifierParams groups dependencies for the notifier. Relay and Push may be
// nil when the corresponding channel is not configured.
type NotifierParams struct {
	Relay  realtime.Publisher
	Push   push.Service
	Logger *logger.Logger
}

// NewNotifier builds a lifecycle notifier.
func NewNotifier(params NotifierParams) (*Notifier, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Notifier{
		relay: params.Relay,
		push:  params.Push,
		logg:  params.Logger,
	}, nil
}

func userChannel(sub *models.Subscription) string {
	return fmt.Sprintf("user-%s", sub.UserID)
}

type subscriptionEvent struct {
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id"`
	PlanType       string `json:"plan_type"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
}

func eventPayload(sub *models.Subscription) subscriptionEvent {
	return subscriptionEvent{
		SubscriptionID: sub.ID.String(),
		UserID:         sub.UserID.String(),
		PlanType:       sub.PlanType,
		Status:         sub.Status.String(),
		Amount:         sub.Amount.String(),
	}
}

func (n *Notifier) emit(ctx context.Context, channel, event string, sub *models.Subscription) {
	if n.relay == nil {
		return
	}
	if err := n.relay.Trigger(ctx, channel, event, eventPayload(sub)); err != nil {
		logCtx := n.logg.WithFields(ctx, map[string]any{"channel": channel, "event": event})
		n.logg.Error(logCtx, "realtime event delivery failed", err)
	}
}

func (n *Notifier) pushToUser(ctx context.Context, sub *models.Subscription, event, title, body string) {
	if n.push == nil {
		return
	}
	n.push.SendToUser(ctx, sub.UserID, push.Message{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":            event,
			"subscription_id": sub.ID.String(),
		},
	})
}

// SubscriptionRequested tells admins a purchase is waiting for review.
func (n *Notifier) SubscriptionRequested(ctx context.Context, sub *models.Subscription) {
	n.emit(ctx, adminChannel, EventNewSubscription, sub)
}

// SubscriptionApproved tells the user their plan is live.
func (n *Notifier) SubscriptionApproved(ctx context.Context, sub *models.Subscription) {
	n.emit(ctx, userChannel(sub), EventSubscriptionUpdated, sub)
	n.pushToUser(ctx, sub, EventSubscriptionUpdated,
		"Subscription approved", "Your subscription is now active.")
}

// SubscriptionRejected tells the user their purchase was declined.
func (n *Notifier) SubscriptionRejected(ctx context.Context, sub *models.Subscription) {
	n.emit(ctx, userChannel(sub), EventSubscriptionDenied, sub)
	n.pushToUser(ctx, sub, EventSubscriptionDenied,
		"Subscription rejected", "Your subscription request was not approved.")
}

// SubscriptionExpired tells the user their plan ran out.
func (n *Notifier) SubscriptionExpired(ctx context.Context, sub *models.Subscription) {
	n.emit(ctx, userChannel(sub), EventSubscriptionExpired, sub)
	n.pushToUser(ctx, sub, EventSubscriptionExpired,
		"Subscription expired", "Your subscription has ended. Renew to keep access.")
}

// RenewalReminder nudges the user before expiry.
func (n *Notifier) RenewalReminder(ctx context.Context, sub *models.Subscription) {
	n.emit(ctx, userChannel(sub), EventRenewalReminder, sub)
	n.pushToUser(ctx, sub, EventRenewalReminder,
		"Subscription expiring soon", "Your subscription expires in a few days. Renew now to avoid interruption.")
}

// WinBack nudges a lapsed user to come back.
func (n *Notifier) WinBack(ctx context.Context, sub *models.Subscription) {
	n.emit(ctx, userChannel(sub), EventWinBack, sub)
	n.pushToUser(ctx, sub, EventWinBack,
		"We miss you", "Your subscription ended recently. Come back and pick up where you left off.")
}
