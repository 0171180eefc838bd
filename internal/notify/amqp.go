package notify

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/core"
)

type eventPublisher interface {
	PublishNotification(ctx context.Context, evt *amqp.NotificationEvent) error
}

// Broker hands notifications to the message broker; budget-worker delivers
// them from there.
type Broker struct {
	pub eventPublisher
}

func NewBroker(pub eventPublisher) *Broker { return &Broker{pub: pub} }

func (b *Broker) Notify(ctx context.Context, n core.Notification) error {
	return b.pub.PublishNotification(ctx, amqp.NewNotificationEvent(n))
}
