package queue_publisher

import (
	"context"

	"github.com/rs/zerolog"

	q "github.com/jacrowe/clientbook/internal/queue"
)

// Notifier adapts the publish functions to the handler.Notifier surface.
// Broker errors are already logged inside publish and deliberately
// swallowed here: notification delivery never fails a request.
type Notifier struct {
	Log zerolog.Logger
}

func NewNotifier(log zerolog.Logger) *Notifier { return &Notifier{Log: log} }

func (n *Notifier) UserRegistered(ctx context.Context, ev q.UserRegisteredEvent) {
	_ = PublishUserRegistered(ctx, n.Log, ev)
}

func (n *Notifier) EmailChangeRequested(ctx context.Context, ev q.EmailChangeRequestedEvent) {
	_ = PublishEmailChangeRequested(ctx, n.Log, ev)
}

func (n *Notifier) ConfirmRequested(ctx context.Context, ev q.ConfirmRequestedEvent) {
	_ = PublishConfirmRequested(ctx, n.Log, ev)
}
