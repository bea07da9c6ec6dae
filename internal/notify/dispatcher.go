package notify

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ilker/ledger-server/internal/importjob"
	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/metrics"
)

// Dispatcher consumes finish events from the bus and hands each to every
// notifier. Delivery failures are logged and counted, never retried. It is
// a suture service.
type Dispatcher struct {
	subscriber message.Subscriber
	notifiers  []Notifier
}

func NewDispatcher(subscriber message.Subscriber, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{subscriber: subscriber, notifiers: notifiers}
}

func (d *Dispatcher) Serve(ctx context.Context) error {
	messages, err := d.subscriber.Subscribe(ctx, importjob.TopicImportFinished)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			d.handle(ctx, msg)
			msg.Ack()
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg *message.Message) {
	ev, err := importjob.DecodeFinishEvent(msg)
	if err != nil {
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable finish event")
		return
	}

	for _, n := range d.notifiers {
		err := n.Notify(ctx, ev)
		switch {
		case err == nil:
			metrics.NotificationsTotal.WithLabelValues(n.Name(), "sent").Inc()
		case Rejected(err):
			metrics.NotificationsTotal.WithLabelValues(n.Name(), "rejected").Inc()
			logging.Warn().Str("notifier", n.Name()).Str("request_id", ev.RequestID).Msg("notification skipped, circuit open")
		default:
			metrics.NotificationsTotal.WithLabelValues(n.Name(), "failed").Inc()
			logging.Warn().Err(err).Str("notifier", n.Name()).Str("request_id", ev.RequestID).Msg("notification failed")
		}
	}
}

func (d *Dispatcher) String() string {
	return "notification-dispatcher"
}
