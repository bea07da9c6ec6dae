package notify

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ilker/ledger-server/internal/importjob"
	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/metrics"
)

// BreakerNotifier stops calling a failing notifier for a while instead of
// letting every finish event wait on it.
type BreakerNotifier struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerNotifier opens the circuit after failures consecutive errors and
// probes again after openFor.
func NewBreakerNotifier(next Notifier, failures uint32, openFor time.Duration) *BreakerNotifier {
	if failures == 0 {
		failures = 3
	}
	name := next.Name()
	metrics.NotifierCircuitState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("notifier", name).Str("from", from.String()).Str("to", to.String()).Msg("notifier circuit state changed")
			metrics.NotifierCircuitState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &BreakerNotifier{next: next, cb: cb}
}

func (b *BreakerNotifier) Name() string { return b.next.Name() }

func (b *BreakerNotifier) Notify(ctx context.Context, ev importjob.FinishEvent) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Notify(ctx, ev)
	})
	return err
}

// State reports the breaker state, for health output and tests.
func (b *BreakerNotifier) State() gobreaker.State {
	return b.cb.State()
}

// Rejected reports whether err came from an open breaker rather than the
// wrapped notifier.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
