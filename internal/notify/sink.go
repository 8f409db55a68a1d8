// Package notify delivers post-transfer notifications. Delivery is best
// effort: the transfer executor logs and discards every error returned here.
package notify

import (
	"context"
	"errors"

	"github.com/jbarros93/dws-challenge/internal/domain"
)

// Sink receives one notification per account touched by a committed transfer.
type Sink interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n domain.Notification) error

func (f SinkFunc) Notify(ctx context.Context, n domain.Notification) error {
	return f(ctx, n)
}

// Fanout delivers every notification to all sinks, in order. A failing sink
// does not stop the remaining ones.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every notification.
var Discard Sink = SinkFunc(func(context.Context, domain.Notification) error { return nil })
