package transfer

import (
	"log/slog"
	"time"
)

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for notification failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifyAfterRelease dispatches notifications after the account locks are
// released instead of inside the critical section. A notification may then be
// observed after a later transfer on the same account has already committed.
func WithNotifyAfterRelease() Option {
	return func(e *Executor) { e.notifyAfterRelease = true }
}

// WithClock overrides the notification timestamp source. A nil clock is ignored.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how transfer and notification ids are minted. A nil
// generator is ignored.
func WithIDGenerator(newID func() string) Option {
	return func(e *Executor) {
		if newID != nil {
			e.newID = newID
		}
	}
}
