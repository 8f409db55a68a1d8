// Package transfer moves money between two accounts under concurrent load.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jbarros93/dws-challenge/internal/domain"
	"github.com/jbarros93/dws-challenge/internal/notify"
	"github.com/jbarros93/dws-challenge/internal/store"
	"github.com/jbarros93/dws-challenge/internal/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Executor runs transfers against an AccountStore. It is safe for concurrent
// use; the only synchronization is the pair of account locks each transfer takes.
type Executor struct {
	store  store.AccountStore
	sink   notify.Sink
	logger *slog.Logger

	notifyAfterRelease bool
	now                func() time.Time
	newID              func() string
}

// NewExecutor creates an executor. A nil sink discards notifications.
func NewExecutor(s store.AccountStore, sink notify.Sink, opts ...Option) *Executor {
	if sink == nil {
		sink = notify.Discard
	}
	e := &Executor{
		store:  s,
		sink:   sink,
		logger: slog.Default(),
		now:    time.Now,
		newID:  newID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Transfer moves req.Amount from req.FromID to req.ToID. Expected failures unwrap to one
// of domain.ErrAccountNotFound, ErrSameAccount, ErrNonPositiveAmount or
// ErrInsufficientBalance; in every failure case no balance has changed.
func (e *Executor) Transfer(ctx context.Context, req domain.TransferRequest) (domain.Receipt, error) {
	start := time.Now()

	ctx = telemetry.ContextWithAttrs(ctx,
		slog.String("from_account", req.FromID),
		slog.String("to_account", req.ToID),
	)
	ctx, span := telemetry.StartSpan(ctx, "transfer.Execute",
		trace.WithAttributes(
			attribute.String("from_account", req.FromID),
			attribute.String("to_account", req.ToID),
			attribute.String("amount", req.Amount.String()),
		),
	)
	defer span.End()

	receipt, err := e.execute(ctx, req)

	outcome := domain.KindOf(err).String()
	telemetry.TransfersTotal.WithLabelValues(outcome).Inc()
	telemetry.TransferAmount.WithLabelValues(outcome).Observe(req.Amount.InexactFloat64())
	telemetry.TransferDuration.Observe(time.Since(start).Seconds())

	if span.IsRecording() {
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetAttributes(attribute.String("transfer_id", receipt.TransferID))
			span.SetStatus(codes.Ok, "")
		}
	}
	return receipt, err
}

func (e *Executor) execute(ctx context.Context, req domain.TransferRequest) (domain.Receipt, error) {
	from, err := e.lookup(ctx, req.FromID)
	if err != nil {
		return domain.Receipt{}, err
	}
	to, err := e.lookup(ctx, req.ToID)
	if err != nil {
		return domain.Receipt{}, err
	}

	if err := Validate(from, to, req); err != nil {
		return domain.Receipt{}, err
	}

	receipt, notifications, err := e.commit(ctx, from, to, req.Amount)
	if err != nil {
		return domain.Receipt{}, err
	}

	if e.notifyAfterRelease {
		e.dispatch(ctx, notifications)
	}
	return receipt, nil
}

// lookup resolves id, reporting an unknown id as a nil account so Validate
// decides which side is missing.
func (e *Executor) lookup(ctx context.Context, id string) (*domain.Account, error) {
	account, err := e.store.Get(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account %s: %w", id, err)
	}
	return account, nil
}

// commit is the critical section. Both locks are held from the balance check
// until return, including while notifications are dispatched in the default mode.
func (e *Executor) commit(ctx context.Context, from, to *domain.Account, amount decimal.Decimal) (domain.Receipt, []domain.Notification, error) {
	waitStart := time.Now()
	locks := acquire(from, to)
	defer locks.unlock()
	telemetry.LockWaitDuration.Observe(time.Since(waitStart).Seconds())

	if from.BalanceLocked().Sub(amount).IsNegative() {
		return domain.Receipt{}, nil, fmt.Errorf("account %s: %w", from.ID(), domain.ErrInsufficientBalance)
	}

	from.DebitLocked(amount)
	to.CreditLocked(amount)

	transferID := e.newID()
	if err := e.store.ApplyUpdates(ctx, from, to); err != nil {
		from.CreditLocked(amount)
		to.DebitLocked(amount)
		return domain.Receipt{}, nil, fmt.Errorf("persist transfer %s: %w", transferID, err)
	}

	receipt := domain.Receipt{
		TransferID:  transferID,
		FromID:      from.ID(),
		ToID:        to.ID(),
		Amount:      amount,
		FromBalance: from.BalanceLocked(),
		ToBalance:   to.BalanceLocked(),
	}

	notifications := e.notifications(receipt)
	if !e.notifyAfterRelease {
		e.dispatch(ctx, notifications)
	}
	return receipt, notifications, nil
}

func (e *Executor) notifications(r domain.Receipt) []domain.Notification {
	now := e.now().UTC()
	return []domain.Notification{
		{
			ID:         e.newID(),
			TransferID: r.TransferID,
			AccountID:  r.FromID,
			Direction:  domain.DirectionDebit,
			Amount:     r.Amount,
			Balance:    r.FromBalance,
			Timestamp:  now,
		},
		{
			ID:         e.newID(),
			TransferID: r.TransferID,
			AccountID:  r.ToID,
			Direction:  domain.DirectionCredit,
			Amount:     r.Amount,
			Balance:    r.ToBalance,
			Timestamp:  now,
		},
	}
}

func (e *Executor) dispatch(ctx context.Context, notifications []domain.Notification) {
	for _, n := range notifications {
		e.deliver(ctx, n)
	}
}

// deliver hands n to the sink. Sink errors and panics are logged and
// swallowed: the transfer is already committed.
func (e *Executor) deliver(ctx context.Context, n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.NotificationsTotal.WithLabelValues("panicked").Inc()
			e.logger.ErrorContext(ctx, "notification sink panicked",
				slog.String("transfer_id", n.TransferID),
				slog.String("account_id", n.AccountID),
				slog.Any("panic", r),
			)
		}
	}()

	if err := e.sink.Notify(ctx, n); err != nil {
		telemetry.NotificationsTotal.WithLabelValues("failed").Inc()
		e.logger.WarnContext(ctx, "notification failed",
			slog.String("transfer_id", n.TransferID),
			slog.String("account_id", n.AccountID),
			slog.String("error", err.Error()),
		)
		return
	}
	telemetry.NotificationsTotal.WithLabelValues("delivered").Inc()
}
