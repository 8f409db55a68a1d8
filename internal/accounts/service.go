// Package accounts exposes account creation, lookup and transfer over a
// single shared store.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jbarros93/dws-challenge/internal/domain"
	"github.com/jbarros93/dws-challenge/internal/store"
	"github.com/jbarros93/dws-challenge/internal/telemetry"
	"github.com/jbarros93/dws-challenge/internal/transfer"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Service is the entry point used by the API layer.
type Service struct {
	store    store.AccountStore
	executor *transfer.Executor
	logger   *slog.Logger
}

// NewService wires a service around store and executor; the executor must
// have been built on the same store.
func NewService(s store.AccountStore, executor *transfer.Executor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		executor: executor,
		logger:   logger,
	}
}

// CreateAccount registers a new account with a non-negative opening balance.
func (s *Service) CreateAccount(ctx context.Context, id string, balance decimal.Decimal) (*domain.Account, error) {
	ctx, span := telemetry.StartSpan(ctx, "accounts.Create",
		trace.WithAttributes(attribute.String("account_id", id)),
	)
	defer span.End()

	account, err := s.create(ctx, id, balance)
	telemetry.AccountsCreatedTotal.WithLabelValues(domain.KindOf(err).String()).Inc()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	telemetry.AccountCount.Inc()
	s.logger.InfoContext(ctx, "account created",
		slog.String("account_id", account.ID()),
		slog.String("balance", balance.String()),
	)
	return account, nil
}

func (s *Service) create(ctx context.Context, id string, balance decimal.Decimal) (*domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrEmptyAccountID
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("account %s balance %s: %w", id, balance, domain.ErrNegativeBalance)
	}

	account := domain.NewAccount(id, balance)
	if err := s.store.Insert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount returns the shared record for id or domain.ErrAccountNotFound.
func (s *Service) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.store.Get(ctx, id)
}

// ListAccounts returns every account ordered by id.
func (s *Service) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return s.store.All(ctx)
}

// TotalBalance sums every account balance. Each balance is read under its own
// lock, so the sum is exact only while no transfer is in flight.
func (s *Service) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, account := range all {
		total = total.Add(account.Balance())
	}
	return total, nil
}

// Transfer moves money between two accounts; see transfer.Executor.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (domain.Receipt, error) {
	return s.executor.Transfer(ctx, req)
}

// Reset drops every account.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	telemetry.AccountCount.Set(0)
	return nil
}
