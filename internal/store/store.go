// Package store holds account records keyed by id.
package store

import (
	"context"

	"github.com/jbarros93/dws-challenge/internal/domain"
)

// AccountStore is the keyed container behind the transfer executor.
// Implementations must make Insert atomic with its existence check and must
// not take account transfer locks in Get.
type AccountStore interface {
	// Insert adds the account, or fails with domain.ErrDuplicateAccount.
	Insert(ctx context.Context, account *domain.Account) error
	// Get returns the shared record for id, or domain.ErrAccountNotFound.
	Get(ctx context.Context, id string) (*domain.Account, error)
	// ApplyUpdates persists balances already mutated in place. Callers hold
	// the locks of every account passed.
	ApplyUpdates(ctx context.Context, accounts ...*domain.Account) error
	// All returns every record ordered by id.
	All(ctx context.Context) ([]*domain.Account, error)
	// Clear drops every record.
	Clear(ctx context.Context) error
}
