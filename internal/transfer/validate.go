package transfer

import (
	"fmt"

	"github.com/jbarros93/dws-challenge/internal/domain"
)

// Validate runs the lock-free preconditions of a transfer against the
// resolved accounts; a nil account means the id did not resolve. Checks run
// in a fixed order and the first failure wins: source exists, destination
// exists, accounts differ, amount is positive.
//
// Balance sufficiency is not checked here. It is only meaningful under the
// account locks, see Executor.
func Validate(from, to *domain.Account, req domain.TransferRequest) error {
	if from == nil {
		return fmt.Errorf("source account %s: %w", req.FromID, domain.ErrAccountNotFound)
	}
	if to == nil {
		return fmt.Errorf("destination account %s: %w", req.ToID, domain.ErrAccountNotFound)
	}
	if from.ID() == to.ID() {
		return fmt.Errorf("account %s: %w", from.ID(), domain.ErrSameAccount)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("amount %s: %w", req.Amount, domain.ErrNonPositiveAmount)
	}
	return nil
}
