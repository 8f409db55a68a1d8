package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account is a balance-holding record. The store owns the single shared
// instance per id; every other holder works on an alias of it.
//
// The embedded lock guards balance. It is the per-account transfer lock.
type Account struct {
	id string

	mu      sync.Mutex
	balance decimal.Decimal
}

// NewAccount creates an account record with the given opening balance.
func NewAccount(id string, balance decimal.Decimal) *Account {
	return &Account{id: id, balance: balance}
}

// ID returns the account id. It is fixed at creation; the store keys and the
// transfer lock order both depend on it.
func (a *Account) ID() string { return a.id }

// Lock acquires the account's transfer lock.
func (a *Account) Lock() { a.mu.Lock() }

// Unlock releases the account's transfer lock.
func (a *Account) Unlock() { a.mu.Unlock() }

// Balance returns a consistent snapshot of the balance, waiting for any
// transfer that currently holds the account.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// BalanceLocked returns the balance. Caller must hold the lock.
func (a *Account) BalanceLocked() decimal.Decimal {
	return a.balance
}

// DebitLocked subtracts amount from the balance. Caller must hold the lock.
func (a *Account) DebitLocked(amount decimal.Decimal) {
	a.balance = a.balance.Sub(amount)
}

// CreditLocked adds amount to the balance. Caller must hold the lock.
func (a *Account) CreditLocked(amount decimal.Decimal) {
	a.balance = a.balance.Add(amount)
}
