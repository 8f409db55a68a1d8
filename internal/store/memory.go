package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jbarros93/dws-challenge/internal/domain"
)

// Memory is an in-process AccountStore. Its map lock only guards membership;
// balances are guarded by each account's own lock.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *Memory) Insert(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.ID()]; exists {
		return fmt.Errorf("account id %s: %w", account.ID(), domain.ErrDuplicateAccount)
	}
	m.accounts[account.ID()] = account
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account id %s: %w", id, domain.ErrAccountNotFound)
	}
	return account, nil
}

// ApplyUpdates is a no-op: balances are mutated in place on the shared records.
func (m *Memory) ApplyUpdates(context.Context, ...*domain.Account) error {
	return nil
}

func (m *Memory) All(context.Context) ([]*domain.Account, error) {
	m.mu.RLock()
	result := make([]*domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		result = append(result, account)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result, nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = make(map[string]*domain.Account)
	return nil
}

// Len returns the number of stored accounts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
