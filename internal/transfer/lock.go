package transfer

import "github.com/jbarros93/dws-challenge/internal/domain"

// lockPair holds the transfer locks of two accounts. Every caller acquires
// them in the same global order, the account with the greater id first, so
// two transfers over the same pair can never wait on each other in a cycle.
type lockPair struct {
	first, second *domain.Account
}

// ordered returns a and b with the greater id first.
func ordered(a, b *domain.Account) (first, second *domain.Account) {
	if a.ID() < b.ID() {
		return b, a
	}
	return a, b
}

// acquire blocks until both account locks are held. The returned pair must
// be released with a deferred unlock.
func acquire(a, b *domain.Account) *lockPair {
	first, second := ordered(a, b)
	first.Lock()
	if second != first {
		second.Lock()
	}
	return &lockPair{first: first, second: second}
}

// unlock releases both locks in reverse acquisition order.
func (p *lockPair) unlock() {
	if p.second != p.first {
		p.second.Unlock()
	}
	p.first.Unlock()
}
