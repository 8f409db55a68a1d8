package domain

import "github.com/shopspring/decimal"

// TransferRequest asks to move Amount from FromID to ToID. It is built per call
// and never stored.
type TransferRequest struct {
	FromID string          `json:"accountFromId"`
	ToID   string          `json:"accountToId"`
	Amount decimal.Decimal `json:"transferAmount"`
}

// Receipt describes a committed transfer. Balances are the values observed
// inside the critical section right after the mutation.
type Receipt struct {
	TransferID  string          `json:"transferId"`
	FromID      string          `json:"accountFromId"`
	ToID        string          `json:"accountToId"`
	Amount      decimal.Decimal `json:"transferAmount"`
	FromBalance decimal.Decimal `json:"accountFromBalance"`
	ToBalance   decimal.Decimal `json:"accountToBalance"`
}
