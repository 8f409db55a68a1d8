package domain

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrSameAccount         = errors.New("source and destination account must differ")
	ErrNonPositiveAmount   = errors.New("transfer amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateAccount    = errors.New("account already exists")

	// Account creation only.
	ErrEmptyAccountID  = errors.New("account id is required")
	ErrNegativeBalance = errors.New("initial balance cannot be negative")
)

// ErrorKind is the closed set of outcomes an account operation can report.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindAccountNotFound
	KindSameAccount
	KindNonPositiveAmount
	KindInsufficientBalance
	KindDuplicateAccount
	KindInvalidAccount
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "success"
	case KindAccountNotFound:
		return "account_not_found"
	case KindSameAccount:
		return "same_account"
	case KindNonPositiveAmount:
		return "non_positive_amount"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindDuplicateAccount:
		return "duplicate_account"
	case KindInvalidAccount:
		return "invalid_account"
	default:
		return "internal"
	}
}

// KindOf maps err onto its ErrorKind. A nil error is KindNone; anything
// outside the taxonomy is KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrSameAccount):
		return KindSameAccount
	case errors.Is(err, ErrNonPositiveAmount):
		return KindNonPositiveAmount
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrDuplicateAccount):
		return KindDuplicateAccount
	case errors.Is(err, ErrEmptyAccountID), errors.Is(err, ErrNegativeBalance):
		return KindInvalidAccount
	default:
		return KindInternal
	}
}
