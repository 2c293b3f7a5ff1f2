package wallets

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrUserNotFound = errors.New("user not found")

// Wallets reads and mutates user balances. Every mutating call runs inside a
// caller-supplied transaction; the balance row must be locked via
// LockAndGetBalance before Debit so that concurrent checkouts by the same
// user serialize on the row lock.
type Wallets interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	LockAndGetBalance(tx *sql.Tx, userID int64) (decimal.Decimal, error)
	Credit(tx *sql.Tx, userID int64, amount decimal.Decimal) error
	Debit(tx *sql.Tx, userID int64, amount decimal.Decimal) error
}
