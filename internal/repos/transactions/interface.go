package transactions

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPurchase Kind = "PURCHASE"
	KindTopup    Kind = "TOPUP"
)

// Record is one append-only journal entry per balance mutation. Amount is
// signed: negative for purchases, positive for top-ups.
type Record struct {
	ID          int64
	UserID      int64
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

type Transactions interface {
	Insert(tx *sql.Tx, userID int64, kind Kind, amount decimal.Decimal, description string) error
	Recent(ctx context.Context, userID int64, limit int) ([]Record, error)
}
