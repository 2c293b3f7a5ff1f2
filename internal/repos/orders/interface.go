package orders

import (
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyDiscounted = errors.New("order already has a discount applied")
)

type Order struct {
	ID             int64
	UserID         int64
	TotalPrice     decimal.Decimal
	DiscountCodeID *int64
}

// Item is one persisted line: the unit price charged at checkout time and the
// quantity bought. Together they are the evidence any later total revision
// recomputes from.
type Item struct {
	GameID   int64
	Price    decimal.Decimal
	Quantity int64
}

// Orders records checkouts: the order row, its immutable line items, library
// entitlement grants, and per-game sales counters. An order carries at most
// one discount, recorded in discount_code_id whether it was applied at
// checkout or post-hoc; ReviseTotal refuses a second one.
type Orders interface {
	Create(tx *sql.Tx, userID int64, totalPrice decimal.Decimal, discountCodeID *int64) (int64, error)
	AddItem(tx *sql.Tx, orderID, gameID int64, price decimal.Decimal, quantity int64) error
	GrantLibrary(tx *sql.Tx, userID, gameID int64) error
	BumpSales(tx *sql.Tx, gameID, delta int64) error
	LockAndGet(tx *sql.Tx, orderID int64) (Order, error)
	Items(tx *sql.Tx, orderID int64) ([]Item, error)
	ReviseTotal(tx *sql.Tx, orderID int64, totalPrice decimal.Decimal, discountCodeID int64) error
}
