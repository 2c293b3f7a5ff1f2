package discounts

import (
	"database/sql"
	"errors"
)

var ErrInvalidCode = errors.New("invalid discount code")
var ErrExhausted = errors.New("discount code has reached its maximum usage")
var ErrAlreadyUsed = errors.New("user already used this discount code")

// Redemption is the outcome of consuming one unit of a code's capacity.
// Code is the canonical stored form, not the caller's raw input.
type Redemption struct {
	CodeID  int64
	Code    string
	Percent int64
}

// Discounts manages promotional code capacity. Consume must be called inside
// an enclosing transaction: it never commits on its own, so a checkout that
// fails after consuming rolls the consumption back with everything else.
type Discounts interface {
	Consume(tx *sql.Tx, code string, userID int64, singleUsePerUser bool) (Redemption, error)
}
