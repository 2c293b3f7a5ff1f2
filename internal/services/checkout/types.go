package checkout

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidPrice = errors.New("invalid item price")
	ErrForbidden    = errors.New("order belongs to another user")
)

// CartItem is one validated cart entry. Quantity 0 means 1.
type CartItem struct {
	GameID    int64
	UnitPrice decimal.Decimal
	Quantity  int64
}

func (i CartItem) quantity() int64 {
	if i.Quantity == 0 {
		return 1
	}

	return i.Quantity
}

// Settlement is the committed outcome of a checkout.
type Settlement struct {
	OrderID         int64
	NewBalance      decimal.Decimal
	Subtotal        decimal.Decimal
	DiscountApplied bool
	DiscountCode    string
	DiscountPercent int64
	DiscountAmount  decimal.Decimal
	TotalCharged    decimal.Decimal
}

// ApplyResult is the committed outcome of retroactively attaching a discount
// to an existing order.
type ApplyResult struct {
	OrderID         int64
	Subtotal        decimal.Decimal
	DiscountPercent int64
	DiscountAmount  decimal.Decimal
	TotalPrice      decimal.Decimal
}

// round2 rounds to the cent, half up. Applied after every multiplication and
// subtraction so repeated discounts cannot accumulate drift.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var hundred = decimal.NewFromInt(100)

// pricing computes the discounted charge for a subtotal. The total is clamped
// at zero; balances are never compared against a negative charge.
func pricing(subtotal decimal.Decimal, percent int64) (discountAmount, total decimal.Decimal) {
	discountAmount = round2(subtotal.Mul(decimal.NewFromInt(percent)).Div(hundred))

	total = round2(subtotal.Sub(discountAmount))
	if total.IsNegative() {
		total = decimal.Zero
	}

	return discountAmount, total
}
