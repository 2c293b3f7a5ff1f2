package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/napatw/gamestore/internal/repos/discounts"
	"github.com/napatw/gamestore/internal/repos/transactions"
	"github.com/napatw/gamestore/internal/repos/wallets"
)

func TestCheckout_NoDiscount(t *testing.T) {
	t.Parallel()

	svc, w, _, o, j := newTestService(Config{})

	w.On("LockAndGetBalance", mock.Anything, int64(7)).Return(dec("100.00"), nil)
	w.On("Debit", mock.Anything, int64(7), matchDec("60.00")).Return(nil)
	o.On("Create", mock.Anything, int64(7), matchDec("60.00"), noCodeID).Return(int64(42), nil)
	o.On("AddItem", mock.Anything, int64(42), int64(11), matchDec("60.00"), int64(1)).Return(nil)
	o.On("GrantLibrary", mock.Anything, int64(7), int64(11)).Return(nil)
	o.On("BumpSales", mock.Anything, int64(11), int64(1)).Return(nil)
	j.On("Insert", mock.Anything, int64(7), transactions.KindPurchase, matchDec("-60.00"), "Purchase of 1 game(s)").Return(nil)

	got, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 11, UnitPrice: dec("60.00")}}, "")

	assert.NoError(t, err)
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, "60.00", got.TotalCharged.StringFixed(2))
	assert.Equal(t, "40.00", got.NewBalance.StringFixed(2))
	assert.Equal(t, "60.00", got.Subtotal.StringFixed(2))
	assert.False(t, got.DiscountApplied)
	w.AssertExpectations(t)
	o.AssertExpectations(t)
	j.AssertExpectations(t)
}

func TestCheckout_WithDiscount(t *testing.T) {
	t.Parallel()

	svc, w, d, o, j := newTestService(Config{SingleUsePerUser: true})

	d.On("Consume", mock.Anything, "WELCOME10", int64(7), true).
		Return(discounts.Redemption{CodeID: 1, Code: "WELCOME10", Percent: 10}, nil)
	w.On("LockAndGetBalance", mock.Anything, int64(7)).Return(dec("100.00"), nil)
	w.On("Debit", mock.Anything, int64(7), matchDec("54.00")).Return(nil)
	o.On("Create", mock.Anything, int64(7), matchDec("54.00"), matchCodeID(1)).Return(int64(42), nil)
	o.On("AddItem", mock.Anything, int64(42), int64(11), matchDec("60.00"), int64(1)).Return(nil)
	o.On("GrantLibrary", mock.Anything, int64(7), int64(11)).Return(nil)
	o.On("BumpSales", mock.Anything, int64(11), int64(1)).Return(nil)
	j.On("Insert", mock.Anything, int64(7), transactions.KindPurchase, matchDec("-54.00"), "Purchase of 1 game(s), code WELCOME10 (-10%)").Return(nil)

	got, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 11, UnitPrice: dec("60.00")}}, " WELCOME10 ")

	assert.NoError(t, err)
	assert.True(t, got.DiscountApplied)
	assert.Equal(t, int64(10), got.DiscountPercent)
	assert.Equal(t, "6.00", got.DiscountAmount.StringFixed(2))
	assert.Equal(t, "54.00", got.TotalCharged.StringFixed(2))
	assert.Equal(t, "46.00", got.NewBalance.StringFixed(2))
	d.AssertExpectations(t)
	w.AssertExpectations(t)
}

func TestCheckout_QuantityMultipliesSubtotalAndSales(t *testing.T) {
	t.Parallel()

	svc, w, _, o, j := newTestService(Config{})

	w.On("LockAndGetBalance", mock.Anything, int64(7)).Return(dec("100.00"), nil)
	w.On("Debit", mock.Anything, int64(7), matchDec("30.00")).Return(nil)
	o.On("Create", mock.Anything, int64(7), matchDec("30.00"), noCodeID).Return(int64(43), nil)
	o.On("AddItem", mock.Anything, int64(43), int64(5), matchDec("10.00"), int64(3)).Return(nil)
	o.On("GrantLibrary", mock.Anything, int64(7), int64(5)).Return(nil)
	o.On("BumpSales", mock.Anything, int64(5), int64(3)).Return(nil)
	j.On("Insert", mock.Anything, int64(7), transactions.KindPurchase, matchDec("-30.00"), mock.Anything).Return(nil)

	got, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 5, UnitPrice: dec("10.00"), Quantity: 3}}, "")

	assert.NoError(t, err)
	assert.Equal(t, "30.00", got.Subtotal.StringFixed(2))
	o.AssertExpectations(t)
}

func TestCheckout_FullDiscountClampsToZero(t *testing.T) {
	t.Parallel()

	svc, w, d, o, j := newTestService(Config{})

	d.On("Consume", mock.Anything, "FREE", int64(7), false).
		Return(discounts.Redemption{CodeID: 2, Code: "FREE", Percent: 100}, nil)
	w.On("LockAndGetBalance", mock.Anything, int64(7)).Return(dec("0.00"), nil)
	w.On("Debit", mock.Anything, int64(7), matchDec("0.00")).Return(nil)
	o.On("Create", mock.Anything, int64(7), matchDec("0.00"), matchCodeID(2)).Return(int64(44), nil)
	o.On("AddItem", mock.Anything, int64(44), int64(11), matchDec("10.00"), int64(1)).Return(nil)
	o.On("GrantLibrary", mock.Anything, int64(7), int64(11)).Return(nil)
	o.On("BumpSales", mock.Anything, int64(11), int64(1)).Return(nil)
	j.On("Insert", mock.Anything, int64(7), transactions.KindPurchase, matchDec("0.00"), mock.Anything).Return(nil)

	got, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 11, UnitPrice: dec("10.00")}}, "FREE")

	assert.NoError(t, err)
	assert.Equal(t, "0.00", got.TotalCharged.StringFixed(2))
	assert.Equal(t, "10.00", got.DiscountAmount.StringFixed(2))
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Parallel()

	svc, w, _, _, _ := newTestService(Config{})

	_, err := svc.Checkout(context.Background(), 7, nil, "")

	assert.ErrorIs(t, err, ErrEmptyCart)
	w.AssertNotCalled(t, "LockAndGetBalance", mock.Anything, mock.Anything)
}

func TestCheckout_NegativePrice(t *testing.T) {
	t.Parallel()

	svc, w, _, _, _ := newTestService(Config{})

	_, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 1, UnitPrice: dec("-1.00")}}, "")

	assert.ErrorIs(t, err, ErrInvalidPrice)
	w.AssertNotCalled(t, "LockAndGetBalance", mock.Anything, mock.Anything)
}

func TestCheckout_NegativeQuantity(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestService(Config{})

	_, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 1, UnitPrice: dec("1.00"), Quantity: -2}}, "")

	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestCheckout_InsufficientFunds(t *testing.T) {
	t.Parallel()

	svc, w, _, o, j := newTestService(Config{})

	w.On("LockAndGetBalance", mock.Anything, int64(7)).Return(dec("10.00"), nil)

	_, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 11, UnitPrice: dec("60.00")}}, "")

	assert.ErrorIs(t, err, wallets.ErrInsufficientFunds)
	w.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
	o.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	j.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_InsufficientFundsWithDiscount_NoEffectsAfterFailure(t *testing.T) {
	t.Parallel()

	// The consume happens inside the same unit of work, so the failed debit
	// aborts it; here we only verify nothing past the balance check runs.
	svc, w, d, o, _ := newTestService(Config{})

	d.On("Consume", mock.Anything, "WELCOME10", int64(7), false).
		Return(discounts.Redemption{CodeID: 1, Code: "WELCOME10", Percent: 10}, nil)
	w.On("LockAndGetBalance", mock.Anything, int64(7)).Return(dec("10.00"), nil)

	_, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 11, UnitPrice: dec("60.00")}}, "WELCOME10")

	assert.ErrorIs(t, err, wallets.ErrInsufficientFunds)
	o.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_DiscountFailuresPropagate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
	}{
		{"invalid_code", discounts.ErrInvalidCode},
		{"exhausted", discounts.ErrExhausted},
		{"already_used", discounts.ErrAlreadyUsed},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, w, d, _, _ := newTestService(Config{SingleUsePerUser: true})

			d.On("Consume", mock.Anything, "CODE", int64(7), true).
				Return(discounts.Redemption{}, tc.err)

			_, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 11, UnitPrice: dec("60.00")}}, "CODE")

			assert.ErrorIs(t, err, tc.err)
			w.AssertNotCalled(t, "LockAndGetBalance", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckout_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, w, _, _, _ := newTestService(Config{})

	w.On("LockAndGetBalance", mock.Anything, int64(99)).Return(dec("0"), wallets.ErrUserNotFound)

	_, err := svc.Checkout(context.Background(), 99, []CartItem{{GameID: 11, UnitPrice: dec("1.00")}}, "")

	assert.ErrorIs(t, err, wallets.ErrUserNotFound)
}

func TestCheckout_RoundsHalfUpOnCentBoundary(t *testing.T) {
	t.Parallel()

	// 33.33 at 15% -> 4.9995 -> rounds to 5.00; total 28.33.
	svc, w, d, o, j := newTestService(Config{})

	d.On("Consume", mock.Anything, "SAVE15", int64(7), false).
		Return(discounts.Redemption{CodeID: 3, Code: "SAVE15", Percent: 15}, nil)
	w.On("LockAndGetBalance", mock.Anything, int64(7)).Return(dec("100.00"), nil)
	w.On("Debit", mock.Anything, int64(7), matchDec("28.33")).Return(nil)
	o.On("Create", mock.Anything, int64(7), matchDec("28.33"), matchCodeID(3)).Return(int64(50), nil)
	o.On("AddItem", mock.Anything, int64(50), int64(9), matchDec("33.33"), int64(1)).Return(nil)
	o.On("GrantLibrary", mock.Anything, int64(7), int64(9)).Return(nil)
	o.On("BumpSales", mock.Anything, int64(9), int64(1)).Return(nil)
	j.On("Insert", mock.Anything, int64(7), transactions.KindPurchase, matchDec("-28.33"), mock.Anything).Return(nil)

	got, err := svc.Checkout(context.Background(), 7, []CartItem{{GameID: 9, UnitPrice: dec("33.33")}}, "SAVE15")

	assert.NoError(t, err)
	assert.Equal(t, "5.00", got.DiscountAmount.StringFixed(2))
	assert.Equal(t, "28.33", got.TotalCharged.StringFixed(2))
}
