package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/infra/pgutils"
	"github.com/napatw/gamestore/internal/repos/discounts"
	pgdiscounts "github.com/napatw/gamestore/internal/repos/discounts/postgres"
	"github.com/napatw/gamestore/internal/repos/orders"
	pgorders "github.com/napatw/gamestore/internal/repos/orders/postgres"
	"github.com/napatw/gamestore/internal/repos/transactions"
	pgtransactions "github.com/napatw/gamestore/internal/repos/transactions/postgres"
	"github.com/napatw/gamestore/internal/repos/wallets"
	pgwallets "github.com/napatw/gamestore/internal/repos/wallets/postgres"
)

type Config struct {
	// SingleUsePerUser makes a second redemption of the same code by the same
	// user fail instead of burning another capacity unit.
	SingleUsePerUser bool
}

type Service struct {
	wallets   wallets.Wallets
	discounts discounts.Discounts
	orders    orders.Orders
	journal   transactions.Transactions
	cfg       Config
	runTx     func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB, cfg Config) *Service {
	return &Service{
		wallets:   pgwallets.New(db),
		discounts: pgdiscounts.New(db),
		orders:    pgorders.New(db),
		journal:   pgtransactions.New(db),
		cfg:       cfg,
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
	}
}

// Checkout settles a cart in one database transaction:
//
// 1) Consume the discount code, if any (row lock on the code).
// 2) Lock the buyer's balance row and debit the discounted total.
// 3) Record order, line items, library grants and sales counters.
// 4) Append the purchase journal entry.
//
// Every effect commits or rolls back together: a failed payment never burns a
// discount use, and a consumed code is never left behind by a failed debit.
func (s *Service) Checkout(ctx context.Context, userID int64, items []CartItem, discountCode string) (Settlement, error) {
	subtotal, err := cartSubtotal(items)
	if err != nil {
		return Settlement{}, err
	}

	discountCode = strings.TrimSpace(discountCode)

	var result Settlement

	err = s.runTx(ctx, func(tx *sql.Tx) error {
		var red discounts.Redemption

		applied := false

		if discountCode != "" {
			red, err = s.discounts.Consume(tx, discountCode, userID, s.cfg.SingleUsePerUser)
			if err != nil {
				return fmt.Errorf("consume discount: %w", err)
			}

			applied = true
		}

		discountAmount, total := pricing(subtotal, red.Percent)
		if !applied {
			discountAmount, total = decimal.Zero, round2(subtotal)
		}

		balance, err := s.wallets.LockAndGetBalance(tx, userID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		// pre-check against the locked balance
		if balance.LessThan(total) {
			return fmt.Errorf("pre-check debit: %w", wallets.ErrInsufficientFunds)
		}

		err = s.wallets.Debit(tx, userID, total)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}

		var appliedCodeID *int64
		if applied {
			appliedCodeID = &red.CodeID
		}

		orderID, err := s.orders.Create(tx, userID, total, appliedCodeID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range items {
			err = s.orders.AddItem(tx, orderID, item.GameID, item.UnitPrice, item.quantity())
			if err != nil {
				return fmt.Errorf("add order item: %w", err)
			}

			err = s.orders.GrantLibrary(tx, userID, item.GameID)
			if err != nil {
				return fmt.Errorf("grant library entry: %w", err)
			}

			err = s.orders.BumpSales(tx, item.GameID, item.quantity())
			if err != nil {
				return fmt.Errorf("bump sales counter: %w", err)
			}
		}

		err = s.journal.Insert(tx, userID, transactions.KindPurchase, total.Neg(), purchaseDescription(len(items), red, applied))
		if err != nil {
			return fmt.Errorf("insert journal entry: %w", err)
		}

		result = Settlement{
			OrderID:         orderID,
			NewBalance:      round2(balance.Sub(total)),
			Subtotal:        subtotal,
			DiscountApplied: applied,
			DiscountCode:    red.Code,
			DiscountPercent: red.Percent,
			DiscountAmount:  discountAmount,
			TotalCharged:    total,
		}

		return nil
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("checkout: %w", err)
	}

	slog.Info("checkout settled",
		"user_id", userID,
		"order_id", result.OrderID,
		"total", result.TotalCharged,
		"discount_applied", result.DiscountApplied,
	)

	return result, nil
}

func cartSubtotal(items []CartItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, ErrEmptyCart
	}

	subtotal := decimal.Zero

	for _, item := range items {
		if item.UnitPrice.IsNegative() || item.Quantity < 0 {
			return decimal.Zero, ErrInvalidPrice
		}

		subtotal = subtotal.Add(round2(item.UnitPrice.Mul(decimal.NewFromInt(item.quantity()))))
	}

	return subtotal, nil
}

func purchaseDescription(itemCount int, red discounts.Redemption, applied bool) string {
	if applied {
		return fmt.Sprintf("Purchase of %d game(s), code %s (-%d%%)", itemCount, red.Code, red.Percent)
	}

	return fmt.Sprintf("Purchase of %d game(s)", itemCount)
}
