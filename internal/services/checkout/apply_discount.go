package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/repos/discounts"
	"github.com/napatw/gamestore/internal/repos/orders"
)

// ApplyDiscount retroactively attaches a code to an already-recorded order.
// The subtotal is recomputed from the persisted line items (unit price times
// quantity), not the live catalog: the order is evidence of what was charged
// at checkout time. An order takes at most one discount, whether at checkout
// or here; consumption and the total_price revision commit or roll back
// together.
func (s *Service) ApplyDiscount(ctx context.Context, orderID int64, code string, userID int64) (ApplyResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ApplyResult{}, discounts.ErrInvalidCode
	}

	var result ApplyResult

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		order, err := s.orders.LockAndGet(tx, orderID)
		if err != nil {
			return fmt.Errorf("lock and get order: %w", err)
		}

		if order.UserID != userID {
			return ErrForbidden
		}

		// read-time check; ReviseTotal re-checks at write time
		if order.DiscountCodeID != nil {
			return orders.ErrAlreadyDiscounted
		}

		items, err := s.orders.Items(tx, orderID)
		if err != nil {
			return fmt.Errorf("load order items: %w", err)
		}

		subtotal := decimal.Zero
		for _, item := range items {
			subtotal = subtotal.Add(round2(item.Price.Mul(decimal.NewFromInt(item.Quantity))))
		}

		red, err := s.discounts.Consume(tx, code, userID, s.cfg.SingleUsePerUser)
		if err != nil {
			return fmt.Errorf("consume discount: %w", err)
		}

		discountAmount, total := pricing(subtotal, red.Percent)

		err = s.orders.ReviseTotal(tx, orderID, total, red.CodeID)
		if err != nil {
			return fmt.Errorf("revise order total: %w", err)
		}

		result = ApplyResult{
			OrderID:         orderID,
			Subtotal:        subtotal,
			DiscountPercent: red.Percent,
			DiscountAmount:  discountAmount,
			TotalPrice:      total,
		}

		return nil
	})
	if err != nil {
		return ApplyResult{}, fmt.Errorf("apply discount: %w", err)
	}

	slog.Info("discount applied to order",
		"user_id", userID,
		"order_id", orderID,
		"percent", result.DiscountPercent,
	)

	return result, nil
}
