package orders

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/repos/orders"
)

func (r *ordersRepo) LockAndGet(tx *sql.Tx, orderID int64) (orders.Order, error) {
	var o orders.Order

	err := tx.QueryRow(`
		SELECT id, user_id, total_price, discount_code_id
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.DiscountCodeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orders.Order{}, orders.ErrOrderNotFound
		}

		return orders.Order{}, fmt.Errorf("lock/get order: %w", err)
	}

	return o, nil
}

func (r *ordersRepo) Items(tx *sql.Tx, orderID int64) ([]orders.Item, error) {
	rows, err := tx.Query(`
		SELECT game_id, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []orders.Item

	for rows.Next() {
		var it orders.Item

		err = rows.Scan(&it.GameID, &it.Price, &it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		items = append(items, it)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// ReviseTotal rewrites total_price and records the applied code. The
// IS NULL predicate makes the revision single-shot: the caller holds the row
// lock from LockAndGet, so zero affected rows means a discount is already
// recorded, not a missing order.
func (r *ordersRepo) ReviseTotal(tx *sql.Tx, orderID int64, totalPrice decimal.Decimal, discountCodeID int64) error {
	res, err := tx.Exec(`
		UPDATE orders
		SET total_price = $2, discount_code_id = $3
		WHERE id = $1
		  AND discount_code_id IS NULL
	`, orderID, totalPrice, discountCodeID)
	if err != nil {
		return fmt.Errorf("revise order total: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return orders.ErrAlreadyDiscounted
	}

	return nil
}
