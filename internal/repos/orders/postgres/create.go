package orders

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

func (r *ordersRepo) Create(tx *sql.Tx, userID int64, totalPrice decimal.Decimal, discountCodeID *int64) (int64, error) {
	var orderID int64

	err := tx.QueryRow(`
		INSERT INTO orders (user_id, total_price, discount_code_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, totalPrice, discountCodeID).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	return orderID, nil
}

func (r *ordersRepo) AddItem(tx *sql.Tx, orderID, gameID int64, price decimal.Decimal, quantity int64) error {
	_, err := tx.Exec(`
		INSERT INTO order_items (order_id, game_id, price, quantity)
		VALUES ($1, $2, $3, $4)
	`, orderID, gameID, price, quantity)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}

	return nil
}

// GrantLibrary is idempotent per (user, game): repurchase keeps the single
// existing grant.
func (r *ordersRepo) GrantLibrary(tx *sql.Tx, userID, gameID int64) error {
	_, err := tx.Exec(`
		INSERT INTO library (user_id, game_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, game_id) DO NOTHING
	`, userID, gameID)
	if err != nil {
		return fmt.Errorf("grant library entry: %w", err)
	}

	return nil
}

func (r *ordersRepo) BumpSales(tx *sql.Tx, gameID, delta int64) error {
	_, err := tx.Exec(`
		INSERT INTO rankings (game_id, sales_count)
		VALUES ($1, $2)
		ON CONFLICT (game_id) DO UPDATE
		SET sales_count = rankings.sales_count + EXCLUDED.sales_count
	`, gameID, delta)
	if err != nil {
		return fmt.Errorf("bump sales counter: %w", err)
	}

	return nil
}
