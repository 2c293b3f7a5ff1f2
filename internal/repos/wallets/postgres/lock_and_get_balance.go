package wallets

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/repos/wallets"
)

// LockAndGetBalance takes the user's row lock (FOR UPDATE) and returns the
// balance as of lock acquisition. Concurrent checkouts by the same user block
// here until the holder commits or rolls back.
func (r *walletsRepo) LockAndGetBalance(tx *sql.Tx, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := tx.QueryRow(`
		SELECT balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, wallets.ErrUserNotFound
		}

		return decimal.Zero, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}
