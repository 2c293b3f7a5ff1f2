package wallets

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/repos/wallets"
)

func (r *walletsRepo) Credit(tx *sql.Tx, userID int64, amount decimal.Decimal) error {
	res, err := tx.Exec(`
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return wallets.ErrUserNotFound
	}

	return nil
}
