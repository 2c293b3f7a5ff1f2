package wallets

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/repos/wallets"
)

// Debit subtracts amount with the sufficiency predicate repeated in the WHERE
// clause. The balance check done against the locked read is re-verified at
// write time, so a racing transaction that slipped past the read can never
// drive the balance negative.
func (r *walletsRepo) Debit(tx *sql.Tx, userID int64, amount decimal.Decimal) error {
	res, err := tx.Exec(`
		UPDATE users
		SET balance = balance - $2
		WHERE id = $1
		  AND balance >= $2
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return wallets.ErrInsufficientFunds
	}

	return nil
}
