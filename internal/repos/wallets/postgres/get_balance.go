package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/repos/wallets"
)

func (r *walletsRepo) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM users
		WHERE id = $1
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, wallets.ErrUserNotFound
		}

		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
