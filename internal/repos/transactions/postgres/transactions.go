package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

func (r *transactionsRepo) Insert(tx *sql.Tx, userID int64, kind transactions.Kind, amount decimal.Decimal, description string) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (user_id, kind, amount, description)
		VALUES ($1, $2, $3, $4)
	`, userID, string(kind), amount, description)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

func (r *transactionsRepo) Recent(ctx context.Context, userID int64, limit int) ([]transactions.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, amount, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var records []transactions.Record

	for rows.Next() {
		var rec transactions.Record

		err = rows.Scan(&rec.ID, &rec.UserID, &rec.Kind, &rec.Amount, &rec.Description, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		records = append(records, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return records, nil
}
