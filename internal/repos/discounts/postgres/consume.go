package discounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/napatw/gamestore/internal/repos/discounts"
)

// Consume retires one unit of the code's capacity for userID.
//
// 1) Lock the code row (FOR UPDATE); competing consumers serialize here.
// 2) Record the redemption; the UNIQUE (user_id, code_id) constraint is the
//    per-user guard, not a prior read.
// 3) Increment used_count with the capacity predicate repeated in the WHERE
//    clause; zero rows affected means another transaction took the last unit
//    between our read and write.
func (r *discountsRepo) Consume(tx *sql.Tx, code string, userID int64, singleUsePerUser bool) (discounts.Redemption, error) {
	var red discounts.Redemption
	var maxUsage, usedCount int64

	err := tx.QueryRow(`
		SELECT id, code, discount_percent, max_usage, used_count
		FROM discount_codes
		WHERE code = $1
		FOR UPDATE
	`, code).Scan(&red.CodeID, &red.Code, &red.Percent, &maxUsage, &usedCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return discounts.Redemption{}, discounts.ErrInvalidCode
		}

		return discounts.Redemption{}, fmt.Errorf("lock discount code: %w", err)
	}

	if usedCount >= maxUsage {
		return discounts.Redemption{}, discounts.ErrExhausted
	}

	err = r.insertRedemption(tx, userID, red.CodeID, singleUsePerUser)
	if err != nil {
		return discounts.Redemption{}, err
	}

	res, err := tx.Exec(`
		UPDATE discount_codes
		SET used_count = used_count + 1
		WHERE id = $1
		  AND used_count < max_usage
	`, red.CodeID)
	if err != nil {
		return discounts.Redemption{}, fmt.Errorf("increment used_count: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return discounts.Redemption{}, fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return discounts.Redemption{}, discounts.ErrExhausted
	}

	return red, nil
}

func (r *discountsRepo) insertRedemption(tx *sql.Tx, userID, codeID int64, singleUsePerUser bool) error {
	if !singleUsePerUser {
		// Redemptions are still recorded for audit, repeats are tolerated.
		_, err := tx.Exec(`
			INSERT INTO discount_redemptions (user_id, code_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, code_id) DO NOTHING
		`, userID, codeID)
		if err != nil {
			return fmt.Errorf("insert redemption: %w", err)
		}

		return nil
	}

	_, err := tx.Exec(`
		INSERT INTO discount_redemptions (user_id, code_id)
		VALUES ($1, $2)
	`, userID, codeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return discounts.ErrAlreadyUsed
			}
		}

		return fmt.Errorf("insert redemption: %w", err)
	}

	return nil
}
