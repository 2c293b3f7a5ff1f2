package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napatw/gamestore/internal/infra/pgutils"
	"github.com/napatw/gamestore/internal/repos/transactions"
	pgtransactions "github.com/napatw/gamestore/internal/repos/transactions/postgres"
	"github.com/napatw/gamestore/internal/repos/wallets"
	pgwallets "github.com/napatw/gamestore/internal/repos/wallets/postgres"
)

var ErrInvalidAmount = errors.New("top-up amount must be positive")

const historyLimit = 10

// Data is the wallet snapshot served to the account page: current balance
// plus the most recent journal entries.
type Data struct {
	Balance decimal.Decimal
	History []transactions.Record
}

type Service struct {
	wallets wallets.Wallets
	journal transactions.Transactions
	runTx   func(ctx context.Context, fn func(*sql.Tx) error) error
}

func New(db *sql.DB) *Service {
	return &Service{
		wallets: pgwallets.New(db),
		journal: pgtransactions.New(db),
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
	}
}

// Topup credits the wallet and journals the credit in one transaction.
func (s *Service) Topup(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}

	amount = amount.Round(2)

	var newBalance decimal.Decimal

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		balance, err := s.wallets.LockAndGetBalance(tx, userID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		err = s.wallets.Credit(tx, userID, amount)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}

		err = s.journal.Insert(tx, userID, transactions.KindTopup, amount, "Added funds to wallet")
		if err != nil {
			return fmt.Errorf("insert journal entry: %w", err)
		}

		newBalance = balance.Add(amount).Round(2)

		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("topup: %w", err)
	}

	return newBalance, nil
}

// WalletData returns the balance and the last few journal entries. Plain
// reads, no locks.
func (s *Service) WalletData(ctx context.Context, userID int64) (Data, error) {
	balance, err := s.wallets.GetBalance(ctx, userID)
	if err != nil {
		return Data{}, fmt.Errorf("get balance: %w", err)
	}

	history, err := s.journal.Recent(ctx, userID, historyLimit)
	if err != nil {
		return Data{}, fmt.Errorf("get history: %w", err)
	}

	return Data{Balance: balance, History: history}, nil
}
