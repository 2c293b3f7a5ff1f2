package checkout

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/napatw/gamestore/internal/repos/discounts"
	"github.com/napatw/gamestore/internal/repos/orders"
	"github.com/napatw/gamestore/internal/repos/transactions"
)

// runTxPassthrough stands in for pgutils.WithTx: it runs fn with a nil tx
// (the mocked repos never touch it) and reports fn's error as the rollback
// path would.
func runTxPassthrough(_ context.Context, fn func(*sql.Tx) error) error {
	return fn(nil)
}

type MockWallets struct {
	mock.Mock
}

func (m *MockWallets) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWallets) LockAndGetBalance(tx *sql.Tx, userID int64) (decimal.Decimal, error) {
	args := m.Called(tx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWallets) Credit(tx *sql.Tx, userID int64, amount decimal.Decimal) error {
	args := m.Called(tx, userID, amount)
	return args.Error(0)
}

func (m *MockWallets) Debit(tx *sql.Tx, userID int64, amount decimal.Decimal) error {
	args := m.Called(tx, userID, amount)
	return args.Error(0)
}

type MockDiscounts struct {
	mock.Mock
}

func (m *MockDiscounts) Consume(tx *sql.Tx, code string, userID int64, singleUsePerUser bool) (discounts.Redemption, error) {
	args := m.Called(tx, code, userID, singleUsePerUser)
	return args.Get(0).(discounts.Redemption), args.Error(1)
}

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) Create(tx *sql.Tx, userID int64, totalPrice decimal.Decimal, discountCodeID *int64) (int64, error) {
	args := m.Called(tx, userID, totalPrice, discountCodeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrders) AddItem(tx *sql.Tx, orderID, gameID int64, price decimal.Decimal, quantity int64) error {
	args := m.Called(tx, orderID, gameID, price, quantity)
	return args.Error(0)
}

func (m *MockOrders) GrantLibrary(tx *sql.Tx, userID, gameID int64) error {
	args := m.Called(tx, userID, gameID)
	return args.Error(0)
}

func (m *MockOrders) BumpSales(tx *sql.Tx, gameID, delta int64) error {
	args := m.Called(tx, gameID, delta)
	return args.Error(0)
}

func (m *MockOrders) LockAndGet(tx *sql.Tx, orderID int64) (orders.Order, error) {
	args := m.Called(tx, orderID)
	return args.Get(0).(orders.Order), args.Error(1)
}

func (m *MockOrders) Items(tx *sql.Tx, orderID int64) ([]orders.Item, error) {
	args := m.Called(tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orders.Item), args.Error(1)
}

func (m *MockOrders) ReviseTotal(tx *sql.Tx, orderID int64, totalPrice decimal.Decimal, discountCodeID int64) error {
	args := m.Called(tx, orderID, totalPrice, discountCodeID)
	return args.Error(0)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Insert(tx *sql.Tx, userID int64, kind transactions.Kind, amount decimal.Decimal, description string) error {
	args := m.Called(tx, userID, kind, amount, description)
	return args.Error(0)
}

func (m *MockJournal) Recent(ctx context.Context, userID int64, limit int) ([]transactions.Record, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]transactions.Record), args.Error(1)
}

func newTestService(cfg Config) (*Service, *MockWallets, *MockDiscounts, *MockOrders, *MockJournal) {
	w := new(MockWallets)
	d := new(MockDiscounts)
	o := new(MockOrders)
	j := new(MockJournal)

	svc := &Service{
		wallets:   w,
		discounts: d,
		orders:    o,
		journal:   j,
		cfg:       cfg,
		runTx:     runTxPassthrough,
	}

	return svc, w, d, o, j
}

// dec is a test shorthand for decimal literals.
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// matchDec matches a decimal argument by value, since two equal decimals can
// differ in internal representation.
func matchDec(s string) any {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

// matchCodeID matches the *int64 discount code argument by pointee.
func matchCodeID(id int64) any {
	return mock.MatchedBy(func(p *int64) bool { return p != nil && *p == id })
}

// noCodeID is the Create argument for an undiscounted order.
var noCodeID = (*int64)(nil)
