package orders

import (
	"database/sql"

	"github.com/napatw/gamestore/internal/repos/orders"
)

var _ orders.Orders = (*ordersRepo)(nil)

type ordersRepo struct{ db *sql.DB }

func New(db *sql.DB) *ordersRepo {
	return &ordersRepo{db: db}
}
