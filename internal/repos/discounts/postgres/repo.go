package discounts

import (
	"database/sql"

	"github.com/napatw/gamestore/internal/repos/discounts"
)

var _ discounts.Discounts = (*discountsRepo)(nil)

type discountsRepo struct{ db *sql.DB }

func New(db *sql.DB) *discountsRepo {
	return &discountsRepo{db: db}
}
