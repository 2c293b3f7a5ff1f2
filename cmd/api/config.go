package main

import (
	"log/slog"
	"time"

	"github.com/napatw/gamestore/internal/infra/pgutils"
)

type apiConfig struct {
	Port             uint16         `env:"APP_PORT"`
	LogLevel         slog.Level     `env:"APP_LOG_LEVEL"`
	ShutdownTimeout  time.Duration  `env:"APP_SHUTDOWN_TIMEOUT"`
	DiscountOnceOnly bool           `env:"DISCOUNT_SINGLE_USE_PER_USER"`
	Postgres         pgutils.Config
}
