package app

import (
	"errors"

	"github.com/guttosm/quotegate/config"
	"github.com/guttosm/quotegate/internal/provider/baostock"
)

// InitProvider builds the Baostock client from configuration.
//
// Parameters:
//   - cfg (config.Config): The application configuration object containing Baostock settings.
//
// Behavior:
//   - Applies credentials and dial timeout from cfg.Baostock.
//   - Does not connect: every fetch dials its own session.
//
// Returns:
//   - *baostock.Client: a client safe for concurrent use.
//   - error: if the provider address is not configured.
func InitProvider(cfg config.Config) (*baostock.Client, error) {
	if cfg.Baostock.Addr == "" {
		return nil, errors.New("baostock address is not configured")
	}
	return baostock.NewClient(
		cfg.Baostock.Addr,
		baostock.WithCredentials(cfg.Baostock.User, cfg.Baostock.Password),
		baostock.WithDialTimeout(cfg.Baostock.DialTimeout),
	), nil
}

// providerOpener is an indirection used by InitializeService; overridden in tests.
var providerOpener = InitProvider
