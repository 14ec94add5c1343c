package app

import (
	"fmt"

	"github.com/guttosm/quotegate/config"
	"github.com/guttosm/quotegate/internal/provider/baostock"
	"github.com/guttosm/quotegate/internal/service"
)

// InitializeService wires the quote service on top of the configured
// provider. Shared by the api and export modes.
func InitializeService() (service.QuoteService, *baostock.Client, error) {
	client, err := providerOpener(config.AppConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize provider: %w", err)
	}
	return service.NewQuoteService(client), client, nil
}
