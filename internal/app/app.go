package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/quotegate/config"
	"github.com/guttosm/quotegate/internal/api"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router and any error encountered during initialization.
//
// Responsibilities:
//   - Builds the Baostock client and the quote service (InitializeService).
//   - Creates the HTTP handler layer to handle requests.
//   - Resolves the static root for the front end.
//   - Configures the Gin router with all routes.
//   - Registers health and readiness probes.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, error) {
	cfg := config.AppConfig

	svc, client, err := InitializeService()
	if err != nil {
		return nil, err
	}

	static, err := api.NewStaticHandler(cfg.Static.Dir, cfg.Static.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize static files: %w", err)
	}

	handler := api.NewHandler(svc)
	router := api.NewRouter(handler, static, cfg.Server.RequestTimeout)

	// Readiness only checks that the provider accepts connections
	api.NewHealthHandler(client.Ping).Register(router)

	return router, nil
}
