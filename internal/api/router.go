package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/quotegate/internal/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter creates a Gin engine with routes configured.
// It receives the handlers with their dependencies already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler).
//   - Applies the optional per-request timeout (0 disables it).
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures the stock data route (POST /api/stock_data).
//   - Serves the front end: GET / and every unmatched GET/HEAD path.
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, static *StaticHandler, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RequestTimeout(requestTimeout),
	)

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API ──────────────────────────────────────
	router.POST("/api/stock_data", handler.GetStockData)

	// ─── Front end ────────────────────────────────
	router.GET("/", static.Index)
	router.HEAD("/", static.Index)
	router.NoRoute(static.Serve)

	return router
}
