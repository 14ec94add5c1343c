package main

//
//  @title           quotegate API
//  @version         1.0
//  @description     Historical daily quotes from Baostock over HTTP.
//  @termsOfService  https://github.com/guttosm/quotegate
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/quotegate
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:5001
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        stock
//  @tag.description Historical k-line data
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/quotegate/config"
	_ "github.com/guttosm/quotegate/docs" // swagger docs
	"github.com/guttosm/quotegate/internal/app"
	"github.com/guttosm/quotegate/internal/export"
	"github.com/guttosm/quotegate/internal/logger"
	"github.com/guttosm/quotegate/internal/service"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown blocks until SIGINT or SIGTERM, then drains in-flight
// requests for up to 10 seconds.
func gracefulShutdown(ctx context.Context, server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.L().Info().Msg("server exited gracefully")
}

// runExport writes one CSV per non-empty code and returns how many files were
// written. SIGINT and SIGTERM cancel in-flight fetches.
func runExport(ctx context.Context, svc service.QuoteService, opts export.Options) (int, error) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := export.Run(sigCtx, svc, opts)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, r := range results {
		if r.Path != "" {
			written++
		}
	}
	return written, nil
}

// main is the entry point of the quotegate application.
//
// Modes (selected via --mode flag):
//   - api:    Starts the HTTP server (POST /api/stock_data and the front end).
//   - export: Fetches --codes once and writes <code>.csv files into --out.
//
// Flags:
//   - --mode:     Execution mode ("api" or "export"). Default: "api".
//   - --port:     Port for the API server. Defaults to SERVER_PORT.
//   - --codes:    Comma-separated instrument codes for export.
//   - --start:    First date (YYYY-MM-DD). Defaults to --end.
//   - --end:      Last date (YYYY-MM-DD). Defaults to today after 17:30, else yesterday.
//   - --out:      Output directory for export. Default: "./data/output".
//   - --parallel: Concurrent fetches in export (0=auto up to CPU, max 8).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api or export")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	codes := flag.String("codes", "", "Comma-separated instrument codes, e.g. sh.600000,sz.000001")
	start := flag.String("start", "", "Start date YYYY-MM-DD (default: end date)")
	end := flag.String("end", "", "End date YYYY-MM-DD (default: last published trading day)")
	out := flag.String("out", "./data/output", "Output directory for CSV files")
	parallel := flag.Int("parallel", 0, "How many codes to fetch concurrently (0=auto up to CPU, max 8)")
	flag.Parse()

	switch *mode {
	case "api":
		logger.L().Info().Msg("starting API server")

		router, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server)

	case "export":
		svc, _, err := app.InitializeService()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		startDate, endDate := service.ResolveRange(*start, *end, time.Now())

		written, err := runExport(ctx, svc, export.Options{
			Codes:     export.ParseCodes(*codes),
			StartDate: startDate,
			EndDate:   endDate,
			Dir:       *out,
			Parallel:  *parallel,
		})
		if err != nil {
			logger.L().Fatal().Err(err).Msg("export failed")
		}
		logger.L().Info().Int("files", written).Msg("export completed successfully")

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
