// Package export fetches quote history for several instruments and writes one
// CSV file per instrument.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/quotegate/internal/domain/models"
	"github.com/guttosm/quotegate/internal/logger"
	"github.com/guttosm/quotegate/internal/service"
)

const maxParallel = 8

// Options controls a Run.
//
// Fields:
//   - Codes: instrument codes, e.g. "sh.600000".
//   - StartDate, EndDate: inclusive range, YYYY-MM-DD.
//   - Dir: output directory, created if missing.
//   - Parallel: concurrent fetches (0 = auto up to CPU, max 8).
type Options struct {
	Codes     []string
	StartDate string
	EndDate   string
	Dir       string
	Parallel  int
}

// Result describes one written file. Path is empty when the provider
// returned no rows and nothing was written.
type Result struct {
	Code string
	Path string
	Rows int
}

// ParseCodes splits a comma-separated list, dropping blanks and duplicates.
func ParseCodes(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Run fetches every code through svc and writes <Dir>/<code>.csv for each
// non-empty result.
//
// Behavior:
//   - Fetches up to opts.Parallel codes at a time.
//   - Empty results are logged and skipped.
//   - If any fetch or write fails, cancels the rest and returns that error.
//
// Returns:
//   - []Result: one entry per code, in opts.Codes order.
//   - error: first error encountered (if any).
func Run(ctx context.Context, svc service.QuoteService, opts Options) ([]Result, error) {
	if len(opts.Codes) == 0 {
		return nil, errors.New("no instrument codes given")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", opts.Dir, err)
	}

	limit := maxParallel
	if opts.Parallel > 0 {
		limit = min(opts.Parallel, maxParallel)
	} else if c := runtime.NumCPU(); c < limit {
		limit = c
	}

	logger.L().Info().
		Int("codes", len(opts.Codes)).
		Str("start_date", opts.StartDate).
		Str("end_date", opts.EndDate).
		Int("max_parallel", limit).
		Str("dir", opts.Dir).
		Msg("export start")

	results := make([]Result, len(opts.Codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, code := range opts.Codes {
		g.Go(func() error {
			start := time.Now()
			table, err := svc.FetchHistory(gctx, code, opts.StartDate, opts.EndDate)
			if err != nil {
				logger.L().Error().Str("code", code).Err(err).Msg("export fetch failed")
				return fmt.Errorf("code %s: %w", code, err)
			}

			results[i] = Result{Code: code, Rows: table.Len()}
			if table.Len() == 0 {
				logger.L().Warn().Str("code", code).Msg("no data, skipped")
				return nil
			}

			path := filepath.Join(opts.Dir, code+".csv")
			if err := WriteFile(path, table); err != nil {
				return fmt.Errorf("code %s: %w", code, err)
			}
			results[i].Path = path

			logger.L().Info().
				Int("idx", i+1).
				Int("total", len(opts.Codes)).
				Str("code", code).
				Int("rows", table.Len()).
				Str("file", path).
				Dur("elapsed", time.Since(start)).
				Msg("export done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteFile writes table as CSV to path, replacing any existing file.
func WriteFile(path string, table *models.QuoteTable) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return WriteCSV(f, table)
}

// WriteCSV writes a header row of table.Fields followed by one row per
// record. Missing numbers are written as empty cells.
func WriteCSV(w io.Writer, table *models.QuoteTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Fields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range table.Records {
		if err := cw.Write(rec.Strings()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
