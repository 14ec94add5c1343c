package service

import (
	"context"
	"time"

	"github.com/guttosm/quotegate/internal/domain/models"
	"github.com/guttosm/quotegate/internal/logger"
	"github.com/guttosm/quotegate/internal/provider"
)

const (
	dailyFrequency = "d"
	// unadjustedPrices asks the provider for raw (non-adjusted) prices.
	unadjustedPrices = "3"

	// defaultLogoutTimeout bounds the logout round trip, which runs detached
	// from the request context.
	defaultLogoutTimeout = 5 * time.Second
)

// QuoteService fetches historical quotes for one instrument.
//
// FetchHistory returns a table (possibly with zero records) or an error. A
// *FetchError means the provider rejected the login or the query.
type QuoteService interface {
	FetchHistory(ctx context.Context, code, startDate, endDate string) (*models.QuoteTable, error)
}

type quoteService struct {
	provider      provider.Provider
	logoutTimeout time.Duration
}

// NewQuoteService returns a QuoteService that opens one provider session per call.
func NewQuoteService(p provider.Provider) QuoteService {
	return &quoteService{provider: p, logoutTimeout: defaultLogoutTimeout}
}

// FetchHistory logs in, queries daily k-lines for [startDate, endDate], drains
// every page and logs out. The session is closed on every path once login
// succeeded; logout failures are logged, not returned.
func (s *quoteService) FetchHistory(ctx context.Context, code, startDate, endDate string) (*models.QuoteTable, error) {
	start := time.Now()

	sess, err := s.provider.Login(ctx)
	if err != nil {
		logger.L().Error().Err(err).Str("code", code).Msg("provider login failed")
		return nil, &FetchError{Kind: KindLogin, Err: err}
	}
	defer s.logout(ctx, sess, code)

	rs, err := sess.QueryHistory(ctx, provider.HistoryQuery{
		Code:       code,
		Fields:     models.QuoteFields,
		StartDate:  startDate,
		EndDate:    endDate,
		Frequency:  dailyFrequency,
		AdjustFlag: unadjustedPrices,
	})
	if err != nil {
		logger.L().Error().Err(err).Str("code", code).Msg("provider query failed")
		return nil, &FetchError{Kind: KindQuery, Err: err}
	}

	var rows [][]string
	for rs.Next(ctx) {
		rows = append(rows, rs.Row())
	}
	if err := rs.Err(); err != nil {
		logger.L().Error().Err(err).Str("code", code).Int("rows", len(rows)).Msg("provider query failed while paging")
		return nil, &FetchError{Kind: KindQuery, Err: err}
	}

	fields := rs.Fields()
	if len(fields) == 0 {
		fields = models.QuoteFields
	}
	table := models.NewQuoteTable(fields, rows, models.NumericFields)

	logRange(code, startDate, endDate, table, time.Since(start))
	return table, nil
}

// logout closes sess even when ctx is already done, giving the round trip at
// most logoutTimeout.
func (s *quoteService) logout(ctx context.Context, sess provider.Session, code string) {
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logoutTimeout)
	defer cancel()
	if err := sess.Logout(lctx); err != nil {
		logger.L().Warn().Err(err).Str("code", code).Msg("provider logout failed")
	}
}

// logRange records the requested and returned bounds. Providers omit
// non-trading days, so a narrower returned range is expected.
func logRange(code, startDate, endDate string, table *models.QuoteTable, elapsed time.Duration) {
	ev := logger.L().Info().
		Str("code", code).
		Str("requested_start", startDate).
		Str("requested_end", endDate).
		Int("records", table.Len()).
		Dur("elapsed", elapsed)
	if first, last := table.DateRange(); first != "" {
		ev = ev.Str("returned_start", first).
			Str("returned_end", last).
			Bool("range_narrowed", first != startDate || last != endDate)
	}
	ev.Msg("history fetched")

	if table.CoercedCells > 0 {
		logger.L().Warn().
			Str("code", code).
			Int("cells", table.CoercedCells).
			Strs("columns", models.NumericFields).
			Msg("non-numeric cells replaced with missing values")
	}
}
