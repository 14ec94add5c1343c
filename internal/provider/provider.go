package provider

import "context"

// HistoryQuery describes a single historical k-line request.
//
// Fields:
//   - Code: exchange-prefixed instrument code (e.g., "sh.600000").
//   - Fields: columns requested from the provider, in output order.
//   - StartDate / EndDate: inclusive bounds in YYYY-MM-DD format.
//   - Frequency: bar frequency ("d" for daily).
//   - AdjustFlag: price adjustment mode ("3" = unadjusted).
type HistoryQuery struct {
	Code       string
	Fields     []string
	StartDate  string
	EndDate    string
	Frequency  string
	AdjustFlag string
}

// Provider opens sessions against an external market-data source.
//
//go:generate mockgen -source=provider.go -destination=providermock/mock_provider.go -package=providermock
type Provider interface {
	Login(ctx context.Context) (Session, error)
}

// Session is a logged-in connection to the provider. It must be closed with
// Logout once the caller is done with it.
type Session interface {
	QueryHistory(ctx context.Context, q HistoryQuery) (ResultSet, error)
	Logout(ctx context.Context) error
}

// ResultSet is a forward-only cursor over the rows of a query. Pages are
// fetched transparently by Next; Err reports the failure that stopped it.
type ResultSet interface {
	Fields() []string
	Next(ctx context.Context) bool
	Row() []string
	Err() error
}

// Error is a failure reported by the provider, or raised by the client
// before a request was sent. Msg is the provider-facing message.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Msg
	}
	return e.Msg + " (code " + e.Code + ")"
}
