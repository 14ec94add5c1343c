//go:build integration

package baostock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guttosm/quotegate/internal/domain/models"
	"github.com/guttosm/quotegate/internal/provider"
)

// TestClient_LiveHistory hits the public Baostock endpoint.
// Run with: go test -tags=integration ./internal/provider/baostock/...
func TestClient_LiveHistory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c := NewClient(DefaultAddr)
	if err := c.Ping(ctx); err != nil {
		t.Skipf("baostock unreachable: %v", err)
	}

	sess, err := c.Login(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, sess.Logout(context.Background())) }()

	rs, err := sess.QueryHistory(ctx, provider.HistoryQuery{
		Code:       "sh.600000",
		Fields:     models.QuoteFields,
		StartDate:  "2024-01-02",
		EndDate:    "2024-01-05",
		Frequency:  "d",
		AdjustFlag: "3",
	})
	require.NoError(t, err)

	var rows [][]string
	for rs.Next(ctx) {
		rows = append(rows, rs.Row())
	}
	require.NoError(t, rs.Err())
	require.Len(t, rows, 4)
	require.Equal(t, "2024-01-02", rows[0][0])
	require.Len(t, rows[0], len(models.QuoteFields))
}
