package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		hasFeedRecord  bool
		marketResolved bool
		want           closeAction
	}{
		{"present in feed", true, false, stayOpen},
		{"present in feed, market resolved", true, true, stayOpen},
		{"absent, market resolved", false, true, closeResolved},
		{"absent, market live", false, false, closeManual},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, classify(tt.hasFeedRecord, tt.marketResolved))
		})
	}
}

func TestApplyMatchedPartialFill(t *testing.T) {
	t.Parallel()

	pos := domain.Position{
		Shares:     100,
		EntryPrice: 0.50,
		CostBasis:  50,
		Status:     domain.PositionStatusOpen,
	}
	rec := domain.FeedPosition{Size: 40, CurrentPrice: 0.55}

	partial := applyMatched(&pos, rec, 0.55)

	require.True(t, partial)
	assert.InDelta(t, 40, pos.Shares, 1e-9)
	assert.InDelta(t, 20, pos.CostBasis, 1e-9)
	assert.InDelta(t, 0.50, pos.EntryPrice, 1e-9, "entry price must not change")
	assert.InDelta(t, 0.55, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 40*0.55, pos.CurrentValue, 1e-9)
	assert.InDelta(t, 40*0.55-20, pos.UnrealizedPnL, 1e-9)
}

func TestApplyMatchedSizeWithinTolerance(t *testing.T) {
	t.Parallel()

	pos := domain.Position{Shares: 100, CostBasis: 50}
	rec := domain.FeedPosition{Size: 100.004}

	partial := applyMatched(&pos, rec, 0.60)

	assert.False(t, partial)
	assert.InDelta(t, 100, pos.Shares, 1e-9)
	assert.InDelta(t, 50, pos.CostBasis, 1e-9)
	assert.InDelta(t, 60, pos.CurrentValue, 1e-9)
}

func TestApplyMatchedInvariant(t *testing.T) {
	t.Parallel()

	pos := domain.Position{Shares: 12.5, CostBasis: 4.1}
	applyMatched(&pos, domain.FeedPosition{Size: 12.5}, 0.37)

	assert.InDelta(t, pos.Shares*pos.CurrentPrice, pos.CurrentValue, 1e-9)
	assert.InDelta(t, pos.CurrentValue-pos.CostBasis, pos.UnrealizedPnL, 1e-9)
}

func TestCloseAsResolvedWin(t *testing.T) {
	t.Parallel()

	resolvedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	outcome := "yes"
	m := domain.Market{ResolvedAt: &resolvedAt, ResolutionOutcome: &outcome}
	pos := domain.Position{
		Direction: domain.DirectionYes,
		Shares:    10,
		CostBasis: 4,
		Status:    domain.PositionStatusOpen,
	}

	closeAsResolved(&pos, m, time.Now().UTC())

	assert.Equal(t, domain.PositionStatusClosed, pos.Status)
	require.NotNil(t, pos.ExitPrice)
	assert.InDelta(t, 1, *pos.ExitPrice, 1e-9)
	require.NotNil(t, pos.RealizedPnL)
	assert.InDelta(t, 6, *pos.RealizedPnL, 1e-9)
	require.NotNil(t, pos.ExitDate)
	assert.Equal(t, resolvedAt, *pos.ExitDate)
	assert.Zero(t, pos.CurrentValue)
	assert.Zero(t, pos.UnrealizedPnL)
}

func TestCloseAsResolvedLoss(t *testing.T) {
	t.Parallel()

	outcome := "no"
	endDate := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	m := domain.Market{EndDate: &endDate, ResolutionOutcome: &outcome}
	pos := domain.Position{
		Direction: domain.DirectionYes,
		Shares:    10,
		CostBasis: 4,
	}

	closeAsResolved(&pos, m, time.Now().UTC())

	require.NotNil(t, pos.ExitPrice)
	assert.InDelta(t, 0, *pos.ExitPrice, 1e-9)
	require.NotNil(t, pos.RealizedPnL)
	assert.InDelta(t, -4, *pos.RealizedPnL, 1e-9)
	require.NotNil(t, pos.ExitDate)
	assert.Equal(t, endDate, *pos.ExitDate)
}

func TestCloseAsResolvedUnknownOutcome(t *testing.T) {
	t.Parallel()

	endDate := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	m := domain.Market{EndDate: &endDate}
	pos := domain.Position{
		Direction:    domain.DirectionNo,
		Shares:       10,
		CostBasis:    4,
		CurrentPrice: 0.45,
	}

	now := time.Now().UTC()
	closeAsResolved(&pos, m, now)

	// Unknown outcome settles at the last observed price.
	require.NotNil(t, pos.ExitPrice)
	assert.InDelta(t, 0.45, *pos.ExitPrice, 1e-9)
	require.NotNil(t, pos.RealizedPnL)
	assert.InDelta(t, 10*0.45-4, *pos.RealizedPnL, 1e-9)
}

func TestCloseAsManual(t *testing.T) {
	t.Parallel()

	pos := domain.Position{
		Shares:       20,
		CostBasis:    5,
		CurrentPrice: 0.30,
		Status:       domain.PositionStatusOpen,
	}

	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	closeAsManual(&pos, now)

	assert.Equal(t, domain.PositionStatusClosed, pos.Status)
	require.NotNil(t, pos.ExitPrice)
	assert.InDelta(t, 0.30, *pos.ExitPrice, 1e-9)
	require.NotNil(t, pos.RealizedPnL)
	assert.InDelta(t, 1, *pos.RealizedPnL, 1e-9)
	require.NotNil(t, pos.ExitDate)
	assert.Equal(t, now, *pos.ExitDate)
	require.NotNil(t, pos.ExitReasoning)
	assert.NotEmpty(t, *pos.ExitReasoning)
	assert.Zero(t, pos.CurrentValue)
	assert.Zero(t, pos.UnrealizedPnL)
}

func TestDailyPnL(t *testing.T) {
	t.Parallel()

	t.Run("no prior snapshot", func(t *testing.T) {
		t.Parallel()
		pnl, pct := dailyPnL(nil, 1000)
		assert.Nil(t, pnl)
		assert.Nil(t, pct)
	})

	t.Run("prior total not positive", func(t *testing.T) {
		t.Parallel()
		prev := &domain.PortfolioSnapshot{TotalValue: 0}
		pnl, pct := dailyPnL(prev, 1000)
		assert.Nil(t, pnl)
		assert.Nil(t, pct)
	})

	t.Run("gain", func(t *testing.T) {
		t.Parallel()
		prev := &domain.PortfolioSnapshot{TotalValue: 1000}
		pnl, pct := dailyPnL(prev, 1050)
		require.NotNil(t, pnl)
		require.NotNil(t, pct)
		assert.InDelta(t, 50, *pnl, 1e-9)
		assert.InDelta(t, 5.0, *pct, 1e-9)
	})
}
