// Package feed bridges streaming market data into the quote cache.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polytrack/internal/domain"
	"github.com/alanyoungcy/polytrack/internal/platform/polymarket"
)

// writeTimeout bounds each cache write triggered by a streamed quote.
const writeTimeout = 5 * time.Second

// LiveQuoteFeed subscribes to book snapshots over the market WebSocket and
// writes the derived quotes into the quote cache, so reconciliation passes
// can price matched positions without a REST round trip per token.
type LiveQuoteFeed struct {
	wsURL    string
	assetIDs []string
	cache    domain.QuoteCache
	logger   *slog.Logger
}

// NewLiveQuoteFeed creates a feed warming the cache for the given outcome
// tokens.
func NewLiveQuoteFeed(wsURL string, assetIDs []string, cache domain.QuoteCache, logger *slog.Logger) *LiveQuoteFeed {
	return &LiveQuoteFeed{
		wsURL:    wsURL,
		assetIDs: assetIDs,
		cache:    cache,
		logger:   logger.With(slog.String("component", "live_quotes")),
	}
}

// Run connects, subscribes for the configured tokens, and streams quotes into
// the cache until ctx is cancelled. The underlying client reconnects with
// backoff on disconnect.
func (f *LiveQuoteFeed) Run(ctx context.Context) error {
	if len(f.assetIDs) == 0 {
		f.logger.Info("no tokens to subscribe, live quotes disabled")
		return nil
	}

	client := polymarket.NewWSClient(f.wsURL, f.assetIDs)
	client.OnQuote(func(q domain.Quote) {
		wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := f.cache.SetQuote(wctx, q); err != nil {
			f.logger.Warn("quote cache write failed",
				slog.String("token_id", q.TokenID),
				slog.String("error", err.Error()))
		}
	})

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	f.logger.Info("live quote feed subscribed", slog.Int("tokens", len(f.assetIDs)))

	<-ctx.Done()
	_ = client.Close()
	return ctx.Err()
}
