package tracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// BookSource fetches a live quote for one outcome token.
type BookSource interface {
	Quote(ctx context.Context, tokenID string) (domain.Quote, error)
}

// QuoteResolver resolves the freshest obtainable quote for a token: live
// order book first (written through to the cache), then the cached quote.
// When neither yields anything the caller falls back to the feed's reported
// price. Per-token failures are logged and never abort sibling lookups.
type QuoteResolver struct {
	books  BookSource
	cache  domain.QuoteCache
	logger *slog.Logger
}

// NewQuoteResolver creates a resolver. Either source may be nil, which
// disables that tier.
func NewQuoteResolver(books BookSource, cache domain.QuoteCache, logger *slog.Logger) *QuoteResolver {
	return &QuoteResolver{
		books:  books,
		cache:  cache,
		logger: logger.With(slog.String("component", "quotes")),
	}
}

// Resolve returns the best available quote for tokenID and whether one was
// found.
func (r *QuoteResolver) Resolve(ctx context.Context, tokenID string) (domain.Quote, bool) {
	if r.books != nil {
		q, err := r.books.Quote(ctx, tokenID)
		if err == nil {
			if r.cache != nil {
				if cerr := r.cache.SetQuote(ctx, q); cerr != nil {
					r.logger.Warn("quote cache write failed",
						slog.String("token_id", tokenID),
						slog.String("error", cerr.Error()))
				}
			}
			return q, true
		}
		if !errors.Is(err, domain.ErrNoQuote) {
			r.logger.Warn("book lookup failed",
				slog.String("token_id", tokenID),
				slog.String("error", err.Error()))
		}
	}

	if r.cache != nil {
		q, err := r.cache.GetQuote(ctx, tokenID)
		if err == nil {
			return q, true
		}
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("quote cache read failed",
				slog.String("token_id", tokenID),
				slog.String("error", err.Error()))
		}
	}

	return domain.Quote{}, false
}
