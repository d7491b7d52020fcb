package domain

import "context"

// QuoteCache holds the most recent quote per outcome token. Entries expire so
// a stale quote never outlives the configured TTL.
type QuoteCache interface {
	SetQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, tokenID string) (Quote, error)
}
