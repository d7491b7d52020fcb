package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Each token's
// quote is stored at key "quote:{tokenID}" with fields "bid", "ask", "mid",
// and "ts" (Unix nanosecond timestamp). Keys expire after the configured TTL
// so a dead feed cannot serve stale prices forever.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client. A zero ttl
// disables expiry.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.rdb, ttl: ttl}
}

func quoteKey(tokenID string) string {
	return "quote:" + tokenID
}

// SetQuote stores the latest quote for a token.
func (qc *QuoteCache) SetQuote(ctx context.Context, q domain.Quote) error {
	key := quoteKey(q.TokenID)
	fields := map[string]interface{}{
		"mid": strconv.FormatFloat(q.Mid, 'f', -1, 64),
		"ts":  strconv.FormatInt(q.Time.UnixNano(), 10),
	}
	if q.Bid != nil {
		fields["bid"] = strconv.FormatFloat(*q.Bid, 'f', -1, 64)
	}
	if q.Ask != nil {
		fields["ask"] = strconv.FormatFloat(*q.Ask, 'f', -1, 64)
	}

	pipe := qc.rdb.TxPipeline()
	pipe.Del(ctx, key) // clear a possibly one-sided previous quote
	pipe.HSet(ctx, key, fields)
	if qc.ttl > 0 {
		pipe.Expire(ctx, key, qc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", q.TokenID, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for a token. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (qc *QuoteCache) GetQuote(ctx context.Context, tokenID string) (domain.Quote, error) {
	key := quoteKey(tokenID)
	vals, err := qc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", tokenID, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}

	q := domain.Quote{TokenID: tokenID}

	midStr, ok := vals["mid"]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	q.Mid, err = strconv.ParseFloat(midStr, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse mid %s: %w", tokenID, err)
	}

	if bidStr, ok := vals["bid"]; ok {
		if bid, err := strconv.ParseFloat(bidStr, 64); err == nil {
			q.Bid = &bid
		}
	}
	if askStr, ok := vals["ask"]; ok {
		if ask, err := strconv.ParseFloat(askStr, 64); err == nil {
			q.Ask = &ask
		}
	}
	if tsStr, ok := vals["ts"]; ok {
		if tsNano, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			q.Time = time.Unix(0, tsNano).UTC()
		}
	}

	return q, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
