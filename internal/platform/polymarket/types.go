package polymarket

import (
	"strconv"
	"time"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// --------------------------------------------------------------------------
// Data API DTOs
// --------------------------------------------------------------------------

// APIPosition represents one holding as returned by the data API's
// /positions endpoint. Sizes and prices arrive as JSON numbers.
type APIPosition struct {
	Asset        string  `json:"asset"`
	ConditionID  string  `json:"conditionId"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	CurrentPrice float64 `json:"curPrice"`
	CurrentValue float64 `json:"currentValue"`
	RealizedPnL  float64 `json:"realizedPnl"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
}

// ToDomain converts an APIPosition to a domain.FeedPosition.
func (p *APIPosition) ToDomain() domain.FeedPosition {
	return domain.FeedPosition{
		TokenID:      p.Asset,
		ConditionID:  p.ConditionID,
		Outcome:      p.Outcome,
		Size:         p.Size,
		AvgPrice:     p.AvgPrice,
		CurrentPrice: p.CurrentPrice,
		RealizedPnL:  p.RealizedPnL,
	}
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBookLevel is a single price level. The CLOB API sends prices and sizes
// as decimal strings.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the /book response: bids and asks ordered best-first.
type APIBook struct {
	AssetID string         `json:"asset_id"`
	Bids    []APIBookLevel `json:"bids"`
	Asks    []APIBookLevel `json:"asks"`
}

// ToQuote derives a domain.Quote from the book. Returns domain.ErrNoQuote
// when the book has neither bids nor asks.
func (b *APIBook) ToQuote(tokenID string, ts time.Time) (domain.Quote, error) {
	q := domain.Quote{TokenID: tokenID, Time: ts}

	if len(b.Bids) > 0 {
		if bid, err := strconv.ParseFloat(b.Bids[0].Price, 64); err == nil {
			q.Bid = &bid
		}
	}
	if len(b.Asks) > 0 {
		if ask, err := strconv.ParseFloat(b.Asks[0].Price, 64); err == nil {
			q.Ask = &ask
		}
	}

	switch {
	case q.Bid != nil && q.Ask != nil:
		q.Mid = (*q.Bid + *q.Ask) / 2
	case q.Bid != nil:
		q.Mid = *q.Bid
	case q.Ask != nil:
		q.Mid = *q.Ask
	default:
		return domain.Quote{}, domain.ErrNoQuote
	}
	return q, nil
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSCommand is a subscribe/unsubscribe frame sent to the market channel.
type WSCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel"`
	Assets  []string `json:"assets_ids"`
}

// BookMessage is a full order book snapshot pushed on the "book" channel.
type BookMessage struct {
	EventType string         `json:"event_type"`
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
}

// ToQuote derives a domain.Quote from a book message, using the exchange
// timestamp (milliseconds) when it parses.
func (m *BookMessage) ToQuote() (domain.Quote, error) {
	ts := time.Now().UTC()
	if ms, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
		ts = time.UnixMilli(ms).UTC()
	}
	book := APIBook{AssetID: m.AssetID, Bids: m.Bids, Asks: m.Asks}
	return book.ToQuote(m.AssetID, ts)
}
