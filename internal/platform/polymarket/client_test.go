package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

func TestOpenPositionsLowercasesWallet(t *testing.T) {
	t.Parallel()

	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.URL.Query().Get("user")
		w.Write([]byte(`[
			{"asset":"tok1","conditionId":"c1","outcome":"Yes","size":25,"avgPrice":0.2,"curPrice":0.35,"realizedPnl":1.5}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	positions, err := c.OpenPositions(context.Background(), "0xABCdef")
	require.NoError(t, err)

	assert.Equal(t, "0xabcdef", gotUser)
	require.Len(t, positions, 1)
	assert.Equal(t, "tok1", positions[0].TokenID)
	assert.Equal(t, "Yes", positions[0].Outcome)
	assert.InDelta(t, 25, positions[0].Size, 1e-9)
	assert.InDelta(t, 0.2, positions[0].AvgPrice, 1e-9)
	assert.InDelta(t, 0.35, positions[0].CurrentPrice, 1e-9)
	assert.InDelta(t, 1.5, positions[0].RealizedPnL, 1e-9)
}

func TestQuoteMidpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok1", r.URL.Query().Get("token_id"))
		w.Write([]byte(`{
			"asset_id":"tok1",
			"bids":[{"price":"0.40","size":"100"},{"price":"0.39","size":"50"}],
			"asks":[{"price":"0.44","size":"80"}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	q, err := c.Quote(context.Background(), "tok1")
	require.NoError(t, err)

	require.NotNil(t, q.Bid)
	require.NotNil(t, q.Ask)
	assert.InDelta(t, 0.40, *q.Bid, 1e-9)
	assert.InDelta(t, 0.44, *q.Ask, 1e-9)
	assert.InDelta(t, 0.42, q.Mid, 1e-9)

	spread := q.Spread()
	require.NotNil(t, spread)
	assert.InDelta(t, 0.04, *spread, 1e-9)
}

func TestQuoteSingleSideFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantMid float64
	}{
		{"bid only", `{"bids":[{"price":"0.40","size":"10"}],"asks":[]}`, 0.40},
		{"ask only", `{"bids":[],"asks":[{"price":"0.44","size":"10"}]}`, 0.44},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, srv.URL)
			q, err := c.Quote(context.Background(), "tok1")
			require.NoError(t, err)
			assert.InDelta(t, tt.wantMid, q.Mid, 1e-9)
			assert.Nil(t, q.Spread())
		})
	}
}

func TestQuoteEmptyBook(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":[],"asks":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	_, err := c.Quote(context.Background(), "tok1")
	assert.ErrorIs(t, err, domain.ErrNoQuote)
}

func TestDoGetStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, srv.URL)
			_, err := c.OpenPositions(context.Background(), "0xwallet")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBookMessageToQuote(t *testing.T) {
	t.Parallel()

	msg := BookMessage{
		EventType: "book",
		AssetID:   "tok1",
		Bids:      []APIBookLevel{{Price: "0.30", Size: "10"}},
		Asks:      []APIBookLevel{{Price: "0.34", Size: "5"}},
		Timestamp: "1750000000000",
	}

	q, err := msg.ToQuote()
	require.NoError(t, err)
	assert.Equal(t, "tok1", q.TokenID)
	assert.InDelta(t, 0.32, q.Mid, 1e-9)
	assert.Equal(t, time.UnixMilli(1750000000000).UTC(), q.Time)
}
