// Package polymarket implements read-only clients for the Polymarket data
// API (wallet positions) and CLOB API (order books), plus a WebSocket client
// for the real-time market channel.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// Client is the REST client for the Polymarket read-only APIs.
type Client struct {
	dataHost   string
	clobHost   string
	httpClient *http.Client
}

// NewClient creates a new read-only API client.
//
// dataHost is the data API root, e.g. "https://data-api.polymarket.com".
// clobHost is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClient(dataHost, clobHost string) *Client {
	return &Client{
		dataHost: dataHost,
		clobHost: clobHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// OpenPositions fetches all positions the data API reports for the wallet.
// Records that fail to parse are skipped individually.
func (c *Client) OpenPositions(ctx context.Context, wallet string) ([]domain.FeedPosition, error) {
	params := url.Values{}
	params.Set("user", strings.ToLower(wallet))

	body, err := c.doGet(ctx, c.dataHost, "/positions?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket: get positions: %w", err)
	}

	var apiPositions []APIPosition
	if err := json.Unmarshal(body, &apiPositions); err != nil {
		return nil, fmt.Errorf("polymarket: decode positions: %w", err)
	}

	positions := make([]domain.FeedPosition, 0, len(apiPositions))
	for i := range apiPositions {
		positions = append(positions, apiPositions[i].ToDomain())
	}
	return positions, nil
}

// Quote fetches the order book for a token and derives a quote from it: the
// midpoint of best bid and best ask when both exist, otherwise whichever
// single side the book has. Returns domain.ErrNoQuote when the book is empty.
func (c *Client) Quote(ctx context.Context, tokenID string) (domain.Quote, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, c.clobHost, "/book?"+params.Encode())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("polymarket: get book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(body, &book); err != nil {
		return domain.Quote{}, fmt.Errorf("polymarket: decode book %s: %w", tokenID, err)
	}

	q, err := book.ToQuote(tokenID, time.Now().UTC())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("polymarket: book %s: %w", tokenID, err)
	}
	return q, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the given host.
func (c *Client) doGet(ctx context.Context, host, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
