// Package coingecko fetches recent minute prices from the CoinGecko market chart API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultURL is the Monero market chart endpoint
const DefaultURL = "https://api.coingecko.com/api/v3/coins/monero/market_chart"

// Client for the CoinGecko market_chart endpoint
type Client struct {
	baseURL    string
	vsCurrency string
	client     *http.Client
	log        zerolog.Logger
}

// NewClient creates a market chart client. An empty baseURL selects DefaultURL
// and an empty vsCurrency selects "usd".
func NewClient(baseURL, vsCurrency string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &Client{
		baseURL:    baseURL,
		vsCurrency: strings.ToLower(vsCurrency),
		client:     &http.Client{Timeout: 15 * time.Second},
		log:        log.With().Str("client", "coingecko").Logger(),
	}
}

type marketChart struct {
	Prices []json.RawMessage `json:"prices"`
}

// MinuteBars returns the last limit minute prices of the past day as bars with
// OHLC equal to the price and no volume. Every failure wraps domain.ErrFeedUnavailable.
func (c *Client) MinuteBars(ctx context.Context, limit int) ([]domain.PriceBar, error) {
	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("days", "1")
	query.Set("interval", "minute")
	reqURL := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", reqURL).Int("limit", limit).Msg("Fetching market chart")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: could not download live data: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d from API", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	var chart marketChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("%w: received malformed JSON payload: %v", domain.ErrFeedUnavailable, err)
	}
	if chart.Prices == nil {
		return nil, fmt.Errorf("%w: API response does not contain a 'prices' list", domain.ErrFeedUnavailable)
	}

	entries := chart.Prices
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	bars := make([]domain.PriceBar, 0, len(entries))
	for _, raw := range entries {
		bar, err := parseEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: API response did not return any price entries", domain.ErrFeedUnavailable)
	}

	c.log.Debug().Int("bars", len(bars)).Float64("last_price", bars[len(bars)-1].Close).Msg("Fetched minute bars")
	return bars, nil
}

func parseEntry(raw json.RawMessage) (domain.PriceBar, error) {
	var pair []float64
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return domain.PriceBar{}, fmt.Errorf("unexpected price entry structure: %s", string(raw))
	}

	ts := time.UnixMilli(int64(pair[0])).UTC()
	price := pair[1]
	return domain.PriceBar{
		Date:  ts,
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
	}, nil
}
