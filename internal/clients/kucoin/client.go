// Package kucoin downloads historical candles from the public KuCoin REST API.
package kucoin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultURL is the public candle endpoint
const DefaultURL = "https://api.kucoin.com/api/v1/market/candles"

const (
	successCode      = "200000"
	defaultBatchSize = 1500
	defaultPause     = 200 * time.Millisecond
)

// IntervalSeconds lists the supported candle types and their duration
var IntervalSeconds = map[string]int64{
	"1min":   60,
	"3min":   180,
	"5min":   300,
	"15min":  900,
	"30min":  1800,
	"1hour":  3600,
	"2hour":  7200,
	"4hour":  14400,
	"6hour":  21600,
	"8hour":  28800,
	"12hour": 43200,
	"1day":   86400,
	"1week":  604800,
}

// ErrUnsupportedInterval is returned for candle types KuCoin does not offer
var ErrUnsupportedInterval = errors.New("unsupported interval")

// Client for the KuCoin candle endpoint
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	batchSize int64
	pause     time.Duration
}

// Option customises a Client
type Option func(*Client)

// WithBatchPause sets the pause between consecutive requests (0 disables it)
func WithBatchPause(d time.Duration) Option {
	return func(c *Client) { c.pause = d }
}

// WithBatchSize sets the number of candles requested per call
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = int64(n)
		}
	}
}

// NewClient creates a KuCoin client; an empty baseURL selects DefaultURL
func NewClient(baseURL string, log zerolog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 20 * time.Second},
		log:       log.With().Str("client", "kucoin").Logger(),
		batchSize: defaultBatchSize,
		pause:     defaultPause,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type candleResponse struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data [][]json.RawMessage `json:"data"`
}

// Candles returns the candles of symbol between start and end (inclusive),
// sorted ascending. The range is requested in windows of at most batchSize candles.
func (c *Client) Candles(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.PriceBar, error) {
	step, ok := IntervalSeconds[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInterval, interval)
	}

	startTS := start.UTC().Unix()
	endTS := end.UTC().Unix()
	if startTS >= endTS {
		return nil, errors.New("start must be earlier than end")
	}

	var bars []domain.PriceBar
	cursor := startTS
	for cursor < endTS {
		windowEnd := min(endTS, cursor+step*c.batchSize)
		rows, err := c.request(ctx, symbol, interval, cursor, windowEnd)
		if err != nil {
			return nil, err
		}

		if len(rows) == 0 {
			cursor = windowEnd + step
			continue
		}

		// Rows arrive newest first
		for i := len(rows) - 1; i >= 0; i-- {
			bar, err := parseCandle(rows[i])
			if err != nil {
				return nil, err
			}
			ts := bar.Date.Unix()
			if ts < cursor || ts > endTS {
				continue
			}
			bars = append(bars, bar)
		}

		if newest, err := parseTimestamp(rows[0]); err == nil {
			cursor = newest + step
		} else {
			cursor = windowEnd + step
		}

		c.log.Debug().
			Str("symbol", symbol).
			Str("interval", interval).
			Int("rows", len(rows)).
			Int("total", len(bars)).
			Msg("Fetched candle batch")

		if c.pause > 0 && cursor < endTS {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pause):
			}
		}
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	c.log.Info().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("candles", len(bars)).
		Msg("Downloaded candles")
	return bars, nil
}

func (c *Client) request(ctx context.Context, symbol, interval string, startAt, endAt int64) ([][]json.RawMessage, error) {
	query := url.Values{}
	query.Set("type", interval)
	query.Set("symbol", symbol)
	query.Set("startAt", strconv.FormatInt(startAt, 10))
	query.Set("endAt", strconv.FormatInt(endAt, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: HTTP request to KuCoin failed: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	var payload candleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: could not decode KuCoin response (status %d): %v", domain.ErrFeedUnavailable, resp.StatusCode, err)
	}
	if payload.Code != successCode {
		return nil, fmt.Errorf("%w: KuCoin API returned error code %q: %s", domain.ErrFeedUnavailable, payload.Code, payload.Msg)
	}
	return payload.Data, nil
}

// parseCandle decodes [time, open, close, high, low, volume, turnover]
func parseCandle(raw []json.RawMessage) (domain.PriceBar, error) {
	if len(raw) < 5 {
		return domain.PriceBar{}, fmt.Errorf("candle entry contains too few elements: %d", len(raw))
	}

	values := make([]float64, 5)
	for i := range values {
		v, err := parseNumber(raw[i])
		if err != nil {
			return domain.PriceBar{}, fmt.Errorf("invalid numerical value in candle entry: %w", err)
		}
		values[i] = v
	}

	bar := domain.PriceBar{
		Date:  time.Unix(int64(values[0]), 0).UTC(),
		Open:  values[1],
		Close: values[2],
		High:  values[3],
		Low:   values[4],
	}
	if len(raw) >= 6 {
		if v, err := parseNumber(raw[5]); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			bar.Volume = domain.Float64Ptr(v)
		}
	}
	return bar, nil
}

func parseTimestamp(raw []json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, errors.New("empty candle")
	}
	v, err := parseNumber(raw[0])
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// parseNumber accepts both quoted and bare JSON numbers
func parseNumber(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("cannot parse %s", string(raw))
	}
	return f, nil
}
