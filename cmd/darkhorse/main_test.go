package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/andreasrassloff-ai/darkhorse/internal/history"
)

func risingBars(n int) []domain.PriceBar {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, n)
	price := 100.0
	for i := range bars {
		bars[i] = domain.PriceBar{Date: day.AddDate(0, 0, i), Open: price, High: price * 1.01, Low: price * 0.99, Close: price}
		price *= 1.03
	}
	return bars
}

func writePriceFile(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.json")
	require.NoError(t, history.Save(path, risingBars(n)))
	return path
}

func runCommand(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DARKHORSE_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCommand(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: darkhorse")

	code, stdout, _ := runCommand(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "commands:")

	code, _, stderr = runCommand(t, "launch")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "launch"`)
}

func TestRun_InvalidConfiguration(t *testing.T) {
	t.Setenv("DARKHORSE_PORT", "0")
	code, _, stderr := runCommand(t, "analyse")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "configuration error")
}

func TestAnalyse_DataFile(t *testing.T) {
	path := writePriceFile(t, 80)

	code, stdout, stderr := runCommand(t, "analyse", "--data", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Analysis for Monero (XMR)")
	assert.Contains(t, stdout, "Recommendation: Buy")
	assert.Contains(t, stdout, "Reasons:")
}

func TestAnalyse_FailuresExitNonZero(t *testing.T) {
	good := writePriceFile(t, 80)
	missing := filepath.Join(t.TempDir(), "missing.json")

	code, stdout, stderr := runCommand(t, "analyse",
		"--symbol", "GOOD="+good,
		"--symbol", "GONE="+missing,
	)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Analysis for GOOD")
	assert.NotContains(t, stdout, "Monero")
	assert.Contains(t, stderr, "GONE: no price data found")
}

func TestAnalyse_ShortHistory(t *testing.T) {
	path := writePriceFile(t, 30)

	code, _, stderr := runCommand(t, "analyse", "--data", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not enough price history")

	code, stdout, _ := runCommand(t, "analyse", "--data", path, "--min-history", "20")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Analysis for Monero (XMR)")
}

func TestAnalyse_BadFlags(t *testing.T) {
	code, _, _ := runCommand(t, "analyse", "--min-history", "0")
	assert.Equal(t, 2, code)

	code, _, _ = runCommand(t, "analyse", "--bogus")
	assert.Equal(t, 2, code)
}

func TestTrade_OfflineReplay(t *testing.T) {
	path := writePriceFile(t, 80)

	code, stdout, stderr := runCommand(t, "trade",
		"--offline", "--data", path,
		"--iterations", "1", "--interval", "0s",
	)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Starting live demo: rebalancing the portfolio dynamically between XMR and USD.")
	assert.Contains(t, stdout, "Final state of the demo:")
	assert.Contains(t, stdout, "Trade summary:")
}

func TestTrade_OfflineWithoutData(t *testing.T) {
	code, _, stderr := runCommand(t, "trade",
		"--offline", "--data", filepath.Join(t.TempDir(), "missing.json"),
		"--iterations", "1",
	)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to prepare the price replay")
}

func TestTrade_InvalidParameters(t *testing.T) {
	path := writePriceFile(t, 80)

	code, _, stderr := runCommand(t, "trade", "--offline", "--data", path, "--history-limit", "10")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid trading parameters")
}

func TestTrade_ReplaysStore(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "bars.db")

	store, err := history.OpenStore(context.Background(), storePath, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.SaveBars(context.Background(), "XMR-USDT", "1hour", risingBars(80)))
	require.NoError(t, store.Close())

	code, stdout, stderr := runCommand(t, "trade",
		"--offline", "--store", storePath,
		"--iterations", "1", "--interval", "0s",
	)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Price:")
}

// kucoinServer answers candle requests with one candle per hour, newest first
func kucoinServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startAt, _ := strconv.ParseInt(r.URL.Query().Get("startAt"), 10, 64)
		endAt, _ := strconv.ParseInt(r.URL.Query().Get("endAt"), 10, 64)

		var rows [][]string
		for ts := endAt; ts >= startAt; ts -= 3600 {
			price := fmt.Sprintf("%d", 100+(ts-startAt)/3600)
			rows = append(rows, []string{strconv.FormatInt(ts, 10), price, price, price, price, "12.5", "1250"})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": "200000", "data": rows})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_WritesFileAndStore(t *testing.T) {
	server := kucoinServer(t)
	t.Setenv("DARKHORSE_KUCOIN_URL", server.URL)

	dir := t.TempDir()
	output := filepath.Join(dir, "out", "xmr.json")
	storePath := filepath.Join(dir, "bars.db")

	code, stdout, stderr := runCommand(t, "fetch",
		"--interval", "1hour",
		"--start", "2024-01-01",
		"--end", "2024-01-01T05:00:00Z",
		"--output", output,
		"--store", storePath,
		"--no-sleep",
	)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "(6 candles, 1hour)")

	bars, err := history.Load(output)
	require.NoError(t, err)
	require.Len(t, bars, 6)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Date.UTC())
	assert.Equal(t, 105.0, bars[5].Close)

	store, err := history.OpenStore(context.Background(), storePath, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.LoadBars(context.Background(), "XMR-USDT", "1hour", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 6)
}

func TestFetch_RejectsBadArguments(t *testing.T) {
	code, _, stderr := runCommand(t, "fetch", "--interval", "7min")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unsupported interval")

	code, _, stderr = runCommand(t, "fetch", "--start", "2024-02-01", "--end", "2024-01-01")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "must be before end")
}

func TestFetchRange(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	from, to, err := fetchRange("", "", 1, now)
	require.NoError(t, err)
	assert.Equal(t, now, to)
	assert.Equal(t, now.AddDate(0, 0, -365), from)

	from, to, err = fetchRange("2024-01-01T06:30", "2024-01-02", 2, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), to)

	_, _, err = fetchRange("yesterday", "", 1, now)
	assert.Error(t, err)
}
