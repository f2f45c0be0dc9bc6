// Package history loads, stores and validates OHLCV price histories.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
)

// ErrMalformed is wrapped by every parse failure of a price file
var ErrMalformed = errors.New("malformed price history")

// dateLayouts are tried in order; date-only values are midnight UTC
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Load reads a JSON price file and returns its bars sorted ascending by date.
// The file holds either a list of bar objects or {"prices": [...]}.
func Load(path string) ([]domain.PriceBar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price history %s: %w", path, err)
	}
	bars, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// Parse decodes a price history document
func Parse(data []byte) ([]domain.PriceBar, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}

	var records []interface{}
	switch v := payload.(type) {
	case []interface{}:
		records = v
	case map[string]interface{}:
		raw, ok := v["prices"]
		if !ok || raw == nil {
			return nil, fmt.Errorf("%w: document must be a list of price bars or contain a 'prices' key", ErrMalformed)
		}
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: 'prices' entry must be a list of objects", ErrMalformed)
		}
		records = list
	default:
		return nil, fmt.Errorf("%w: unexpected JSON structure", ErrMalformed)
	}

	bars := make([]domain.PriceBar, 0, len(records))
	for i, rec := range records {
		row, ok := rec.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: entry %d is not an object", ErrMalformed, i)
		}
		bar, err := parseBar(row)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid entry at index %d: %v", ErrMalformed, i, err)
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}

func parseBar(row map[string]interface{}) (domain.PriceBar, error) {
	rawDate, ok := row["date"]
	if !ok {
		return domain.PriceBar{}, errors.New("no 'date' specified")
	}
	date, err := parseDate(fmt.Sprint(rawDate))
	if err != nil {
		return domain.PriceBar{}, err
	}

	bar := domain.PriceBar{Date: date}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
	}
	for _, f := range fields {
		v, err := parseFloat(row[f.name])
		if err != nil {
			return domain.PriceBar{}, fmt.Errorf("field '%s': %w", f.name, err)
		}
		if v == nil {
			return domain.PriceBar{}, fmt.Errorf("missing value for '%s'", f.name)
		}
		*f.dst = *v
	}

	volume, err := parseFloat(row["volume"])
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("field 'volume': %w", err)
	}
	bar.Volume = volume
	return bar, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", value)
}

// parseFloat accepts JSON numbers and numeric strings (comma decimal allowed).
// Missing, null and blank values yield nil.
func parseFloat(value interface{}) (*float64, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return &f, nil
	case float64:
		return &v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot interpret %q as number", v)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("cannot interpret %v as number", v)
	}
}

type barRecord struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume"`
}

type document struct {
	Prices []barRecord `json:"prices"`
}

// Save writes bars as an indented {"prices": [...]} document, creating parent directories
func Save(path string, bars []domain.PriceBar) error {
	doc := document{Prices: make([]barRecord, len(bars))}
	for i, bar := range bars {
		doc.Prices[i] = barRecord{
			Date:   bar.Date.UTC().Format(time.RFC3339),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode price history: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write price history %s: %w", path, err)
	}
	return nil
}

// ValidateEnoughData fails with a *domain.InsufficientHistoryError when bars has fewer than minimum entries
func ValidateEnoughData(bars []domain.PriceBar, minimum int) error {
	return domain.ValidateEnoughData(bars, minimum)
}

// LatestDate returns the most recent bar date, or nil for an empty history
func LatestDate(bars []domain.PriceBar) *time.Time {
	return domain.MostRecentDate(bars)
}
