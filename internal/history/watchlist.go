package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source selects where an entry's bars come from
type Source string

const (
	SourceFile  Source = "file"
	SourceYahoo Source = "yahoo"
)

const yahooPrefix = "yahoo:"

// Entry is one instrument to analyse
type Entry struct {
	Symbol string `json:"symbol"`
	Source Source `json:"source"`
	// Path of the JSON price file, or the Yahoo ticker for SourceYahoo
	Path string `json:"path"`
}

// DefaultPath is used for entries without an explicit path
func DefaultPath(symbol string) string {
	return filepath.Join("data", symbol+".json")
}

func newEntry(symbol, rawPath, baseDir string) (Entry, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Entry{}, errors.New("watchlist entry without symbol")
	}

	rawPath = strings.TrimSpace(rawPath)
	if strings.HasPrefix(rawPath, yahooPrefix) {
		ticker := strings.TrimSpace(strings.TrimPrefix(rawPath, yahooPrefix))
		if ticker == "" {
			ticker = symbol
		}
		return Entry{Symbol: symbol, Source: SourceYahoo, Path: ticker}, nil
	}

	if rawPath == "" {
		return Entry{Symbol: symbol, Source: SourceFile, Path: DefaultPath(symbol)}, nil
	}
	if !filepath.IsAbs(rawPath) && baseDir != "" {
		rawPath = filepath.Join(baseDir, rawPath)
	}
	return Entry{Symbol: symbol, Source: SourceFile, Path: rawPath}, nil
}

// ParseSpec parses a "SYMBOL=path" command-line argument. Without "=" the
// default path is used; relative paths stay relative to the working directory.
func ParseSpec(arg string) (Entry, error) {
	symbol, path, _ := strings.Cut(arg, "=")
	return newEntry(symbol, path, "")
}

// LoadWatchlist reads a watchlist file. Accepted shapes are a list of symbols,
// a list of {"symbol"|"wkn", "path"} objects, or an object mapping symbol to path
// or null. Relative paths resolve against the watchlist's directory.
func LoadWatchlist(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist %s: %w", path, err)
	}
	entries, err := parseWatchlist(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("watchlist %s: %w", path, err)
	}
	return entries, nil
}

func parseWatchlist(data []byte, baseDir string) ([]Entry, error) {
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}

	var entries []Entry
	add := func(symbol, rawPath string) error {
		e, err := newEntry(symbol, rawPath, baseDir)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	}

	switch v := payload.(type) {
	case []interface{}:
		for i, item := range v {
			var err error
			switch it := item.(type) {
			case string:
				err = add(it, "")
			case map[string]interface{}:
				symbol := stringField(it, "symbol")
				if symbol == "" {
					symbol = stringField(it, "wkn")
				}
				err = add(symbol, stringField(it, "path"))
			default:
				err = fmt.Errorf("%w: entry %d has an unknown format", ErrMalformed, i)
			}
			if err != nil {
				return nil, err
			}
		}
	case map[string]interface{}:
		// Preserve file order of object keys
		dec := json.NewDecoder(bytes.NewReader(data))
		keys, err := objectKeys(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for _, symbol := range keys {
			switch p := v[symbol].(type) {
			case nil:
				err = add(symbol, "")
			case string:
				err = add(symbol, p)
			default:
				err = fmt.Errorf("%w: entry for %s has an unknown format", ErrMalformed, symbol)
			}
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: watchlist must contain a list or an object", ErrMalformed)
	}

	return entries, nil
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// objectKeys returns the top-level keys of a JSON object in document order
func objectKeys(dec *json.Decoder) ([]string, error) {
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// CollectEntries combines watchlist entries (first) with direct SYMBOL=path specs
func CollectEntries(specs []string, watchlistPath string) ([]Entry, error) {
	var entries []Entry
	if watchlistPath != "" {
		loaded, err := LoadWatchlist(watchlistPath)
		if err != nil {
			return nil, err
		}
		entries = append(entries, loaded...)
	}
	for _, spec := range specs {
		e, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
