package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andreasrassloff-ai/darkhorse/internal/database"
	"github.com/andreasrassloff-ai/darkhorse/internal/domain"
	"github.com/rs/zerolog"
)

// Store persists downloaded bars in SQLite, keyed by (symbol, interval, timestamp).
// Timestamps are stored at second resolution in UTC.
type Store struct {
	db  *database.DB
	log zerolog.Logger
}

// OpenStore opens or creates the bar database at path and applies its schema
func OpenStore(ctx context.Context, path string, log zerolog.Logger) (*Store, error) {
	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileCache,
		Name:    "history",
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate bar store: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "bar_store").Logger(),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBars upserts bars; an existing bar with the same timestamp is replaced.
func (s *Store) SaveBars(ctx context.Context, symbol, interval string, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	err := database.WithTransaction(ctx, s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO bars (symbol, interval, ts, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(symbol, interval, ts) DO UPDATE SET
				open = excluded.open,
				high = excluded.high,
				low = excluded.low,
				close = excluded.close,
				volume = excluded.volume
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, bar := range bars {
			var volume sql.NullFloat64
			if bar.Volume != nil {
				volume = sql.NullFloat64{Float64: *bar.Volume, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				symbol, interval, bar.Date.UTC().Unix(),
				bar.Open, bar.High, bar.Low, bar.Close, volume,
			); err != nil {
				return fmt.Errorf("failed to store bar %s: %w", bar.Date.Format(time.RFC3339), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("bars", len(bars)).
		Msg("Stored bars")
	return nil
}

// LoadBars returns the most recent limit bars in ascending order (all bars when limit <= 0)
func (s *Store) LoadBars(ctx context.Context, symbol, interval string, limit int) ([]domain.PriceBar, error) {
	query := `
		SELECT ts, open, high, low, close, volume FROM (
			SELECT ts, open, high, low, close, volume FROM bars
			WHERE symbol = ? AND interval = ?
			ORDER BY ts DESC
			LIMIT ?
		) ORDER BY ts ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Conn().QueryContext(ctx, query, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		var (
			ts     int64
			bar    domain.PriceBar
			volume sql.NullFloat64
		)
		if err := rows.Scan(&ts, &bar.Open, &bar.High, &bar.Low, &bar.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bar.Date = time.Unix(ts, 0).UTC()
		if volume.Valid {
			bar.Volume = domain.Float64Ptr(volume.Float64)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bars: %w", err)
	}
	return bars, nil
}

// Source adapts the store to domain.BarSource for one series
func (s *Store) Source(symbol, interval string) domain.BarSource {
	return storeSource{store: s, symbol: symbol, interval: interval}
}

type storeSource struct {
	store    *Store
	symbol   string
	interval string
}

func (s storeSource) History(ctx context.Context, limit int) ([]domain.PriceBar, error) {
	bars, err := s.store.LoadBars(ctx, s.symbol, s.interval, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no stored bars for %s/%s", domain.ErrFeedUnavailable, s.symbol, s.interval)
	}
	return bars, nil
}

// HealthCheck verifies that the bar database is reachable and intact
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// WALCheckpoint checkpoints the bar database's write-ahead log
func (s *Store) WALCheckpoint(ctx context.Context) (database.WALStatus, error) {
	return s.db.WALCheckpoint(ctx)
}
