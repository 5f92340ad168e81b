package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/headline-goat/hlg-stats/internal/stats"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

var _ Source = (*SQLiteStore)(nil)

// schema matches the tracking service's database so a fresh file can be
// opened; hlg-stats itself never writes events.
const schema = `
CREATE TABLE IF NOT EXISTS tests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    variants TEXT NOT NULL,
    weights TEXT,
    conversion_goal TEXT,
    state TEXT NOT NULL DEFAULT 'running',
    winner_variant INTEGER,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_tests_name ON tests(name);
CREATE INDEX IF NOT EXISTS idx_tests_state ON tests(state);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    test_name TEXT NOT NULL,
    variant INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (test_name) REFERENCES tests(name)
);

CREATE INDEX IF NOT EXISTS idx_events_test ON events(test_name);
CREATE INDEX IF NOT EXISTS idx_events_test_event ON events(test_name, event_type);
CREATE UNIQUE INDEX IF NOT EXISTS idx_events_dedup ON events(test_name, visitor_id, event_type);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Readers must not block the tracking service's writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const experimentColumns = `id, name, variants, conversion_goal, state, winner_variant, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (*Experiment, error) {
	var exp Experiment
	var variantsJSON string
	var goal sql.NullString
	var winnerVariant sql.NullInt64
	var createdAt, updatedAt int64

	if err := row.Scan(&exp.ID, &exp.Name, &variantsJSON, &goal, &exp.State, &winnerVariant, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(variantsJSON), &exp.Variants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
	}

	exp.ConversionGoal = goal.String
	if winnerVariant.Valid {
		w := int(winnerVariant.Int64)
		exp.WinnerVariant = &w
	}

	exp.CreatedAt = time.Unix(createdAt, 0)
	exp.UpdatedAt = time.Unix(updatedAt, 0)

	return &exp, nil
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, name string) (*Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM tests WHERE name = ?`, name,
	)

	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}

	return exp, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+experimentColumns+` FROM tests ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, exp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	return experiments, nil
}

// GetVariantStats counts distinct visitors per variant and event type.
func (s *SQLiteStore) GetVariantStats(ctx context.Context, name string) ([]VariantStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			variant,
			COUNT(DISTINCT CASE WHEN event_type = ? THEN visitor_id END) as views,
			COUNT(DISTINCT CASE WHEN event_type = ? THEN visitor_id END) as conversions
		FROM events
		WHERE test_name = ?
		GROUP BY variant
		ORDER BY variant
	`, EventView, EventConvert, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant stats: %w", err)
	}
	defer rows.Close()

	var result []VariantStats
	for rows.Next() {
		var vs VariantStats
		if err := rows.Scan(&vs.Variant, &vs.Views, &vs.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		result = append(result, vs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get variant stats: %w", err)
	}

	return result, nil
}

// Observations merges the experiment's variant names with its counts.
// Variants without events get zero counts; events for unknown variant
// indexes are ignored.
func (s *SQLiteStore) Observations(ctx context.Context, name string) ([]stats.VariantObservation, error) {
	exp, err := s.GetExperiment(ctx, name)
	if err != nil {
		return nil, err
	}

	variantStats, err := s.GetVariantStats(ctx, name)
	if err != nil {
		return nil, err
	}

	observations := make([]stats.VariantObservation, len(exp.Variants))
	for i, v := range exp.Variants {
		observations[i].Name = v
	}
	for _, vs := range variantStats {
		if vs.Variant < 0 || vs.Variant >= len(observations) {
			continue
		}
		observations[vs.Variant].Views = vs.Views
		observations[vs.Variant].Conversions = vs.Conversions
	}

	return observations, nil
}

// DB returns the underlying database connection
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
