// Package store persists small local preferences, currently the last
// applied custom date range. Convenience state only; losing it is never a
// correctness problem.
package store

import (
	"database/sql"
	"time"
)

// EnsureSchema creates the preference table if it doesn't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS saved_ranges (
  key TEXT PRIMARY KEY,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := db.Exec(schema)
	return err
}

// RangeStore reads and writes saved date ranges keyed by name.
type RangeStore struct{ db *sql.DB }

func NewRangeStore(db *sql.DB) *RangeStore { return &RangeStore{db: db} }

func (s *RangeStore) SaveRange(key string, start, end time.Time) error {
	_, err := s.db.Exec(`
INSERT INTO saved_ranges (key, start_date, end_date, saved_at)
VALUES (?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET start_date=excluded.start_date, end_date=excluded.end_date, saved_at=CURRENT_TIMESTAMP`,
		key, start.UTC(), end.UTC())
	return err
}

// LoadRange returns the saved range for key, with ok=false when no row
// exists or the row is older than maxAge.
func (s *RangeStore) LoadRange(key string, maxAge time.Duration) (start, end time.Time, ok bool, err error) {
	row := s.db.QueryRow(`SELECT start_date, end_date, saved_at FROM saved_ranges WHERE key=?`, key)
	var savedAt time.Time
	if err = row.Scan(&start, &end, &savedAt); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, time.Time{}, false, nil
		}
		return time.Time{}, time.Time{}, false, err
	}
	if maxAge > 0 && time.Since(savedAt) > maxAge {
		return time.Time{}, time.Time{}, false, nil
	}
	return start, end, true, nil
}
