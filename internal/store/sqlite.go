package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/i474232898/weatherapi-go/internal/weather"
)

// Fixed-width UTC layout so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
	id           TEXT PRIMARY KEY,
	location_key TEXT NOT NULL,
	query        TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	place        TEXT,
	seen_at      TEXT NOT NULL,
	alert        TEXT NOT NULL,
	UNIQUE(location_key, fingerprint)
)`,
	`CREATE INDEX IF NOT EXISTS alerts_location_seen ON alerts(location_key, seen_at)`,
	`CREATE TABLE IF NOT EXISTS alert_fingerprints (
	location_key TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	forget_after TEXT NOT NULL,
	PRIMARY KEY(location_key, fingerprint)
)`,
}

// SQLiteStore keeps alert history in a SQLite database (pure Go driver).
type SQLiteStore struct {
	db *sql.DB

	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
}

// NewSQLite opens (or creates) the database at path and applies the schema.
// Retention limits behave as in NewMemoryStore.
func NewSQLite(path string, maxHistory int, maxAge time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between goroutines of the watcher.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.WithField("err", err).Warn("store: could not set WAL mode")
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: apply schema: %w", err)
		}
	}

	return &SQLiteStore{
		db:         db,
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}, nil
}

// SaveAlert inserts rec unless its fingerprint is already known for loc.
// Fingerprints live in their own table so history retention does not make
// a still-active alert look new.
func (s *SQLiteStore) SaveAlert(loc weather.Location, rec weather.AlertRecord) (bool, error) {
	payload, err := json.Marshal(rec.Alert)
	if err != nil {
		return false, fmt.Errorf("store: encode alert: %w", err)
	}

	stored, err := s.insertAlert(loc, rec, string(payload))
	if err != nil || !stored {
		return false, err
	}

	if err := s.enforceRetention(loc); err != nil {
		return true, err
	}
	return true, nil
}

func (s *SQLiteStore) insertAlert(loc weather.Location, rec weather.AlertRecord, payload string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC().Format(sqliteTimeLayout)
	until := weather.RememberUntil(rec).Format(sqliteTimeLayout)

	if _, err := tx.Exec(`DELETE FROM alert_fingerprints WHERE location_key = ? AND forget_after < ?`,
		loc.Key(), now); err != nil {
		return false, fmt.Errorf("store: prune fingerprints: %w", err)
	}

	res, err := tx.Exec(`INSERT OR IGNORE INTO alert_fingerprints(location_key, fingerprint, forget_after)
		VALUES(?,?,?)`, loc.Key(), rec.Fingerprint, until)
	if err != nil {
		return false, fmt.Errorf("store: insert fingerprint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert fingerprint: %w", err)
	}
	if n == 0 {
		if _, err := tx.Exec(`UPDATE alert_fingerprints SET forget_after = ?
			WHERE location_key = ? AND fingerprint = ? AND forget_after < ?`,
			until, loc.Key(), rec.Fingerprint, until); err != nil {
			return false, fmt.Errorf("store: refresh fingerprint: %w", err)
		}
		return false, tx.Commit()
	}

	res, err = tx.Exec(`INSERT OR IGNORE INTO alerts(id, location_key, query, fingerprint, place, seen_at, alert)
		VALUES(?,?,?,?,?,?,?)`,
		rec.ID, loc.Key(), rec.Location.Query, rec.Fingerprint, rec.Place,
		rec.SeenAt.UTC().Format(sqliteTimeLayout), payload)
	if err != nil {
		return false, fmt.Errorf("store: insert alert: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return false, fmt.Errorf("store: insert alert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: commit: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) enforceRetention(loc weather.Location) error {
	if s.maxHistory > 0 {
		_, err := s.db.Exec(`DELETE FROM alerts WHERE location_key = ? AND id NOT IN (
			SELECT id FROM alerts WHERE location_key = ? ORDER BY seen_at DESC LIMIT ?)`,
			loc.Key(), loc.Key(), s.maxHistory)
		if err != nil {
			return fmt.Errorf("store: trim by count: %w", err)
		}
	}
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).UTC().Format(sqliteTimeLayout)
		_, err := s.db.Exec(`DELETE FROM alerts WHERE location_key = ? AND seen_at < ?`, loc.Key(), cutoff)
		if err != nil {
			return fmt.Errorf("store: trim by age: %w", err)
		}
	}
	return nil
}

// GetLatest returns the most recently seen alert for a location.
func (s *SQLiteStore) GetLatest(loc weather.Location) (weather.AlertRecord, error) {
	rows, err := s.db.Query(`SELECT id, query, fingerprint, place, seen_at, alert FROM alerts
		WHERE location_key = ? ORDER BY seen_at DESC LIMIT 1`, loc.Key())
	if err != nil {
		return weather.AlertRecord{}, fmt.Errorf("store: query latest: %w", err)
	}
	records, err := scanAlerts(rows)
	if err != nil {
		return weather.AlertRecord{}, err
	}
	if len(records) == 0 {
		return weather.AlertRecord{}, ErrNotFound
	}
	return records[0], nil
}

// GetRange returns all alerts for a location seen between from and to (inclusive).
func (s *SQLiteStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.AlertRecord, error) {
	rows, err := s.db.Query(`SELECT id, query, fingerprint, place, seen_at, alert FROM alerts
		WHERE location_key = ? AND seen_at >= ? AND seen_at <= ? ORDER BY seen_at`,
		loc.Key(), from.UTC().Format(sqliteTimeLayout), to.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("store: query range: %w", err)
	}
	records, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanAlerts(rows *sql.Rows) ([]weather.AlertRecord, error) {
	defer rows.Close()

	var out []weather.AlertRecord
	for rows.Next() {
		var (
			rec     weather.AlertRecord
			place   sql.NullString
			seenAt  string
			payload string
		)
		if err := rows.Scan(&rec.ID, &rec.Location.Query, &rec.Fingerprint, &place, &seenAt, &payload); err != nil {
			return nil, fmt.Errorf("store: scan alert: %w", err)
		}
		rec.Place = place.String
		t, err := time.Parse(sqliteTimeLayout, seenAt)
		if err != nil {
			return nil, fmt.Errorf("store: parse seen_at %q: %w", seenAt, err)
		}
		rec.SeenAt = t
		if err := json.Unmarshal([]byte(payload), &rec.Alert); err != nil {
			return nil, fmt.Errorf("store: decode alert: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
