package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weatherapi-go/internal/weather"
)

func openSQLite(t *testing.T, maxHistory int, maxAge time.Duration) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "alerts.db"), maxHistory, maxAge)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestSQLiteSaveAndRange verifies round-trip, ordering and deduplication.
func TestSQLiteSaveAndRange(t *testing.T) {
	s := openSQLite(t, 0, 0)
	loc := weather.Location{Query: "Miami"}
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := record(loc, "Flood Watch", now.Add(-time.Minute))
	second := record(loc, "Rip Current Statement", now)

	for _, rec := range []weather.AlertRecord{second, first} {
		stored, err := s.SaveAlert(loc, rec)
		if err != nil || !stored {
			t.Fatalf("SaveAlert(%s): stored=%v err=%v", rec.Alert.Event, stored, err)
		}
	}
	stored, err := s.SaveAlert(loc, record(loc, "Flood Watch", now.Add(time.Minute)))
	if err != nil || stored {
		t.Fatalf("expected duplicate to be skipped, got stored=%v err=%v", stored, err)
	}

	got, err := s.GetRange(loc, now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].Alert.Event != "Flood Watch" || got[1].Alert.Event != "Rip Current Statement" {
		t.Fatalf("unexpected order: %s, %s", got[0].Alert.Event, got[1].Alert.Event)
	}
	if !got[0].SeenAt.Equal(first.SeenAt) {
		t.Fatalf("timestamps differ: got %v want %v", got[0].SeenAt, first.SeenAt)
	}
	if got[0].Place != "Miami" || got[0].Alert.Headline != "Flood Watch issued" {
		t.Fatalf("unexpected record %+v", got[0])
	}

	latest, err := s.GetLatest(loc)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("expected latest %s, got %s", second.ID, latest.ID)
	}
}

// TestSQLiteRetention verifies the per-location count limit.
func TestSQLiteRetention(t *testing.T) {
	s := openSQLite(t, 2, 0)
	loc := weather.Location{Query: "Miami"}
	other := weather.Location{Query: "Tampa"}
	now := time.Now().UTC()

	for i, event := range []string{"A", "B", "C"} {
		if _, err := s.SaveAlert(loc, record(loc, event, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := s.SaveAlert(other, record(other, "A", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetRange(loc, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Alert.Event != "B" {
		t.Fatalf("expected B and C to survive, got %+v", got)
	}
	if _, err := s.GetLatest(other); err != nil {
		t.Fatalf("expected other location untouched, got %v", err)
	}
}

// TestSQLiteNotFound verifies ErrNotFound for a location with no alerts.
func TestSQLiteNotFound(t *testing.T) {
	s := openSQLite(t, 0, 0)
	if _, err := s.GetLatest(weather.Location{Query: "Nowhere"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestSQLiteRemembersTrimmedAlerts verifies that alerts trimmed by the count
// limit are not stored again, across polls and reopen.
func TestSQLiteRemembersTrimmedAlerts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.db")
	loc := weather.Location{Query: "Miami"}
	now := time.Now().UTC()

	save := func(s *SQLiteStore, seenAt time.Time) int {
		added := 0
		for _, event := range []string{"Flood Watch", "Tornado Warning"} {
			stored, err := s.SaveAlert(loc, record(loc, event, seenAt))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stored {
				added++
			}
		}
		return added
	}

	s, err := NewSQLite(path, 1, 0)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if n := save(s, now); n != 2 {
		t.Fatalf("expected 2 new alerts, got %d", n)
	}
	if n := save(s, now.Add(15*time.Minute)); n != 0 {
		t.Fatalf("expected no new alerts, got %d", n)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s = openSQLiteAt(t, path, 1)
	if n := save(s, now.Add(30*time.Minute)); n != 0 {
		t.Fatalf("expected no new alerts after reopen, got %d", n)
	}

	got, err := s.GetRange(loc, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 retained alert, got %d", len(got))
	}
}

func openSQLiteAt(t *testing.T, path string, maxHistory int) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(path, maxHistory, 0)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
