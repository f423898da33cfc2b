package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weatherapi-go/internal/weather"
)

var (
	// ErrNotFound is returned when no alert is held for a given location.
	ErrNotFound = errors.New("no alerts for location")
)

// AlertHistory holds a time-ordered list of alert records for a location.
type AlertHistory struct {
	Records []weather.AlertRecord
}

// MemoryStore is a concurrency-safe in-memory alert history.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*AlertHistory

	// key: location key, value: fingerprint -> forget time.
	// Outlives history retention so trimmed alerts are not reported again.
	seen map[string]map[string]time.Time

	// retention configuration
	maxHistory int           // max number of records per location
	maxAge     time.Duration // optional max age for records

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*AlertHistory),
		seen:       make(map[string]map[string]time.Time),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveAlert appends rec unless its fingerprint is already known for loc,
// then enforces retention. Fingerprints are remembered until
// weather.RememberUntil, even after the record itself is trimmed.
func (s *MemoryStore) SaveAlert(loc weather.Location, rec weather.AlertRecord) (bool, error) {
	key := loc.Key()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	fingerprints, ok := s.seen[key]
	if !ok {
		fingerprints = make(map[string]time.Time)
		s.seen[key] = fingerprints
	}
	for fp, until := range fingerprints {
		if until.Before(now) {
			delete(fingerprints, fp)
		}
	}

	until := weather.RememberUntil(rec)
	if prev, known := fingerprints[rec.Fingerprint]; known {
		if until.After(prev) {
			fingerprints[rec.Fingerprint] = until
		}
		return false, nil
	}
	fingerprints[rec.Fingerprint] = until

	history, ok := s.data[key]
	if !ok {
		history = &AlertHistory{}
		s.data[key] = history
	}

	for _, existing := range history.Records {
		if existing.Fingerprint == rec.Fingerprint {
			return false, nil
		}
	}

	history.Records = append(history.Records, rec)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Records) > s.maxHistory {
		over := len(history.Records) - s.maxHistory
		history.Records = history.Records[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := now.Add(-s.maxAge)
		i := 0
		for ; i < len(history.Records); i++ {
			if !history.Records[i].SeenAt.Before(cutoff) {
				break
			}
		}
		history.Records = history.Records[i:]
	}

	return true, nil
}

// GetLatest returns the most recently seen alert for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Records) == 0 {
		return weather.AlertRecord{}, ErrNotFound
	}
	return history.Records[len(history.Records)-1], nil
}

// GetRange returns all alerts for a location seen between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Records) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.AlertRecord
	for _, rec := range history.Records {
		if !rec.SeenAt.Before(from) && !rec.SeenAt.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
