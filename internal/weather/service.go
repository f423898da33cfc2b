package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

// Service fronts the upstream client for the gateway and records alert
// history for watched locations.
type Service struct {
	provider Provider
	store    Store
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(provider Provider, store Store) *Service {
	return &Service{
		provider: provider,
		store:    store,
		now:      time.Now,
	}
}

// Current delegates to the upstream client.
func (s *Service) Current(ctx context.Context, q string, opts ...weatherapi.Option) (*weatherapi.CurrentResponse, error) {
	return s.provider.Current(ctx, q, opts...)
}

// Forecast delegates to the upstream client.
func (s *Service) Forecast(ctx context.Context, q string, opts ...weatherapi.Option) (*weatherapi.ForecastResponse, error) {
	return s.provider.Forecast(ctx, q, opts...)
}

// Astronomy delegates to the upstream client.
func (s *Service) Astronomy(ctx context.Context, q string, opts ...weatherapi.Option) (*weatherapi.AstronomyResponse, error) {
	return s.provider.Astronomy(ctx, q, opts...)
}

// WatchAlerts polls today's alerts for loc and stores the ones not seen
// before. It returns the number of new alerts.
func (s *Service) WatchAlerts(ctx context.Context, loc Location) (int, error) {
	resp, err := s.provider.Forecast(ctx, loc.Query,
		weatherapi.Days(1),
		weatherapi.AirQuality(false),
		weatherapi.Alerts(true),
	)
	if err != nil {
		return 0, fmt.Errorf("watch %s: %w", loc.Key(), err)
	}

	var added int
	for _, rec := range CollectAlerts(loc, resp, s.now()) {
		stored, err := s.store.SaveAlert(loc, rec)
		if err != nil {
			return added, fmt.Errorf("watch %s: save alert: %w", loc.Key(), err)
		}
		if !stored {
			continue
		}
		added++

		entry := log.WithFields(log.Fields{
			"location": loc.Key(),
			"event":    rec.Alert.Event,
			"severity": rec.Alert.Severity,
			"expires":  rec.Alert.Expires,
		})
		if IsSevere(rec.Alert) {
			entry.Warn("new severe weather alert")
		} else {
			entry.Info("new weather alert")
		}
	}
	return added, nil
}

// WatchAll polls every location concurrently. A failing location does not
// stop the others; their errors are joined.
func (s *Service) WatchAll(ctx context.Context, locs []Location) (int, error) {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
		errs  []error
	)

	for _, loc := range locs {
		wg.Add(1)
		go func(loc Location) {
			defer wg.Done()

			n, err := s.WatchAlerts(ctx, loc)

			mu.Lock()
			defer mu.Unlock()
			total += n
			if err != nil {
				log.WithFields(log.Fields{"location": loc.Key(), "err": err}).Warn("alert watch failed")
				errs = append(errs, err)
			}
		}(loc)
	}
	wg.Wait()

	return total, errors.Join(errs...)
}

// LatestAlert delegates to the underlying store.
func (s *Service) LatestAlert(loc Location) (AlertRecord, error) {
	return s.store.GetLatest(loc)
}

// AlertHistory delegates to the underlying store.
func (s *Service) AlertHistory(loc Location, from, to time.Time) ([]AlertRecord, error) {
	return s.store.GetRange(loc, from, to)
}
