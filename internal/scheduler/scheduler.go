package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weatherapi-go/internal/weather"
)

const (
	defaultInterval = 15 * time.Minute
	jobTimeout      = 30 * time.Second
)

// Scheduler periodically polls weather alerts for configured locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	locations []weather.Location
	interval  time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, service *weather.Service) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		interval:  interval,
	}
}

// Start schedules the alert watch job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Info("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"locations": len(s.locations),
		"interval":  s.interval.String(),
	}).Info("scheduler: alert watch scheduled")
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	added, err := s.service.WatchAll(ctx, s.locations)
	entry := log.WithFields(log.Fields{
		"new_alerts": added,
		"took":       time.Since(started).String(),
	})
	if err != nil {
		entry.WithField("err", err).Warn("scheduler: alert watch finished with errors")
		return
	}
	entry.Debug("scheduler: alert watch finished")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
