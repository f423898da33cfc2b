package weather

import (
	"context"
	"time"

	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

// Provider abstracts the upstream client; *weatherapi.Client satisfies it.
type Provider interface {
	Current(ctx context.Context, location string, opts ...weatherapi.Option) (*weatherapi.CurrentResponse, error)
	Forecast(ctx context.Context, location string, opts ...weatherapi.Option) (*weatherapi.ForecastResponse, error)
	Astronomy(ctx context.Context, location string, opts ...weatherapi.Option) (*weatherapi.AstronomyResponse, error)
}

// Store is the contract alert history stores must satisfy.
type Store interface {
	// SaveAlert records rec unless an alert with the same fingerprint is
	// already held for loc. It reports whether rec was stored.
	SaveAlert(loc Location, rec AlertRecord) (bool, error)
	GetLatest(loc Location) (AlertRecord, error)
	GetRange(loc Location, from, to time.Time) ([]AlertRecord, error)
}
