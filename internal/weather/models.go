package weather

import (
	"strings"
	"time"

	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

// Location is a watched place, expressed the way upstream accepts it in the
// q parameter: a name, a postal code or "lat,lon".
type Location struct {
	Query string `json:"q"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return strings.ToLower(strings.TrimSpace(l.Query))
}

// AlertRecord is one upstream alert as observed by the watcher.
type AlertRecord struct {
	ID          string           `json:"id"`
	Fingerprint string           `json:"fingerprint"`
	Location    Location         `json:"location"`
	Place       string           `json:"place"`  // location name resolved by upstream
	SeenAt      time.Time        `json:"seenAt"` // always UTC
	Alert       weatherapi.Alert `json:"alert"`
}
