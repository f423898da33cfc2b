package weather

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weatherapi-go/internal/common"
	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

// SeenTTL is the minimum time a store remembers an alert fingerprint after
// the alert was last seen, independent of history retention.
const SeenTTL = 24 * time.Hour

// Fingerprint identifies an alert across polls. Upstream alerts carry no id,
// so event, effective time, headline and areas stand in for one.
func Fingerprint(a weatherapi.Alert) string {
	h := sha256.New()
	for _, part := range []string{a.Event, a.Effective, a.Headline, a.Areas} {
		h.Write([]byte(strings.TrimSpace(part)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// IsSevere reports whether the alert is flagged severe or extreme.
func IsSevere(a weatherapi.Alert) bool {
	return common.HasAny(strings.ToLower(a.Severity), "severe", "extreme")
}

// CollectAlerts turns the alerts of a forecast response into records stamped
// at seenAt. Duplicates within the response are dropped; order is kept.
func CollectAlerts(loc Location, resp *weatherapi.ForecastResponse, seenAt time.Time) []AlertRecord {
	if resp == nil || resp.Alerts == nil || len(resp.Alerts.Alert) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(resp.Alerts.Alert))
	records := make([]AlertRecord, 0, len(resp.Alerts.Alert))
	for _, a := range resp.Alerts.Alert {
		fp := Fingerprint(a)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}

		records = append(records, AlertRecord{
			ID:          uuid.NewString(),
			Fingerprint: fp,
			Location:    loc,
			Place:       resp.Location.Name,
			SeenAt:      seenAt.UTC(),
			Alert:       a,
		})
	}
	return records
}

// RememberUntil returns when a store may forget rec's fingerprint: the later
// of the alert's expiry and SeenTTL after it was seen.
func RememberUntil(rec AlertRecord) time.Time {
	until := rec.SeenAt.Add(SeenTTL)
	if exp, err := time.Parse(time.RFC3339, strings.TrimSpace(rec.Alert.Expires)); err == nil && exp.After(until) {
		until = exp
	}
	return until.UTC()
}
