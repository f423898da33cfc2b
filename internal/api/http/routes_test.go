package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weatherapi-go/internal/aqi"
	"github.com/i474232898/weatherapi-go/internal/store"
	"github.com/i474232898/weatherapi-go/internal/weather"
	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

const currentBody = `{"location":{"name":"Miami","region":"Florida","country":"USA","lat":25.77,"lon":-80.19,"localtime":"2024-03-09 10:00"},
"current":{"temp_c":24.0,"temp_f":75.2,"condition":{"text":"Sunny","icon":"//cdn.weatherapi.com/x.png","code":1000}}}`

// newTestApp wires the routes to a weatherapi client pointed at an upstream
// that answers every request with status and body.
func newTestApp(t *testing.T, status int, body string) (*fiber.App, *atomic.Int32, *store.MemoryStore) {
	t.Helper()

	calls := &atomic.Int32{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(upstream.Close)

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	client := weatherapi.NewClient("test-key", weatherapi.WithBaseURL(upstream.URL), weatherapi.WithLogger(quiet))
	mem := store.NewMemoryStore(10, time.Hour)

	app := fiber.New()
	RegisterRoutes(app, weather.NewService(client, mem), 5*time.Second)
	return app, calls, mem
}

func get(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

// TestInvalidParametersNeverReachUpstream verifies that bad input is a 400
// and no upstream request is made.
func TestInvalidParametersNeverReachUpstream(t *testing.T) {
	app, calls, _ := newTestApp(t, http.StatusOK, currentBody)

	for _, target := range []string{
		"/api/v1/current",
		"/api/v1/current?q=Miami&aqi=maybe",
		"/api/v1/forecast?q=Miami&days=0",
		"/api/v1/forecast?q=Miami&days=11",
		"/api/v1/forecast?q=Miami&days=three",
		"/api/v1/forecast?q=Miami&alerts=sometimes",
		"/api/v1/astronomy?q=Miami&dt=09/03/2024",
	} {
		resp := get(t, app, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}

	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no upstream calls, got %d", n)
	}
}

// TestCurrentProxiesUpstream verifies a successful round trip.
func TestCurrentProxiesUpstream(t *testing.T) {
	app, calls, _ := newTestApp(t, http.StatusOK, currentBody)

	resp := get(t, app, "/api/v1/current?q=Miami&aqi=no")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var got weatherapi.CurrentResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Location.Name != "Miami" || got.Current.Condition.Text != "Sunny" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}

// TestUpstreamFailureIsBadGateway verifies non-2xx upstream statuses map to 502.
func TestUpstreamFailureIsBadGateway(t *testing.T) {
	app, _, _ := newTestApp(t, http.StatusInternalServerError, `{"error":{"code":9999,"message":"Internal application error."}}`)

	resp := get(t, app, "/api/v1/forecast?q=Miami&days=3")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}

// TestMalformedUpstreamBodyIsBadGateway verifies undecodable bodies map to 502.
func TestMalformedUpstreamBodyIsBadGateway(t *testing.T) {
	app, _, _ := newTestApp(t, http.StatusOK, `{"location":`)

	resp := get(t, app, "/api/v1/astronomy?q=Miami&dt=2024-03-09")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}

// TestAQILegends verifies the static legend endpoints.
func TestAQILegends(t *testing.T) {
	app, _, _ := newTestApp(t, http.StatusOK, currentBody)

	for target, want := range map[string]int{
		"/api/v1/aqi/us-epa":   len(aqi.USEPA()),
		"/api/v1/aqi/uk-defra": len(aqi.UKDefra()),
	} {
		resp := get(t, app, target)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusOK, resp.StatusCode)
		}
		var bands []aqi.Band
		if err := json.NewDecoder(resp.Body).Decode(&bands); err != nil {
			t.Fatalf("%s: decode: %v", target, err)
		}
		if len(bands) != want {
			t.Fatalf("%s: expected %d bands, got %d", target, want, len(bands))
		}
	}
}

// TestAlertHistory verifies lookups and range validation on stored alerts.
func TestAlertHistory(t *testing.T) {
	app, _, mem := newTestApp(t, http.StatusOK, currentBody)

	resp := get(t, app, "/api/v1/alerts?q=Miami")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	loc := weather.Location{Query: "Miami"}
	alert := weatherapi.Alert{Event: "Flood Watch", Headline: "Flood Watch issued"}
	rec := weather.AlertRecord{
		ID:          "a1",
		Fingerprint: weather.Fingerprint(alert),
		Location:    loc,
		Place:       "Miami",
		SeenAt:      time.Now().Add(-time.Minute),
		Alert:       alert,
	}
	if _, err := mem.SaveAlert(loc, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	resp = get(t, app, "/api/v1/alerts?q=miami")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = get(t, app, "/api/v1/alerts?q=Miami&from=2024-03-10T00:00:00Z&to=2024-03-09T00:00:00Z")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d for inverted range, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	resp = get(t, app, "/api/v1/alerts?q=Miami&from=yesterday")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d for bad time, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

// TestLatestAlert verifies the most recent stored alert is returned.
func TestLatestAlert(t *testing.T) {
	app, _, mem := newTestApp(t, http.StatusOK, currentBody)

	resp := get(t, app, "/api/v1/alerts/latest?q=Miami")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
	resp = get(t, app, "/api/v1/alerts/latest")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	loc := weather.Location{Query: "Miami"}
	now := time.Now()
	for i, event := range []string{"Flood Watch", "Tornado Warning"} {
		alert := weatherapi.Alert{Event: event, Headline: event + " issued"}
		rec := weather.AlertRecord{
			ID:          event,
			Fingerprint: weather.Fingerprint(alert),
			Location:    loc,
			SeenAt:      now.Add(time.Duration(i) * time.Minute),
			Alert:       alert,
		}
		if _, err := mem.SaveAlert(loc, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	resp = get(t, app, "/api/v1/alerts/latest?q=Miami")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var got weather.AlertRecord
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Alert.Event != "Tornado Warning" {
		t.Fatalf("expected latest Tornado Warning, got %+v", got.Alert)
	}
}
