// Package weatherapi is a typed client for the weatherapi.com JSON API.
//
// Every operation validates its parameters before touching the network:
// invalid input is reported as a *FormatError and never reaches the wire.
// Failed round trips are reported as a *ResponseError. Bodies that are not
// valid JSON surface as the encoding/json error, unwrapped.
package weatherapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"resty.dev/v3"
)

const (
	// DefaultBaseURL is the public weatherapi.com host.
	DefaultBaseURL = "https://api.weatherapi.com"
	// Version is the endpoint version segment.
	Version = "v1"

	dateLayout = "2006-01-02"
)

// Endpoint names as they appear in the request path.
const (
	EndpointCurrent   = "current.json"
	EndpointForecast  = "forecast.json"
	EndpointAstronomy = "astronomy.json"
)

// Client issues requests against weatherapi.com. The zero value is not
// usable; construct one with NewClient. A Client holds no mutable state and
// is safe for concurrent use.
type Client struct {
	key       string
	baseURL   string
	transport http.RoundTripper
	log       logrus.FieldLogger
	now       func() time.Time

	http *resty.Client
}

// ClientOption customizes a Client at construction.
type ClientOption func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithTransport replaces the HTTP transport. Callers that need timeouts or
// cancellation beyond the request context configure them here.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) { c.transport = rt }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.log = l }
}

// WithClock sets the clock used to resolve the default astronomy date.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient returns a client for apiKey. The key is not validated here;
// upstream rejects bad keys on every call. It is only ever sent as the key
// query parameter and is never logged.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		key:     apiKey,
		baseURL: DefaultBaseURL,
		log:     logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	var rc *resty.Client
	if c.transport != nil {
		rc = resty.NewWithClient(&http.Client{Transport: c.transport})
	} else {
		// Connections are not reused across calls.
		rc = resty.NewWithTransportSettings(&resty.TransportSettings{DisableKeepAlives: true})
	}
	c.http = rc.
		SetBaseURL(strings.TrimRight(c.baseURL, "/") + "/" + Version).
		SetHeader("Accept", "application/json").
		SetLogger(c.log)

	return c
}

// Current fetches current conditions for location. Accepted options:
// AirQuality, AirQualityValue.
func (c *Client) Current(ctx context.Context, location string, opts ...Option) (*CurrentResponse, error) {
	p := resolve(opts)
	if p.airQualityErr != nil {
		return nil, p.airQualityErr
	}

	var out CurrentResponse
	err := c.get(ctx, EndpointCurrent, map[string]string{
		"q":   location,
		"aqi": yesNo(p.airQuality),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast fetches a multi-day forecast for location. Accepted options:
// Days, AirQuality, AirQualityValue, Alerts, AlertsValue.
func (c *Client) Forecast(ctx context.Context, location string, opts ...Option) (*ForecastResponse, error) {
	p := resolve(opts)
	if err := p.validateDays(); err != nil {
		return nil, err
	}
	if p.airQualityErr != nil {
		return nil, p.airQualityErr
	}
	if p.alertsErr != nil {
		return nil, p.alertsErr
	}

	var out ForecastResponse
	err := c.get(ctx, EndpointForecast, map[string]string{
		"q":      location,
		"days":   strconv.Itoa(p.days),
		"aqi":    yesNo(p.airQuality),
		"alerts": yesNo(p.alerts),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Astronomy fetches sun and moon data for location. Accepted option: Date.
// Without a date the caller's local calendar date is used.
func (c *Client) Astronomy(ctx context.Context, location string, opts ...Option) (*AstronomyResponse, error) {
	p := resolve(opts)
	dt := p.date
	if dt == "" {
		dt = c.today()
	}

	var out AstronomyResponse
	err := c.get(ctx, EndpointAstronomy, map[string]string{
		"q":  location,
		"dt": dt,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// today is the local calendar date of the machine running the client, not
// the date at the requested location.
func (c *Client) today() string {
	return c.now().In(time.Local).Format(dateLayout)
}

func (c *Client) get(ctx context.Context, endpoint string, query map[string]string, out any) error {
	logger := c.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"q":        query["q"],
	})

	query["key"] = c.key
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get("/" + endpoint)
	if err != nil {
		err = redactKey(err, c.key)
		logger.WithError(err).Warn("weatherapi: request failed")
		return &ResponseError{Endpoint: endpoint, Err: err}
	}

	body := resp.Bytes()
	if !resp.IsSuccess() {
		logger.WithField("status", resp.StatusCode()).Warn("weatherapi: upstream returned an error status")
		return &ResponseError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       body,
		}
	}

	logger.WithField("duration", resp.Duration()).Debug("weatherapi: request completed")
	return json.Unmarshal(body, out)
}
