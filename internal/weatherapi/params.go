package weatherapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxForecastDays is the upstream limit for forecast.json.
const MaxForecastDays = 10

var validate = validator.New()

// params holds the resolved per-request parameters. Defaults follow the
// upstream contract: ten days, air quality and alerts on.
type params struct {
	days       int
	airQuality bool
	alerts     bool
	date       string

	airQualityErr error
	alertsErr     error
}

func defaultParams() params {
	return params{
		days:       MaxForecastDays,
		airQuality: true,
		alerts:     true,
	}
}

// Option sets a request parameter. An option only affects the endpoints that
// accept its parameter; Days on Current, for example, is ignored.
type Option func(*params)

// Days sets the forecast length. It must be within [1, MaxForecastDays].
func Days(n int) Option {
	return func(p *params) { p.days = n }
}

// AirQuality toggles the aqi parameter.
func AirQuality(on bool) Option {
	return func(p *params) {
		p.airQuality = on
		p.airQualityErr = nil
	}
}

// AirQualityValue toggles the aqi parameter from an untyped value, such as a
// decoded query string or config entry. See ParseFlag.
func AirQualityValue(v any) Option {
	return func(p *params) {
		p.airQuality, p.airQualityErr = ParseFlag("aqi", v)
	}
}

// Alerts toggles the alerts parameter of forecast.json.
func Alerts(on bool) Option {
	return func(p *params) {
		p.alerts = on
		p.alertsErr = nil
	}
}

// AlertsValue toggles the alerts parameter from an untyped value. See ParseFlag.
func AlertsValue(v any) Option {
	return func(p *params) {
		p.alerts, p.alertsErr = ParseFlag("alerts", v)
	}
}

// Date sets the astronomy date. The value is sent as given (YYYY-MM-DD
// expected); upstream rejects malformed dates.
func Date(dt string) Option {
	return func(p *params) { p.date = dt }
}

func resolve(opts []Option) params {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p params) validateDays() error {
	if err := validate.Var(p.days, "min=1,max=10"); err != nil {
		return formatErrorf("days", "API only forecasts between 1-%d days, not %d.", MaxForecastDays, p.days)
	}
	return nil
}

// ParseFlag converts an untyped yes/no value into a bool. It accepts a bool
// and the strings yes/no, true/false, on/off and 1/0 in any case. Anything
// else yields a *FormatError naming param.
func ParseFlag(param string, v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "yes", "true", "on", "1":
			return true, nil
		case "no", "false", "off", "0":
			return false, nil
		}
		return false, formatErrorf(param, "The %s parameter should be a boolean, not %q.", param, x)
	}
	return false, formatErrorf(param, "The %s parameter should be a boolean, not a %T.", param, v)
}

func yesNo(on bool) string {
	if on {
		return "yes"
	}
	return "no"
}
