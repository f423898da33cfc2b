package weatherapi

import (
	"bytes"
	"encoding/json"
)

// Location is the place block shared by every endpoint.
type Location struct {
	Name           string  `json:"name"`
	Region         string  `json:"region"`
	Country        string  `json:"country"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	TzID           string  `json:"tz_id"`
	LocaltimeEpoch int64   `json:"localtime_epoch"`
	Localtime      string  `json:"localtime"`
}

// AirQualityIndex holds pollutant concentrations in µg/m3 plus the two
// precomputed indices: US EPA (1-6) and UK DEFRA (1-10).
type AirQualityIndex struct {
	CO           float64 `json:"co"`
	NO2          float64 `json:"no2"`
	O3           float64 `json:"o3"`
	SO2          float64 `json:"so2"`
	PM2_5        float64 `json:"pm2_5"`
	PM10         float64 `json:"pm10"`
	USEPAIndex   int     `json:"us-epa-index"`
	GBDefraIndex int     `json:"gb-defra-index"`
}

// Condition is the textual/icon/code weather descriptor.
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// Current is the current-conditions block.
//
// TempC, TempF, PrecipMM and PrecipIn have been served both as JSON numbers
// and as quoted strings, including non-numeric strings such as "" or "N/A".
// They are kept as Text so any of those forms decodes verbatim.
type Current struct {
	LastUpdatedEpoch int64     `json:"last_updated_epoch"`
	LastUpdated      string    `json:"last_updated"`
	TempC            Text      `json:"temp_c"`
	TempF            Text      `json:"temp_f"`
	IsDay            int       `json:"is_day"`
	Condition        Condition `json:"condition"`
	WindMPH          float64   `json:"wind_mph"`
	WindKPH          float64   `json:"wind_kph"`
	WindDegree       int       `json:"wind_degree"`
	WindDir          string    `json:"wind_dir"`
	PressureMB       float64   `json:"pressure_mb"`
	PressureIn       float64   `json:"pressure_in"`
	PrecipMM         Text      `json:"precip_mm"`
	PrecipIn         Text      `json:"precip_in"`
	Humidity         int       `json:"humidity"`
	Cloud            int       `json:"cloud"`
	FeelsLikeC       float64   `json:"feelslike_c"`
	FeelsLikeF       float64   `json:"feelslike_f"`
	VisKM            float64   `json:"vis_km"`
	VisMiles         float64   `json:"vis_miles"`
	UV               float64   `json:"uv"`
	GustMPH          float64   `json:"gust_mph"`
	GustKPH          float64   `json:"gust_kph"`

	// AirQuality is nil unless air-quality data was requested and returned.
	AirQuality *AirQualityIndex `json:"air_quality,omitempty"`
}

// CurrentResponse is the body of current.json.
type CurrentResponse struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
}

// Text is a display string taken verbatim from upstream. A bare JSON number
// is accepted and kept as its literal text.
type Text string

// String returns the upstream text.
func (t Text) String() string { return string(t) }

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (t *Text) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// Astro holds sun and moon times as upstream formats them ("06:41 AM").
type Astro struct {
	Sunrise          string `json:"sunrise"`
	Sunset           string `json:"sunset"`
	Moonrise         string `json:"moonrise"`
	Moonset          string `json:"moonset"`
	MoonPhase        string `json:"moon_phase"`
	MoonIllumination Text   `json:"moon_illumination"`
	IsMoonUp         *int   `json:"is_moon_up,omitempty"`
	IsSunUp          *int   `json:"is_sun_up,omitempty"`
}

// AstronomyResponse is the body of astronomy.json.
type AstronomyResponse struct {
	Location  Location `json:"location"`
	Astronomy struct {
		Astro Astro `json:"astro"`
	} `json:"astronomy"`
}

// Day is the daily summary of a forecast day.
type Day struct {
	MaxTempC          float64          `json:"maxtemp_c"`
	MaxTempF          float64          `json:"maxtemp_f"`
	MinTempC          float64          `json:"mintemp_c"`
	MinTempF          float64          `json:"mintemp_f"`
	AvgTempC          float64          `json:"avgtemp_c"`
	AvgTempF          float64          `json:"avgtemp_f"`
	MaxWindMPH        float64          `json:"maxwind_mph"`
	MaxWindKPH        float64          `json:"maxwind_kph"`
	TotalPrecipMM     float64          `json:"totalprecip_mm"`
	TotalPrecipIn     float64          `json:"totalprecip_in"`
	TotalSnowCM       float64          `json:"totalsnow_cm"`
	AvgVisKM          float64          `json:"avgvis_km"`
	AvgVisMiles       float64          `json:"avgvis_miles"`
	AvgHumidity       float64          `json:"avghumidity"`
	DailyWillItRain   int              `json:"daily_will_it_rain"`
	DailyChanceOfRain int              `json:"daily_chance_of_rain"`
	DailyWillItSnow   int              `json:"daily_will_it_snow"`
	DailyChanceOfSnow int              `json:"daily_chance_of_snow"`
	Condition         Condition        `json:"condition"`
	UV                float64          `json:"uv"`
	AirQuality        *AirQualityIndex `json:"air_quality,omitempty"`
}

// ForecastDay is one entry of forecast.forecastday. Hourly entries are kept
// as raw JSON.
type ForecastDay struct {
	Date      string            `json:"date"`
	DateEpoch int64             `json:"date_epoch"`
	Day       Day               `json:"day"`
	Astro     Astro             `json:"astro"`
	Hour      []json.RawMessage `json:"hour,omitempty"`
}

// Forecast is the forecast block of forecast.json.
type Forecast struct {
	ForecastDay []ForecastDay `json:"forecastday"`
}

// Alert is a government weather alert, all free text.
type Alert struct {
	Headline    string `json:"headline"`
	MsgType     string `json:"msgtype"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Areas       string `json:"areas"`
	Category    string `json:"category"`
	Certainty   string `json:"certainty"`
	Event       string `json:"event"`
	Note        string `json:"note"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
	Desc        string `json:"desc"`
	Instruction string `json:"instruction"`
}

// AlertList wraps the alert list.
type AlertList struct {
	Alert []Alert `json:"alert"`
}

// ForecastResponse is the body of forecast.json. Alerts is nil unless
// alerts were requested.
type ForecastResponse struct {
	Location Location   `json:"location"`
	Current  Current    `json:"current"`
	Forecast Forecast   `json:"forecast"`
	Alerts   *AlertList `json:"alerts,omitempty"`
}
