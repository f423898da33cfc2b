package main

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weatherapi-go/internal/aqi"
	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

func placeName(l *weatherapi.Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Name, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func writeHeader(w io.Writer, header string) {
	fmt.Fprintf(w, "%s\n", header)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(header)))
}

func displayCurrentWeather(w io.Writer, l *weatherapi.Location, c *weatherapi.Current) {
	writeHeader(w, fmt.Sprintf("Weather Summary for %s:", placeName(l)))
	fmt.Fprintf(w, "Conditions:  %s\n", cases.Title(language.English).String(c.Condition.Text))
	fmt.Fprintf(w, "Temperature: %s°C (%s°F)\n", c.TempC, c.TempF)
	fmt.Fprintf(w, "Feels Like:  %.1f°C (%.1f°F)\n", c.FeelsLikeC, c.FeelsLikeF)
	fmt.Fprintf(w, "Humidity:    %d%%\n", c.Humidity)
	fmt.Fprintf(w, "Wind:        %.1f kph %s\n", c.WindKPH, c.WindDir)
	fmt.Fprintf(w, "Precip:      %s mm\n", c.PrecipMM)
	if c.AirQuality != nil {
		fmt.Fprintf(w, "Air Quality: %s (US EPA %d), %s (UK DEFRA %d)\n",
			bandName(aqi.USEPA(), c.AirQuality.USEPAIndex), c.AirQuality.USEPAIndex,
			bandName(aqi.UKDefra(), c.AirQuality.GBDefraIndex), c.AirQuality.GBDefraIndex)
	}
}

func displayForecast(w io.Writer, f *weatherapi.ForecastResponse) {
	displayCurrentWeather(w, &f.Location, &f.Current)
	fmt.Fprintln(w)

	writeHeader(w, fmt.Sprintf("%d-Day Forecast for %s:", len(f.Forecast.ForecastDay), placeName(&f.Location)))
	for _, day := range f.Forecast.ForecastDay {
		fmt.Fprintf(w, "%s: ", day.Date)
		fmt.Fprintf(w, "%-25s High: %4.1f°C. Low: %4.1f°C.",
			cases.Title(language.English).String(day.Day.Condition.Text),
			day.Day.MaxTempC,
			day.Day.MinTempC)
		if day.Day.MaxWindKPH > 0 {
			fmt.Fprintf(w, " Max winds: %4.1f kph.", day.Day.MaxWindKPH)
		}
		if day.Day.DailyChanceOfRain > 0 {
			fmt.Fprintf(w, " Rain: %d%%.", day.Day.DailyChanceOfRain)
		}
		fmt.Fprintln(w)
	}

	if f.Alerts != nil && len(f.Alerts.Alert) > 0 {
		fmt.Fprintln(w)
		writeHeader(w, "Alerts:")
		for _, a := range f.Alerts.Alert {
			fmt.Fprintf(w, "[%s] %s\n", a.Severity, a.Headline)
			if a.Expires != "" {
				fmt.Fprintf(w, "  Expires: %s\n", a.Expires)
			}
		}
	}
}

func displayAstronomy(w io.Writer, a *weatherapi.AstronomyResponse) {
	astro := a.Astronomy.Astro
	writeHeader(w, fmt.Sprintf("Astronomy for %s:", placeName(&a.Location)))
	fmt.Fprintf(w, "Sunrise:    %s\n", astro.Sunrise)
	fmt.Fprintf(w, "Sunset:     %s\n", astro.Sunset)
	fmt.Fprintf(w, "Moonrise:   %s\n", astro.Moonrise)
	fmt.Fprintf(w, "Moonset:    %s\n", astro.Moonset)
	fmt.Fprintf(w, "Moon Phase: %s (%s%% illuminated)\n", astro.MoonPhase, astro.MoonIllumination)
}

func displayAirQuality(w io.Writer, c *weatherapi.CurrentResponse, command string) {
	writeHeader(w, fmt.Sprintf("Air Quality for %s:", placeName(&c.Location)))
	q := c.Current.AirQuality
	if q == nil {
		fmt.Fprintln(w, "No air quality data returned.")
		return
	}

	legend, index := aqi.USEPA(), q.USEPAIndex
	if command == "aqi-uk" {
		legend, index = aqi.UKDefra(), q.GBDefraIndex
	}
	fmt.Fprintf(w, "Index: %d (%s)\n", index, bandName(legend, index))
	fmt.Fprintf(w, "PM2.5: %.1f µg/m3. PM10: %.1f µg/m3.\n\n", q.PM2_5, q.PM10)
	_ = aqi.Render(w, legend)
}

func bandName(bands []aqi.Band, index int) string {
	if b, ok := aqi.Lookup(bands, index); ok {
		return b.Band
	}
	return "Unknown"
}
