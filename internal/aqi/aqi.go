// Package aqi holds the fixed reference legends for the two air-quality
// indices reported by weatherapi.com. Values follow https://www.weatherapi.com/docs/.
package aqi

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Band is one row of an index legend.
type Band struct {
	Index int    `json:"index"`
	Band  string `json:"band"`
	// Range is the PM2.5 concentration in µg/m3; empty for US EPA.
	Range string `json:"range,omitempty"`
}

// USEPA returns the US EPA index legend (1-6).
func USEPA() []Band {
	return []Band{
		{Index: 1, Band: "Good"},
		{Index: 2, Band: "Moderate"},
		{Index: 3, Band: "Unhealthy for sensitive group"},
		{Index: 4, Band: "Unhealthy"},
		{Index: 5, Band: "Very Unhealthy"},
		{Index: 6, Band: "Hazardous"},
	}
}

// UKDefra returns the UK DEFRA index legend (1-10).
func UKDefra() []Band {
	return []Band{
		{Index: 1, Band: "Low", Range: "0-11"},
		{Index: 2, Band: "Low", Range: "12-23"},
		{Index: 3, Band: "Low", Range: "24-35"},
		{Index: 4, Band: "Moderate", Range: "36-41"},
		{Index: 5, Band: "Moderate", Range: "42-47"},
		{Index: 6, Band: "Moderate", Range: "48-53"},
		{Index: 7, Band: "High", Range: "54-58"},
		{Index: 8, Band: "High", Range: "59-64"},
		{Index: 9, Band: "High", Range: "65-70"},
		{Index: 10, Band: "Very High", Range: "71 or more"},
	}
}

// Lookup returns the band for index, if the legend has one.
func Lookup(bands []Band, index int) (Band, bool) {
	for _, b := range bands {
		if b.Index == index {
			return b, true
		}
	}
	return Band{}, false
}

// Render writes bands as an aligned table.
func Render(w io.Writer, bands []Band) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	withRange := false
	for _, b := range bands {
		if b.Range != "" {
			withRange = true
			break
		}
	}

	if withRange {
		fmt.Fprintln(tw, "Index\tBand\tµg/m3")
	} else {
		fmt.Fprintln(tw, "Index\tBand")
	}
	for _, b := range bands {
		if withRange {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", b.Index, b.Band, b.Range)
		} else {
			fmt.Fprintf(tw, "%d\t%s\n", b.Index, b.Band)
		}
	}
	return tw.Flush()
}
