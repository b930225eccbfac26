package report

import (
	"time"

	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/quality"
	"github.com/neexbeast/golden-hour/internal/solar"
)

// Place is a named location returned by the geocoder.
type Place struct {
	Name       string           `json:"name"`
	Country    string           `json:"country,omitempty"`
	State      string           `json:"state,omitempty"`
	Coordinate solar.Coordinate `json:"coordinate"`
}

// Conditions is a forecast sample together with its scores.
type Conditions struct {
	Sample    forecast.Sample    `json:"sample"`
	Verdict   quality.Verdict    `json:"verdict"`
	Afterglow quality.Prediction `json:"afterglow"`
}

// WindowForecast is the conditions expected at the start of one golden hour.
type WindowForecast struct {
	Period solar.Period `json:"period"`
	Target time.Time    `json:"target"`
	Conditions
}

// Report is everything a photographer needs for one location and day.
// Place, Current, Morning and Evening are nil when their data was unavailable.
type Report struct {
	Coordinate solar.Coordinate       `json:"coordinate"`
	Place      *Place                 `json:"place,omitempty"`
	Window     solar.GoldenHourWindow `json:"window"`
	Next       solar.NextGoldenHour   `json:"next"`

	Current *Conditions     `json:"current,omitempty"`
	Morning *WindowForecast `json:"morning,omitempty"`
	Evening *WindowForecast `json:"evening,omitempty"`

	Policy      forecast.Policy `json:"policy"`
	GeneratedAt time.Time       `json:"generated_at"`
}
