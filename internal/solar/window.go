package solar

import (
	"math"
	"time"
)

// Period names one of the two daily golden hours.
type Period string

const (
	Morning Period = "morning"
	Evening Period = "evening"
)

// NextGoldenHour describes the next window to start after a given instant.
type NextGoldenHour struct {
	Period   Period    `json:"period"`
	Start    time.Time `json:"start"`
	Tomorrow bool      `json:"tomorrow"`
}

// InProgress reports which window, if any, contains t. Bounds are inclusive.
func (w *GoldenHourWindow) InProgress(t time.Time) (Period, bool) {
	switch {
	case !t.Before(w.MorningStart) && !t.After(w.MorningEnd):
		return Morning, true
	case !t.Before(w.EveningStart) && !t.After(w.EveningEnd):
		return Evening, true
	}
	return "", false
}

// Next returns the next window start after t. Once the evening window has
// begun, tomorrow's morning is approximated as today's sunrise plus 24h.
func (w *GoldenHourWindow) Next(t time.Time) NextGoldenHour {
	switch {
	case t.Before(w.MorningStart):
		return NextGoldenHour{Period: Morning, Start: w.MorningStart}
	case t.Before(w.EveningStart):
		return NextGoldenHour{Period: Evening, Start: w.EveningStart}
	}
	return NextGoldenHour{Period: Morning, Start: w.MorningStart.Add(24 * time.Hour), Tomorrow: true}
}

// FocusAzimuth picks the azimuth a photographer should face at t: the
// morning sun until the morning window ends, the evening sun afterwards.
func (w *GoldenHourWindow) FocusAzimuth(t time.Time) float64 {
	if p, ok := w.InProgress(t); ok {
		if p == Morning {
			return w.MorningSunAzimuth
		}
		return w.EveningSunAzimuth
	}
	if t.Before(w.MorningStart) {
		return w.MorningSunAzimuth
	}
	return w.EveningSunAzimuth
}

// DaylightLength is the time between sunrise and sunset.
func (w *GoldenHourWindow) DaylightLength() time.Duration {
	return w.EveningEnd.Sub(w.MorningStart)
}

var compassPoints = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassPoint returns the 16-wind label nearest to azimuth (degrees).
func CompassPoint(azimuth float64) string {
	idx := int(math.Round(normalizeDegrees(azimuth)/22.5)) % len(compassPoints)
	return compassPoints[idx]
}

// RelativeBearing returns azimuth as seen from a device pointing at heading,
// in [0, 360).
func RelativeBearing(azimuth, heading float64) float64 {
	return normalizeDegrees(azimuth - heading)
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
