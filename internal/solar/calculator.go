// Package solar computes golden-hour windows and sun direction for a location.
package solar

import (
	"fmt"
	"math"
	"time"

	"github.com/neexbeast/golden-hour/internal/fault"
)

const (
	// WindowLength is the fixed width of each golden-hour window.
	WindowLength = time.Hour

	// azimuths are point-sampled at the window midpoint
	sampleOffset = WindowLength / 2
)

// ErrShortDay is returned when the sun is up for less than two windows, so
// the morning and evening golden hours would overlap.
var ErrShortDay = fmt.Errorf("daylight shorter than two golden hours: %w", fault.ErrUndefinedSolarEvent)

// Coordinate is a position on Earth in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the coordinate lies within [-90,90] x [-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]: %w", c.Latitude, fault.ErrInvalidArgument)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]: %w", c.Longitude, fault.ErrInvalidArgument)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", c.Latitude, c.Longitude)
}

// GoldenHourWindow holds the morning and evening golden hours of one day and
// the sun direction at the moments that matter for framing a shot.
type GoldenHourWindow struct {
	MorningStart time.Time `json:"morning_start"`
	MorningEnd   time.Time `json:"morning_end"`
	EveningStart time.Time `json:"evening_start"`
	EveningEnd   time.Time `json:"evening_end"`

	MorningSunAzimuth float64 `json:"morning_sun_azimuth"`
	EveningSunAzimuth float64 `json:"evening_sun_azimuth"`
	CurrentSunAzimuth float64 `json:"current_sun_azimuth"`
	SunAltitude       float64 `json:"sun_altitude"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Calculator derives golden-hour windows from an Ephemeris.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	eph Ephemeris
}

// NewCalculator constructs a Calculator. A nil ephemeris selects Astronomical.
func NewCalculator(eph Ephemeris) *Calculator {
	if eph == nil {
		eph = Astronomical{}
	}
	return &Calculator{eph: eph}
}

// ComputeGoldenHour returns the golden-hour windows for the UTC day containing
// now, plus the sun position at now.
func (c *Calculator) ComputeGoldenHour(coord Coordinate, now time.Time) (*GoldenHourWindow, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	rise, set, err := c.eph.SunTimes(now, coord.Latitude, coord.Longitude)
	if err != nil {
		return nil, fmt.Errorf("computing sun times for %s: %w: %w", coord, fault.ErrUpstreamUnavailable, err)
	}
	if rise.IsZero() || set.IsZero() || !set.After(rise) {
		return nil, fmt.Errorf("sun times for %s on %s: %w",
			coord, now.UTC().Format(time.DateOnly), fault.ErrUndefinedSolarEvent)
	}
	rise, set = rise.UTC(), set.UTC()
	if daylight := set.Sub(rise); daylight < 2*WindowLength {
		return nil, fmt.Errorf("sun times for %s on %s (%s of daylight): %w",
			coord, now.UTC().Format(time.DateOnly), daylight.Round(time.Minute), ErrShortDay)
	}

	w := &GoldenHourWindow{
		MorningStart: rise,
		MorningEnd:   rise.Add(WindowLength),
		EveningStart: set.Add(-WindowLength),
		EveningEnd:   set,
		EvaluatedAt:  now.UTC(),
	}

	w.MorningSunAzimuth, _ = c.position(w.MorningStart.Add(sampleOffset), coord)
	w.EveningSunAzimuth, _ = c.position(w.EveningStart.Add(sampleOffset), coord)
	w.CurrentSunAzimuth, w.SunAltitude = c.position(now, coord)

	return w, nil
}

// position returns compass azimuth and altitude in degrees.
func (c *Calculator) position(t time.Time, coord Coordinate) (azimuth, altitude float64) {
	az, alt := c.eph.SunPosition(t, coord.Latitude, coord.Longitude)
	return NormalizeAzimuth(az), alt * 180 / math.Pi
}

// NormalizeAzimuth converts a south-based, westward azimuth in radians into
// compass degrees in [0, 360), clockwise from north.
func NormalizeAzimuth(rad float64) float64 {
	deg := math.Mod(rad*180/math.Pi+180, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
