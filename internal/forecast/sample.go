// Package forecast models timestamped weather samples and picks the sample
// that best describes a given instant.
package forecast

import (
	"fmt"
	"time"

	"github.com/neexbeast/golden-hour/internal/fault"
)

// CloudBands splits cloud cover by altitude. Absent bands count as 0%.
type CloudBands struct {
	High *float64 `json:"high,omitempty"`
	Mid  *float64 `json:"mid,omitempty"`
	Low  *float64 `json:"low,omitempty"`
}

// Sample is one forecast point. Pointer fields distinguish "absent" from zero.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`

	// Conditions holds condition labels such as "Clouds" or "Rain". The first
	// label is the primary one.
	Conditions  []string `json:"conditions"`
	Description string   `json:"description,omitempty"`

	CloudCoverage *float64   `json:"cloud_coverage"`
	Clouds        CloudBands `json:"clouds"`

	Temperature *float64 `json:"temperature"` // kelvin
	Humidity    *float64 `json:"humidity"`    // percent
	WindSpeed   *float64 `json:"wind_speed"`  // m/s

	Visibility               *float64 `json:"visibility,omitempty"`                // metres
	PrecipitationProbability *float64 `json:"precipitation_probability,omitempty"` // 0..1
	Pressure                 *float64 `json:"pressure,omitempty"`                  // hPa
}

// Float returns a pointer to v, for building samples.
func Float(v float64) *float64 { return &v }

// Validate checks that every required field is present and in range.
func (s Sample) Validate() error {
	if s.Timestamp.IsZero() {
		return fmt.Errorf("sample timestamp missing: %w", fault.ErrInvalidArgument)
	}
	if len(s.Conditions) == 0 || s.Conditions[0] == "" {
		return fmt.Errorf("sample %s: primary condition label missing: %w", s.label(), fault.ErrInvalidArgument)
	}

	required := []struct {
		name string
		v    *float64
	}{
		{"cloud coverage", s.CloudCoverage},
		{"temperature", s.Temperature},
		{"humidity", s.Humidity},
		{"wind speed", s.WindSpeed},
	}
	for _, f := range required {
		if f.v == nil {
			return fmt.Errorf("sample %s: %s missing: %w", s.label(), f.name, fault.ErrInvalidArgument)
		}
	}

	percents := []struct {
		name string
		v    *float64
	}{
		{"cloud coverage", s.CloudCoverage},
		{"humidity", s.Humidity},
		{"high clouds", s.Clouds.High},
		{"mid clouds", s.Clouds.Mid},
		{"low clouds", s.Clouds.Low},
	}
	for _, f := range percents {
		if f.v != nil && (*f.v < 0 || *f.v > 100) {
			return fmt.Errorf("sample %s: %s %v outside [0, 100]: %w", s.label(), f.name, *f.v, fault.ErrInvalidArgument)
		}
	}

	if p := s.PrecipitationProbability; p != nil && (*p < 0 || *p > 1) {
		return fmt.Errorf("sample %s: precipitation probability %v outside [0, 1]: %w", s.label(), *p, fault.ErrInvalidArgument)
	}

	return nil
}

// Primary returns the authoritative condition label, or "" when absent.
func (s Sample) Primary() string {
	if len(s.Conditions) == 0 {
		return ""
	}
	return s.Conditions[0]
}

// Precipitation returns the precipitation probability, 0 when absent.
func (s Sample) Precipitation() float64 {
	if s.PrecipitationProbability == nil {
		return 0
	}
	return *s.PrecipitationProbability
}

func (s Sample) label() string {
	return s.Timestamp.UTC().Format(time.RFC3339)
}

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// HighClouds, MidClouds and LowClouds return the band percentages, 0 when absent.
func (c CloudBands) HighClouds() float64 { return valueOrZero(c.High) }
func (c CloudBands) MidClouds() float64  { return valueOrZero(c.Mid) }
func (c CloudBands) LowClouds() float64  { return valueOrZero(c.Low) }
