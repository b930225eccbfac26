// Package quality turns a forecast sample into a golden-hour verdict and an
// afterglow prediction.
//
// The afterglow prediction is an ordered rule chain, not a weighted score.
// Quality starts at Moderate and each rule may move it depending on the value
// earlier rules left behind, so the rule order is part of the contract.
package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/neexbeast/golden-hour/internal/forecast"
)

// badConditions are matched as substrings against every condition label.
var badConditions = []string{"Rain", "Thunderstorm", "Drizzle", "Snow", "Mist", "Fog", "Haze"}

const maxGoodCloudCoverage = 70

// Verdict is the binary good/bad call for golden-hour shooting.
type Verdict struct {
	Good    bool   `json:"good"`
	Icon    string `json:"icon"`
	Badge   string `json:"badge"`
	Message string `json:"message"`
}

// Prediction is the four-level afterglow forecast with its contributing factors.
type Prediction struct {
	Quality     Level    `json:"quality"`
	Description string   `json:"description"`
	Factors     []string `json:"factors"`
}

// Result bundles both outputs for one sample.
type Result struct {
	Verdict   Verdict    `json:"verdict"`
	Afterglow Prediction `json:"afterglow"`
}

// Score validates s and computes its verdict and afterglow prediction.
func Score(s forecast.Sample) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, fmt.Errorf("scoring sample: %w", err)
	}
	return Result{Verdict: verdict(s), Afterglow: afterglow(s)}, nil
}

// Judge validates s and returns only the binary verdict.
func Judge(s forecast.Sample) (Verdict, error) {
	if err := s.Validate(); err != nil {
		return Verdict{}, fmt.Errorf("judging sample: %w", err)
	}
	return verdict(s), nil
}

// Afterglow validates s and returns only the afterglow prediction.
func Afterglow(s forecast.Sample) (Prediction, error) {
	if err := s.Validate(); err != nil {
		return Prediction{}, fmt.Errorf("predicting afterglow: %w", err)
	}
	return afterglow(s), nil
}

func verdict(s forecast.Sample) Verdict {
	good := !hasBadCondition(s.Conditions) && *s.CloudCoverage < maxGoodCloudCoverage

	v := Verdict{Good: good, Icon: Icon(s.Primary())}
	if good {
		v.Badge = "Ideal"
		v.Message = "Great conditions for golden hour photography!"
	} else {
		v.Badge = "Suboptimal"
		v.Message = "Weather conditions may affect golden hour quality."
	}
	return v
}

func hasBadCondition(labels []string) bool {
	for _, label := range labels {
		for _, bad := range badConditions {
			if strings.Contains(label, bad) {
				return true
			}
		}
	}
	return false
}

// Icon maps a primary condition label onto a display category.
func Icon(primary string) string {
	switch primary {
	case "Clear":
		return "sun"
	case "Rain", "Drizzle":
		return "rain"
	case "Thunderstorm":
		return "lightning"
	case "Snow":
		return "snow"
	case "Mist", "Fog", "Haze":
		return "fog"
	}
	return "cloud"
}

func afterglow(s forecast.Sample) Prediction {
	q := Moderate
	factors := []string{}

	high := s.Clouds.HighClouds()
	low := s.Clouds.LowClouds()
	humidity := *s.Humidity
	wind := *s.WindSpeed
	pop := s.Precipitation()

	if high > 30 && high < 70 {
		factors = append(factors, fmt.Sprintf("High clouds (%s%%) are good for light scattering", display(high)))
	}
	if high >= 70 {
		factors = append(factors, fmt.Sprintf("High cloud cover (%s%%) may block afterglow", display(high)))
		q = Poor
	}
	if low > 30 {
		factors = append(factors, fmt.Sprintf("Low clouds (%s%%) may block afterglow", display(low)))
		q = Poor
	}

	if humidity > 70 {
		factors = append(factors, fmt.Sprintf("High humidity (%s%%) is good for scattering", display(humidity)))
		if q != Poor {
			q = Good
		}
	}
	if humidity < 30 {
		factors = append(factors, fmt.Sprintf("Low humidity (%s%%) may reduce intensity", display(humidity)))
		if q == Moderate {
			q = Poor
		}
	}

	if s.Visibility != nil {
		km := *s.Visibility / 1000
		if *s.Visibility < 5000 {
			factors = append(factors, fmt.Sprintf("Reduced visibility (%s km) enhances colors", display(km)))
			if q != Poor {
				q = Good
			}
		}
		if *s.Visibility > 20000 {
			factors = append(factors, fmt.Sprintf("Very clear air (%s km visibility) may reduce intensity", display(km)))
			if q == Moderate {
				q = Poor
			}
		}
	}

	if wind > 20 {
		factors = append(factors, fmt.Sprintf("Strong wind (%s m/s) disperses particles", display(wind)))
		if q == Good {
			q = Moderate
		}
	}
	if pop > 0.3 {
		factors = append(factors, fmt.Sprintf("Chance of precipitation (%s%%) may affect afterglow", display(pop*100)))
		if q == Good {
			q = Moderate
		}
	}

	if s.Pressure != nil && *s.Pressure < 1000 {
		factors = append(factors, fmt.Sprintf("Low pressure (%s hPa) enhances atmospheric effects", display(*s.Pressure)))
		if q == Good {
			q = Excellent
		}
	}

	return Prediction{Quality: q, Description: q.Description(), Factors: factors}
}

// display formats a factor value to one decimal, dropping a trailing ".0".
func display(v float64) string {
	r := math.Round(v*10) / 10
	if r == math.Trunc(r) {
		return fmt.Sprintf("%.0f", r)
	}
	return fmt.Sprintf("%.1f", r)
}
