package forecast

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neexbeast/golden-hour/internal/fault"
)

// ErrNoCoverage is returned by FirstAtOrAfter when every sample predates the
// target instant.
var ErrNoCoverage = fmt.Errorf("no forecast covers the requested instant: %w", fault.ErrUpstreamUnavailable)

// Policy selects how a target instant is mapped onto a sample.
type Policy string

const (
	// PolicyNearest picks the sample with the smallest absolute time difference.
	PolicyNearest Policy = "nearest"
	// PolicyFirstAtOrAfter picks the first sample at or after the target.
	PolicyFirstAtOrAfter Policy = "first-at-or-after"
)

// ParsePolicy maps a user-supplied name onto a Policy. Empty selects PolicyNearest.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyNearest:
		return PolicyNearest, nil
	case PolicyFirstAtOrAfter:
		return PolicyFirstAtOrAfter, nil
	}
	return "", fmt.Errorf("unknown selection policy %q: %w", s, fault.ErrInvalidArgument)
}

// Select dispatches to the named policy.
func Select(p Policy, samples []Sample, target time.Time) (Sample, error) {
	switch p {
	case PolicyNearest:
		return Nearest(samples, target)
	case PolicyFirstAtOrAfter:
		return FirstAtOrAfter(samples, target)
	}
	return Sample{}, fmt.Errorf("unknown selection policy %q: %w", p, fault.ErrInvalidArgument)
}

var errNoSamples = errors.New("no forecast samples")

// FirstAtOrAfter returns the first sample, in input order, whose timestamp is
// not before target.
func FirstAtOrAfter(samples []Sample, target time.Time) (Sample, error) {
	if len(samples) == 0 {
		return Sample{}, fmt.Errorf("selecting forecast at or after %s: %w: %w", target.UTC().Format(time.RFC3339), errNoSamples, fault.ErrInvalidArgument)
	}
	for _, s := range samples {
		if !s.Timestamp.Before(target) {
			return s, nil
		}
	}
	return Sample{}, fmt.Errorf("selecting forecast at or after %s: %w", target.UTC().Format(time.RFC3339), ErrNoCoverage)
}

// Nearest returns the sample closest in time to target. Ties go to the
// earlier position in samples.
func Nearest(samples []Sample, target time.Time) (Sample, error) {
	if len(samples) == 0 {
		return Sample{}, fmt.Errorf("selecting forecast nearest %s: %w: %w", target.UTC().Format(time.RFC3339), errNoSamples, fault.ErrInvalidArgument)
	}

	best := 0
	bestDiff := absDuration(samples[0].Timestamp.Sub(target))
	for i := 1; i < len(samples); i++ {
		if d := absDuration(samples[i].Timestamp.Sub(target)); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return samples[best], nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
