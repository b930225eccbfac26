package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/golden-hour/internal/fault"
	"github.com/neexbeast/golden-hour/internal/forecast"
)

var base = time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)

// threeHourly returns samples at base+0h, +3h, +6h, ... like the OWM 5-day feed.
func threeHourly(n int) []forecast.Sample {
	out := make([]forecast.Sample, n)
	for i := range out {
		out[i] = forecast.Sample{
			Timestamp:  base.Add(time.Duration(3*i) * time.Hour),
			Conditions: []string{"Clear"},
		}
	}
	return out
}

// ---- FirstAtOrAfter ----

func TestFirstAtOrAfter_ExactMatch(t *testing.T) {
	samples := threeHourly(4)
	got, err := forecast.FirstAtOrAfter(samples, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, samples[1].Timestamp, got.Timestamp)
}

func TestFirstAtOrAfter_BetweenSamples(t *testing.T) {
	samples := threeHourly(4)
	got, err := forecast.FirstAtOrAfter(samples, base.Add(3*time.Hour+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, samples[2].Timestamp, got.Timestamp)
}

func TestFirstAtOrAfter_PastLastSample(t *testing.T) {
	samples := threeHourly(4)
	_, err := forecast.FirstAtOrAfter(samples, base.Add(10*time.Hour))
	require.ErrorIs(t, err, forecast.ErrNoCoverage)
	assert.ErrorIs(t, err, fault.ErrUpstreamUnavailable)
}

func TestFirstAtOrAfter_Empty(t *testing.T) {
	_, err := forecast.FirstAtOrAfter(nil, base)
	require.ErrorIs(t, err, fault.ErrInvalidArgument)
}

// ---- Nearest ----

func TestNearest_PicksClosest(t *testing.T) {
	samples := threeHourly(4)

	got, err := forecast.Nearest(samples, base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, samples[1].Timestamp, got.Timestamp)

	got, err = forecast.Nearest(samples, base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, samples[2].Timestamp, got.Timestamp)
}

func TestNearest_TieGoesToFirstOccurrence(t *testing.T) {
	samples := threeHourly(4)
	got, err := forecast.Nearest(samples, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, samples[0].Timestamp, got.Timestamp)
}

func TestNearest_TargetOutsideRange(t *testing.T) {
	samples := threeHourly(4)

	got, err := forecast.Nearest(samples, base.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, samples[0].Timestamp, got.Timestamp)

	got, err = forecast.Nearest(samples, base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, samples[3].Timestamp, got.Timestamp)
}

func TestNearest_Empty(t *testing.T) {
	_, err := forecast.Nearest([]forecast.Sample{}, base)
	require.ErrorIs(t, err, fault.ErrInvalidArgument)
}

// ---- shared properties ----

func TestSelect_SingleElementAlwaysReturned(t *testing.T) {
	only := threeHourly(1)

	for _, target := range []time.Time{base.Add(-time.Hour), base, base.Add(72 * time.Hour)} {
		got, err := forecast.Nearest(only, target)
		require.NoError(t, err)
		assert.Equal(t, only[0].Timestamp, got.Timestamp)
	}

	// FirstAtOrAfter still honours its own contract for the lone sample.
	got, err := forecast.FirstAtOrAfter(only, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, only[0].Timestamp, got.Timestamp)
}

func TestSelect_Idempotent(t *testing.T) {
	samples := threeHourly(8)
	target := base.Add(7 * time.Hour)

	for _, p := range []forecast.Policy{forecast.PolicyNearest, forecast.PolicyFirstAtOrAfter} {
		first, err := forecast.Select(p, samples, target)
		require.NoError(t, err)
		second, err := forecast.Select(p, samples, target)
		require.NoError(t, err)
		assert.Equal(t, first, second, "policy %s", p)
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	samples := threeHourly(4)
	before := make([]forecast.Sample, len(samples))
	copy(before, samples)

	_, _ = forecast.Nearest(samples, base.Add(5*time.Hour))
	_, _ = forecast.FirstAtOrAfter(samples, base.Add(5*time.Hour))
	assert.Equal(t, before, samples)
}

func TestSelect_PoliciesDiffer(t *testing.T) {
	samples := threeHourly(4)
	target := base.Add(4 * time.Hour)

	nearest, err := forecast.Select(forecast.PolicyNearest, samples, target)
	require.NoError(t, err)
	after, err := forecast.Select(forecast.PolicyFirstAtOrAfter, samples, target)
	require.NoError(t, err)

	assert.Equal(t, base.Add(3*time.Hour), nearest.Timestamp)
	assert.Equal(t, base.Add(6*time.Hour), after.Timestamp)
}

func TestSelect_UnknownPolicy(t *testing.T) {
	_, err := forecast.Select("closest-ish", threeHourly(2), base)
	require.ErrorIs(t, err, fault.ErrInvalidArgument)
}

func TestParsePolicy(t *testing.T) {
	p, err := forecast.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, forecast.PolicyNearest, p)

	p, err = forecast.ParsePolicy(" First-At-Or-After ")
	require.NoError(t, err)
	assert.Equal(t, forecast.PolicyFirstAtOrAfter, p)

	_, err = forecast.ParsePolicy("latest")
	require.ErrorIs(t, err, fault.ErrInvalidArgument)
}
