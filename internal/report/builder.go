package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neexbeast/golden-hour/internal/fault"
	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/metrics"
	"github.com/neexbeast/golden-hour/internal/quality"
	"github.com/neexbeast/golden-hour/internal/solar"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// upstreamFetcher is the interface satisfied by Fetcher.
type upstreamFetcher interface {
	FetchAll(ctx context.Context, coord solar.Coordinate) (*Upstreams, error)
}

// Builder assembles a Report from the solar calculator, the selector and the
// scorer.
type Builder struct {
	calc    *solar.Calculator
	fetcher upstreamFetcher
	clock   Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewBuilder wires a Builder. A nil clock means RealClock; m may be nil.
func NewBuilder(calc *solar.Calculator, fetcher upstreamFetcher, clock Clock, logger *slog.Logger, m *metrics.Metrics) *Builder {
	if clock == nil {
		clock = RealClock{}
	}
	return &Builder{calc: calc, fetcher: fetcher, clock: clock, logger: logger, metrics: m}
}

// Build produces the report for coord, selecting window forecasts with policy.
// A window the forecast does not reach yet is left nil.
func (b *Builder) Build(ctx context.Context, coord solar.Coordinate, policy forecast.Policy) (*Report, error) {
	start := time.Now()
	defer func() { b.metrics.ObserveBuild(time.Since(start)) }()

	policy, err := forecast.ParsePolicy(string(policy))
	if err != nil {
		return nil, err
	}

	now := b.clock.Now()
	window, err := b.calc.ComputeGoldenHour(coord, now)
	if err != nil {
		return nil, fmt.Errorf("building report for %s: %w", coord, err)
	}

	up, err := b.fetcher.FetchAll(ctx, coord)
	if err != nil {
		return nil, fmt.Errorf("building report for %s: %w", coord, err)
	}

	r := &Report{
		Coordinate:  coord,
		Place:       up.Place,
		Window:      *window,
		Next:        window.Next(now),
		Policy:      policy,
		GeneratedAt: now.UTC(),
	}

	if r.Morning, err = b.windowForecast(solar.Morning, window.MorningStart, up.Forecast, policy); err != nil {
		return nil, fmt.Errorf("building report for %s: %w", coord, err)
	}
	if r.Evening, err = b.windowForecast(solar.Evening, window.EveningStart, up.Forecast, policy); err != nil {
		return nil, fmt.Errorf("building report for %s: %w", coord, err)
	}

	if up.Current != nil {
		res, err := quality.Score(*up.Current)
		if err != nil {
			b.logger.Warn("current weather unusable", "coord", coord.String(), "err", err)
		} else {
			b.metrics.AfterglowPredicted("current", res.Afterglow.Quality.String())
			r.Current = &Conditions{Sample: *up.Current, Verdict: res.Verdict, Afterglow: res.Afterglow}
		}
	}

	return r, nil
}

func (b *Builder) windowForecast(period solar.Period, target time.Time, samples []forecast.Sample, policy forecast.Policy) (*WindowForecast, error) {
	s, err := forecast.Select(policy, samples, target)
	if errors.Is(err, forecast.ErrNoCoverage) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting %s forecast: %w", period, err)
	}

	res, err := quality.Score(s)
	if err != nil {
		// A malformed provider sample is the provider's fault, not the caller's.
		return nil, fmt.Errorf("scoring %s forecast: %v: %w", period, err, fault.ErrUpstreamUnavailable)
	}
	b.metrics.AfterglowPredicted(string(period), res.Afterglow.Quality.String())

	return &WindowForecast{
		Period:     period,
		Target:     target,
		Conditions: Conditions{Sample: s, Verdict: res.Verdict, Afterglow: res.Afterglow},
	}, nil
}
