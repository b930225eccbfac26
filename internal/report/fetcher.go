package report

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/solar"
)

// forecastFetcher is the interface satisfied by ForecastClient.
type forecastFetcher interface {
	Fetch(ctx context.Context, coord solar.Coordinate) ([]forecast.Sample, error)
}

// currentFetcher is the interface satisfied by CurrentClient.
type currentFetcher interface {
	Fetch(ctx context.Context, coord solar.Coordinate) (*forecast.Sample, error)
}

// reverseGeocoder is the interface satisfied by GeocodeClient.
type reverseGeocoder interface {
	Reverse(ctx context.Context, coord solar.Coordinate) (*Place, error)
}

// Upstreams is the raw data gathered for one coordinate.
type Upstreams struct {
	Forecast []forecast.Sample
	Current  *forecast.Sample
	Place    *Place
}

// Fetcher gathers forecast, current weather and place name in parallel.
type Fetcher struct {
	forecast forecastFetcher
	current  currentFetcher
	geocoder reverseGeocoder
	logger   *slog.Logger
}

// NewFetcher constructs a Fetcher with all clients using production URLs.
func NewFetcher(apiKey string, u *Upstream, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		forecast: NewForecastClient(apiKey, u),
		current:  NewCurrentClient(apiKey, u),
		geocoder: NewGeocodeClient(apiKey, u),
		logger:   logger,
	}
}

// NewFetcherWithClients constructs a Fetcher with injectable clients (used in tests).
func NewFetcherWithClients(f forecastFetcher, c currentFetcher, g reverseGeocoder, logger *slog.Logger) *Fetcher {
	return &Fetcher{forecast: f, current: c, geocoder: g, logger: logger}
}

// FetchAll runs all upstream calls concurrently. The forecast is required and
// its failure fails the call; current weather and place name are best effort
// and left nil when they cannot be fetched.
func (f *Fetcher) FetchAll(ctx context.Context, coord solar.Coordinate) (*Upstreams, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var out Upstreams

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				f.logger.Error("forecast fetch panicked", "recover", r)
				err = fmt.Errorf("forecast fetch panicked: %v", r)
			}
		}()
		samples, fetchErr := f.forecast.Fetch(gCtx, coord)
		if fetchErr != nil {
			return fetchErr
		}
		out.Forecast = samples
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				f.logger.Error("current weather fetch panicked", "recover", r)
				err = fmt.Errorf("current weather fetch panicked: %v", r)
			}
		}()
		cur, fetchErr := f.current.Fetch(gCtx, coord)
		if fetchErr != nil {
			f.logger.Warn("current weather fetch failed", "coord", coord.String(), "err", fetchErr)
			return nil
		}
		out.Current = cur
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				f.logger.Error("reverse geocode panicked", "recover", r)
				err = fmt.Errorf("reverse geocode panicked: %v", r)
			}
		}()
		place, fetchErr := f.geocoder.Reverse(gCtx, coord)
		if fetchErr != nil {
			f.logger.Warn("reverse geocode failed", "coord", coord.String(), "err", fetchErr)
			return nil
		}
		out.Place = place
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching upstream data for %s: %w", coord, err)
	}
	return &out, nil
}
