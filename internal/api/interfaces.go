package api

import (
	"context"
	"time"

	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/report"
	"github.com/neexbeast/golden-hour/internal/solar"
	"github.com/neexbeast/golden-hour/internal/storage"
)

// SpotRepo defines the storage operations needed by handlers.
type SpotRepo interface {
	UpsertSpot(ctx context.Context, name string, coord solar.Coordinate) (*storage.Spot, error)
	GetSpot(ctx context.Context, name string) (*storage.Spot, error)
	ListSpots(ctx context.Context) ([]*storage.Spot, error)
	DeleteSpot(ctx context.Context, name string) (bool, error)
}

// ReportCache defines the cache operations needed by handlers.
type ReportCache interface {
	Get(ctx context.Context, policy forecast.Policy, coord solar.Coordinate) (*report.Report, error)
	Set(ctx context.Context, r *report.Report) error
	Delete(ctx context.Context, policy forecast.Policy, coord solar.Coordinate) error
}

// ReportBuilder builds a fresh report from upstream data.
type ReportBuilder interface {
	Build(ctx context.Context, coord solar.Coordinate, policy forecast.Policy) (*report.Report, error)
}

// PlaceSearcher geocodes free-text place names.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) (*report.Place, error)
}

// SolarCalculator computes golden-hour windows.
type SolarCalculator interface {
	ComputeGoldenHour(coord solar.Coordinate, now time.Time) (*solar.GoldenHourWindow, error)
}
