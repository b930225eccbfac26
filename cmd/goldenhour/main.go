// Command goldenhour prints today's golden-hour windows for a location and,
// when an OpenWeather key is available, the forecast verdicts for each window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/neexbeast/golden-hour/internal/fault"
	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/report"
	"github.com/neexbeast/golden-hour/internal/solar"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("loading .env", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, log); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "goldenhour:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	lat, lon float64
	place    string
	policy   string
	apiKey   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	set := flag.NewFlagSet("goldenhour", flag.ContinueOnError)
	set.SetOutput(stderr)
	set.Float64Var(&o.lat, "lat", 0, "latitude in decimal degrees")
	set.Float64Var(&o.lon, "lon", 0, "longitude in decimal degrees")
	set.StringVar(&o.place, "place", "", "place name to geocode instead of -lat/-lon")
	set.StringVar(&o.policy, "policy", string(forecast.PolicyNearest), "forecast selection policy: nearest or first-at-or-after")
	set.StringVar(&o.apiKey, "api-key", os.Getenv("OPENWEATHER_API_KEY"), "OpenWeather API key; without it only the solar windows are printed")
	if err := set.Parse(args); err != nil {
		return options{}, err
	}

	seen := map[string]bool{}
	set.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	if o.place == "" && !(seen["lat"] && seen["lon"]) {
		return options{}, fmt.Errorf("either -place or both -lat and -lon are required: %w", fault.ErrInvalidArgument)
	}
	if o.place != "" && o.apiKey == "" {
		return options{}, fmt.Errorf("-place needs an OpenWeather API key: %w", fault.ErrInvalidArgument)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, log *slog.Logger) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	policy, err := forecast.ParsePolicy(o.policy)
	if err != nil {
		return err
	}

	calc := solar.NewCalculator(nil)
	coord := solar.Coordinate{Latitude: o.lat, Longitude: o.lon}

	if o.apiKey == "" {
		now := time.Now()
		window, err := calc.ComputeGoldenHour(coord, now)
		if err != nil {
			return err
		}
		renderWindow(stdout, coord, window, now)
		return nil
	}

	upstream := report.NewUpstream(log)
	if o.place != "" {
		place, err := report.NewGeocodeClient(o.apiKey, upstream).Search(ctx, o.place)
		if err != nil {
			return err
		}
		coord = place.Coordinate
	}

	builder := report.NewBuilder(calc, report.NewFetcher(o.apiKey, upstream, log), nil, log, nil)
	rep, err := builder.Build(ctx, coord, policy)
	if err != nil {
		return err
	}
	renderReport(stdout, rep)
	return nil
}
