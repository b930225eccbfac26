package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
	"golang.org/x/time/rate"

	"github.com/neexbeast/golden-hour/internal/fault"
	"github.com/neexbeast/golden-hour/internal/forecast"
	"github.com/neexbeast/golden-hour/internal/metrics"
	"github.com/neexbeast/golden-hour/internal/solar"
)

const httpTimeout = 10 * time.Second

const (
	owmForecastURL = "https://api.openweathermap.org/data/2.5/forecast"
	owmWeatherURL  = "https://api.openweathermap.org/data/2.5/weather"
	owmDirectURL   = "https://api.openweathermap.org/geo/1.0/direct"
	owmReverseURL  = "https://api.openweathermap.org/geo/1.0/reverse"
)

// ErrPlaceNotFound is returned by the geocoder when a query has no match.
var ErrPlaceNotFound = errors.New("place not found")

// Upstream is the HTTP transport shared by every OpenWeatherMap client:
// one rate limiter, one retry policy, one set of counters.
type Upstream struct {
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
}

// UpstreamOption configures an Upstream.
type UpstreamOption func(*Upstream)

// WithRateLimit caps outgoing requests at rps with the given burst.
func WithRateLimit(rps float64, burst int) UpstreamOption {
	return func(u *Upstream) { u.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithRetry sets how many attempts a request gets and the initial backoff.
func WithRetry(attempts uint, delay time.Duration) UpstreamOption {
	return func(u *Upstream) {
		u.attempts = attempts
		u.delay = delay
		u.maxDelay = 30 * delay
	}
}

// WithMetrics records every request outcome on m.
func WithMetrics(m *metrics.Metrics) UpstreamOption {
	return func(u *Upstream) { u.metrics = m }
}

// NewUpstream returns a transport limited to 1 request/s (burst 5) that tries
// each request up to 3 times.
func NewUpstream(logger *slog.Logger, opts ...UpstreamOption) *Upstream {
	u := &Upstream{
		client:   &http.Client{Timeout: httpTimeout},
		limiter:  rate.NewLimiter(rate.Limit(1), 5),
		logger:   logger,
		attempts: 3,
		delay:    500 * time.Millisecond,
		maxDelay: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// getJSON performs a GET and decodes the JSON response into dst. Transport
// errors and 5xx responses are retried with jittered exponential backoff;
// 429 and other non-200 statuses fail immediately. The endpoint name labels
// logs and metrics; rawURL carries the API key and is never logged.
func (u *Upstream) getJSON(ctx context.Context, endpoint, rawURL string, dst any) error {
	// A request ends in exactly one of ok, error or rate_limited.
	rateLimited := false
	err := retry.Do(
		func() error {
			if err := u.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(fmt.Errorf("waiting for %s rate limiter: %w", endpoint, err))
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request for %s: %w", endpoint, err))
			}

			resp, err := u.client.Do(req)
			if err != nil {
				// *url.Error repeats the full URL, API key included.
				var uerr *url.Error
				if errors.As(err, &uerr) {
					err = uerr.Err
				}
				return fmt.Errorf("GET %s: %w", endpoint, err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				rateLimited = true
				return retry.Unrecoverable(fmt.Errorf("rate limited by %s", endpoint))
			case resp.StatusCode >= 500:
				return fmt.Errorf("GET %s returned status %d", endpoint, resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("GET %s returned status %d", endpoint, resp.StatusCode))
			}

			if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decoding response from %s: %w", endpoint, err))
			}
			return nil
		},
		retry.Attempts(u.attempts),
		retry.Delay(u.delay),
		retry.MaxDelay(u.maxDelay),
		retry.MaxJitter(u.delay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			u.metrics.UpstreamRequest(endpoint, metrics.ResultRetried)
			u.logger.Info("retrying upstream request", "endpoint", endpoint, "attempt", n+1, "err", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	switch {
	case rateLimited:
		u.metrics.UpstreamRequest(endpoint, metrics.ResultRateLimited)
		return fmt.Errorf("%w: %w", fault.ErrUpstreamUnavailable, err)
	case err != nil:
		u.metrics.UpstreamRequest(endpoint, metrics.ResultError)
		return fmt.Errorf("%w: %w", fault.ErrUpstreamUnavailable, err)
	}
	u.metrics.UpstreamRequest(endpoint, metrics.ResultOK)
	return nil
}

func coordQuery(c solar.Coordinate) string {
	return "lat=" + strconv.FormatFloat(c.Latitude, 'f', -1, 64) +
		"&lon=" + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// ---- OpenWeatherMap weather payloads ----

// owmPoint is the shape shared by forecast list entries and current weather.
// Pointers keep absent fields absent.
type owmPoint struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"`
	Pop        *float64 `json:"pop"`
}

func (p owmPoint) sample() forecast.Sample {
	s := forecast.Sample{
		Timestamp:                time.Unix(p.Dt, 0).UTC(),
		CloudCoverage:            p.Clouds.All,
		Temperature:              p.Main.Temp,
		Humidity:                 p.Main.Humidity,
		WindSpeed:                p.Wind.Speed,
		Visibility:               p.Visibility,
		PrecipitationProbability: p.Pop,
		Pressure:                 p.Main.Pressure,
	}
	for _, w := range p.Weather {
		s.Conditions = append(s.Conditions, w.Main)
	}
	if len(p.Weather) > 0 {
		s.Description = p.Weather[0].Description
	}
	return s
}

// ---- 5 day / 3 hour forecast ----

// ForecastClient fetches the 5-day, 3-hourly forecast from OpenWeatherMap.
type ForecastClient struct {
	apiKey   string
	baseURL  string
	upstream *Upstream
}

// NewForecastClient constructs a ForecastClient against the production API.
func NewForecastClient(apiKey string, u *Upstream) *ForecastClient {
	return &ForecastClient{apiKey: apiKey, baseURL: owmForecastURL, upstream: u}
}

// NewForecastClientWithURL constructs a ForecastClient pointing at a custom base URL (for tests).
func NewForecastClientWithURL(baseURL, apiKey string, u *Upstream) *ForecastClient {
	return &ForecastClient{apiKey: apiKey, baseURL: baseURL, upstream: u}
}

type owmForecastResponse struct {
	List []owmPoint `json:"list"`
}

// Fetch returns the forecast samples for coord in provider order.
func (c *ForecastClient) Fetch(ctx context.Context, coord solar.Coordinate) ([]forecast.Sample, error) {
	endpoint := c.baseURL + "?" + coordQuery(coord) + "&appid=" + url.QueryEscape(c.apiKey)

	var raw owmForecastResponse
	if err := c.upstream.getJSON(ctx, "forecast", endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetching forecast for %s: %w", coord, err)
	}
	if len(raw.List) == 0 {
		return nil, fmt.Errorf("fetching forecast for %s: empty list: %w", coord, fault.ErrUpstreamUnavailable)
	}

	samples := make([]forecast.Sample, 0, len(raw.List))
	for _, p := range raw.List {
		samples = append(samples, p.sample())
	}
	return samples, nil
}

// ---- current weather ----

// CurrentClient fetches current conditions from OpenWeatherMap.
type CurrentClient struct {
	apiKey   string
	baseURL  string
	upstream *Upstream
}

// NewCurrentClient constructs a CurrentClient against the production API.
func NewCurrentClient(apiKey string, u *Upstream) *CurrentClient {
	return &CurrentClient{apiKey: apiKey, baseURL: owmWeatherURL, upstream: u}
}

// NewCurrentClientWithURL constructs a CurrentClient pointing at a custom base URL (for tests).
func NewCurrentClientWithURL(baseURL, apiKey string, u *Upstream) *CurrentClient {
	return &CurrentClient{apiKey: apiKey, baseURL: baseURL, upstream: u}
}

// Fetch returns the current conditions at coord as a single sample.
func (c *CurrentClient) Fetch(ctx context.Context, coord solar.Coordinate) (*forecast.Sample, error) {
	endpoint := c.baseURL + "?" + coordQuery(coord) + "&appid=" + url.QueryEscape(c.apiKey)

	var raw owmPoint
	if err := c.upstream.getJSON(ctx, "weather", endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetching current weather for %s: %w", coord, err)
	}
	s := raw.sample()
	return &s, nil
}

// ---- geocoding ----

// GeocodeClient resolves place names to coordinates and back. Reverse lookups
// are cached in memory, keyed by the coordinate rounded to about 100 m.
type GeocodeClient struct {
	apiKey     string
	directURL  string
	reverseURL string
	upstream   *Upstream
	reverse    *otter.Cache[string, Place]
}

const (
	reverseCacheSize = 10_000
	reverseCacheTTL  = 24 * time.Hour
)

// NewGeocodeClient constructs a GeocodeClient against the production API.
func NewGeocodeClient(apiKey string, u *Upstream) *GeocodeClient {
	return NewGeocodeClientWithURLs(owmDirectURL, owmReverseURL, apiKey, u)
}

// NewGeocodeClientWithURLs constructs a GeocodeClient pointing at custom URLs (for tests).
func NewGeocodeClientWithURLs(directURL, reverseURL, apiKey string, u *Upstream) *GeocodeClient {
	return &GeocodeClient{
		apiKey:     apiKey,
		directURL:  directURL,
		reverseURL: reverseURL,
		upstream:   u,
		reverse: otter.Must(&otter.Options[string, Place]{
			MaximumSize:      reverseCacheSize,
			ExpiryCalculator: otter.ExpiryWriting[string, Place](reverseCacheTTL),
		}),
	}
}

type owmGeoEntry struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (e owmGeoEntry) place() Place {
	return Place{
		Name:       e.Name,
		Country:    e.Country,
		State:      e.State,
		Coordinate: solar.Coordinate{Latitude: e.Lat, Longitude: e.Lon},
	}
}

// Search returns the best match for a free-text place query.
func (c *GeocodeClient) Search(ctx context.Context, query string) (*Place, error) {
	if query == "" {
		return nil, fmt.Errorf("geocoding empty query: %w", fault.ErrInvalidArgument)
	}
	endpoint := c.directURL + "?q=" + url.QueryEscape(query) + "&limit=1&appid=" + url.QueryEscape(c.apiKey)

	var raw []owmGeoEntry
	if err := c.upstream.getJSON(ctx, "geocode", endpoint, &raw); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("geocoding %q: %w", query, ErrPlaceNotFound)
	}
	p := raw[0].place()
	return &p, nil
}

// Reverse returns the place nearest to coord.
func (c *GeocodeClient) Reverse(ctx context.Context, coord solar.Coordinate) (*Place, error) {
	key := reverseKey(coord)
	if p, ok := c.reverse.GetIfPresent(key); ok {
		return &p, nil
	}

	endpoint := c.reverseURL + "?" + coordQuery(coord) + "&limit=1&appid=" + url.QueryEscape(c.apiKey)

	var raw []owmGeoEntry
	if err := c.upstream.getJSON(ctx, "reverse_geocode", endpoint, &raw); err != nil {
		return nil, fmt.Errorf("reverse geocoding %s: %w", coord, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("reverse geocoding %s: %w", coord, ErrPlaceNotFound)
	}

	p := raw[0].place()
	c.reverse.Set(key, p)
	return &p, nil
}

func reverseKey(c solar.Coordinate) string {
	round := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return fmt.Sprintf("%.3f:%.3f", round(c.Latitude), round(c.Longitude))
}
