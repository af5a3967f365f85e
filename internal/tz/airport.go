package tz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nocparse/backend/internal/models"
)

// AirportCache is an optional persistent cache for resolved airport codes.
// The in-memory map in front of it makes duplicate fetches for the same code
// a non-corrupting inefficiency rather than a correctness concern.
type AirportCache interface {
	GetAirport(ctx context.Context, code string) (models.SiteLocation, bool, error)
	PutAirport(ctx context.Context, loc models.SiteLocation) error
}

// AirportResolver resolves IATA-coded site names ("ATL-SW1") through an
// external lookup service, rate-limited and retried, with a static table of
// well-known airports as the fallback when the service is unreachable or
// answers with something that is not JSON.
type AirportResolver struct {
	BaseURL     string
	APIKey      string
	Client      *http.Client
	Limiter     *rate.Limiter
	MaxAttempts int
	Backoff     time.Duration
	Cache       AirportCache

	mu  sync.Mutex
	mem map[string]models.SiteLocation
}

var iataCodeRe = regexp.MustCompile(`^([A-Z]{3})(?:[-_ ]|$)`)

// ExtractIATACode pulls a leading 3-letter airport code from a structured
// site name. Returns "" when the label does not follow the code convention.
func ExtractIATACode(label string) string {
	m := iataCodeRe.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	return m[1]
}

type airportRecord struct {
	IATA     string `json:"iata"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

func (r *AirportResolver) Resolve(ctx context.Context, label string) (models.SiteLocation, error) {
	code := ExtractIATACode(label)
	if code == "" {
		return models.SiteLocation{}, ErrNotFound
	}

	if r.Client == nil {
		r.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if r.Limiter == nil {
		r.Limiter = rate.NewLimiter(rate.Limit(2), 4)
	}
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 3
	}
	if r.Backoff <= 0 {
		r.Backoff = 500 * time.Millisecond
	}

	r.mu.Lock()
	if r.mem == nil {
		r.mem = map[string]models.SiteLocation{}
	}
	if cached, ok := r.mem[code]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	if r.Cache != nil {
		if loc, ok, err := r.Cache.GetAirport(ctx, code); err == nil && ok {
			r.remember(code, loc)
			return loc, nil
		}
	}

	loc, err := r.lookup(ctx, code)
	if err != nil {
		if static, ok := staticAirports[code]; ok {
			static.Identifier = code
			r.remember(code, static)
			return static, nil
		}
		return models.SiteLocation{}, ErrNotFound
	}

	r.remember(code, loc)
	if r.Cache != nil {
		_ = r.Cache.PutAirport(ctx, loc)
	}
	return loc, nil
}

func (r *AirportResolver) remember(code string, loc models.SiteLocation) {
	r.mu.Lock()
	r.mem[code] = loc
	r.mu.Unlock()
}

func (r *AirportResolver) lookup(ctx context.Context, code string) (models.SiteLocation, error) {
	if r.BaseURL == "" {
		return models.SiteLocation{}, fmt.Errorf("airport lookup not configured")
	}

	var lastErr error
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return models.SiteLocation{}, ctx.Err()
			case <-time.After(r.Backoff << (attempt - 1)):
			}
		}
		if err := r.Limiter.Wait(ctx); err != nil {
			return models.SiteLocation{}, err
		}

		loc, retryable, err := r.doRequest(ctx, code)
		if err == nil {
			return loc, nil
		}
		lastErr = err
		if !retryable {
			return models.SiteLocation{}, err
		}
	}
	return models.SiteLocation{}, fmt.Errorf("airport lookup exhausted retries: %w", lastErr)
}

func (r *AirportResolver) doRequest(ctx context.Context, code string) (models.SiteLocation, bool, error) {
	endpoint := fmt.Sprintf("%s/v1/airports?iata=%s", r.BaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.SiteLocation{}, false, err
	}
	if r.APIKey != "" {
		req.Header.Set("X-Api-Key", r.APIKey)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return models.SiteLocation{}, false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return models.SiteLocation{}, true, fmt.Errorf("airport lookup throttled: %s", resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return models.SiteLocation{}, false, fmt.Errorf("airport lookup http error: %s", resp.Status)
	}

	var records []airportRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		// The service sometimes answers with an HTML error page.
		return models.SiteLocation{}, false, fmt.Errorf("airport lookup malformed response: %w", err)
	}
	if len(records) == 0 || records[0].Timezone == "" {
		return models.SiteLocation{}, false, ErrNotFound
	}
	best := records[0]
	return models.SiteLocation{
		Identifier: code,
		City:       best.City,
		Country:    best.Country,
		Timezone:   best.Timezone,
	}, false, nil
}

// staticAirports covers the airports seen most often in source reports, used
// when the external lookup cannot be reached.
var staticAirports = map[string]models.SiteLocation{
	"ATL": {City: "Atlanta", Country: "US", Timezone: "America/New_York"},
	"JFK": {City: "New York", Country: "US", Timezone: "America/New_York"},
	"EWR": {City: "Newark", Country: "US", Timezone: "America/New_York"},
	"BOS": {City: "Boston", Country: "US", Timezone: "America/New_York"},
	"MIA": {City: "Miami", Country: "US", Timezone: "America/New_York"},
	"FLL": {City: "Fort Lauderdale", Country: "US", Timezone: "America/New_York"},
	"ORD": {City: "Chicago", Country: "US", Timezone: "America/Chicago"},
	"DFW": {City: "Dallas", Country: "US", Timezone: "America/Chicago"},
	"IAH": {City: "Houston", Country: "US", Timezone: "America/Chicago"},
	"MSP": {City: "Minneapolis", Country: "US", Timezone: "America/Chicago"},
	"DEN": {City: "Denver", Country: "US", Timezone: "America/Denver"},
	"PHX": {City: "Phoenix", Country: "US", Timezone: "America/Phoenix"},
	"LAX": {City: "Los Angeles", Country: "US", Timezone: "America/Los_Angeles"},
	"SFO": {City: "San Francisco", Country: "US", Timezone: "America/Los_Angeles"},
	"SEA": {City: "Seattle", Country: "US", Timezone: "America/Los_Angeles"},
	"LHR": {City: "London", Country: "GB", Timezone: "Europe/London"},
	"FRA": {City: "Frankfurt", Country: "DE", Timezone: "Europe/Berlin"},
	"SIN": {City: "Singapore", Country: "SG", Timezone: "Asia/Singapore"},
	"HND": {City: "Tokyo", Country: "JP", Timezone: "Asia/Tokyo"},
	"SYD": {City: "Sydney", Country: "AU", Timezone: "Australia/Sydney"},
}
