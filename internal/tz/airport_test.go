package tz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/nocparse/backend/internal/models"
)

func TestExtractIATACode(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"ATL-SW1", "ATL"},
		{"JFK_CORE01", "JFK"},
		{"SEA router 3", "SEA"},
		{"MIA", "MIA"},
		{"Atlanta Office", ""},
		{"atl-sw1", ""},
		{"ABCD-1", ""},
	}
	for _, c := range cases {
		if got := ExtractIATACode(c.label); got != c.want {
			t.Fatalf("ExtractIATACode(%q) = %q, want %q", c.label, got, c.want)
		}
	}
}

func TestAirportResolverLookupAndCache(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("iata") != "ATL" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"iata":"ATL","city":"Atlanta","country":"US","timezone":"America/New_York"}]`))
	}))
	defer srv.Close()

	r := &AirportResolver{
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(rate.Inf, 1),
	}
	loc, err := r.Resolve(context.Background(), "ATL-SW1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.Timezone != "America/New_York" || loc.City != "Atlanta" {
		t.Fatalf("unexpected location: %+v", loc)
	}

	if _, err := r.Resolve(context.Background(), "ATL-SW2"); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cached second lookup, got %d calls", calls)
	}
}

func TestAirportResolverRetriesOnThrottle(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"iata":"DEN","city":"Denver","country":"US","timezone":"America/Denver"}]`))
	}))
	defer srv.Close()

	r := &AirportResolver{
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Backoff: time.Millisecond,
	}
	loc, err := r.Resolve(context.Background(), "DEN-RTR1")
	if err != nil {
		t.Fatalf("resolve after retry: %v", err)
	}
	if loc.Timezone != "America/Denver" {
		t.Fatalf("unexpected timezone: %s", loc.Timezone)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
}

func TestAirportResolverStaticFallbackOnHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Service temporarily unavailable</body></html>"))
	}))
	defer srv.Close()

	r := &AirportResolver{
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Backoff: time.Millisecond,
	}
	loc, err := r.Resolve(context.Background(), "SFO-CORE")
	if err != nil {
		t.Fatalf("expected static fallback, got %v", err)
	}
	if loc.Timezone != "America/Los_Angeles" {
		t.Fatalf("unexpected timezone: %s", loc.Timezone)
	}
}

func TestAirportResolverUnknownCodeMisses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	r := &AirportResolver{
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Backoff: time.Millisecond,
	}
	if _, err := r.Resolve(context.Background(), "ZZQ-SW1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown code should miss, got %v", err)
	}
}

func TestChainPrefersFirstHit(t *testing.T) {
	city, err := NewCityResolver()
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	chain := Chain{&AirportResolver{}, city}

	// No airport code in the label: the airport strategy misses and the
	// city dictionary answers.
	loc, err := chain.Resolve(context.Background(), "Seattle warehouse")
	if err != nil {
		t.Fatalf("chain resolve: %v", err)
	}
	if loc.Timezone != "America/Los_Angeles" {
		t.Fatalf("unexpected timezone: %s", loc.Timezone)
	}
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, string) (models.SiteLocation, error) {
	return models.SiteLocation{}, f.err
}

func TestChainSurfacesDegradedError(t *testing.T) {
	degraded := errors.New("lookup service unavailable")
	chain := Chain{failingResolver{err: degraded}, failingResolver{err: ErrNotFound}}

	_, err := chain.Resolve(context.Background(), "Gotham")
	if !errors.Is(err, degraded) {
		t.Fatalf("degraded strategy error must surface when nothing claims the label, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("a degraded failure must not be reported as a plain miss")
	}

	// A later hit still wins over an earlier failure.
	city, cityErr := NewCityResolver()
	if cityErr != nil {
		t.Fatalf("load dictionary: %v", cityErr)
	}
	loc, err := Chain{failingResolver{err: degraded}, city}.Resolve(context.Background(), "Seattle")
	if err != nil {
		t.Fatalf("chain resolve: %v", err)
	}
	if loc.Timezone != "America/Los_Angeles" {
		t.Fatalf("unexpected timezone: %s", loc.Timezone)
	}
}
