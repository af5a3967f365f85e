// Package tz resolves free-text site labels to IANA timezones. Two
// independent strategies exist: a static city-name dictionary and an external
// airport-code lookup. A miss is an expected outcome; callers must treat an
// unresolved site as "unknown", never as UTC.
package tz

import (
	"context"
	"errors"

	"github.com/nocparse/backend/internal/models"
)

var ErrNotFound = errors.New("timezone not found")

type Resolver interface {
	Resolve(ctx context.Context, label string) (models.SiteLocation, error)
}

// Chain tries each resolver in order and returns the first hit. Strategy
// results are never merged: the first resolver that claims the label wins.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, label string) (models.SiteLocation, error) {
	lastErr := error(ErrNotFound)
	for _, r := range c {
		loc, err := r.Resolve(ctx, label)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			// Degraded resolver, not a miss: let the next strategy try,
			// but surface this error if nothing else claims the label.
			lastErr = err
		}
	}
	return models.SiteLocation{}, lastErr
}
