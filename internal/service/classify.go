package service

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/nocparse/backend/internal/models"
	"github.com/nocparse/backend/internal/temporal"
	"github.com/nocparse/backend/internal/tz"
)

type ClassifyStats struct {
	Resolved      int            `json:"resolved"`
	Unresolved    int            `json:"unresolved"`
	BusinessYes   int            `json:"business_yes"`
	BusinessNo    int            `json:"business_no"`
	SiteBreakdown map[string]int `json:"site_breakdown,omitempty"`
}

// ClassifyImpact attaches timezone and business-hours fields to every
// finding. This is the one mutation findings receive after mapping.
// Fail-closed throughout: an unresolved site, a date-only timestamp, or an
// unparseable timestamp classifies NO with the reason recorded, never a
// guessed zone or hour.
func ClassifyImpact(ctx context.Context, categories []models.Category, resolver tz.Resolver, hours temporal.Window, logger zerolog.Logger) ([]models.Category, ClassifyStats) {
	stats := ClassifyStats{SiteBreakdown: map[string]int{}}
	// Run-local memo: the same site label appears across many rows.
	memo := map[string]*models.SiteLocation{}

	resolve := func(label string) *models.SiteLocation {
		if label == "" || label == models.Unknown {
			return nil
		}
		if loc, ok := memo[label]; ok {
			return loc
		}
		loc, err := resolver.Resolve(ctx, label)
		if err != nil {
			if !errors.Is(err, tz.ErrNotFound) {
				logger.Warn().Err(err).Str("site", label).Msg("timezone resolution degraded")
			}
			memo[label] = nil
			return nil
		}
		memo[label] = &loc
		return &loc
	}

	out := make([]models.Category, len(categories))
	for ci, cat := range categories {
		impacted := 0
		findings := make([]models.Finding, len(cat.Findings))
		for fi, f := range cat.Findings {
			label := f.Site
			if label == "" || label == models.Unknown {
				label = f.Device
			}
			loc := resolve(label)
			if loc == nil {
				stats.Unresolved++
				stats.BusinessNo++
				f.BusinessImpact = models.ImpactNo
				f.ImpactReason = "timezone unresolved"
				findings[fi] = f
				continue
			}
			stats.Resolved++
			f.Timezone = loc.Timezone

			ts, ok := temporal.Parse(f.LastOccurred)
			switch {
			case !ok:
				f.BusinessImpact = models.ImpactNo
				f.ImpactReason = "no usable timestamp"
			case !ts.HasTime:
				f.BusinessImpact = models.ImpactNo
				f.ImpactReason = "date-only timestamp"
				f.LocalTime = temporal.ToLocalString(ts, loc.Timezone)
			case temporal.IsBusinessHours(ts, loc.Timezone, hours):
				f.BusinessImpact = models.ImpactYes
				f.LocalTime = temporal.ToLocalString(ts, loc.Timezone)
				impacted++
				stats.SiteBreakdown[label]++
			default:
				f.BusinessImpact = models.ImpactNo
				f.ImpactReason = "outside business hours"
				f.LocalTime = temporal.ToLocalString(ts, loc.Timezone)
			}
			if f.BusinessImpact == models.ImpactYes {
				stats.BusinessYes++
			} else {
				stats.BusinessNo++
			}
			findings[fi] = f
		}
		cat.Findings = findings
		cat.BusinessImpacted = impacted
		if len(findings) > 0 {
			cat.BusinessPct = math.Round(float64(impacted)/float64(len(findings))*1000) / 10
		}
		out[ci] = cat
	}
	return out, stats
}
