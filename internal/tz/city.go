package tz

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nocparse/backend/internal/models"
)

//go:embed cities.yaml
var citiesYAML []byte

type cityDictionary struct {
	Zones   map[string]string `yaml:"zones"`
	Aliases map[string]string `yaml:"aliases"`
	Ignore  []string          `yaml:"ignore"`
}

// CityResolver maps free-text site labels to timezones through a static
// dictionary. Labels made of generic facility words resolve to nothing rather
// than a wrong zone.
type CityResolver struct {
	zones   map[string]string
	aliases map[string]string
	ignore  map[string]bool
}

func NewCityResolver() (*CityResolver, error) {
	var dict cityDictionary
	if err := yaml.Unmarshal(citiesYAML, &dict); err != nil {
		return nil, fmt.Errorf("parse city dictionary: %w", err)
	}
	r := &CityResolver{
		zones:   dict.Zones,
		aliases: dict.Aliases,
		ignore:  make(map[string]bool, len(dict.Ignore)),
	}
	for _, w := range dict.Ignore {
		r.ignore[w] = true
	}
	return r, nil
}

func (r *CityResolver) Resolve(_ context.Context, label string) (models.SiteLocation, error) {
	norm := normalizeLabel(label)
	if norm == "" || r.ignore[norm] {
		return models.SiteLocation{}, ErrNotFound
	}
	if canonical, ok := r.aliases[norm]; ok {
		norm = canonical
	}
	if zone, ok := r.zones[norm]; ok {
		return r.found(label, norm, zone), nil
	}

	words := strings.Fields(norm)

	// First significant word: skips short prefixes like site codes.
	for _, w := range words {
		if len(w) < 4 || r.ignore[w] {
			continue
		}
		if canonical, ok := r.aliases[w]; ok {
			w = canonical
		}
		if zone, ok := r.zones[w]; ok {
			return r.found(label, w, zone), nil
		}
		break
	}

	// Per-word scan, including two-word city names.
	for i, w := range words {
		if r.ignore[w] {
			continue
		}
		if i+1 < len(words) {
			pair := w + " " + words[i+1]
			if canonical, ok := r.aliases[pair]; ok {
				pair = canonical
			}
			if zone, ok := r.zones[pair]; ok {
				return r.found(label, pair, zone), nil
			}
		}
		if canonical, ok := r.aliases[w]; ok {
			w = canonical
		}
		if zone, ok := r.zones[w]; ok {
			return r.found(label, w, zone), nil
		}
	}
	return models.SiteLocation{}, ErrNotFound
}

func (r *CityResolver) found(label, city, zone string) models.SiteLocation {
	return models.SiteLocation{
		Identifier: strings.TrimSpace(label),
		City:       city,
		Timezone:   zone,
	}
}

func normalizeLabel(label string) string {
	lower := strings.ToLower(strings.TrimSpace(label))
	lower = strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '/':
			return ' '
		}
		return r
	}, lower)
	return strings.Join(strings.Fields(lower), " ")
}
