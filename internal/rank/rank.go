package rank

import (
	"sort"

	"github.com/nocparse/backend/internal/extract"
	"github.com/nocparse/backend/internal/models"
	"github.com/nocparse/backend/internal/utils"
)

// Merge combines same-named categories captured from different chunks or
// pages into one, deduplicating findings by provenance key. Detection order
// is preserved for both categories and rows.
func Merge(categories []models.Category) []models.Category {
	index := map[string]int{}
	seen := map[uint64]bool{}
	var out []models.Category
	for _, cat := range categories {
		i, ok := index[cat.Name]
		if !ok {
			index[cat.Name] = len(out)
			out = append(out, models.Category{Name: cat.Name})
			i = len(out) - 1
		}
		for _, f := range cat.Findings {
			key := utils.HashStringToUint64(cat.Name + "|" + f.Provenance.Key())
			if seen[key] {
				continue
			}
			seen[key] = true
			out[i].Findings = append(out[i].Findings, f)
		}
	}
	for i := range out {
		out[i].TotalFindings = len(out[i].Findings)
	}
	return out
}

// Rank sorts each category's findings by severity then occurrence count
// (both descending) and resorts categories by the policy's global priority.
// Sorts are stable: equal rows keep detection order so identical input yields
// identical output across runs.
func Rank(categories []models.Category, policy Policy) []models.Category {
	out := make([]models.Category, len(categories))
	copy(out, categories)

	for i := range out {
		kind := extract.KindForCategory(out[i].Name)
		findings := make([]models.Finding, len(out[i].Findings))
		copy(findings, out[i].Findings)
		sort.SliceStable(findings, func(a, b int) bool {
			sa, sb := policy.Severity(kind, findings[a]), policy.Severity(kind, findings[b])
			if sa != sb {
				return sa > sb
			}
			return findings[a].Occurrences > findings[b].Occurrences
		})
		out[i].Findings = findings
	}

	sort.SliceStable(out, func(a, b int) bool {
		return policy.priorityIndex(extract.KindForCategory(out[a].Name)) <
			policy.priorityIndex(extract.KindForCategory(out[b].Name))
	})
	return out
}

// Truncate bounds each category's emitted findings to n while keeping
// TotalFindings at the true pre-truncation count. n <= 0 leaves categories
// untouched for internal consumers.
func Truncate(categories []models.Category, n int) []models.Category {
	if n <= 0 {
		return categories
	}
	out := make([]models.Category, len(categories))
	copy(out, categories)
	for i := range out {
		if out[i].TotalFindings < len(out[i].Findings) {
			out[i].TotalFindings = len(out[i].Findings)
		}
		if len(out[i].Findings) > n {
			out[i].Findings = out[i].Findings[:n]
		}
	}
	return out
}
