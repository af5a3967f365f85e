// Package rank merges categories captured across chunks, deduplicates rows by
// provenance, and orders output by operational severity.
package rank

import (
	"github.com/nocparse/backend/internal/extract"
	"github.com/nocparse/backend/internal/models"
)

// Policy is the ranking business policy. The severity rules are heuristics
// inherited from operator practice, not derived from data, so they live in a
// swappable value instead of hard-coded comparator logic.
type Policy struct {
	// Priority orders categories globally, most severe first. Kinds absent
	// from the list sort after all listed ones, in detection order.
	Priority []extract.CategoryKind
	// TopN bounds the findings emitted per category for display. Zero means
	// untruncated.
	TopN int
}

// DefaultPolicy: connectivity loss outranks device/interface availability,
// which outranks capacity and error-rate categories.
func DefaultPolicy() Policy {
	return Policy{
		Priority: []extract.CategoryKind{
			extract.KindUnreachableSites,
			extract.KindDeviceDown,
			extract.KindInterfaceDown,
			extract.KindWirelessErrors,
			extract.KindPortErrors,
			extract.KindConnectedClients,
		},
		TopN: 3,
	}
}

func (p Policy) priorityIndex(kind extract.CategoryKind) int {
	for i, k := range p.Priority {
		if k == kind {
			return i
		}
	}
	return len(p.Priority)
}

// Severity ranks a finding within its category; higher is more severe.
// Heuristics, preserved from operator practice:
//   - unreachable sites and device-down events are always major (3)
//   - interface-down and wireless-error rows with double-digit evidence are
//     elevated to major, otherwise minor (2)
//   - everything else informational (1)
func (p Policy) Severity(kind extract.CategoryKind, f models.Finding) int {
	switch kind {
	case extract.KindUnreachableSites, extract.KindDeviceDown:
		return 3
	case extract.KindInterfaceDown:
		if f.Occurrences >= 10 {
			return 3
		}
		return 2
	case extract.KindWirelessErrors:
		if f.Occurrences >= 100 || f.ImpactedClients >= 50 {
			return 3
		}
		return 2
	case extract.KindPortErrors:
		return 2
	default:
		return 1
	}
}
