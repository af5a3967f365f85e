// Package extract recovers tabular findings from free-flowing report text.
// Detection is heuristic by design: report vendors agree on neither column
// names nor delimiters, so the detector keys on category title lines and a
// looks-like-a-data-row test, and the row mappers tolerate several field
// layouts per category.
package extract

import "regexp"

// CategoryKind enumerates the known report-table families. Dispatch from kind
// to row matcher goes through a lookup table with a mandatory generic
// fallback, so adding a kind without a matcher still produces stable rows.
type CategoryKind int

const (
	KindGeneric CategoryKind = iota
	KindUnreachableSites
	KindDeviceDown
	KindInterfaceDown
	KindWirelessErrors
	KindPortErrors
	KindConnectedClients
)

func (k CategoryKind) String() string {
	switch k {
	case KindUnreachableSites:
		return "unreachable_sites"
	case KindDeviceDown:
		return "device_down"
	case KindInterfaceDown:
		return "interface_down"
	case KindWirelessErrors:
		return "wireless_errors"
	case KindPortErrors:
		return "port_errors"
	case KindConnectedClients:
		return "connected_clients"
	default:
		return "generic"
	}
}

// CategorySpec registers one detectable table family: the title pattern that
// opens a block and, for strict mode, the column-header signature expected
// shortly after the title.
type CategorySpec struct {
	Kind   CategoryKind
	Name   string
	Title  *regexp.Regexp
	Header *regexp.Regexp
}

// DefaultRegistry lists the category families observed across source report
// vendors. Title patterns favor recall; the header signatures exist only for
// strict mode.
func DefaultRegistry() []CategorySpec {
	return []CategorySpec{
		{
			Kind:   KindUnreachableSites,
			Name:   "Unreachable sites",
			Title:  regexp.MustCompile(`(?i)\b(?:unreachable|offline)\s+sites?\b|\bsites?\s+(?:unreachable|offline)\b`),
			Header: regexp.MustCompile(`(?i)site.*(?:occurrence|count|downtime|last)`),
		},
		{
			Kind:   KindDeviceDown,
			Name:   "Device down events",
			Title:  regexp.MustCompile(`(?i)\b(?:top\s+)?devices?\s+(?:down|offline|unavailable)\b`),
			Header: regexp.MustCompile(`(?i)device.*(?:occurrence|count|duration|last)`),
		},
		{
			Kind:   KindInterfaceDown,
			Name:   "Interface down events",
			Title:  regexp.MustCompile(`(?i)\binterfaces?\s+down\b`),
			Header: regexp.MustCompile(`(?i)(?:device|interface).*(?:occurrence|count|duration|last)`),
		},
		{
			Kind:   KindWirelessErrors,
			Name:   "Wireless errors",
			Title:  regexp.MustCompile(`(?i)\bwireless\s+(?:errors?|issues?|failures?)\b`),
			Header: regexp.MustCompile(`(?i)(?:error|type).*(?:count|clients?)`),
		},
		{
			Kind:   KindPortErrors,
			Name:   "Port errors",
			Title:  regexp.MustCompile(`(?i)\bports?\s+(?:with\s+)?errors?\b|\bport\s+error\s+rates?\b`),
			Header: regexp.MustCompile(`(?i)(?:port|interface).*(?:error|rate|trend)`),
		},
		{
			Kind:   KindConnectedClients,
			Name:   "Connected clients",
			Title:  regexp.MustCompile(`(?i)\bconnected\s+clients?\b|\bclient\s+counts?\b`),
			Header: regexp.MustCompile(`(?i)site.*clients?`),
		},
	}
}

// KindForCategory maps a canonical category name back to its kind, for
// consumers that only carry the name. Unregistered names map to KindGeneric.
func KindForCategory(name string) CategoryKind {
	for _, spec := range DefaultRegistry() {
		if spec.Name == name {
			return spec.Kind
		}
	}
	return KindGeneric
}
