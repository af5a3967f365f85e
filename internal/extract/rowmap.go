package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nocparse/backend/internal/models"
)

// Field extraction patterns shared by the per-category matchers. Each pattern
// scans anywhere in the line: column order differs between vendors, labels
// are the more stable signal.
var (
	timestampRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}(?:\s+\d{1,2}:\d{2}(?::\d{2})?)?\b|\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?Z?)?\b`)
	occurrenceRe = regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+(?:occurrences?|events?|times)\b`)
	avgDurRe     = regexp.MustCompile(`(?i)\bavg\.?\s*(?:duration\s*)?(\d+(?:\.\d+)?)\s*min|\b(\d+(?:\.\d+)?)\s*min(?:ute)?s?\s+avg\b`)
	durMinRe     = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*min(?:ute)?s?\b`)
	trendRe      = regexp.MustCompile(`([+-]\d+(?:\.\d+)?%)`)
	clientsRe    = regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+(?:impacted\s+)?clients?\b`)
	errCountRe   = regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+(?:errors?|failures?|drops?)\b`)
	deviceNameRe = regexp.MustCompile(`\b([A-Z][A-Z0-9]+[-_][A-Za-z0-9][A-Za-z0-9_/-]*)\b`)
	ifaceNameRe  = regexp.MustCompile(`\b((?:GigabitEthernet|TenGigE|FastEthernet|Ethernet|Gi|Te|Fa|Eth|Po)\d[\d/.]*)\b`)
	bareIntRe    = regexp.MustCompile(`\b(\d[\d,]*)\b`)
	leadWordsRe  = regexp.MustCompile(`^([A-Za-z][A-Za-z .'-]*[A-Za-z])`)
	wirelessErrTypeRe = regexp.MustCompile(`(?i)\b(auth(?:entication)?|assoc(?:iation)?|dhcp|dns|roaming|interference|radius)\b`)
)

type rowMatcher func(models.RawLine) *models.Finding

// matcherTable dispatches kind to matcher. Kinds without an entry fall back
// to the generic matcher; the table itself never maps a kind to nil.
var matcherTable = map[CategoryKind]rowMatcher{
	KindUnreachableSites: unreachableSiteRow,
	KindDeviceDown:       deviceDownRow,
	KindInterfaceDown:    interfaceDownRow,
	KindWirelessErrors:   wirelessErrorsRow,
	KindPortErrors:       portErrorsRow,
	KindConnectedClients: connectedClientsRow,
}

// MapRow converts a captured line into a canonical finding, or nil when the
// line cannot be interpreted for its category. A nil result drops the line;
// it never aborts the run.
func MapRow(kind CategoryKind, line models.RawLine) *models.Finding {
	matcher, ok := matcherTable[kind]
	if !ok {
		matcher = genericRow
	}
	return matcher(line)
}

func deviceDownRow(line models.RawLine) *models.Finding {
	device := firstMatch(deviceNameRe, line.Content)
	if device == "" {
		return genericRow(line)
	}
	f := newFinding(line)
	f.Device = device
	f.Site = siteFromDevice(device)
	f.Occurrences = intField(occurrenceRe, line.Content, firstInt(line.Content, device))
	f.LastOccurred = firstMatch(timestampRe, line.Content)
	f.AvgDurationMin = avgDuration(line.Content)
	f.Trend = trendField(line.Content)
	return f
}

func interfaceDownRow(line models.RawLine) *models.Finding {
	device := firstMatch(deviceNameRe, line.Content)
	if device == "" {
		return genericRow(line)
	}
	f := newFinding(line)
	f.Device = device
	f.Site = siteFromDevice(device)
	if iface := firstMatch(ifaceNameRe, line.Content); iface != "" {
		f.Interface = iface
	}
	f.Occurrences = intField(occurrenceRe, line.Content, firstInt(line.Content, device))
	f.LastOccurred = firstMatch(timestampRe, line.Content)
	f.AvgDurationMin = avgDuration(line.Content)
	f.Trend = trendField(line.Content)
	return f
}

func unreachableSiteRow(line models.RawLine) *models.Finding {
	site := strings.TrimSpace(firstMatch(leadWordsRe, line.Content))
	if site == "" {
		return nil
	}
	f := newFinding(line)
	f.Site = site
	f.Occurrences = intField(occurrenceRe, line.Content, firstInt(line.Content, site))
	f.LastOccurred = firstMatch(timestampRe, line.Content)
	f.AvgDurationMin = avgDuration(line.Content)
	f.Trend = trendField(line.Content)
	return f
}

func wirelessErrorsRow(line models.RawLine) *models.Finding {
	f := newFinding(line)
	if errType := firstMatch(wirelessErrTypeRe, line.Content); errType != "" {
		f.ErrorType = canonicalErrorType(errType)
	}
	if device := firstMatch(deviceNameRe, line.Content); device != "" {
		f.Device = device
		f.Site = siteFromDevice(device)
	}
	f.Occurrences = intField(errCountRe, line.Content, intField(occurrenceRe, line.Content, 0))
	f.ImpactedClients = intField(clientsRe, line.Content, 0)
	f.LastOccurred = firstMatch(timestampRe, line.Content)
	f.Trend = trendField(line.Content)
	if f.ErrorType == models.Unknown && f.Occurrences == 0 && f.ImpactedClients == 0 {
		return nil
	}
	return f
}

func portErrorsRow(line models.RawLine) *models.Finding {
	f := newFinding(line)
	if iface := firstMatch(ifaceNameRe, line.Content); iface != "" {
		f.Interface = iface
	}
	if device := firstMatch(deviceNameRe, line.Content); device != "" {
		f.Device = device
		f.Site = siteFromDevice(device)
	}
	if f.Device == models.Unknown && f.Interface == models.Unknown {
		return nil
	}
	f.Occurrences = intField(errCountRe, line.Content, intField(occurrenceRe, line.Content, 0))
	// Sign matters: it separates worsening from improving error rates.
	f.Trend = trendField(line.Content)
	f.LastOccurred = firstMatch(timestampRe, line.Content)
	return f
}

func connectedClientsRow(line models.RawLine) *models.Finding {
	f := newFinding(line)
	if device := firstMatch(deviceNameRe, line.Content); device != "" {
		f.Device = device
		f.Site = siteFromDevice(device)
	} else if site := strings.TrimSpace(firstMatch(leadWordsRe, line.Content)); site != "" {
		f.Site = site
	} else {
		return nil
	}
	f.ImpactedClients = intField(clientsRe, line.Content, firstInt(line.Content, f.Device))
	f.Trend = trendField(line.Content)
	f.LastOccurred = firstMatch(timestampRe, line.Content)
	return f
}

// genericRow is the mandatory fallback: split on whitespace, keep whatever
// fields are recognizable, mark the rest Unknown. Keeps the schema stable for
// categories nobody wrote a matcher for yet.
func genericRow(line models.RawLine) *models.Finding {
	fields := strings.Fields(line.Content)
	if len(fields) == 0 {
		return nil
	}
	f := newFinding(line)
	if device := firstMatch(deviceNameRe, line.Content); device != "" {
		f.Device = device
		f.Site = siteFromDevice(device)
	} else if site := strings.TrimSpace(firstMatch(leadWordsRe, line.Content)); site != "" {
		f.Site = site
	}
	f.Occurrences = intField(occurrenceRe, line.Content, firstInt(line.Content, f.Device))
	f.ImpactedClients = intField(clientsRe, line.Content, 0)
	f.LastOccurred = firstMatch(timestampRe, line.Content)
	f.AvgDurationMin = avgDuration(line.Content)
	f.Trend = trendField(line.Content)
	return f
}

func newFinding(line models.RawLine) *models.Finding {
	return &models.Finding{
		Site:           models.Unknown,
		Device:         models.Unknown,
		Interface:      models.Unknown,
		Trend:          models.Unknown,
		ErrorType:      models.Unknown,
		BusinessImpact: models.ImpactNo,
		Provenance:     line.Provenance,
	}
}

func siteFromDevice(device string) string {
	for _, sep := range []string{"-", "_"} {
		if idx := strings.Index(device, sep); idx > 0 {
			return device[:idx]
		}
	}
	return device
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return m[0]
}

func intField(re *regexp.Regexp, s string, fallback int) int {
	if v := firstMatch(re, s); v != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(v, ",", "")); err == nil {
			return n
		}
	}
	return fallback
}

// firstInt finds the first standalone integer that is not part of the leading
// identifier or a timestamp. Absent counts stay 0: downstream guards read 0
// as "no evidence", not as an error.
func firstInt(content, skipToken string) int {
	rest := content
	if skipToken != "" && skipToken != models.Unknown {
		if idx := strings.Index(rest, skipToken); idx >= 0 {
			rest = rest[idx+len(skipToken):]
		}
	}
	rest = timestampRe.ReplaceAllString(rest, " ")
	rest = trendRe.ReplaceAllString(rest, " ")
	rest = durMinRe.ReplaceAllString(rest, " ")
	rest = ifaceNameRe.ReplaceAllString(rest, " ")
	rest = deviceNameRe.ReplaceAllString(rest, " ")
	if v := firstMatch(bareIntRe, rest); v != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(v, ",", "")); err == nil {
			return n
		}
	}
	return 0
}

func avgDuration(content string) float64 {
	if v := firstMatch(avgDurRe, content); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if v := firstMatch(durMinRe, content); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

func trendField(content string) string {
	if v := firstMatch(trendRe, content); v != "" {
		return v
	}
	return models.Unknown
}

func canonicalErrorType(raw string) string {
	switch strings.ToLower(raw) {
	case "auth", "authentication":
		return "Authentication"
	case "assoc", "association":
		return "Association"
	case "dhcp":
		return "DHCP"
	case "dns":
		return "DNS"
	case "roaming":
		return "Roaming"
	case "interference":
		return "Interference"
	case "radius":
		return "RADIUS"
	default:
		return raw
	}
}
