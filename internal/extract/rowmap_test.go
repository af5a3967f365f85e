package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nocparse/backend/internal/models"
)

func rawLine(content string) models.RawLine {
	return models.RawLine{
		Content:    content,
		Provenance: models.Provenance{Page: 1, LineIndex: 4, Snippet: Snippet(content)},
	}
}

func TestMapRowInterfaceDown(t *testing.T) {
	line := rawLine("ATL-SW1 experienced interface down, 5 occurrences, avg 12.3 min, 08/15/2025 10:30")
	got := MapRow(KindInterfaceDown, line)
	if got == nil {
		t.Fatalf("expected a mapped row")
	}
	want := &models.Finding{
		Site:           "ATL",
		Device:         "ATL-SW1",
		Interface:      models.Unknown,
		Occurrences:    5,
		LastOccurred:   "08/15/2025 10:30",
		Trend:          models.Unknown,
		AvgDurationMin: 12.3,
		ErrorType:      models.Unknown,
		BusinessImpact: models.ImpactNo,
		Provenance:     line.Provenance,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapped row mismatch (-want +got):\n%s", diff)
	}
}

func TestMapRowInterfaceDownColumnar(t *testing.T) {
	line := rawLine("DFW-SW2 GigabitEthernet0/1 3 occurrences 08/12/2025 14:05")
	got := MapRow(KindInterfaceDown, line)
	if got == nil {
		t.Fatalf("expected a mapped row")
	}
	if got.Device != "DFW-SW2" || got.Site != "DFW" {
		t.Fatalf("unexpected device/site: %+v", got)
	}
	if got.Interface != "GigabitEthernet0/1" {
		t.Fatalf("unexpected interface: %s", got.Interface)
	}
	if got.Occurrences != 3 {
		t.Fatalf("unexpected occurrences: %d", got.Occurrences)
	}
}

func TestMapRowUnreachableSite(t *testing.T) {
	line := rawLine("Fort Lauderdale 4 occurrences 22 min 08/10/2025 09:15")
	got := MapRow(KindUnreachableSites, line)
	if got == nil {
		t.Fatalf("expected a mapped row")
	}
	if got.Site != "Fort Lauderdale" {
		t.Fatalf("unexpected site: %q", got.Site)
	}
	if got.Occurrences != 4 {
		t.Fatalf("unexpected occurrences: %d", got.Occurrences)
	}
	if got.AvgDurationMin != 22 {
		t.Fatalf("unexpected duration: %f", got.AvgDurationMin)
	}
}

func TestMapRowWirelessErrors(t *testing.T) {
	line := rawLine("SEA-AP12 authentication failures: 143 errors, 27 impacted clients, -4.2%")
	got := MapRow(KindWirelessErrors, line)
	if got == nil {
		t.Fatalf("expected a mapped row")
	}
	if got.ErrorType != "Authentication" {
		t.Fatalf("unexpected error type: %s", got.ErrorType)
	}
	if got.Occurrences != 143 {
		t.Fatalf("unexpected error count: %d", got.Occurrences)
	}
	if got.ImpactedClients != 27 {
		t.Fatalf("unexpected clients: %d", got.ImpactedClients)
	}
	if got.Trend != "-4.2%" {
		t.Fatalf("trend sign must be preserved: %s", got.Trend)
	}
}

func TestMapRowPortErrorsKeepsSign(t *testing.T) {
	line := rawLine("ORD-SW3 Gi1/0/24 812 errors +2.5%")
	got := MapRow(KindPortErrors, line)
	if got == nil {
		t.Fatalf("expected a mapped row")
	}
	if got.Trend != "+2.5%" {
		t.Fatalf("worsening trend must keep its sign: %s", got.Trend)
	}
	if got.Interface != "Gi1/0/24" {
		t.Fatalf("unexpected interface: %s", got.Interface)
	}
}

func TestMapRowConnectedClients(t *testing.T) {
	line := rawLine("MIA-WLC1 1,204 clients +3.1%")
	got := MapRow(KindConnectedClients, line)
	if got == nil {
		t.Fatalf("expected a mapped row")
	}
	if got.ImpactedClients != 1204 {
		t.Fatalf("unexpected client count: %d", got.ImpactedClients)
	}
}

func TestMapRowGenericFallback(t *testing.T) {
	// No registered matcher for KindGeneric: the fallback must still emit a
	// schema-complete row with Unknown sentinels.
	line := rawLine("something 7 occurrences 08/02/2025")
	got := MapRow(KindGeneric, line)
	if got == nil {
		t.Fatalf("expected fallback row")
	}
	if got.Device != models.Unknown || got.ErrorType != models.Unknown {
		t.Fatalf("missing fields must be Unknown sentinels: %+v", got)
	}
	if got.Occurrences != 7 {
		t.Fatalf("unexpected occurrences: %d", got.Occurrences)
	}
}

func TestMapRowMissingCountDefaultsZero(t *testing.T) {
	line := rawLine("BOS-SW9 interface flap 08/20/2025 11:45")
	got := MapRow(KindInterfaceDown, line)
	if got == nil {
		t.Fatalf("expected a mapped row")
	}
	if got.Occurrences != 0 {
		t.Fatalf("absent count must default to 0, got %d", got.Occurrences)
	}
}

func TestMapRowFailureReturnsNil(t *testing.T) {
	if got := MapRow(KindUnreachableSites, rawLine("12345")); got != nil {
		t.Fatalf("expected mapping failure, got %+v", got)
	}
}
