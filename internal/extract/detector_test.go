package extract

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nocparse/backend/internal/models"
)

func testPages() []models.Page {
	return []models.Page{
		{Number: 1, Text: `Monthly Network Operations Report

Interface down events
Device            Interface   Occurrences  Last occurred
ATL-SW1 experienced interface down, 5 occurrences, avg 12.3 min, 08/15/2025 10:30
DFW-SW2 GigabitEthernet0/1 3 occurrences 08/12/2025 14:05

Some narrative paragraph explaining the month.
It goes on for a while without any data rows.
And continues with prose text here.`},
		{Number: 2, Text: `Unreachable sites
Site          Occurrences  Last occurred
Fort Lauderdale 4 occurrences 22 min 08/10/2025 09:15
Seattle 2 occurrences 08/11/2025

Connected clients`},
	}
}

func TestDetectCapturesTables(t *testing.T) {
	d := NewDetector(ModeFlexible, zerolog.Nop())
	tables := d.Detect(testPages())

	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d: %+v", len(tables), tables)
	}
	if tables[0].Kind != KindInterfaceDown || len(tables[0].Rows) != 2 {
		t.Fatalf("unexpected first table: %+v", tables[0])
	}
	if tables[1].Kind != KindUnreachableSites || len(tables[1].Rows) != 2 {
		t.Fatalf("unexpected second table: %+v", tables[1])
	}
	for _, tbl := range tables {
		if len(tbl.Rows) == 0 {
			t.Fatalf("zero-row table emitted: %+v", tbl)
		}
		for _, row := range tbl.Rows {
			if row.Provenance.Snippet == "" {
				t.Fatalf("captured row without provenance snippet: %+v", row)
			}
		}
	}
}

func TestDetectRowEchoingCategoryPhrase(t *testing.T) {
	// The only data row repeats the category phrase in prose form. It must
	// be captured under the open table, not consumed as a new title (which
	// would leave a zero-row table and lose the event entirely).
	d := NewDetector(ModeFlexible, zerolog.Nop())
	pages := []models.Page{{Number: 1, Text: `Interface down events
ATL-SW1 experienced interface down, 5 occurrences, avg 12.3 min, 08/15/2025 10:30`}}

	tables := d.Detect(pages)
	if len(tables) != 1 {
		t.Fatalf("expected one table, got %+v", tables)
	}
	if tables[0].Title != "Interface down events" {
		t.Fatalf("data row promoted to title: %+v", tables[0])
	}
	if len(tables[0].Rows) != 1 || !strings.Contains(tables[0].Rows[0].Content, "ATL-SW1") {
		t.Fatalf("echoing data row not captured: %+v", tables[0].Rows)
	}
}

func TestDetectDiscardsEmptyTitles(t *testing.T) {
	// "Connected clients" at the end of page 2 captures no rows and must
	// not appear in the output.
	d := NewDetector(ModeFlexible, zerolog.Nop())
	for _, tbl := range d.Detect(testPages()) {
		if tbl.Kind == KindConnectedClients {
			t.Fatalf("empty table should have been discarded: %+v", tbl)
		}
	}
}

func TestDetectNoTitleNoTables(t *testing.T) {
	d := NewDetector(ModeFlexible, zerolog.Nop())
	pages := []models.Page{{Number: 1, Text: "Just prose.\nNothing tabular at all."}}
	if got := d.Detect(pages); len(got) != 0 {
		t.Fatalf("expected no tables, got %+v", got)
	}
}

func TestDetectStrictRequiresHeader(t *testing.T) {
	pages := []models.Page{{Number: 1, Text: `The report mentions interface down conditions in passing.
ATL-SW1 experienced interface down, 5 occurrences, avg 12.3 min, 08/15/2025 10:30`}}

	strict := NewDetector(ModeStrict, zerolog.Nop())
	if got := strict.Detect(pages); len(got) != 0 {
		t.Fatalf("strict mode should reject a title with no header, got %+v", got)
	}

	flexible := NewDetector(ModeFlexible, zerolog.Nop())
	if got := flexible.Detect(pages); len(got) != 1 {
		t.Fatalf("flexible mode should capture the block, got %+v", got)
	}
}

func TestDetectStrictAcceptsHeaderedTable(t *testing.T) {
	pages := []models.Page{{Number: 1, Text: `Interface down events
Device     Occurrences   Last occurred
ATL-SW1 5 occurrences 08/15/2025 10:30`}}

	strict := NewDetector(ModeStrict, zerolog.Nop())
	tables := strict.Detect(pages)
	if len(tables) != 1 || len(tables[0].Rows) != 1 {
		t.Fatalf("expected one headered table with one row, got %+v", tables)
	}
}

func TestDetectSpansPages(t *testing.T) {
	pages := []models.Page{
		{Number: 1, Text: "Device down events\nATL-RTR1 7 occurrences 08/01/2025 11:00"},
		{Number: 2, Text: "DFW-RTR2 2 occurrences 08/03/2025 16:20"},
	}
	d := NewDetector(ModeFlexible, zerolog.Nop())
	tables := d.Detect(pages)
	if len(tables) != 1 {
		t.Fatalf("expected one table spanning pages, got %+v", tables)
	}
	if tables[0].PageStart != 1 || tables[0].PageEnd != 2 {
		t.Fatalf("unexpected page span: %+v", tables[0])
	}
}

func TestLooksLikeDataRow(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"ATL-SW1 5 occurrences", true},
		{"downtime was 12.3 min", true},
		{"utilization at 87%", true},
		{"event at 10:30", true},
		{"Plain sentence without signals.", false},
		{"", false},
	}
	for _, c := range cases {
		if got := LooksLikeDataRow(c.line); got != c.want {
			t.Fatalf("LooksLikeDataRow(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}
