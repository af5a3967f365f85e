package extract

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nocparse/backend/internal/models"
)

const (
	snippetLimit        = 240
	defaultHeaderWindow = 5
	proseStreakLimit    = 3
)

type Mode int

const (
	// ModeFlexible accepts a block on the title line alone and closes it
	// heuristically. Default, because header formats vary too much across
	// vendors to hard-code.
	ModeFlexible Mode = iota
	// ModeStrict additionally requires the column-header signature within a
	// bounded window after the title, trading recall for fewer false
	// positives when a title phrase also appears in prose.
	ModeStrict
)

// DetectedTable is one captured table block. Owned by the pipeline run, never
// persisted. Tables with zero captured rows are never emitted.
type DetectedTable struct {
	Kind      CategoryKind
	Name      string
	Title     string
	Rows      []models.RawLine
	PageStart int
	PageEnd   int
}

type Detector struct {
	Mode         Mode
	Registry     []CategorySpec
	HeaderWindow int
	Logger       zerolog.Logger
}

func NewDetector(mode Mode, logger zerolog.Logger) *Detector {
	return &Detector{
		Mode:         mode,
		Registry:     DefaultRegistry(),
		HeaderWindow: defaultHeaderWindow,
		Logger:       logger,
	}
}

type openBlock struct {
	spec        CategorySpec
	title       string
	rows        []models.RawLine
	pageStart   int
	pageEnd     int
	linesSeen   int
	headerSeen  bool
	proseStreak int
}

// Detect scans pages in order for registered category titles and captures the
// data-row span belonging to each. A title with no captured rows by the next
// title or end-of-scan never existed as real data.
func (d *Detector) Detect(pages []models.Page) []DetectedTable {
	var out []DetectedTable
	var open *openBlock

	commit := func() {
		if open == nil {
			return
		}
		if len(open.rows) > 0 {
			out = append(out, DetectedTable{
				Kind:      open.spec.Kind,
				Name:      open.spec.Name,
				Title:     open.title,
				Rows:      open.rows,
				PageStart: open.pageStart,
				PageEnd:   open.pageEnd,
			})
		} else {
			d.Logger.Debug().
				Str("category", open.spec.Name).
				Int("page", open.pageStart).
				Msg("discarding table with no data rows")
		}
		open = nil
	}

	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		for idx, raw := range lines {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}

			// Data rows often echo their category phrase ("ATL-SW1
			// experienced interface down, ..."), so the data-row check
			// must win over title matching or the row is consumed as a
			// bogus new title.
			isData := LooksLikeDataRow(line)
			if !isData {
				if spec, ok := d.matchTitle(line); ok {
					commit()
					open = &openBlock{
						spec:      spec,
						title:     line,
						pageStart: page.Number,
						pageEnd:   page.Number,
					}
					continue
				}
			}
			if open == nil {
				continue
			}

			open.linesSeen++
			if d.Mode == ModeStrict && !open.headerSeen {
				if open.spec.Header != nil && open.spec.Header.MatchString(line) && !isData {
					open.headerSeen = true
					continue
				}
				if open.linesSeen > d.HeaderWindow {
					// Title phrase in prose, not a real table.
					open = nil
				}
				continue
			}

			if isData {
				open.proseStreak = 0
				open.pageEnd = page.Number
				open.rows = append(open.rows, models.RawLine{
					Content: line,
					Provenance: models.Provenance{
						Page:      page.Number,
						LineIndex: idx,
						Snippet:   Snippet(line),
					},
				})
				continue
			}

			// Flexible-mode end-of-block: a run of prose lines means the
			// table is over even without a new title.
			open.proseStreak++
			if open.proseStreak >= proseStreakLimit {
				commit()
			}
		}
	}
	commit()
	return out
}

func (d *Detector) matchTitle(line string) (CategorySpec, bool) {
	for _, spec := range d.Registry {
		if spec.Title.MatchString(line) {
			return spec, true
		}
	}
	return CategorySpec{}, false
}

var (
	clockRe       = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	dateRe        = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	percentRe     = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)
	durationRe    = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:min(?:ute)?s?|sec(?:ond)?s?|ms|hrs?|hours?)\b`)
	deviceTokenRe = regexp.MustCompile(`\b[A-Z0-9]{2,}[-_][A-Za-z0-9][A-Za-z0-9_/-]*\b`)
	longTokenRe   = regexp.MustCompile(`\b[A-Za-z]*\d[A-Za-z0-9_-]{6,}\b|\b[A-Za-z0-9_-]{6,}\d[A-Za-z0-9_-]*\b`)
)

// LooksLikeDataRow is the capture heuristic: a line carrying a clock time, a
// percentage, a duration, or a device-style token is likely tabular data.
func LooksLikeDataRow(line string) bool {
	if len(line) < 3 {
		return false
	}
	return clockRe.MatchString(line) ||
		dateRe.MatchString(line) ||
		percentRe.MatchString(line) ||
		durationRe.MatchString(line) ||
		deviceTokenRe.MatchString(line) ||
		longTokenRe.MatchString(line)
}

// Snippet bounds provenance text to keep stored rows small.
func Snippet(line string) string {
	if len(line) <= snippetLimit {
		return line
	}
	return line[:snippetLimit]
}
