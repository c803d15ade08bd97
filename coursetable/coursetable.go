// Package coursetable recovers course identity and the embedded schedule
// from a course-metadata table pasted out of a spreadsheet or a fixed-width
// export.
package coursetable

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/brunobiangulo/coursewizard/schedule"
)

// Table is the course metadata recovered from one pasted table.
type Table struct {
	CourseName      string   `json:"courseName"`
	ProjectID       string   `json:"projectId"`
	SectionID       string   `json:"sectionId"`
	Provider        string   `json:"provider,omitempty"`
	MainTeacher     string   `json:"mainTeacher"`
	ScheduleText    string   `json:"scheduleText"`
	ReportableHours *float64 `json:"reportableHours,omitempty"`
}

// Calendar parses the embedded schedule block.
func (t *Table) Calendar() schedule.ParsedCalendar {
	return schedule.ParseCalendar(t.ScheduleText)
}

// Separator is the column regime of a pasted table.
type Separator int

const (
	SeparatorTab Separator = iota
	SeparatorSpaces
)

func (s Separator) String() string {
	if s == SeparatorTab {
		return "tab"
	}
	return "spaces"
}

// minFields is the least number of columns a data line must yield.
const minFields = 4

var (
	leadingDateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}\b`)
	multiSpaceRe  = regexp.MustCompile(`\s{2,}`)
)

// Parse reads a pasted course table. The first line is a header and is
// discarded. The second result is false when the table format is not
// recognised: no data line, or fewer than four fields on it.
func Parse(pasted string) (*Table, bool) {
	lines := splitLines(pasted)
	if len(lines) < 2 {
		return nil, false
	}
	body := lines[1:]
	sep := DetectSeparator(body)

	dataIdx := -1
	for i, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !startsWithDate(line) {
			dataIdx = i
			break
		}
	}
	if dataIdx < 0 {
		return nil, false
	}

	fields := splitFields(body[dataIdx], sep)
	if countNonEmpty(fields) < minFields {
		return nil, false
	}

	t := &Table{
		CourseName: fields[0],
		ProjectID:  fields[1],
		SectionID:  fields[2],
	}

	var scheduleLines, trailing []string
	closed := false
	if startsWithDate(fields[3]) {
		scheduleLines = append(scheduleLines, fields[3])
		if len(fields) > 4 {
			trailing = fields[4:]
			closed = true
		}
	} else {
		trailing = fields[3:]
	}

	// The schedule block is every following line that starts with a date.
	// It ends at the first other line, or at a date line that carries
	// further columns (the tail of a multi-line spreadsheet cell).
	if !closed {
		for _, line := range body[dataIdx+1:] {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lf := splitFields(line, sep)
			if len(lf) == 0 {
				continue
			}
			if !startsWithDate(lf[0]) {
				trailing = append(trailing, lf...)
				break
			}
			scheduleLines = append(scheduleLines, lf[0])
			if len(lf) > 1 {
				trailing = append(trailing, lf[1:]...)
				break
			}
		}
	}

	t.ScheduleText = strings.Join(scheduleLines, "\n")
	applyTrailing(t, trailing)
	return t, true
}

// DetectSeparator picks tab columns when any line has a tab, otherwise
// runs of two or more spaces.
func DetectSeparator(lines []string) Separator {
	for _, line := range lines {
		if strings.Contains(line, "\t") {
			return SeparatorTab
		}
	}
	return SeparatorSpaces
}

func applyTrailing(t *Table, trailing []string) {
	if len(trailing) > 0 {
		t.Provider = trailing[0]
	}
	if len(trailing) > 1 {
		t.MainTeacher = trailing[1]
	}
	if len(trailing) > 2 {
		if h, ok := parseHours(trailing[2]); ok {
			t.ReportableHours = &h
		}
	}
}

func parseHours(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	s = strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(s), "ore"), "h")
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || h < 0 {
		return 0, false
	}
	return h, true
}

func splitFields(line string, sep Separator) []string {
	var raw []string
	if sep == SeparatorTab {
		raw = strings.Split(line, "\t")
	} else {
		raw = multiSpaceRe.Split(strings.TrimSpace(line), -1)
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		out = append(out, cleanField(f))
	}
	if sep == SeparatorTab {
		// Tab exports pad rows with empty trailing cells.
		for len(out) > 0 && out[len(out)-1] == "" {
			out = out[:len(out)-1]
		}
	}
	return out
}

// cleanField trims whitespace and the quotes spreadsheets put around
// multi-line cells.
func cleanField(f string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(f), `"`))
}

func startsWithDate(s string) bool {
	return leadingDateRe.MatchString(cleanField(s))
}

func countNonEmpty(fields []string) int {
	n := 0
	for _, f := range fields {
		if f != "" {
			n++
		}
	}
	return n
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
