package schedule

import (
	"regexp"
	"strings"
)

// Rule is one schedule line grammar. Rules are tried in table order and
// the first that yields a lesson wins.
type Rule struct {
	Name  string
	match func(line string) (Lesson, bool)
}

var (
	structuredRe = regexp.MustCompile(`(?i)^(.+?)\s*-\s*(\d{2}/\d{2}/\d{4})\s+(\d{1,2}[:.]\d{2})\s*-\s*(\d{1,2}[:.]\d{2})\s*-\s*(ufficio|office|presenza|aula|online|fad|remoto)\s*$`)
	noSubjectRe  = regexp.MustCompile(`(?i)^(\d{2}/\d{2}/\d{4})\s+(\d{1,2}[:.]\d{2})\s*-\s*(\d{1,2}[:.]\d{2})\s*-\s*(ufficio|office|presenza|aula|online|fad|remoto)\s*$`)
	legacyRe     = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s+(\d{1,2}[:.]\d{2})\s*-\s*(\d{1,2}[:.]\d{2})`)
)

// Rules lists the line grammars in priority order.
var Rules = []Rule{
	{Name: "structured", match: matchStructured},
	{Name: "structured-nosubject", match: matchNoSubject},
	{Name: "legacy", match: matchLegacy},
}

func matchStructured(line string) (Lesson, bool) {
	m := structuredRe.FindStringSubmatch(line)
	if m == nil {
		return Lesson{}, false
	}
	loc, _ := ParseLocation(m[5])
	l, err := NewLesson(m[1], m[2], m[3], m[4], loc)
	if err != nil {
		return Lesson{}, false
	}
	return l, true
}

// matchNoSubject accepts a structured line without the subject prefix; the
// location it names is kept.
func matchNoSubject(line string) (Lesson, bool) {
	m := noSubjectRe.FindStringSubmatch(line)
	if m == nil {
		return Lesson{}, false
	}
	loc, _ := ParseLocation(m[4])
	l, err := NewLesson(DefaultSubject, m[1], m[2], m[3], loc)
	if err != nil {
		return Lesson{}, false
	}
	return l, true
}

func matchLegacy(line string) (Lesson, bool) {
	m := legacyRe.FindStringSubmatch(line)
	if m == nil {
		return Lesson{}, false
	}
	l, err := NewLesson(DefaultSubject, m[1], m[2], m[3], LocationOffice)
	if err != nil {
		return Lesson{}, false
	}
	return l, true
}

// Stats reports how a block of schedule text was consumed.
type Stats struct {
	Lines   int            // non-blank lines seen
	Dropped int            // lines no rule accepted
	ByRule  map[string]int // accepted lines per rule name
}

// Parse splits text into lessons, one per recognised line. Blank and
// unrecognised lines are skipped; output keeps input order.
func Parse(text string) []Lesson {
	lessons, _ := ParseWithStats(text)
	return lessons
}

// ParseWithStats is Parse plus a per-rule account of the input.
func ParseWithStats(text string) ([]Lesson, Stats) {
	stats := Stats{ByRule: make(map[string]int)}
	lessons := make([]Lesson, 0)

	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		stats.Lines++

		matched := false
		for _, r := range Rules {
			if l, ok := r.match(line); ok {
				lessons = append(lessons, l)
				stats.ByRule[r.Name]++
				matched = true
				break
			}
		}
		if !matched {
			stats.Dropped++
		}
	}
	return lessons, stats
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
