package extract

import (
	"regexp"

	"github.com/brunobiangulo/coursewizard/schedule"
)

// calendarRowRe matches tabular calendar rows: date, start and end either
// in separate columns or joined by "-" or "alle", a duration column and the
// delivery type. The duration column is read but hours are always
// recomputed from the times.
var calendarRowRe = regexp.MustCompile(`(?i)(\d{2}/\d{2}/\d{4})\s+(?:dalle\s+)?(\d{1,2}[:.]\d{2})(?:\s*(?:-|alle)\s*|\s+)(\d{1,2}[:.]\d{2})\s+\d+(?:[.,]\d+)?\s*(?:ore|h)?\s+(ufficio|office|presenza|aula|online|fad|remoto)\b`)

// ExtractCalendar returns the lessons found in text and the name of the
// strategy that found them: "schedule", "table" or "" when none matched.
func ExtractCalendar(text string) (schedule.ParsedCalendar, string) {
	if lessons := schedule.Parse(text); len(lessons) > 0 {
		return schedule.Aggregate(lessons), "schedule"
	}

	var lessons []schedule.Lesson
	for _, m := range calendarRowRe.FindAllStringSubmatch(text, -1) {
		loc, _ := schedule.ParseLocation(m[4])
		l, err := schedule.NewLesson(schedule.DefaultSubject, m[1], m[2], m[3], loc)
		if err != nil {
			continue
		}
		lessons = append(lessons, l)
	}
	if len(lessons) == 0 {
		return schedule.Aggregate(nil), ""
	}
	return schedule.Aggregate(lessons), "table"
}
