// Package export renders an assembled course into the files the wizard
// hands back: calendar feeds, workbooks, the attendance register and
// filled document templates.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/brunobiangulo/coursewizard/course"
	"github.com/brunobiangulo/coursewizard/schedule"
)

// ErrNoLessons is returned by exporters that need at least one lesson.
var ErrNoLessons = errors.New("export: course has no lessons")

// uidNamespace scopes lesson UIDs so re-exporting the same lesson yields
// the same UID and calendar clients update instead of duplicating.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://coursewizard.local/lesson"))

// ICS renders one VEVENT per lesson. Lesson times are wall-clock times in
// loc; a nil loc means time.Local. Lessons whose date or time does not
// parse are skipped.
func ICS(d course.Data, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(d.Calendar.Lessons) == 0 {
		return nil, ErrNoLessons
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//coursewizard//calendario corso//IT")
	if d.CourseName != "" {
		cal.SetXWRCalName(d.CourseName)
	}
	cal.SetXWRTimezone(loc.String())

	now := time.Now().UTC()
	added := 0
	for _, l := range d.Calendar.Lessons {
		start, end, err := lessonSpan(l, loc)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(LessonUID(d, l))
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(lessonTitle(d, l))
		ev.SetLocation(lessonPlace(d, l))
		ev.SetDescription(lessonDetails(d, l))
		added++
	}
	if added == 0 {
		return nil, fmt.Errorf("%w: no lesson has a valid date", ErrNoLessons)
	}
	return []byte(cal.Serialize()), nil
}

// LessonUID returns the stable calendar UID of l within d.
func LessonUID(d course.Data, l schedule.Lesson) string {
	key := strings.Join([]string{d.ProjectID, d.SectionID, l.Date, l.StartTime, l.EndTime, l.Subject}, "|")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@coursewizard"
}

// lessonSpan resolves the lesson's date and clock times in loc.
func lessonSpan(l schedule.Lesson, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(schedule.DateLayout+" 15:04", l.Date+" "+l.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(schedule.DateLayout+" 15:04", l.Date+" "+l.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func lessonTitle(d course.Data, l schedule.Lesson) string {
	if d.CourseName == "" || d.CourseName == l.Subject {
		return l.Subject
	}
	return l.Subject + " - " + d.CourseName
}

func lessonPlace(d course.Data, l schedule.Lesson) string {
	if l.Location == schedule.LocationOnline {
		return string(schedule.LocationOnline)
	}
	if d.Location != "" {
		return d.Location
	}
	return string(l.Location)
}

func lessonDetails(d course.Data, l schedule.Lesson) string {
	var lines []string
	if d.ProjectID != "" {
		lines = append(lines, "Progetto: "+d.ProjectID)
	}
	if d.SectionID != "" {
		lines = append(lines, "Sezione: "+d.SectionID)
	}
	if d.MainTeacher != "" {
		lines = append(lines, "Docente: "+d.MainTeacher)
	}
	lines = append(lines, "Ore: "+FormatHours(l.Hours))
	return strings.Join(lines, "\n")
}

// FormatHours renders hours with at most two decimals and a decimal comma.
func FormatHours(h float64) string {
	s := fmt.Sprintf("%.2f", schedule.Round(h))
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return strings.Replace(s, ".", ",", 1)
}
