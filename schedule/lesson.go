package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTime is returned when a clock string is not a valid HH:MM value.
var ErrInvalidTime = errors.New("schedule: invalid time")

// DefaultSubject is used when the input grammar carries no subject.
const DefaultSubject = "Lezione"

// DateLayout is the literal date format used by every schedule grammar.
const DateLayout = "02/01/2006"

// Location decides which hour bucket a lesson is counted in.
type Location string

const (
	LocationOffice Location = "Ufficio"
	LocationOnline Location = "Online"
)

// ParseLocation maps the textual location spellings found in pasted
// schedules onto a Location. The second result is false for unknown tokens.
func ParseLocation(s string) (Location, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ufficio", "office", "presenza", "aula":
		return LocationOffice, true
	case "online", "fad", "remoto":
		return LocationOnline, true
	}
	return "", false
}

// Lesson is one scheduled class session.
type Lesson struct {
	Subject   string   `json:"subject"`
	Date      string   `json:"date"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Location  Location `json:"location"`
	Hours     float64  `json:"hours"`
}

// NewLesson builds a Lesson and derives its hours from the time pair.
// Clock values are normalised to zero-padded HH:MM.
func NewLesson(subject, date, start, end string, loc Location) (Lesson, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return Lesson{}, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return Lesson{}, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	if loc == "" {
		loc = LocationOffice
	}
	return Lesson{
		Subject:   subject,
		Date:      strings.TrimSpace(date),
		StartTime: formatClock(startMin),
		EndTime:   formatClock(endMin),
		Location:  loc,
		Hours:     LessonHours(startMin, endMin),
	}, nil
}

// FormatLesson renders a lesson in the structured schedule grammar.
// Parsing the result yields an equal Lesson.
func FormatLesson(l Lesson) string {
	return fmt.Sprintf("%s - %s %s - %s - %s", l.Subject, l.Date, l.StartTime, l.EndTime, l.Location)
}

// parseClock converts "H:MM" or "HH:MM" (a dot separator is tolerated) into
// minutes after midnight.
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, ":.")
	if sep <= 0 || sep == len(s)-1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(s[:sep])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(s[sep+1:])
	if err != nil || len(s[sep+1:]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return h*60 + m, nil
}

func formatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
