package schedule

import (
	"math"
	"time"
)

// ParsedCalendar summarises a list of lessons.
type ParsedCalendar struct {
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	TotalHours    float64    `json:"totalHours"`
	PresenceHours float64    `json:"presenceHours"`
	OnlineHours   float64    `json:"onlineHours"`
	Lessons       []Lesson   `json:"lessons"`
}

// Aggregate computes date bounds and hour totals. Lessons whose date does
// not parse still count toward the hours.
func Aggregate(lessons []Lesson) ParsedCalendar {
	cal := ParsedCalendar{Lessons: make([]Lesson, len(lessons))}
	copy(cal.Lessons, lessons)

	for _, l := range lessons {
		switch l.Location {
		case LocationOnline:
			cal.OnlineHours += l.Hours
		default:
			cal.PresenceHours += l.Hours
		}

		d, err := time.Parse(DateLayout, l.Date)
		if err != nil {
			continue
		}
		if cal.StartDate == nil || d.Before(*cal.StartDate) {
			start := d
			cal.StartDate = &start
		}
		if cal.EndDate == nil || d.After(*cal.EndDate) {
			end := d
			cal.EndDate = &end
		}
	}
	cal.TotalHours = cal.PresenceHours + cal.OnlineHours
	return cal
}

// ParseCalendar parses schedule text and aggregates the result.
func ParseCalendar(text string) ParsedCalendar {
	return Aggregate(Parse(text))
}

// Round rounds hours to two decimals for display.
func Round(h float64) float64 {
	return math.Round(h*100) / 100
}

// FormatDate renders an optional calendar date, empty when nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
