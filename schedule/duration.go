package schedule

const (
	lunchStart = 13 * 60
	lunchEnd   = 14 * 60
)

// ComputeHours returns the course hours between start and end (HH:MM).
// The lunch rule is the same for both locations; loc is taken so callers
// can bucket the result on the same call.
func ComputeHours(start, end string, loc Location) (float64, error) {
	s, err := parseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := parseClock(end)
	if err != nil {
		return 0, err
	}
	return LessonHours(s, e), nil
}

// LessonHours applies the lunch-break rules to a minute interval. Rules are
// checked in order and the first one that applies wins:
//
//  1. starts before 13:00, ends after 14:00: subtract 60 minutes
//  2. starts before 13:00, ends within 13:00-14:00: no subtraction
//  3. starts within [13:00, 14:00): count from 14:00
//  4. otherwise end - start
//
// The result is never negative.
func LessonHours(startMin, endMin int) float64 {
	var minutes int
	switch {
	case startMin < lunchStart && endMin > lunchEnd:
		minutes = endMin - startMin - 60
	case startMin < lunchStart && endMin >= lunchStart && endMin <= lunchEnd:
		minutes = endMin - startMin
	case startMin >= lunchStart && startMin < lunchEnd:
		minutes = endMin - lunchEnd
	default:
		minutes = endMin - startMin
	}
	if minutes < 0 {
		return 0
	}
	return float64(minutes) / 60
}
