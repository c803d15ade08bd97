// Package course holds the aggregate the wizard builds up step by step and
// hands to the exporters.
package course

import (
	"github.com/brunobiangulo/coursewizard/roster"
	"github.com/brunobiangulo/coursewizard/schedule"
)

// Data is the course being assembled. It is passed by value; the With
// helpers return updated copies.
type Data struct {
	CourseName      string   `json:"courseName"`
	ProjectID       string   `json:"projectId"`
	SectionID       string   `json:"sectionId"`
	Location        string   `json:"location"`
	Provider        string   `json:"provider"`
	MainTeacher     string   `json:"mainTeacher"`
	ReportableHours *float64 `json:"reportableHours,omitempty"`

	Calendar     schedule.ParsedCalendar `json:"calendar"`
	Participants []roster.Participant    `json:"participants"`
}

// WithSchedule returns a copy of d whose calendar is built from lessons.
func (d Data) WithSchedule(lessons []schedule.Lesson) Data {
	d.Calendar = schedule.Aggregate(lessons)
	return d
}

// WithParticipants returns a copy of d holding list, renumbered.
func (d Data) WithParticipants(list []roster.Participant) Data {
	d.Participants = roster.Renumber(list)
	return d
}

// Merge returns a copy of d where every empty field is taken from other.
// The calendar and roster are taken from other only when d has none.
func (d Data) Merge(other Data) Data {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&d.CourseName, other.CourseName)
	fill(&d.ProjectID, other.ProjectID)
	fill(&d.SectionID, other.SectionID)
	fill(&d.Location, other.Location)
	fill(&d.Provider, other.Provider)
	fill(&d.MainTeacher, other.MainTeacher)
	if d.ReportableHours == nil && other.ReportableHours != nil {
		h := *other.ReportableHours
		d.ReportableHours = &h
	}
	if len(d.Calendar.Lessons) == 0 && len(other.Calendar.Lessons) > 0 {
		d.Calendar = schedule.Aggregate(other.Calendar.Lessons)
	}
	if len(d.Participants) == 0 && len(other.Participants) > 0 {
		d.Participants = roster.Renumber(other.Participants)
	}
	return d
}

// Normalize returns a copy of d with every lesson rebuilt by
// schedule.NewLesson and the calendar re-aggregated, so hours and totals are
// derived from the time pairs whatever the input carried. Lessons whose
// times do not parse are dropped and counted in dropped. Participants are
// renumbered by position.
func (d Data) Normalize() (out Data, dropped int) {
	lessons := make([]schedule.Lesson, 0, len(d.Calendar.Lessons))
	for _, l := range d.Calendar.Lessons {
		loc, ok := schedule.ParseLocation(string(l.Location))
		if !ok {
			loc = schedule.LocationOffice
		}
		rebuilt, err := schedule.NewLesson(l.Subject, l.Date, l.StartTime, l.EndTime, loc)
		if err != nil {
			dropped++
			continue
		}
		lessons = append(lessons, rebuilt)
	}
	d.Calendar = schedule.Aggregate(lessons)
	d.Participants = roster.Renumber(d.Participants)
	return d, dropped
}

// TotalHours returns the reportable hours when set, otherwise the calendar
// total.
func (d Data) TotalHours() float64 {
	if d.ReportableHours != nil {
		return *d.ReportableHours
	}
	return d.Calendar.TotalHours
}
