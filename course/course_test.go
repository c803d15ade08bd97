package course

import (
	"testing"

	"github.com/brunobiangulo/coursewizard/roster"
	"github.com/brunobiangulo/coursewizard/schedule"
)

func lesson(t *testing.T, date, start, end string) schedule.Lesson {
	t.Helper()
	l, err := schedule.NewLesson("", date, start, end, schedule.LocationOffice)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestWithScheduleAggregates(t *testing.T) {
	var d Data
	d2 := d.WithSchedule([]schedule.Lesson{lesson(t, "10/01/2024", "09:00", "13:00")})
	if len(d.Calendar.Lessons) != 0 {
		t.Error("WithSchedule modified the receiver")
	}
	if d2.Calendar.TotalHours != 4 || d2.Calendar.StartDate == nil {
		t.Errorf("calendar = %+v", d2.Calendar)
	}
}

func TestWithParticipantsRenumbers(t *testing.T) {
	d := Data{}.WithParticipants([]roster.Participant{{ID: 9, Surname: "A"}, {ID: 3, Surname: "B"}})
	if d.Participants[0].ID != 1 || d.Participants[1].ID != 2 {
		t.Errorf("ids = %d,%d", d.Participants[0].ID, d.Participants[1].ID)
	}
}

func TestMergeFillsOnlyEmpty(t *testing.T) {
	h := 20.0
	base := Data{CourseName: "Saldatura", Provider: ""}
	other := Data{
		CourseName:      "Altro",
		Provider:        "Ente Srl",
		ReportableHours: &h,
		Participants:    []roster.Participant{{Surname: "Rossi"}},
	}.WithSchedule([]schedule.Lesson{lesson(t, "10/01/2024", "09:00", "18:00")})

	got := base.Merge(other)
	if got.CourseName != "Saldatura" || got.Provider != "Ente Srl" {
		t.Errorf("merged identity = %q/%q", got.CourseName, got.Provider)
	}
	if got.ReportableHours == nil || *got.ReportableHours != 20 {
		t.Errorf("ReportableHours = %v", got.ReportableHours)
	}
	h = 5
	if *got.ReportableHours != 20 {
		t.Error("ReportableHours aliases the source")
	}
	if got.Calendar.TotalHours != 8 || len(got.Participants) != 1 || got.Participants[0].ID != 1 {
		t.Errorf("merged data = %+v", got)
	}
}

func TestTotalHours(t *testing.T) {
	d := Data{}.WithSchedule([]schedule.Lesson{lesson(t, "10/01/2024", "09:00", "13:00")})
	if d.TotalHours() != 4 {
		t.Errorf("TotalHours = %v, want 4", d.TotalHours())
	}
	h := 3.5
	d.ReportableHours = &h
	if d.TotalHours() != 3.5 {
		t.Errorf("TotalHours = %v, want 3.5", d.TotalHours())
	}
}

func TestNormalizeDerivesHours(t *testing.T) {
	d := Data{
		Calendar: schedule.ParsedCalendar{
			TotalHours:    100,
			PresenceHours: 100,
			Lessons: []schedule.Lesson{
				{Date: "15/01/2024", StartTime: "9:00", EndTime: "13:00", Location: "online", Hours: 99},
				{Date: "16/01/2024", StartTime: "25:00", EndTime: "26:00", Hours: 5},
				{Subject: "Excel", Date: "17/01/2024", StartTime: "09:00", EndTime: "18:00", Location: "mars"},
			},
		},
		Participants: []roster.Participant{{ID: 7, Surname: "Rossi"}},
	}

	got, dropped := d.Normalize()
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(got.Calendar.Lessons) != 2 {
		t.Fatalf("lessons = %+v", got.Calendar.Lessons)
	}
	first := got.Calendar.Lessons[0]
	if first.Hours != 4 || first.StartTime != "09:00" || first.Location != schedule.LocationOnline || first.Subject != schedule.DefaultSubject {
		t.Errorf("first lesson = %+v", first)
	}
	if got.Calendar.Lessons[1].Location != schedule.LocationOffice {
		t.Errorf("unknown location not defaulted: %+v", got.Calendar.Lessons[1])
	}
	if got.Calendar.TotalHours != 12 || got.Calendar.OnlineHours != 4 || got.Calendar.PresenceHours != 8 {
		t.Errorf("totals = %+v", got.Calendar)
	}
	if got.Participants[0].ID != 1 {
		t.Errorf("participant id = %d, want 1", got.Participants[0].ID)
	}
	if d.Calendar.TotalHours != 100 {
		t.Error("Normalize modified the receiver")
	}
}
