package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/coursewizard/course"
	"github.com/brunobiangulo/coursewizard/schedule"
)

// Sheet names of the exported workbook.
const (
	SheetCalendar   = "Calendario"
	SheetAttendance = "Presenze"
)

var (
	calendarHeader   = []string{"Materia", "Data", "Inizio", "Fine", "Sede", "Ore"}
	attendanceHeader = []string{"N.", "Cognome", "Nome", "Codice Fiscale"}
)

// Workbook renders the calendar, with hour totals, and an attendance grid
// of participants by lesson date.
func Workbook(d course.Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCalendar); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetAttendance); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := writeCalendarSheet(f, d, bold); err != nil {
		return nil, err
	}
	if err := writeAttendanceSheet(f, d, bold); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCalendarSheet(f *excelize.File, d course.Data, style int) error {
	if err := writeRow(f, SheetCalendar, 1, toCells(calendarHeader)); err != nil {
		return err
	}
	if err := styleRow(f, SheetCalendar, 1, len(calendarHeader), style); err != nil {
		return err
	}

	row := 2
	for _, l := range d.Calendar.Lessons {
		cells := []any{l.Subject, l.Date, l.StartTime, l.EndTime, string(l.Location), schedule.Round(l.Hours)}
		if err := writeRow(f, SheetCalendar, row, cells); err != nil {
			return err
		}
		row++
	}

	row++
	totals := [][]any{
		{"Ore in presenza", schedule.Round(d.Calendar.PresenceHours)},
		{"Ore online", schedule.Round(d.Calendar.OnlineHours)},
		{"Totale ore", schedule.Round(d.Calendar.TotalHours)},
	}
	for _, t := range totals {
		if err := writeRow(f, SheetCalendar, row, t); err != nil {
			return err
		}
		row++
	}
	return f.SetColWidth(SheetCalendar, "A", "A", 36)
}

func writeAttendanceSheet(f *excelize.File, d course.Data, style int) error {
	dates := lessonDates(d.Calendar.Lessons)
	header := toCells(attendanceHeader)
	for _, date := range dates {
		header = append(header, date)
	}
	if err := writeRow(f, SheetAttendance, 1, header); err != nil {
		return err
	}
	if err := styleRow(f, SheetAttendance, 1, len(header), style); err != nil {
		return err
	}

	for i, p := range d.Participants {
		if err := writeRow(f, SheetAttendance, i+2, []any{p.ID, p.Surname, p.GivenName, p.FiscalCode}); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetAttendance, "B", "D", 22)
}

// lessonDates returns the distinct lesson dates in calendar order.
func lessonDates(lessons []schedule.Lesson) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lessons {
		if l.Date == "" || seen[l.Date] {
			continue
		}
		seen[l.Date] = true
		out = append(out, l.Date)
	}
	return out
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	for col, v := range cells {
		name, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, name, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, name, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func toCells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
