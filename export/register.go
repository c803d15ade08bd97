package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/brunobiangulo/coursewizard/course"
	"github.com/brunobiangulo/coursewizard/schedule"
)

var registerColumns = []struct {
	title string
	width float64
}{
	{"N.", 12},
	{"Cognome e nome", 70},
	{"Codice fiscale", 50},
	{"Firma entrata", 72},
	{"Firma uscita", 72},
}

// Register renders the attendance register: one landscape page per lesson
// with a signature row for every participant. A course without lessons
// gets a single undated page.
func Register(d course.Data) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	lessons := d.Calendar.Lessons
	if len(lessons) == 0 {
		lessons = []schedule.Lesson{{}}
	}
	for _, l := range lessons {
		registerPage(pdf, tr, d, l)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render register: %w", err)
	}
	return buf.Bytes(), nil
}

func registerPage(pdf *gofpdf.Fpdf, tr func(string) string, d course.Data, l schedule.Lesson) {
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 9, tr("REGISTRO PRESENZE"), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	info := []string{
		"Corso: " + orDash(d.CourseName),
		"Progetto: " + orDash(d.ProjectID) + "    Sezione: " + orDash(d.SectionID),
		"Docente: " + orDash(d.MainTeacher) + "    Ente: " + orDash(d.Provider),
	}
	if l.Date != "" {
		info = append(info, fmt.Sprintf("Lezione del %s, %s-%s, %s (%s ore): %s",
			l.Date, l.StartTime, l.EndTime, l.Location, FormatHours(l.Hours), l.Subject))
	} else {
		info = append(info, "Lezione del ____/____/________")
	}
	for _, line := range info {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	for _, c := range registerColumns {
		pdf.CellFormat(c.width, 8, tr(c.title), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, p := range d.Participants {
		cells := []string{
			fmt.Sprint(p.ID),
			strings.TrimSpace(p.Surname + " " + p.GivenName),
			p.FiscalCode,
			"",
			"",
		}
		for i, c := range registerColumns {
			pdf.CellFormat(c.width, 9, tr(cells[i]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.CellFormat(0, 6, tr("Firma del docente: ______________________________"), "", 1, "R", false, 0, "")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
