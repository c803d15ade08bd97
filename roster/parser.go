package roster

import (
	"regexp"
	"strings"
)

// Column positions of the pasted participant table.
const (
	colIndex = iota
	colFullName
	colFiscalCode
	colPhone
	colEmail
	colBirthDate
	colBirthPlace
	colResidence
	colEducation
	colCaseManager
	colBenefits
	colEnrolledAt
	colNotes

	// NominalColumns is the width of a complete row.
	NominalColumns = colNotes + 1
	// MinColumns is the narrowest row that still yields a participant.
	MinColumns = 10
)

// headerMarkerRe finds header words as whole whitespace-delimited tokens,
// so names such as "David" or "Simone Idi" are not mistaken for "id".
var headerMarkerRe = regexp.MustCompile(`(?:^|[\s/|])(?:id|n\.|n°|nr\.|#|nome|cognome|nominativo|cf|c\.f\.|codice fiscale|telefono|cellulare|e-?mail)(?:$|[\s/|:])`)

var footerRe = regexp.MustCompile(`(?i)(\b\d+\s+(righe|record|partecipanti)\b|\b(righe|record|totale)\s*:?\s*\d+\b)`)

// IsHeaderOrFooter reports whether a pasted line is a table header or a
// row-count footer rather than a participant row. A line carrying a valid
// fiscal code in its column is always a participant row.
func IsHeaderOrFooter(line string) bool {
	if FiscalCodeValid(cell(strings.Split(line, "\t"), colFiscalCode)) {
		return false
	}
	if headerMarkerRe.MatchString(fold(line)) {
		return true
	}
	return footerRe.MatchString(line) && strings.Count(line, "\t") < MinColumns-1
}

// Parse reads a tab-separated participant table. Lines with fewer than
// MinColumns cells are skipped. IDs are assigned by output position.
func Parse(pasted string) []Participant {
	out := make([]Participant, 0)
	for _, line := range splitLines(pasted) {
		if strings.TrimSpace(line) == "" || IsHeaderOrFooter(line) {
			continue
		}
		cells := strings.Split(line, "\t")
		if len(cells) < MinColumns {
			continue
		}
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		out = append(out, rowToParticipant(cells))
	}
	return Renumber(out)
}

func rowToParticipant(cells []string) Participant {
	given, surname := SplitName(cell(cells, colFullName))
	return Participant{
		Surname:     surname,
		GivenName:   given,
		FiscalCode:  strings.ToUpper(cell(cells, colFiscalCode)),
		Phone:       cell(cells, colPhone),
		Email:       cell(cells, colEmail),
		BirthDate:   cell(cells, colBirthDate),
		BirthPlace:  cell(cells, colBirthPlace),
		Residence:   cell(cells, colResidence),
		Education:   cell(cells, colEducation),
		CaseManager: cell(cells, colCaseManager),
		Benefits:    ParseBenefits(cell(cells, colBenefits)),
		EnrolledAt:  cell(cells, colEnrolledAt),
		Notes:       cell(cells, colNotes),
	}
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
