package extract

import (
	"regexp"
	"strings"
)

// NotAvailable is the value of a course field no rule could resolve.
const NotAvailable = "N/D"

// Field names a course-info field recovered from document text.
type Field string

const (
	FieldProjectID  Field = "projectId"
	FieldSectionID  Field = "sectionId"
	FieldCourseName Field = "courseName"
	FieldLocation   Field = "location"
	FieldTeacher    Field = "teacher"
	FieldStartDate  Field = "startDate"
	FieldEndDate    Field = "endDate"
)

// Fields lists every course-info field in resolution order.
var Fields = []Field{
	FieldProjectID, FieldSectionID, FieldCourseName, FieldLocation,
	FieldTeacher, FieldStartDate, FieldEndDate,
}

// Rule is one named pattern for a field. The first capture group is the
// value.
type Rule struct {
	Field   Field
	Name    string
	Pattern *regexp.Regexp
}

const (
	idValue    = `([A-Z0-9][A-Z0-9/_.\-]*)`
	numberMark = `(?:numero|nr\.?|n°|n\.|n\b)`
)

// CourseRules is the rule table. For each field, rules are tried in the
// order listed here and the first one producing a non-empty value wins.
var CourseRules = []Rule{
	{FieldProjectID, "id-progetto", regexp.MustCompile(`(?i)\bID\s*progetto\s*[:.\-]?\s*` + idValue)},
	{FieldProjectID, "codice-progetto", regexp.MustCompile(`(?i)\bcodice\s+progetto\s*[:.\-]?\s*` + idValue)},
	{FieldProjectID, "progetto-numero", regexp.MustCompile(`(?i)\bprogetto\s+` + numberMark + `\s*[:\-]?\s*` + idValue)},

	{FieldSectionID, "id-sezione", regexp.MustCompile(`(?i)\bID\s*sezione\s*[:.\-]?\s*` + idValue)},
	{FieldSectionID, "edizione", regexp.MustCompile(`(?i)\bedizione\s*(?:` + numberMark + `)?\s*[:\-]?\s*` + idValue)},
	{FieldSectionID, "sezione", regexp.MustCompile(`(?i)\bsezione\s*(?:` + numberMark + `)?\s*[:\-]\s*` + idValue)},

	{FieldCourseName, "titolo-corso", regexp.MustCompile(`(?i)\btitolo\s+(?:del\s+)?corso\s*[:\-]\s*([^\n]+)`)},
	{FieldCourseName, "denominazione-corso", regexp.MustCompile(`(?i)\bdenominazione\s+(?:del\s+)?corso\s*[:\-]\s*([^\n]+)`)},
	{FieldCourseName, "corso", regexp.MustCompile(`(?im)^\s*corso\s*[:\-]\s*([^\n]+)`)},

	{FieldLocation, "sede", regexp.MustCompile(`(?i)\bsede(?:\s+(?:del\s+corso|di\s+svolgimento|operativa))?\s*[:\-]\s*([^\n]+)`)},
	{FieldLocation, "luogo", regexp.MustCompile(`(?i)\bluogo(?:\s+di\s+svolgimento)?\s*[:\-]\s*([^\n]+)`)},
	{FieldLocation, "modalita", regexp.MustCompile(`(?i)\bmodalit[àa](?:\s+di\s+erogazione)?\s*[:\-]\s*(FAD|online|in\s+presenza|presenza)`)},

	{FieldTeacher, "docente", regexp.MustCompile(`(?i)\bdocente(?:\s+principale)?\s*[:\-]\s*([^\n]+)`)},
	{FieldTeacher, "formatore", regexp.MustCompile(`(?i)\bformatore\s*[:\-]\s*([^\n]+)`)},
	{FieldTeacher, "insegnante", regexp.MustCompile(`(?i)\b(?:insegnante|tutor)\s*[:\-]\s*([^\n]+)`)},

	{FieldStartDate, "data-inizio", regexp.MustCompile(`(?i)\bdata\s+(?:di\s+)?inizio(?:\s+corso)?\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`)},
	{FieldStartDate, "dal", regexp.MustCompile(`(?i)\bdal\s+(\d{2}/\d{2}/\d{4})`)},

	{FieldEndDate, "data-fine", regexp.MustCompile(`(?i)\bdata\s+(?:di\s+)?fine(?:\s+corso)?\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`)},
	{FieldEndDate, "al", regexp.MustCompile(`(?i)\bal\s+(\d{2}/\d{2}/\d{4})`)},
}

// nextLabelRe finds the start of the next labelled field, used to cut
// free-text captures when the text layer runs several labels together.
var nextLabelRe = regexp.MustCompile(`(?i)\s+(?:ID\s*progetto|ID\s*sezione|codice\s+progetto|titolo\s+(?:del\s+)?corso|sede|luogo|docente|formatore|tutor|data\s+(?:di\s+)?(?:inizio|fine)|elenco|calendario)\b`)

// maxValueLen caps free-text values taken from a single capture.
const maxValueLen = 120

// CourseInfo is the course identity recovered from document text. Fields
// no rule matched hold NotAvailable.
type CourseInfo struct {
	ProjectID  string `json:"projectId"`
	SectionID  string `json:"sectionId"`
	CourseName string `json:"courseName"`
	Location   string `json:"location"`
	Teacher    string `json:"teacher"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`

	// Matched records which rule resolved each field.
	Matched map[Field]string `json:"matched"`
}

// Get returns the value of f.
func (c *CourseInfo) Get(f Field) string {
	switch f {
	case FieldProjectID:
		return c.ProjectID
	case FieldSectionID:
		return c.SectionID
	case FieldCourseName:
		return c.CourseName
	case FieldLocation:
		return c.Location
	case FieldTeacher:
		return c.Teacher
	case FieldStartDate:
		return c.StartDate
	case FieldEndDate:
		return c.EndDate
	}
	return ""
}

func (c *CourseInfo) set(f Field, v string) {
	switch f {
	case FieldProjectID:
		c.ProjectID = v
	case FieldSectionID:
		c.SectionID = v
	case FieldCourseName:
		c.CourseName = v
	case FieldLocation:
		c.Location = v
	case FieldTeacher:
		c.Teacher = v
	case FieldStartDate:
		c.StartDate = v
	case FieldEndDate:
		c.EndDate = v
	}
}

// Resolved reports whether f holds a real value.
func (c *CourseInfo) Resolved(f Field) bool {
	return c.Get(f) != NotAvailable
}

// ExtractCourseInfo runs the rule table over text.
func ExtractCourseInfo(text string) CourseInfo {
	return extractCourseInfo(text, CourseRules)
}

func extractCourseInfo(text string, rules []Rule) CourseInfo {
	info := CourseInfo{Matched: make(map[Field]string)}
	for _, f := range Fields {
		info.set(f, NotAvailable)
		for _, r := range rules {
			if r.Field != f {
				continue
			}
			m := r.Pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			v := cleanValue(m[1])
			if v == "" {
				continue
			}
			info.set(f, v)
			info.Matched[f] = r.Name
			break
		}
	}
	return info
}

func cleanValue(v string) string {
	if loc := nextLabelRe.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	v = strings.TrimSpace(v)
	if r := []rune(v); len(r) > maxValueLen {
		v = strings.TrimSpace(string(r[:maxValueLen]))
	}
	return strings.TrimSpace(strings.TrimRight(v, ".,;:"))
}
