package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/brunobiangulo/coursewizard/course"
	"github.com/brunobiangulo/coursewizard/schedule"
)

// ErrNotDocx is returned when a template is not a Word document.
var ErrNotDocx = errors.New("export: template is not a docx document")

// KnownVariables are the placeholder names Variables produces.
var KnownVariables = []string{
	"NOME_CORSO", "ID_PROGETTO", "ID_SEZIONE", "SEDE", "ENTE", "DOCENTE",
	"ORE_TOTALI", "ORE_PRESENZA", "ORE_ONLINE", "ORE_RENDICONTABILI",
	"DATA_INIZIO", "DATA_FINE", "NUMERO_LEZIONI",
	"NUMERO_PARTECIPANTI", "ELENCO_PARTECIPANTI",
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Variables derives the template variables of d.
func Variables(d course.Data) map[string]string {
	names := make([]string, 0, len(d.Participants))
	for _, p := range d.Participants {
		names = append(names, strings.TrimSpace(p.Surname+" "+p.GivenName))
	}
	return map[string]string{
		"NOME_CORSO":          d.CourseName,
		"ID_PROGETTO":         d.ProjectID,
		"ID_SEZIONE":          d.SectionID,
		"SEDE":                d.Location,
		"ENTE":                d.Provider,
		"DOCENTE":             d.MainTeacher,
		"ORE_TOTALI":          FormatHours(d.Calendar.TotalHours),
		"ORE_PRESENZA":        FormatHours(d.Calendar.PresenceHours),
		"ORE_ONLINE":          FormatHours(d.Calendar.OnlineHours),
		"ORE_RENDICONTABILI":  FormatHours(d.TotalHours()),
		"DATA_INIZIO":         schedule.FormatDate(d.Calendar.StartDate),
		"DATA_FINE":           schedule.FormatDate(d.Calendar.EndDate),
		"NUMERO_LEZIONI":      strconv.Itoa(len(d.Calendar.Lessons)),
		"NUMERO_PARTECIPANTI": strconv.Itoa(len(d.Participants)),
		"ELENCO_PARTECIPANTI": strings.Join(names, "; "),
	}
}

// FillTemplate replaces {{NAME}} placeholders in the body, headers and
// footers of a docx. Only names listed in known are substituted; other
// placeholders are left in place and returned as unresolved, sorted and
// without duplicates. Placeholders split across Word runs are not seen.
func FillTemplate(docx []byte, vars map[string]string, known []string) ([]byte, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[strings.ToUpper(k)] = true
	}
	unresolved := make(map[string]bool)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	hasDocument := false
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, nil, err
		}
		if isTextPart(f.Name) {
			if f.Name == "word/document.xml" {
				hasDocument = true
			}
			data = substitute(data, vars, allowed, unresolved)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: f.Method, Modified: f.Modified})
		if err != nil {
			return nil, nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if !hasDocument {
		return nil, nil, fmt.Errorf("%w: word/document.xml missing", ErrNotDocx)
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("close docx: %w", err)
	}

	names := make([]string, 0, len(unresolved))
	for n := range unresolved {
		names = append(names, n)
	}
	sort.Strings(names)
	return out.Bytes(), names, nil
}

func isTextPart(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	return strings.HasPrefix(name, "word/") && strings.HasSuffix(name, ".xml") &&
		(strings.HasPrefix(name, "word/header") || strings.HasPrefix(name, "word/footer"))
}

func substitute(data []byte, vars map[string]string, allowed, unresolved map[string]bool) []byte {
	return placeholderRe.ReplaceAllFunc(data, func(m []byte) []byte {
		name := strings.ToUpper(string(placeholderRe.FindSubmatch(m)[1]))
		v, ok := vars[name]
		if !allowed[name] || !ok {
			unresolved[name] = true
			return m
		}
		var esc bytes.Buffer
		xml.EscapeText(&esc, []byte(v))
		return esc.Bytes()
	})
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}
