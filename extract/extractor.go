// Package extract recovers course information, participants and the
// lesson calendar from the linearised text of uploaded documents.
//
// Extraction is best-effort: unreadable documents fall back to built-in
// stand-in text and unresolved fields are reported as NotAvailable, so a
// call always yields a Result.
package extract

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/brunobiangulo/coursewizard/roster"
	"github.com/brunobiangulo/coursewizard/schedule"
	"github.com/brunobiangulo/coursewizard/source"
)

// DefaultMaxTextBytes caps the text handed to the pattern matchers.
const DefaultMaxTextBytes = 2 << 20

// Method values reported in Result.Method.
const (
	MethodNative = "native"
	MethodPDFCPU = "pdfcpu"
	MethodText   = "text"
	MethodMock   = "mock"
	MethodMixed  = "mixed"
)

// Document is one uploaded file.
type Document struct {
	Name string
	Data []byte
}

// DocumentInfo describes how one document was read.
type DocumentInfo struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	Pages  int    `json:"pages"`
	Chars  int    `json:"chars"`
	Error  string `json:"error,omitempty"`
}

// Result is everything recovered from a set of documents.
type Result struct {
	Course        CourseInfo              `json:"course"`
	Participants  []roster.Participant    `json:"participants"`
	Calendar      schedule.ParsedCalendar `json:"calendar"`
	Method        string                  `json:"method"`
	Documents     []DocumentInfo          `json:"documents"`
	Warnings      []string                `json:"warnings,omitempty"`
	LowConfidence bool                    `json:"lowConfidence"`
	Truncated     bool                    `json:"truncated"`
}

// Config controls an Extractor.
type Config struct {
	// MaxTextBytes truncates combined text before matching. Zero means
	// DefaultMaxTextBytes.
	MaxTextBytes int
	// MockFallback substitutes stand-in text for unreadable documents.
	// When false such documents only add a warning.
	MockFallback bool
}

// Extractor reads documents through a source registry and runs the course,
// roster and calendar extractors over the combined text.
type Extractor struct {
	sources *source.Registry
	cfg     Config
	logger  *slog.Logger
}

// New returns an Extractor. A nil registry means source.NewRegistry and a
// nil logger means slog.Default.
func New(reg *source.Registry, cfg Config, logger *slog.Logger) *Extractor {
	if reg == nil {
		reg = source.NewRegistry()
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = DefaultMaxTextBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{sources: reg, cfg: cfg, logger: logger}
}

// ExtractAll reads docs in order, joins their text and extracts from it.
// Only context cancellation stops it early; any other failure degrades to
// a warning.
func (e *Extractor) ExtractAll(ctx context.Context, docs ...Document) (*Result, error) {
	var (
		parts    []string
		infos    []DocumentInfo
		warnings []string
	)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, info, warn := e.read(ctx, doc)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if warn != "" {
			warnings = append(warnings, warn)
		}
		infos = append(infos, info)
		if text != "" {
			parts = append(parts, text)
		}
	}

	res := e.ExtractText(strings.Join(parts, "\n\n"))
	res.Documents = infos
	res.Method = combinedMethod(infos)
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

func (e *Extractor) read(ctx context.Context, doc Document) (string, DocumentInfo, string) {
	info := DocumentInfo{Name: doc.Name}
	text, err := e.sources.Read(ctx, doc.Name, doc.Data)
	if err == nil && strings.TrimSpace(text.Content) != "" {
		info.Method = text.Method
		info.Pages = text.Pages
		info.Chars = len(text.Content)
		return text.Content, info, ""
	}

	if err == nil {
		err = source.ErrNoText
	}
	info.Error = err.Error()
	if !e.cfg.MockFallback {
		e.logger.Warn("extract: document unreadable", "file", doc.Name, "error", err)
		return "", info, doc.Name + ": unreadable, skipped"
	}

	e.logger.Warn("extract: document unreadable, using stand-in text", "file", doc.Name, "error", err)
	mock := MockText(doc.Name)
	info.Method = MethodMock
	info.Chars = len(mock)
	return mock, info, doc.Name + ": unreadable, stand-in data used"
}

// ExtractText runs the extractors over already linearised text.
func (e *Extractor) ExtractText(text string) *Result {
	res := &Result{Method: MethodText}

	text = normalizeText(text)
	if len(text) > e.cfg.MaxTextBytes {
		text = truncateUTF8(text, e.cfg.MaxTextBytes)
		res.Truncated = true
		res.Warnings = append(res.Warnings, "text truncated before matching")
	}

	res.Calendar, _ = ExtractCalendar(text)
	res.Course = ExtractCourseInfo(text)
	fillDatesFromCalendar(&res.Course, res.Calendar)

	res.Participants, res.LowConfidence = ExtractParticipants(text)
	if res.LowConfidence {
		res.Warnings = append(res.Warnings, "participants recovered by token scan, check them")
	}
	if res.Participants == nil {
		res.Participants = []roster.Participant{}
	}

	for _, f := range Fields {
		if !res.Course.Resolved(f) {
			res.Warnings = append(res.Warnings, string(f)+": not found")
		}
	}

	e.logger.Debug("extract: text processed",
		"bytes", len(text),
		"participants", len(res.Participants),
		"lessons", len(res.Calendar.Lessons),
		"low_confidence", res.LowConfidence)
	return res
}

// fillDatesFromCalendar supplies start and end dates the rules missed.
func fillDatesFromCalendar(info *CourseInfo, cal schedule.ParsedCalendar) {
	if len(cal.Lessons) == 0 {
		return
	}
	if !info.Resolved(FieldStartDate) && cal.StartDate != nil {
		info.StartDate = schedule.FormatDate(cal.StartDate)
		info.Matched[FieldStartDate] = "calendar"
	}
	if !info.Resolved(FieldEndDate) && cal.EndDate != nil {
		info.EndDate = schedule.FormatDate(cal.EndDate)
		info.Matched[FieldEndDate] = "calendar"
	}
}

// combinedMethod is the shared method of all read documents, or mixed when
// they differ. A mock stand-in counts as its own method.
func combinedMethod(infos []DocumentInfo) string {
	method := ""
	for _, info := range infos {
		switch {
		case info.Method == "":
			continue
		case method == "":
			method = info.Method
		case method != info.Method:
			method = MethodMixed
		}
	}
	if method == "" {
		return MethodText
	}
	return method
}

var dashReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\u2013", "-",
	"\u2014", "-",
	"\u00a0", " ",
)

// normalizeText composes accents and maps typographic dashes and
// non-breaking spaces that PDF text layers commonly contain.
func normalizeText(s string) string {
	return dashReplacer.Replace(norm.NFC.String(s))
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
