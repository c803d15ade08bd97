// Package coursewizard is the backend of a training-course setup wizard. It
// turns pasted schedules, course tables, participant lists and uploaded
// documents into a structured course and renders it back out as calendar
// feeds, workbooks, registers and filled templates.
package coursewizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brunobiangulo/coursewizard/course"
	"github.com/brunobiangulo/coursewizard/coursetable"
	"github.com/brunobiangulo/coursewizard/export"
	"github.com/brunobiangulo/coursewizard/extract"
	"github.com/brunobiangulo/coursewizard/roster"
	"github.com/brunobiangulo/coursewizard/schedule"
	"github.com/brunobiangulo/coursewizard/source"
)

// CourseData is the course assembled across wizard steps.
type CourseData = course.Data

// Engine is the main entry point of the wizard backend.
type Engine interface {
	// ParseSchedule parses free-text schedule lines into an aggregated calendar.
	ParseSchedule(text string) schedule.ParsedCalendar

	// ParseCourseTable parses a pasted course row. Returns
	// ErrFormatNotRecognized when the text has no usable data line.
	ParseCourseTable(text string) (*coursetable.Table, error)

	// ParseParticipants parses a pasted participant table.
	ParseParticipants(text string) []roster.Participant

	// ReorderParticipants applies a swap or move and renumbers the list.
	ReorderParticipants(list []roster.Participant, r Reorder) ([]roster.Participant, error)

	// ExtractFile extracts course data from one uploaded document.
	ExtractFile(ctx context.Context, name string, data []byte) (*extract.Result, error)

	// Extract extracts course data from several documents read in order.
	Extract(ctx context.Context, docs ...extract.Document) (*extract.Result, error)

	// Export renders data in one of the Export* formats.
	Export(ctx context.Context, data CourseData, format string, opts ...ExportOption) (*Artifact, error)

	// Config returns the effective configuration.
	Config() Config
}

// Export formats.
const (
	FormatICS   = "ics"
	FormatXLSX  = "xlsx"
	FormatPDF   = "pdf"
	FormatDOCX  = "docx"
	FormatLinks = "links"
)

// Reorder operations.
const (
	ReorderSwap = "swap"
	ReorderMove = "move"
)

// Reorder describes a participant list edit. Positions are 1-based.
type Reorder struct {
	Op   string `json:"op"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// Artifact is a rendered export.
type Artifact struct {
	Name        string        `json:"name"`
	ContentType string        `json:"content_type"`
	Data        []byte        `json:"-"`
	Links       []export.Link `json:"links,omitempty"`
	Unresolved  []string      `json:"unresolved,omitempty"`
}

// Option configures the engine.
type Option func(*engineOptions)

type engineOptions struct {
	mockFallback *bool
	location     *time.Location
	logger       *slog.Logger
	sources      *source.Registry
}

// WithMockFallback overrides Config.MockFallback.
func WithMockFallback(on bool) Option {
	return func(o *engineOptions) { o.mockFallback = &on }
}

// WithTimezone overrides Config.Timezone for calendar exports.
func WithTimezone(loc *time.Location) Option {
	return func(o *engineOptions) { o.location = loc }
}

// WithLogger sets the logger used by the engine. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithSources replaces the document source registry.
func WithSources(r *source.Registry) Option {
	return func(o *engineOptions) { o.sources = r }
}

// ExportOption configures a single export.
type ExportOption func(*exportOptions)

type exportOptions struct {
	template []byte
	name     string
}

// WithTemplate supplies the docx template for FormatDOCX.
func WithTemplate(docx []byte) ExportOption {
	return func(o *exportOptions) { o.template = docx }
}

// WithFileName overrides the artifact base name.
func WithFileName(name string) ExportOption {
	return func(o *exportOptions) { o.name = name }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg       Config
	loc       *time.Location
	logger    *slog.Logger
	extractor *extract.Extractor
}

// New creates an engine. cfg is normalized and validated first.
func New(cfg Config, opts ...Option) (Engine, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o engineOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.mockFallback != nil {
		cfg.MockFallback = *o.mockFallback
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	loc := o.location
	if loc == nil {
		loc = cfg.Location()
	} else {
		cfg.Timezone = loc.String()
	}

	ex := extract.New(o.sources, extract.Config{
		MaxTextBytes: cfg.MaxTextBytes,
		MockFallback: cfg.MockFallback,
	}, o.logger)

	o.logger.Info("coursewizard: engine ready",
		"timezone", cfg.Timezone,
		"mock_fallback", cfg.MockFallback,
		"max_text_bytes", cfg.MaxTextBytes)

	return &engine{cfg: cfg, loc: loc, logger: o.logger, extractor: ex}, nil
}

func (e *engine) Config() Config { return e.cfg }

func (e *engine) ParseSchedule(text string) schedule.ParsedCalendar {
	lessons, stats := schedule.ParseWithStats(text)
	if stats.Dropped > 0 {
		e.logger.Debug("coursewizard: schedule lines dropped", "dropped", stats.Dropped, "lines", stats.Lines)
	}
	return schedule.Aggregate(lessons)
}

func (e *engine) ParseCourseTable(text string) (*coursetable.Table, error) {
	t, ok := coursetable.Parse(text)
	if !ok {
		return nil, ErrFormatNotRecognized
	}
	return t, nil
}

func (e *engine) ParseParticipants(text string) []roster.Participant {
	list := roster.Parse(text)
	if list == nil {
		return []roster.Participant{}
	}
	return list
}

func (e *engine) ReorderParticipants(list []roster.Participant, r Reorder) ([]roster.Participant, error) {
	switch strings.ToLower(r.Op) {
	case ReorderSwap:
		return roster.Swap(list, r.From, r.To)
	case ReorderMove:
		return roster.Move(list, r.From, r.To)
	default:
		return nil, fmt.Errorf("%w: reorder op %q", ErrUnsupportedFormat, r.Op)
	}
}

func (e *engine) ExtractFile(ctx context.Context, name string, data []byte) (*extract.Result, error) {
	return e.Extract(ctx, extract.Document{Name: name, Data: data})
}

func (e *engine) Extract(ctx context.Context, docs ...extract.Document) (*extract.Result, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	res, err := e.extractor.ExtractAll(ctx, docs...)
	if err != nil {
		return nil, err
	}
	e.logger.Info("coursewizard: extraction done",
		"documents", len(docs),
		"method", res.Method,
		"participants", len(res.Participants),
		"lessons", len(res.Calendar.Lessons),
		"warnings", len(res.Warnings),
		"elapsed", time.Since(start))
	return res, nil
}

func (e *engine) Export(ctx context.Context, data CourseData, format string, opts ...ExportOption) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, dropped := data.Normalize()
	if dropped > 0 {
		e.logger.Warn("coursewizard: lessons with invalid times dropped before export", "dropped", dropped)
	}
	var o exportOptions
	for _, fn := range opts {
		fn(&o)
	}
	base := o.name
	if base == "" {
		base = artifactName(data)
	}

	format = strings.ToLower(format)
	art := &Artifact{}
	var err error
	switch format {
	case FormatICS:
		art.Data, err = export.ICS(data, e.loc)
		art.ContentType = "text/calendar; charset=utf-8"
	case FormatXLSX:
		art.Data, err = export.Workbook(data)
		art.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		art.Data, err = export.Register(data)
		art.ContentType = "application/pdf"
	case FormatDOCX:
		if len(o.template) == 0 {
			return nil, fmt.Errorf("%w: docx export needs a template", ErrEmptyInput)
		}
		art.Data, art.Unresolved, err = export.FillTemplate(o.template, export.Variables(data), e.cfg.TemplateVariables)
		art.ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatLinks:
		art.Links = export.CalendarLinks(data, e.loc)
		art.ContentType = "application/json"
		format = "json"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		e.logger.Warn("coursewizard: export failed", "format", format, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	art.Name = base + "." + format
	return art, nil
}

// artifactName builds a file-system friendly base name from the course ids.
func artifactName(d CourseData) string {
	parts := []string{"corso"}
	for _, p := range []string{d.ProjectID, d.SectionID} {
		if p != "" && p != extract.NotAvailable {
			parts = append(parts, p)
		}
	}
	name := strings.Join(parts, "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}

// CourseFromExtraction converts an extraction result into course data.
// Fields reported as not available stay empty.
func CourseFromExtraction(res *extract.Result) CourseData {
	val := func(s string) string {
		if s == extract.NotAvailable {
			return ""
		}
		return s
	}
	d := CourseData{
		CourseName:  val(res.Course.CourseName),
		ProjectID:   val(res.Course.ProjectID),
		SectionID:   val(res.Course.SectionID),
		Location:    val(res.Course.Location),
		MainTeacher: val(res.Course.Teacher),
	}
	return d.WithSchedule(res.Calendar.Lessons).WithParticipants(res.Participants)
}

// CourseFromTable converts a parsed course table into course data.
func CourseFromTable(t *coursetable.Table) CourseData {
	d := CourseData{
		CourseName:      t.CourseName,
		ProjectID:       t.ProjectID,
		SectionID:       t.SectionID,
		Provider:        t.Provider,
		MainTeacher:     t.MainTeacher,
		ReportableHours: t.ReportableHours,
	}
	d.Calendar = t.Calendar()
	return d
}
