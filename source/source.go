// Package source turns uploaded documents into linearised text for the
// course extractors.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Text is the linearised content of one document.
type Text struct {
	Name    string  // original file name
	Content string  // page/paragraph/row text joined with newlines
	Pages   int     // pages (pdf), sheets (xlsx) or 1
	Method  string  // "native", "pdfcpu", "text"
	Quality Quality // text-layer quality, pdf only
}

// Source reads the text layer of one document format.
type Source interface {
	Text(ctx context.Context, name string, data []byte) (*Text, error)
	SupportedFormats() []string
}

// Registry maps lower-case file extensions to sources.
type Registry struct {
	sources map[string]Source
}

// NewRegistry returns a registry with the built-in sources.
func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range []Source{&PDFSource{}, &XLSXSource{}, &DOCXSource{}, &PlainSource{}} {
		for _, f := range s.SupportedFormats() {
			r.sources[f] = s
		}
	}
	return r
}

// Get returns the source registered for format.
func (r *Registry) Get(format string) (Source, error) {
	s, ok := r.sources[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("no source for format: %s", format)
	}
	return s, nil
}

// Register installs s for format, replacing any existing source.
func (r *Registry) Register(format string, s Source) {
	r.sources[strings.ToLower(format)] = s
}

// Read picks the source by the extension of name and reads data.
func (r *Registry) Read(ctx context.Context, name string, data []byte) (*Text, error) {
	s, err := r.Get(Format(name))
	if err != nil {
		return nil, err
	}
	return s.Text(ctx, name, data)
}

// Format returns the lower-case extension of name without the dot.
func Format(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// PlainSource passes text files through unchanged.
type PlainSource struct{}

func (p *PlainSource) SupportedFormats() []string { return []string{"txt", "csv", "tsv"} }

func (p *PlainSource) Text(ctx context.Context, name string, data []byte) (*Text, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &Text{Name: name, Content: content, Pages: 1, Method: "text"}, nil
}
