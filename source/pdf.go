package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF has no usable text layer.
var ErrNoText = errors.New("source: no text layer")

// PDFSource reads the text layer of a PDF page by page. When the primary
// reader fails or yields a thin text layer, the content streams are decoded
// directly with pdfcpu.
type PDFSource struct{}

func (p *PDFSource) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFSource) Text(ctx context.Context, name string, data []byte) (*Text, error) {
	text, err := readPDFNative(ctx, data)
	if err == nil && !text.Quality.Thin() {
		text.Name = name
		return text, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		slog.Warn("source: native pdf read failed, trying pdfcpu", "file", name, "error", err)
	} else {
		slog.Warn("source: thin pdf text layer, trying pdfcpu", "file", name,
			"chars_per_page", text.Quality.CharsPerPage)
	}

	alt, altErr := readPDFContentStreams(ctx, data)
	if altErr != nil {
		if err == nil {
			// Thin but present beats nothing.
			text.Name = name
			return text, nil
		}
		return nil, fmt.Errorf("reading pdf: %w (pdfcpu: %v)", err, altErr)
	}
	alt.Name = name
	if err == nil && len(strings.TrimSpace(text.Content)) > len(strings.TrimSpace(alt.Content)) {
		text.Name = name
		return text, nil
	}
	return alt, nil
}

// readPDFNative walks pages strictly in order and concatenates their plain
// text. Cancellation is honoured between pages.
func readPDFNative(ctx context.Context, data []byte) (_ *Text, err error) {
	defer func() {
		// The reader panics on some malformed cross-reference tables.
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	totalPages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}

	content := b.String()
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoText
	}
	return &Text{
		Content: content,
		Pages:   totalPages,
		Method:  "native",
		Quality: MeasureQuality(content, totalPages),
	}, nil
}
