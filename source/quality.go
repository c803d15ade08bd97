package source

import (
	"strings"
	"unicode"
)

// Quality describes how usable an extracted text layer is.
type Quality struct {
	Pages          int     `json:"pages"`
	CharsPerPage   float64 `json:"chars_per_page"`
	PrintableRatio float64 `json:"printable_ratio"`
	HasTables      bool    `json:"has_tables"`
}

// thinCharsPerPage is the density below which a PDF is treated as scanned.
const thinCharsPerPage = 40

// Thin reports whether the text layer is too sparse or too garbled to
// parse, which is typical of scanned documents.
func (q Quality) Thin() bool {
	return q.CharsPerPage < thinCharsPerPage || q.PrintableRatio < 0.85
}

// MeasureQuality scores text extracted from pages pages.
func MeasureQuality(text string, pages int) Quality {
	q := Quality{Pages: pages, PrintableRatio: printableRatio(text), HasTables: looksTabular(text)}
	if pages > 0 {
		q.CharsPerPage = float64(len([]rune(strings.TrimSpace(text)))) / float64(pages)
	}
	return q
}

func printableRatio(text string) float64 {
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	// Private Use Area
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	return r < 0x0020 && r != '\n' && r != '\r' && r != '\t'
}

// looksTabular detects grid-like text: tab or pipe separated rows, or
// dashed separator lines.
func looksTabular(text string) bool {
	tabCount, pipeCount, dashLineCount := 0, 0, 0
	for _, line := range strings.Split(text, "\n") {
		tabCount += strings.Count(line, "\t")
		pipeCount += strings.Count(line, "|")
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 3 && (strings.Count(trimmed, "-") > len(trimmed)/2 || strings.Count(trimmed, "_") > len(trimmed)/2) {
			dashLineCount++
		}
	}
	return tabCount > 5 || pipeCount > 5 || dashLineCount > 2
}
