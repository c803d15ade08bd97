package source

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXSource reads paragraphs and table rows from word/document.xml.
// Table cells are joined with tabs so pasted-table parsers accept them.
type DOCXSource struct{}

func (p *DOCXSource) SupportedFormats() []string { return []string{"docx"} }

func (p *DOCXSource) Text(ctx context.Context, name string, data []byte) (*Text, error) {
	docXML, err := ReadDocumentXML(data)
	if err != nil {
		return nil, err
	}
	content, err := documentText(docXML)
	if err != nil {
		return nil, fmt.Errorf("parsing DOCX XML: %w", err)
	}
	return &Text{Name: name, Content: content, Pages: 1, Method: "native"}, nil
}

// ReadDocumentXML returns the raw word/document.xml part of a docx archive.
func ReadDocumentXML(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening document.xml: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("word/document.xml not found in DOCX")
}

// DOCX XML structures (simplified)
type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Items []docxBlock `xml:",any"`
}

// docxBlock is either a paragraph or a table; body order is kept.
type docxBlock struct {
	XMLName xml.Name
	Runs    []docxRun `xml:"r"`
	Rows    []docxRow `xml:"tr"`
}

// docxRun keeps its children in document order so tabs and text
// interleave as written.
type docxRun struct {
	Parts []docxRunPart `xml:",any"`
}

type docxRunPart struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paras []docxBlock `xml:"p"`
}

func documentText(data []byte) (string, error) {
	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", err
	}

	var lines []string
	for _, item := range doc.Body.Items {
		switch item.XMLName.Local {
		case "p":
			if text := runText(item.Runs); text != "" {
				lines = append(lines, text)
			}
		case "tbl":
			for _, row := range item.Rows {
				cells := make([]string, 0, len(row.Cells))
				for _, cell := range row.Cells {
					var parts []string
					for _, p := range cell.Paras {
						if t := runText(p.Runs); t != "" {
							parts = append(parts, t)
						}
					}
					cells = append(cells, strings.Join(parts, " "))
				}
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func runText(runs []docxRun) string {
	var b strings.Builder
	for _, run := range runs {
		for _, part := range run.Parts {
			switch part.XMLName.Local {
			case "t":
				b.WriteString(part.Content)
			case "tab":
				b.WriteString("\t")
			}
		}
	}
	return strings.TrimSpace(b.String())
}
