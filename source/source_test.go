package source

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryBuiltInSources(t *testing.T) {
	reg := NewRegistry()

	formats := []string{"pdf", "xlsx", "xlsm", "docx", "txt", "csv", "tsv", "PDF"}
	for _, f := range formats {
		t.Run(f, func(t *testing.T) {
			s, err := reg.Get(f)
			if err != nil {
				t.Fatalf("Get(%q) returned error: %v", f, err)
			}
			found := false
			for _, sf := range s.SupportedFormats() {
				if sf == strings.ToLower(f) {
					found = true
				}
			}
			if !found {
				t.Errorf("source for %q does not list it: %v", f, s.SupportedFormats())
			}
		})
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry()
	for _, f := range []string{"pptx", "odt", "", "html"} {
		if s, err := reg.Get(f); err == nil {
			t.Errorf("Get(%q) expected error, got %T", f, s)
		}
	}
}

func TestRegistryCustomSource(t *testing.T) {
	reg := NewRegistry()
	reg.Register("md", &PlainSource{})
	text, err := reg.Read(context.Background(), "note.MD", []byte("riga uno\r\nriga due"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if text.Content != "riga uno\nriga due" || text.Method != "text" {
		t.Errorf("unexpected text: %+v", text)
	}
}

func TestFormat(t *testing.T) {
	tests := map[string]string{
		"Calendario.PDF":      "pdf",
		"/tmp/a/b/elenco.xlsx": "xlsx",
		"senza-estensione":    "",
	}
	for in, want := range tests {
		if got := Format(in); got != want {
			t.Errorf("Format(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// DOCX / XLSX
// ---------------------------------------------------------------------------

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDOCXSourceKeepsBodyOrder(t *testing.T) {
	body := `<w:p><w:r><w:t>ID Progetto: PRJ-1</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>Mario Rossi</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`<w:p><w:r><w:t xml:space="preserve">Docente: </w:t></w:r><w:r><w:t>Anna Neri</w:t></w:r></w:p>`

	text, err := (&DOCXSource{}).Text(context.Background(), "corso.docx", buildDocx(t, body))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := "ID Progetto: PRJ-1\n1\tMario Rossi\nDocente: Anna Neri"
	if text.Content != want {
		t.Errorf("Content = %q, want %q", text.Content, want)
	}
}

func TestDOCXSourceRunTabsInOrder(t *testing.T) {
	body := `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Rossi</w:t><w:tab/><w:t>Mario</w:t>` +
		`<w:tab/><w:t>RSSMRA80A01H501U</w:t></w:r></w:p>`

	text, err := (&DOCXSource{}).Text(context.Background(), "elenco.docx", buildDocx(t, body))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := "Rossi\tMario\tRSSMRA80A01H501U"
	if text.Content != want {
		t.Errorf("Content = %q, want %q", text.Content, want)
	}
}

func TestDOCXSourceMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.Create("word/other.xml")
	zw.Close()
	if _, err := (&DOCXSource{}).Text(context.Background(), "x.docx", buf.Bytes()); err == nil {
		t.Error("expected error for docx without document.xml")
	}
}

func TestXLSXSourceTabJoinsRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "N.")
	f.SetCellValue("Sheet1", "B1", "Nominativo")
	f.SetCellValue("Sheet1", "A2", 1)
	f.SetCellValue("Sheet1", "B2", "Mario Rossi")
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	text, err := (&XLSXSource{}).Text(context.Background(), "elenco.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(text.Content, "N.\tNominativo\n1\tMario Rossi\n") {
		t.Errorf("Content = %q", text.Content)
	}
	if text.Pages != 1 {
		t.Errorf("Pages = %d, want 1", text.Pages)
	}
}

// ---------------------------------------------------------------------------
// PDF
// ---------------------------------------------------------------------------

func TestPDFSourceRejectsGarbage(t *testing.T) {
	_, err := (&PDFSource{}).Text(context.Background(), "rotto.pdf", []byte("not a pdf at all"))
	if err == nil {
		t.Fatal("expected error for malformed PDF")
	}
}

func TestPDFSourceHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&PDFSource{}).Text(ctx, "x.pdf", []byte("%PDF-1.4 broken")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestDecodeContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 712 Td\n(ID Progetto: PRJ-1) Tj\nT*\n[(Docente) -250 (: Anna)] TJ\nET\nBT\n(Sede\\072 Roma) Tj\nET\n")
	got := decodeContentStream(stream)
	want := "ID Progetto: PRJ-1\nDocente: Anna\nSede: Roma"
	if got != want {
		t.Errorf("decodeContentStream = %q, want %q", got, want)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := map[string]string{
		`plain`:          "plain",
		`a\(b\)c`:        "a(b)c",
		`tab\there`:      "tab\there",
		`octal\040space`: "octal space",
		`back\\slash`:    `back\slash`,
	}
	for in, want := range tests {
		if got := decodePDFString([]byte(in)); got != want {
			t.Errorf("decodePDFString(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Quality
// ---------------------------------------------------------------------------

func TestMeasureQuality(t *testing.T) {
	dense := strings.Repeat("Elenco partecipanti del corso di formazione. ", 10)
	q := MeasureQuality(dense, 2)
	if q.Thin() {
		t.Errorf("dense text flagged thin: %+v", q)
	}

	q = MeasureQuality("pag. 1", 3)
	if !q.Thin() {
		t.Errorf("sparse text not flagged thin: %+v", q)
	}

	q = MeasureQuality(strings.Repeat("�", 100), 1)
	if !q.Thin() {
		t.Errorf("garbled text not flagged thin: %+v", q)
	}
}

func TestLooksTabular(t *testing.T) {
	if !looksTabular("a\tb\tc\nd\te\tf\ng\th\ti\n") {
		t.Error("expected tab grid to look tabular")
	}
	if looksTabular("Just a sentence.\nAnother one.") {
		t.Error("plain prose detected as table")
	}
}
