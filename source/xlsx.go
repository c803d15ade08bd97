package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource renders each sheet as tab-separated rows, the same shape a
// user gets when copying the sheet into a form field.
type XLSXSource struct{}

func (p *XLSXSource) SupportedFormats() []string { return []string{"xlsx", "xlsm"} }

func (p *XLSXSource) Text(ctx context.Context, name string, data []byte) (*Text, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var content strings.Builder
	sheets := 0
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		sheets++
		if content.Len() > 0 {
			content.WriteString("\n")
		}
		for _, row := range rows {
			content.WriteString(strings.Join(row, "\t"))
			content.WriteString("\n")
		}
	}

	if sheets == 0 {
		return nil, fmt.Errorf("no data found in XLSX")
	}
	return &Text{Name: name, Content: content.String(), Pages: sheets, Method: "native"}, nil
}
