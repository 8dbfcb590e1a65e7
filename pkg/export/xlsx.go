package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type served with workbook downloads.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetNameRunes = 31

// Table is a rectangular view: a header plus rows of cells keyed by header name.
type Table struct {
	Sheet  string
	Header []string
	Rows   []map[string]string
}

// WriteXLSX renders table as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, table Table) error {
	if len(table.Header) == 0 {
		return errors.New("export: table has no columns")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(table.Sheet)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("export: naming sheet: %w", err)
	}

	header := make([]any, len(table.Header))
	for i, col := range table.Header {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i, rec := range table.Rows {
		cells := make([]any, len(table.Header))
		for j, col := range table.Header {
			cells[j] = rec[col]
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(table.Header), len(table.Rows)+1)
	if err != nil {
		return fmt.Errorf("export: range: %w", err)
	}
	if err := f.AutoFilter(sheet, "A1:"+last, nil); err != nil {
		return fmt.Errorf("export: autofilter: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("export: freezing header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

// SheetName makes name acceptable as a worksheet title.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		return "Sheet1"
	}
	if utf8.RuneCountInString(name) > maxSheetNameRunes {
		name = string([]rune(name)[:maxSheetNameRunes])
	}
	return name
}
