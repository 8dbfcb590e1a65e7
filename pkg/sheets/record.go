package sheets

import (
	"fmt"
	"strings"
	"time"
)

// HeaderRow is the sheet row holding column names; data starts right below it.
const HeaderRow = 1

// FirstDataRow is the row number of the first record.
const FirstDataRow = HeaderRow + 1

// Record maps a header name to the cell text. Empty cells are "".
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Row is a record plus its position in the tab at read time.
type Row struct {
	Number int    `json:"row_number"`
	ID     string `json:"row_id,omitempty"`
	Values Record `json:"values"`
}

// Snapshot is one full read of a tab.
type Snapshot struct {
	Tab      string    `json:"tab"`
	Header   []string  `json:"header"`
	Rows     []Row     `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HasColumn reports whether the header carries the named column.
func (s *Snapshot) HasColumn(name string) bool {
	if s == nil {
		return false
	}
	for _, col := range s.Header {
		if col == name {
			return true
		}
	}
	return false
}

// RowByNumber returns the row at the given sheet position.
func (s *Snapshot) RowByNumber(number int) (Row, bool) {
	if s == nil {
		return Row{}, false
	}
	idx := number - FirstDataRow
	if idx < 0 || idx >= len(s.Rows) {
		return Row{}, false
	}
	return s.Rows[idx], true
}

// RowByID returns the first row whose synthetic ID matches.
func (s *Snapshot) RowByID(id string) (Row, bool) {
	if s == nil || strings.TrimSpace(id) == "" {
		return Row{}, false
	}
	for _, row := range s.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return Row{}, false
}

// Patch describes a row update. Exactly one of Values or Positional is set.
//
// Values is sparse: only the named cells are written. Positional overwrites
// the row from column 1 and must match the header width.
type Patch struct {
	Values     Record
	Positional []string
}

func (p Patch) validate(header []string) error {
	switch {
	case len(p.Values) > 0 && len(p.Positional) > 0:
		return fmt.Errorf("patch must be either by column name or positional, not both")
	case len(p.Values) == 0 && len(p.Positional) == 0:
		return fmt.Errorf("patch is empty")
	case len(p.Positional) > 0 && len(p.Positional) != len(header):
		return fmt.Errorf("positional patch has %d values, header has %d columns", len(p.Positional), len(header))
	}
	if len(p.Values) > 0 {
		unknown := []string{}
		for name := range p.Values {
			if columnIndex(header, name) == 0 {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			return fmt.Errorf("unknown columns: %s", strings.Join(unknown, ", "))
		}
	}
	return nil
}

// columnIndex returns the 1-based column of name, or 0 when absent.
func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col != "" && col == name {
			return i + 1
		}
	}
	return 0
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// buildSnapshot turns a raw value grid (row 1 = header) into records keyed by
// header name, padding short rows so every record has every column.
func buildSnapshot(tab string, grid [][]any, idColumn string, now time.Time) *Snapshot {
	snap := &Snapshot{Tab: tab, Rows: []Row{}, LoadedAt: now}
	if len(grid) == 0 {
		snap.Header = []string{}
		return snap
	}
	raw := normalizeHeader(grid[0])
	for i, col := range raw {
		if col != "" && columnIndex(raw, col) == i+1 {
			snap.Header = append(snap.Header, col)
		}
	}
	if snap.Header == nil {
		snap.Header = []string{}
	}

	for i, cells := range grid[1:] {
		rec := make(Record, len(snap.Header))
		for _, col := range snap.Header {
			rec[col] = ""
		}
		for j, col := range raw {
			if col == "" || j >= len(cells) {
				continue
			}
			if columnIndex(raw, col) != j+1 {
				continue
			}
			rec[col] = cellText(cells[j])
		}
		row := Row{Number: FirstDataRow + i, Values: rec}
		if idColumn != "" {
			row.ID = strings.TrimSpace(rec[idColumn])
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap
}

func normalizeHeader(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(cellText(c))
	}
	return out
}
