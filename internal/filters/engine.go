package filters

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
)

const (
	// All is the "no constraint" option, always listed first.
	All = "Todos"
	// DescriptionColumn is free text: its options are truncated and capped,
	// and filtering on it matches by substring.
	DescriptionColumn = "Descrição Meta"

	DescriptionDisplayRunes = 50
	DescriptionOptionCap    = 15
	TruncationMarker        = "..."
)

// DefaultOrder is the cascading order used when none is configured.
var DefaultOrder = []string{"Referência", "Setor", DescriptionColumn, "Responsável", "Status"}

// ErrUnknownColumn is returned when a selection change names a column outside the filter order.
var ErrUnknownColumn = errors.New("unknown filter column")

// Options is the dropdown content for one column.
type Options struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
	// Missing is set when the column is absent from the sheet header.
	Missing bool `json:"missing,omitempty"`
}

// Engine evaluates cascading filters in a fixed column order. It holds no
// state of its own and is safe for concurrent use.
type Engine struct {
	order       []string
	ownerColumn string
}

// New builds an engine. An empty order falls back to DefaultOrder.
func New(order []string, ownerColumn string) *Engine {
	cleaned := make([]string, 0, len(order))
	seen := map[string]bool{}
	for _, col := range order {
		col = strings.TrimSpace(col)
		if col == "" || seen[col] {
			continue
		}
		seen[col] = true
		cleaned = append(cleaned, col)
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultOrder...)
	}
	return &Engine{order: cleaned, ownerColumn: ownerColumn}
}

// Order returns the filter columns in cascading order.
func (e *Engine) Order() []string {
	return append([]string(nil), e.order...)
}

// OwnerColumn is the column compared against the caller's e-mail.
func (e *Engine) OwnerColumn() string {
	return e.ownerColumn
}

// NewSelection starts a session with every filter column at All.
func (e *Engine) NewSelection() Selection {
	return NewSelection(e.order)
}

// ParseSelection builds a selection from loose column/value pairs. Columns
// outside the filter order are rejected.
func (e *Engine) ParseSelection(values map[string]string) (Selection, error) {
	sel := e.NewSelection()
	for col, v := range values {
		if e.position(col) < 0 {
			return Selection{}, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		sel = sel.Set(col, normalizeChoice(v))
	}
	return sel, nil
}

// ScopeByOwner keeps the rows owned by email. A nil email (administrator)
// keeps everything. When the owner column is missing every row is returned
// and missing is true.
func (e *Engine) ScopeByOwner(header []string, rows []sheets.Row, email *string) (scoped []sheets.Row, missing bool) {
	if email == nil {
		return rows, false
	}
	if !hasColumn(header, e.ownerColumn) {
		return rows, true
	}
	want := strings.TrimSpace(*email)
	scoped = make([]sheets.Row, 0, len(rows))
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Values[e.ownerColumn]), want) {
			scoped = append(scoped, row)
		}
	}
	return scoped, false
}

// OptionsFor lists the legal values of column given the choices made on the
// columns before it. Choices on later columns are ignored.
func (e *Engine) OptionsFor(header []string, rows []sheets.Row, column string, sel Selection) Options {
	if !hasColumn(header, column) {
		return Options{Column: column, Values: []string{All}, Missing: true}
	}

	narrowed := ApplySelection(header, rows, e.upstream(column, sel))

	seen := map[string]bool{}
	var values []string
	for _, row := range narrowed {
		v := row.Values[column]
		if strings.TrimSpace(v) == "" {
			continue
		}
		if column == DescriptionColumn {
			v = TruncateForDisplay(v)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
		if column == DescriptionColumn && len(values) == DescriptionOptionCap {
			break
		}
	}
	sort.Strings(values)

	out := make([]string, 0, len(values)+1)
	out = append(out, All)
	for _, v := range values {
		if v != All {
			out = append(out, v)
		}
	}
	return Options{Column: column, Values: out}
}

// AllOptions computes OptionsFor for every filter column.
func (e *Engine) AllOptions(header []string, rows []sheets.Row, sel Selection) []Options {
	out := make([]Options, 0, len(e.order))
	for _, col := range e.order {
		out = append(out, e.OptionsFor(header, rows, col, sel))
	}
	return out
}

// OnSelectionChanged sets column to value and resets every later column to All.
func (e *Engine) OnSelectionChanged(sel Selection, column, value string) (Selection, error) {
	pos := e.position(column)
	if pos < 0 {
		return sel, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	next := sel.Set(column, normalizeChoice(value))
	for _, later := range e.order[pos+1:] {
		next = next.Set(later, All)
	}
	return next, nil
}

// ApplySelection keeps the rows matching every constrained choice. Choices on
// columns absent from the header are skipped rather than emptying the view.
func ApplySelection(header []string, rows []sheets.Row, sel Selection) []sheets.Row {
	active := sel.Active()
	applicable := active[:0:0]
	for _, c := range active {
		if hasColumn(header, c.Column) {
			applicable = append(applicable, c)
		}
	}
	if len(applicable) == 0 {
		return rows
	}
	out := make([]sheets.Row, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, c := range applicable {
			if !Matches(c.Column, row.Values[c.Column], c.Value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

// Matches applies the per-column predicate: exact equality, except for the
// description column, which matches case-insensitively by substring once a
// trailing truncation marker is removed from the filter value.
func Matches(column, cell, value string) bool {
	if value == All {
		return true
	}
	if column != DescriptionColumn {
		return cell == value
	}
	needle := strings.TrimSuffix(value, TruncationMarker)
	return strings.Contains(strings.ToLower(cell), strings.ToLower(needle))
}

// normalizeChoice maps an all-blank value to All. Other values are kept
// byte for byte so an offered option always matches the cell it came from.
func normalizeChoice(v string) string {
	if strings.TrimSpace(v) == "" {
		return All
	}
	return v
}

// TruncateForDisplay shortens a description to DescriptionDisplayRunes runes
// plus the truncation marker.
func TruncateForDisplay(v string) string {
	if utf8.RuneCountInString(v) <= DescriptionDisplayRunes {
		return v
	}
	runes := []rune(v)
	return string(runes[:DescriptionDisplayRunes]) + TruncationMarker
}

func (e *Engine) upstream(column string, sel Selection) Selection {
	pos := e.position(column)
	if pos < 0 {
		return NewSelection(nil)
	}
	out := NewSelection(nil)
	for _, col := range e.order[:pos] {
		out = out.Set(col, sel.Get(col))
	}
	return out
}

func (e *Engine) position(column string) int {
	for i, col := range e.order {
		if col == column {
			return i
		}
	}
	return -1
}

func hasColumn(header []string, column string) bool {
	if column == "" {
		return false
	}
	for _, col := range header {
		if col == column {
			return true
		}
	}
	return false
}
