package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Tab is a handle on one worksheet. It holds no cached data: every read goes
// to the provider.
type Tab struct {
	client *Client
	meta   TabMeta
}

// Name returns the worksheet title.
func (t *Tab) Name() string {
	if t == nil {
		return ""
	}
	return t.meta.Title
}

// ReadAll loads the full tab. A tab with only a header yields an empty,
// non-nil snapshot; a failed read yields nil and a typed error.
func (t *Tab) ReadAll(ctx context.Context) (*Snapshot, error) {
	var grid [][]any
	err := t.client.call(ctx, "read_all", t.meta.Title, KindRead, func(ctx context.Context) error {
		var err error
		grid, err = t.client.api.GetValues(ctx, t.client.spreadsheetID, t.meta.Title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return buildSnapshot(t.meta.Title, grid, t.client.idColumn, t.client.now()), nil
}

// Header reads only the header row, keeping blank cells so positions line up
// with sheet columns.
func (t *Tab) Header(ctx context.Context) ([]string, error) {
	var cells []any
	err := t.client.call(ctx, "read_header", t.meta.Title, KindRead, func(ctx context.Context) error {
		var err error
		cells, err = t.client.api.GetRowValues(ctx, t.client.spreadsheetID, t.meta.Title, HeaderRow)
		return err
	})
	if err != nil {
		return nil, err
	}
	return normalizeHeader(cells), nil
}

// FindByField returns the first row whose column equals value.
func (t *Tab) FindByField(ctx context.Context, column, value string, caseInsensitive bool) (*Row, bool, error) {
	snap, err := t.ReadAll(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range snap.Rows {
		cell := snap.Rows[i].Values[column]
		if cell == value || (caseInsensitive && strings.EqualFold(cell, value)) {
			row := snap.Rows[i]
			return &row, true, nil
		}
	}
	return nil, false, nil
}

// AppendRow writes cells in column order after the last data row and returns
// the row number the provider reports for them.
func (t *Tab) AppendRow(ctx context.Context, cells []string) (int, error) {
	if len(cells) == 0 {
		return 0, invalid("append_row", t.meta.Title, "row has no cells")
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	var number int
	err := t.client.call(ctx, "append_row", t.meta.Title, KindWrite, func(ctx context.Context) error {
		var err error
		number, err = t.client.api.AppendRow(ctx, t.client.spreadsheetID, t.meta.Title, values)
		return err
	})
	if err != nil {
		return 0, err
	}
	return number, nil
}

// AppendRecord orders rec by the current header and appends it. Columns not
// present in the header are rejected.
func (t *Tab) AppendRecord(ctx context.Context, rec Record) (int, error) {
	header, err := t.Header(ctx)
	if err != nil {
		return 0, err
	}
	if err := (Patch{Values: rec}).validate(header); err != nil {
		return 0, &Error{Kind: KindInvalid, Op: "append_row", Tab: t.meta.Title, Err: err}
	}
	cells := make([]string, len(header))
	for i, col := range header {
		if col != "" {
			cells[i] = rec[col]
		}
	}
	return t.AppendRow(ctx, cells)
}

// UpdateRow writes patch into the given row one cell at a time. When a cell
// fails the error lists the columns already written; nothing is rolled back.
func (t *Tab) UpdateRow(ctx context.Context, rowNumber int, patch Patch) error {
	if rowNumber < FirstDataRow {
		return invalid("update_row", t.meta.Title, fmt.Sprintf("row %d is not a data row", rowNumber))
	}
	header, err := t.Header(ctx)
	if err != nil {
		return err
	}
	if err := patch.validate(header); err != nil {
		return &Error{Kind: KindInvalid, Op: "update_row", Tab: t.meta.Title, Err: err}
	}

	type cell struct {
		name  string
		col   int
		value string
	}
	var cells []cell
	if len(patch.Positional) > 0 {
		for i, v := range patch.Positional {
			cells = append(cells, cell{name: headerLabel(header, i), col: i + 1, value: v})
		}
	} else {
		for name, v := range patch.Values {
			cells = append(cells, cell{name: name, col: columnIndex(header, name), value: v})
		}
		sort.Slice(cells, func(i, j int) bool { return cells[i].col < cells[j].col })
	}

	written := make([]string, 0, len(cells))
	for _, c := range cells {
		err := t.client.call(ctx, "update_row", t.meta.Title, KindWrite, func(ctx context.Context) error {
			return t.client.api.UpdateCell(ctx, t.client.spreadsheetID, t.meta.Title, rowNumber, c.col, c.value)
		})
		if err != nil {
			typed := classify(KindWrite, "update_row", t.meta.Title, err)
			if typed.Kind != KindTimeout {
				typed.Kind = KindWrite
			}
			typed.Written = written
			return typed
		}
		written = append(written, c.name)
	}
	return nil
}

// DeleteRow removes the row and shifts every later row up by one.
func (t *Tab) DeleteRow(ctx context.Context, rowNumber int) error {
	if rowNumber < FirstDataRow {
		return invalid("delete_row", t.meta.Title, fmt.Sprintf("row %d is not a data row", rowNumber))
	}
	return t.client.call(ctx, "delete_row", t.meta.Title, KindWrite, func(ctx context.Context) error {
		return t.client.api.DeleteRow(ctx, t.client.spreadsheetID, t.meta, rowNumber)
	})
}

func headerLabel(header []string, i int) string {
	if i < len(header) && strings.TrimSpace(header[i]) != "" {
		return header[i]
	}
	return columnLetters(i + 1)
}
