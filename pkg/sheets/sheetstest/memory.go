// Package sheetstest provides an in-memory sheets.API for tests.
package sheetstest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
	"google.golang.org/api/googleapi"
)

// Operation names accepted by FailOn and Block.
const (
	OpMetadata   = "metadata"
	OpGetValues  = "get_values"
	OpGetRow     = "get_row"
	OpAppendRow  = "append_row"
	OpUpdateCell = "update_cell"
	OpDeleteRow  = "delete_row"
)

// Memory stores each tab as a grid of strings, row 0 being the header.
type Memory struct {
	mu            sync.Mutex
	spreadsheetID string
	title         string
	order         []string
	ids           map[string]int64
	grids         map[string][][]string

	failures     map[string]error
	blocked      map[string]bool
	updateBudget int
	calls        map[string]int
}

// NewMemory returns an empty spreadsheet with the given id.
func NewMemory(spreadsheetID, title string) *Memory {
	return &Memory{
		spreadsheetID: spreadsheetID,
		title:         title,
		ids:           map[string]int64{},
		grids:         map[string][][]string{},
		failures:      map[string]error{},
		blocked:       map[string]bool{},
		updateBudget:  -1,
		calls:         map[string]int{},
	}
}

// AddTab creates (or replaces) a tab with a header and data rows.
func (m *Memory) AddTab(name string, header []string, rows ...[]string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grids[name]; !ok {
		m.order = append(m.order, name)
		m.ids[name] = int64(len(m.order) - 1)
	}
	grid := [][]string{append([]string(nil), header...)}
	for _, r := range rows {
		grid = append(grid, append([]string(nil), r...))
	}
	m.grids[name] = grid
	return m
}

// Rows returns a copy of the data rows of a tab (header excluded).
func (m *Memory) Rows(tab string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid := m.grids[tab]
	if len(grid) <= 1 {
		return nil
	}
	out := make([][]string, 0, len(grid)-1)
	for _, r := range grid[1:] {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

// Cell returns the text at a 1-based sheet position.
func (m *Memory) Cell(tab string, row, col int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid := m.grids[tab]
	if row-1 >= len(grid) || col-1 >= len(grid[row-1]) {
		return ""
	}
	return grid[row-1][col-1]
}

// FailOn makes every call of op return err until cleared with a nil err.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// FailUpdatesAfter lets n cell updates succeed and fails the rest.
func (m *Memory) FailUpdatesAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateBudget = n
}

// Block makes op wait for its context to end, simulating a hung provider.
func (m *Memory) Block(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[op] = true
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// NotFound is the provider error for a missing spreadsheet.
func NotFound() error {
	return &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}
}

// Unavailable is a generic transient provider error.
func Unavailable() error {
	return &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "The service is currently unavailable."}
}

func (m *Memory) enter(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	blocked := m.blocked[op]
	err := m.failures[op]
	m.mu.Unlock()
	if blocked {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (m *Memory) Metadata(ctx context.Context, spreadsheetID string) (*sheets.Metadata, error) {
	if err := m.enter(ctx, OpMetadata); err != nil {
		return nil, err
	}
	if spreadsheetID != m.spreadsheetID {
		return nil, NotFound()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	meta := &sheets.Metadata{Title: m.title}
	for _, name := range m.order {
		meta.Tabs = append(meta.Tabs, sheets.TabMeta{ID: m.ids[name], Title: name})
	}
	return meta, nil
}

func (m *Memory) GetValues(ctx context.Context, spreadsheetID, tab string) ([][]any, error) {
	if err := m.enter(ctx, OpGetValues); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, err := m.grid(spreadsheetID, tab)
	if err != nil {
		return nil, err
	}
	out := make([][]any, 0, len(grid))
	for _, r := range grid {
		out = append(out, toAny(r))
	}
	return out, nil
}

func (m *Memory) GetRowValues(ctx context.Context, spreadsheetID, tab string, row int) ([]any, error) {
	if err := m.enter(ctx, OpGetRow); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, err := m.grid(spreadsheetID, tab)
	if err != nil {
		return nil, err
	}
	if row < 1 || row > len(grid) {
		return []any{}, nil
	}
	return toAny(grid[row-1]), nil
}

func (m *Memory) AppendRow(ctx context.Context, spreadsheetID, tab string, values []any) (int, error) {
	if err := m.enter(ctx, OpAppendRow); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, err := m.grid(spreadsheetID, tab)
	if err != nil {
		return 0, err
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
	}
	m.grids[tab] = append(grid, row)
	return len(m.grids[tab]), nil
}

func (m *Memory) UpdateCell(ctx context.Context, spreadsheetID, tab string, row, col int, value string) error {
	if err := m.enter(ctx, OpUpdateCell); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateBudget == 0 {
		return Unavailable()
	}
	if m.updateBudget > 0 {
		m.updateBudget--
	}
	grid, err := m.grid(spreadsheetID, tab)
	if err != nil {
		return err
	}
	for len(grid) < row {
		grid = append(grid, []string{})
	}
	for len(grid[row-1]) < col {
		grid[row-1] = append(grid[row-1], "")
	}
	grid[row-1][col-1] = value
	m.grids[tab] = grid
	return nil
}

func (m *Memory) DeleteRow(ctx context.Context, spreadsheetID string, tab sheets.TabMeta, row int) error {
	if err := m.enter(ctx, OpDeleteRow); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	grid, err := m.grid(spreadsheetID, tab.Title)
	if err != nil {
		return err
	}
	if m.ids[tab.Title] != tab.ID {
		return &googleapi.Error{Code: http.StatusBadRequest, Message: fmt.Sprintf("No grid with id: %d", tab.ID)}
	}
	if row < 1 || row > len(grid) {
		return &googleapi.Error{Code: http.StatusBadRequest, Message: "Invalid requests[0].deleteDimension: range out of bounds"}
	}
	m.grids[tab.Title] = append(grid[:row-1], grid[row:]...)
	return nil
}

func (m *Memory) grid(spreadsheetID, tab string) ([][]string, error) {
	if spreadsheetID != m.spreadsheetID {
		return nil, NotFound()
	}
	grid, ok := m.grids[tab]
	if !ok {
		return nil, &googleapi.Error{Code: http.StatusBadRequest, Message: fmt.Sprintf("Unable to parse range: %s", tab)}
	}
	return grid, nil
}

func toAny(r []string) []any {
	out := make([]any, len(r))
	for i, v := range r {
		out[i] = v
	}
	return out
}

var _ sheets.API = (*Memory)(nil)
