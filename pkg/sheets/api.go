package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// API is the narrow surface of the provider the store relies on. Tests swap
// in sheetstest.Memory.
type API interface {
	Metadata(ctx context.Context, spreadsheetID string) (*Metadata, error)
	GetValues(ctx context.Context, spreadsheetID, tab string) ([][]any, error)
	GetRowValues(ctx context.Context, spreadsheetID, tab string, row int) ([]any, error)
	// AppendRow returns the sheet row number the values landed on.
	AppendRow(ctx context.Context, spreadsheetID, tab string, values []any) (int, error)
	UpdateCell(ctx context.Context, spreadsheetID, tab string, row, col int, value string) error
	DeleteRow(ctx context.Context, spreadsheetID string, tab TabMeta, row int) error
}

// Metadata describes a spreadsheet and its tabs.
type Metadata struct {
	Title string
	Tabs  []TabMeta
}

// TabMeta identifies one worksheet.
type TabMeta struct {
	ID    int64
	Title string
}

// Lookup returns the tab with the exact title.
func (m *Metadata) Lookup(title string) (TabMeta, bool) {
	if m == nil {
		return TabMeta{}, false
	}
	for _, tab := range m.Tabs {
		if tab.Title == title {
			return tab, true
		}
	}
	return TabMeta{}, false
}

const (
	valueInputRaw     = "RAW"
	insertRows        = "INSERT_ROWS"
	renderFormatted   = "FORMATTED_VALUE"
	dimensionRows     = "ROWS"
	metadataFieldMask = "properties.title,sheets.properties(sheetId,title)"
)

type googleAPI struct {
	svc *gsheets.Service
}

// NewGoogleAPI builds the production API backed by the Sheets v4 REST client.
func NewGoogleAPI(ctx context.Context, opts ...option.ClientOption) (API, error) {
	opts = append([]option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}, opts...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &googleAPI{svc: svc}, nil
}

func (g *googleAPI) Metadata(ctx context.Context, spreadsheetID string) (*Metadata, error) {
	resp, err := g.svc.Spreadsheets.Get(spreadsheetID).Fields(metadataFieldMask).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	meta := &Metadata{}
	if resp.Properties != nil {
		meta.Title = resp.Properties.Title
	}
	for _, sheet := range resp.Sheets {
		if sheet == nil || sheet.Properties == nil {
			continue
		}
		meta.Tabs = append(meta.Tabs, TabMeta{ID: sheet.Properties.SheetId, Title: sheet.Properties.Title})
	}
	return meta, nil
}

func (g *googleAPI) GetValues(ctx context.Context, spreadsheetID, tab string) ([][]any, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, quoteTab(tab)).
		ValueRenderOption(renderFormatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleAPI) GetRowValues(ctx context.Context, spreadsheetID, tab string, row int) ([]any, error) {
	rng := fmt.Sprintf("%s!%d:%d", quoteTab(tab), row, row)
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption(renderFormatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return []any{}, nil
	}
	return resp.Values[0], nil
}

func (g *googleAPI) AppendRow(ctx context.Context, spreadsheetID, tab string, values []any) (int, error) {
	body := &gsheets.ValueRange{Values: [][]any{values}}
	resp, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, quoteTab(tab), body).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append response carries no updated range")
	}
	return rowFromRange(resp.Updates.UpdatedRange)
}

func (g *googleAPI) UpdateCell(ctx context.Context, spreadsheetID, tab string, row, col int, value string) error {
	body := &gsheets.ValueRange{Values: [][]any{{value}}}
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, cellRef(tab, row, col), body).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	return err
}

func (g *googleAPI) DeleteRow(ctx context.Context, spreadsheetID string, tab TabMeta, row int) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteDimension: &gsheets.DeleteDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    tab.ID,
					Dimension:  dimensionRows,
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
					// the first tab has id 0, which would otherwise be dropped
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	_, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

// quoteTab renders a tab name for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func cellRef(tab string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteTab(tab), columnLetters(col), row)
}

// rowFromRange reads the first row number of an A1 range such as
// 'Cronograma'!A5:G5.
func rowFromRange(a1 string) (int, error) {
	ref := a1[strings.LastIndex(a1, "!")+1:]
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		ref = ref[:i]
	}
	row, err := strconv.Atoi(strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$"))
	if err != nil || row < 1 {
		return 0, fmt.Errorf("unexpected updated range %q", a1)
	}
	return row, nil
}

// columnLetters converts a 1-based column number to A1 letters (1 -> A, 27 -> AA).
func columnLetters(col int) string {
	if col < 1 {
		return ""
	}
	var out []byte
	for col > 0 {
		col--
		out = append([]byte{byte('A' + col%26)}, out...)
		col /= 26
	}
	return string(out)
}
