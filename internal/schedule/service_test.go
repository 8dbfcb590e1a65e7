package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/audit"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets/sheetstest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	testSpreadsheetID = "1AbCdEfGhIjKlMnOp"
	scheduleTab       = "Cronograma"
)

var scheduleHeader = []string{"ID", "Referência", "Setor", "Descrição Meta", "Responsável", "Status", "E-mail"}

var (
	ana   = Actor{Login: "ana", Email: "ana@x.com", Role: enums.UserRoleUser}
	bia   = Actor{Login: "bia", Email: "bia@x.com", Role: enums.UserRoleUser}
	chefe = Actor{Login: "chefe", Email: "chefe@x.com", Role: enums.UserRoleAdmin}
)

func newScheduleMemory() *sheetstest.Memory {
	return sheetstest.NewMemory(testSpreadsheetID, "Cronograma 2026").
		AddTab(scheduleTab, scheduleHeader,
			[]string{"a1", "Jan/2026", "Viveiro", "Plantio de mudas", "Ana", "Pendente", "ana@x.com"},
			[]string{"a2", "Jan/2026", "Colheita", "Colheita de eucalipto", "Bia", "Concluído", "bia@x.com"},
			[]string{"a3", "Fev/2026", "Viveiro", "Irrigação", "Ana", "Pendente", "ANA@x.com"},
		)
}

type fixture struct {
	mem       *sheetstest.Memory
	cache     *fakeCache
	publisher *fakePublisher
	svc       Service
}

func newFixture(t *testing.T, mem *sheetstest.Memory) *fixture {
	t.Helper()
	client, err := sheets.Connect(context.Background(), mem, testSpreadsheetID, sheets.Options{IDColumn: "ID"})
	require.NoError(t, err)

	f := &fixture{mem: mem, cache: newFakeCache(), publisher: &fakePublisher{}}
	f.svc, err = NewService(ServiceParams{
		Sheets:     client,
		Cache:      f.cache,
		Engine:     filters.New(nil, "E-mail"),
		Publisher:  f.publisher,
		Tab:        scheduleTab,
		IDColumn:   "ID",
		CacheTTL:   time.Minute,
		SessionTTL: time.Hour,
	})
	require.NoError(t, err)
	return f
}

func rowIDs(rows []sheets.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestLoadVisibleRowsScopesByOwner(t *testing.T) {
	f := newFixture(t, newScheduleMemory())

	view, err := f.svc.LoadVisibleRows(context.Background(), ana)
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a3"}, rowIDs(view.Rows))
	require.False(t, view.OwnerColumnMissing)

	all, err := f.svc.LoadVisibleRows(context.Background(), chefe)
	require.NoError(t, err)
	require.Equal(t, 3, all.Count())
}

func TestLoadVisibleRowsServesFromCache(t *testing.T) {
	f := newFixture(t, newScheduleMemory())

	_, err := f.svc.LoadVisibleRows(context.Background(), ana)
	require.NoError(t, err)
	reads := f.mem.Calls(sheetstest.OpGetValues)

	view, err := f.svc.LoadVisibleRows(context.Background(), ana)
	require.NoError(t, err)
	require.Equal(t, reads, f.mem.Calls(sheetstest.OpGetValues))
	require.Equal(t, []string{"a1", "a3"}, rowIDs(view.Rows))

	// A different scope is a different entry.
	_, err = f.svc.LoadVisibleRows(context.Background(), bia)
	require.NoError(t, err)
	require.Equal(t, reads+1, f.mem.Calls(sheetstest.OpGetValues))
}

func TestWriteInvalidatesCachedViews(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	_, err := f.svc.LoadVisibleRows(ctx, chefe)
	require.NoError(t, err)

	_, err = f.svc.EditRow(ctx, chefe, RowRef{ID: "a2"}, sheets.Record{"Status": "Pendente"})
	require.NoError(t, err)
	require.Equal(t, int64(1), f.cache.gens[scheduleTab])

	view, err := f.svc.LoadVisibleRows(ctx, chefe)
	require.NoError(t, err)
	row, ok := findRow(view.Rows, "a2")
	require.True(t, ok)
	require.Equal(t, "Pendente", row.Values["Status"])
}

func TestFailedInvalidationBypassesCacheUntilBumped(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	_, err := f.svc.LoadVisibleRows(ctx, chefe)
	require.NoError(t, err)
	require.Len(t, f.cache.viewKeys(), 1)

	f.cache.bumpFail = errors.New("READONLY replica")
	_, err = f.svc.EditRow(ctx, chefe, RowRef{ID: "a2"}, sheets.Record{"Status": "Pendente"})
	require.NoError(t, err)
	require.Empty(t, f.cache.viewKeys())

	reads := f.mem.Calls(sheetstest.OpGetValues)
	view, err := f.svc.LoadVisibleRows(ctx, chefe)
	require.NoError(t, err)
	row, ok := findRow(view.Rows, "a2")
	require.True(t, ok)
	require.Equal(t, "Pendente", row.Values["Status"])
	_, err = f.svc.LoadVisibleRows(ctx, chefe)
	require.NoError(t, err)
	require.Equal(t, reads+2, f.mem.Calls(sheetstest.OpGetValues))
	require.Empty(t, f.cache.viewKeys())

	f.cache.bumpFail = nil
	_, err = f.svc.LoadVisibleRows(ctx, chefe)
	require.NoError(t, err)
	require.Equal(t, int64(1), f.cache.gens[scheduleTab])
	_, err = f.svc.LoadVisibleRows(ctx, chefe)
	require.NoError(t, err)
	require.Equal(t, reads+3, f.mem.Calls(sheetstest.OpGetValues))
}

func TestCacheOutageDegradesToSheetReads(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	f.cache.fail = errors.New("connection refused")

	view, err := f.svc.LoadVisibleRows(context.Background(), ana)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)

	_, err = f.svc.LoadVisibleRows(context.Background(), ana)
	require.NoError(t, err)
	require.Equal(t, 2, f.mem.Calls(sheetstest.OpGetValues))
}

func TestMissingOwnerColumnShowsEverything(t *testing.T) {
	mem := sheetstest.NewMemory(testSpreadsheetID, "x").
		AddTab(scheduleTab, []string{"ID", "Referência"},
			[]string{"a1", "Jan/2026"},
			[]string{"a2", "Fev/2026"},
		)
	f := newFixture(t, mem)

	view, err := f.svc.LoadVisibleRows(context.Background(), ana)
	require.NoError(t, err)
	require.True(t, view.OwnerColumnMissing)
	require.Len(t, view.Rows, 2)
}

func TestLoadFailureIsNotAnEmptyView(t *testing.T) {
	mem := newScheduleMemory()
	f := newFixture(t, mem)
	mem.FailOn(sheetstest.OpGetValues, sheetstest.Unavailable())

	view, err := f.svc.LoadVisibleRows(context.Background(), ana)
	require.Nil(t, view)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	empty := sheetstest.NewMemory(testSpreadsheetID, "x").AddTab(scheduleTab, scheduleHeader)
	view, err = newFixture(t, empty).svc.LoadVisibleRows(context.Background(), ana)
	require.NoError(t, err)
	require.NotNil(t, view.Rows)
	require.Zero(t, view.Count())
}

func TestApplyFiltersAndOptions(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	sel, err := f.svc.ParseSelection(map[string]string{"Setor": "Viveiro"})
	require.NoError(t, err)

	view, err := f.svc.ApplyFilters(ctx, chefe, sel)
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a3"}, rowIDs(view.Rows))

	opts, err := f.svc.FilterOptions(ctx, chefe, sel)
	require.NoError(t, err)
	require.Equal(t, "Referência", opts[0].Column)
	require.Equal(t, []string{filters.All, "Fev/2026", "Jan/2026"}, opts[0].Values)
	require.Equal(t, []string{filters.All, "Irrigação", "Plantio de mudas"}, opts[2].Values)

	_, err = f.svc.ParseSelection(map[string]string{"Cor": "Azul"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestChangeSelectionPersistsAndResetsLaterColumns(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	_, err := f.svc.ChangeSelection(ctx, chefe, "jti-1", "Setor", "Viveiro")
	require.NoError(t, err)
	res, err := f.svc.ChangeSelection(ctx, chefe, "jti-1", "Status", "Pendente")
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)

	res, err = f.svc.ChangeSelection(ctx, chefe, "jti-1", "Referência", "Jan/2026")
	require.NoError(t, err)
	want := map[string]string{
		"Referência":     "Jan/2026",
		"Setor":          filters.All,
		"Descrição Meta": filters.All,
		"Responsável":    filters.All,
		"Status":         filters.All,
	}
	if diff := cmp.Diff(want, res.Selection.Map()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"a1", "a2"}, rowIDs(res.Rows))

	stored, err := f.svc.GetSelection(ctx, chefe, "jti-1")
	require.NoError(t, err)
	require.Equal(t, "Jan/2026", stored.Selection.Get("Referência"))

	require.NoError(t, f.svc.ResetSelection(ctx, "jti-1"))
	fresh, err := f.svc.GetSelection(ctx, chefe, "jti-1")
	require.NoError(t, err)
	require.True(t, fresh.Selection.IsAll())
	require.Equal(t, 3, fresh.Count)
}

func TestMoveSelectionCarriesSessionOver(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	_, err := f.svc.ChangeSelection(ctx, chefe, "jti-old", "Setor", "Viveiro")
	require.NoError(t, err)
	require.NoError(t, f.svc.MoveSelection(ctx, "jti-old", "jti-new"))

	moved, err := f.svc.GetSelection(ctx, chefe, "jti-new")
	require.NoError(t, err)
	require.Equal(t, "Viveiro", moved.Selection.Get("Setor"))
	require.Equal(t, 2, moved.Count)

	old, err := f.svc.GetSelection(ctx, chefe, "jti-old")
	require.NoError(t, err)
	require.True(t, old.Selection.IsAll())

	// Nothing stored moves nothing.
	require.NoError(t, f.svc.MoveSelection(ctx, "jti-none", "jti-other"))
	_, stored := f.cache.data[f.cache.FilterSessionKey("jti-other")]
	require.False(t, stored)
}

func TestChangeSelectionUnknownColumn(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	_, err := f.svc.ChangeSelection(context.Background(), chefe, "jti-1", "Cor", "Azul")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestAddRowAssignsOwnerAndID(t *testing.T) {
	f := newFixture(t, newScheduleMemory())

	row, err := f.svc.AddRow(context.Background(), ana, sheets.Record{
		"Referência": "Mar/2026",
		"Setor":      "Viveiro",
		"E-mail":     "someone-else@x.com",
	})
	require.NoError(t, err)
	require.Equal(t, 5, row.Number)
	require.Len(t, row.ID, 36)
	require.Equal(t, "ana@x.com", row.Values["E-mail"])

	stored := f.mem.Rows(scheduleTab)
	last := stored[len(stored)-1]
	require.Equal(t, row.ID, last[0])
	require.Equal(t, "ana@x.com", last[6])

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	require.Equal(t, enums.AuditEventRowCreated, ev.Type)
	require.Equal(t, "ana", ev.Actor)
	require.Equal(t, 5, ev.RowNumber)
}

// racingAppendAPI lands another writer's row just before every append.
type racingAppendAPI struct {
	*sheetstest.Memory
}

func (r racingAppendAPI) AppendRow(ctx context.Context, spreadsheetID, tab string, values []any) (int, error) {
	other := []any{"x9", "Fev/2026", "Colheita", "Poda", "Bia", "Pendente", "bia@x.com"}
	if _, err := r.Memory.AppendRow(ctx, spreadsheetID, tab, other); err != nil {
		return 0, err
	}
	return r.Memory.AppendRow(ctx, spreadsheetID, tab, values)
}

func TestAddRowReportsLandedRowUnderConcurrentAppend(t *testing.T) {
	mem := newScheduleMemory()
	client, err := sheets.Connect(context.Background(), racingAppendAPI{mem}, testSpreadsheetID, sheets.Options{IDColumn: "ID"})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Sheets:   client,
		Engine:   filters.New(nil, "E-mail"),
		Tab:      scheduleTab,
		IDColumn: "ID",
	})
	require.NoError(t, err)

	row, err := svc.AddRow(context.Background(), chefe, sheets.Record{"Setor": "Viveiro", "E-mail": "ana@x.com"})
	require.NoError(t, err)
	require.Equal(t, 6, row.Number)

	got, err := svc.GetRow(context.Background(), chefe, RowRef{Number: row.Number})
	require.NoError(t, err)
	require.Equal(t, row.ID, got.ID)
}

func TestAddRowRejectsUnknownColumnsAndDuplicateIDs(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	_, err := f.svc.AddRow(ctx, chefe, sheets.Record{"Cor": "Azul"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddRow(ctx, chefe, sheets.Record{"ID": "a1", "Setor": "Viveiro"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	_, err = f.svc.AddRow(ctx, chefe, sheets.Record{})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	require.Zero(t, f.mem.Calls(sheetstest.OpAppendRow))
}

func TestEditRowResolvesIDAfterShift(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteRow(ctx, chefe, RowRef{Number: 2}))

	row, err := f.svc.EditRow(ctx, chefe, RowRef{ID: "a3"}, sheets.Record{"Status": "Concluído"})
	require.NoError(t, err)
	require.Equal(t, 3, row.Number)
	require.Equal(t, "Concluído", f.mem.Cell(scheduleTab, 3, 6))
	require.Equal(t, "a3", f.mem.Cell(scheduleTab, 3, 1))

	types := []enums.AuditEventType{f.publisher.events[0].Type, f.publisher.events[1].Type}
	require.Equal(t, []enums.AuditEventType{enums.AuditEventRowDeleted, enums.AuditEventRowUpdated}, types)
	require.Equal(t, []string{"Status"}, f.publisher.events[1].Columns)
}

func TestNonAdminCannotTouchOtherRows(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	_, err := f.svc.EditRow(ctx, ana, RowRef{ID: "a2"}, sheets.Record{"Status": "Pendente"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	err = f.svc.DeleteRow(ctx, ana, RowRef{Number: 3})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = f.svc.GetRow(ctx, ana, RowRef{ID: "a2"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = f.svc.EditRow(ctx, ana, RowRef{ID: "a1"}, sheets.Record{"E-mail": "bia@x.com"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	row, err := f.svc.EditRow(ctx, ana, RowRef{ID: "a3"}, sheets.Record{"Status": "Concluído"})
	require.NoError(t, err)
	require.Equal(t, "Concluído", row.Values["Status"])
	require.Zero(t, f.mem.Calls(sheetstest.OpDeleteRow))
}

func TestEditRowPartialFailureReportsWrittenColumns(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	f.mem.FailUpdatesAfter(1)

	_, err := f.svc.EditRow(context.Background(), chefe, RowRef{Number: 2}, sheets.Record{
		"Status": "Concluído",
		"Setor":  "Colheita",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeWriteFailed, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, []string{"Setor"}, details["written_columns"])

	require.Equal(t, "Colheita", f.mem.Cell(scheduleTab, 2, 3))
	require.Equal(t, "Pendente", f.mem.Cell(scheduleTab, 2, 6))
	require.Equal(t, int64(1), f.cache.gens[scheduleTab])
	require.Empty(t, f.publisher.events)
}

func TestEditRowRejectsIDColumnAndEmptyPatch(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	_, err := f.svc.EditRow(ctx, chefe, RowRef{Number: 2}, sheets.Record{"ID": "zz"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.EditRow(ctx, chefe, RowRef{Number: 2}, nil)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	require.Zero(t, f.mem.Calls(sheetstest.OpUpdateCell))
}

func TestMissingRowsAreNotFound(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	ctx := context.Background()

	err := f.svc.DeleteRow(ctx, chefe, RowRef{Number: 40})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = f.svc.GetRow(ctx, chefe, RowRef{ID: "nope"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestAuditFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	f.publisher.err = errors.New("topic gone")

	err := f.svc.DeleteRow(context.Background(), chefe, RowRef{ID: "a1"})
	require.NoError(t, err)
	require.Len(t, f.mem.Rows(scheduleTab), 2)
}

func TestExportWritesFilteredRows(t *testing.T) {
	f := newFixture(t, newScheduleMemory())
	sel, err := f.svc.ParseSelection(map[string]string{"Status": "Pendente"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(context.Background(), ana, sel, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(scheduleTab)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, scheduleHeader, rows[0])
	require.Equal(t, "a1", rows[1][0])
	require.Equal(t, "a3", rows[2][0])
}

func TestParseRowRef(t *testing.T) {
	ref, err := ParseRowRef("7")
	require.NoError(t, err)
	require.Equal(t, RowRef{Number: 7}, ref)

	ref, err = ParseRowRef("a1b2")
	require.NoError(t, err)
	require.Equal(t, RowRef{ID: "a1b2"}, ref)

	_, err = ParseRowRef("1")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = ParseRowRef(" ")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func findRow(rows []sheets.Row, id string) (sheets.Row, bool) {
	for _, r := range rows {
		if r.ID == id {
			return r, true
		}
	}
	return sheets.Row{}, false
}

type fakeCache struct {
	mu       sync.Mutex
	data     map[string]string
	gens     map[string]int64
	fail     error
	bumpFail error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, gens: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return "", c.fail
	}
	v, ok := c.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.data[key] = fmt.Sprint(value)
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) CacheKey(tab string, generation int64, scope string) string {
	return fmt.Sprintf("cache:%s:g%d:%s", tab, generation, strings.ToLower(scope))
}

func (c *fakeCache) viewKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for k := range c.data {
		if strings.HasPrefix(k, "cache:") {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *fakeCache) FilterSessionKey(sessionID string) string {
	return "filters:" + sessionID
}

func (c *fakeCache) Generation(_ context.Context, tab string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return 0, c.fail
	}
	return c.gens[tab], nil
}

func (c *fakeCache) BumpGeneration(_ context.Context, tab string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return 0, c.fail
	}
	if c.bumpFail != nil {
		return 0, c.bumpFail
	}
	c.gens[tab]++
	return c.gens[tab], nil
}

type fakePublisher struct {
	events []audit.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return p.err
}
