package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/audit"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
)

// GetRow reads the row fresh from the sheet, bypassing the cache.
func (s *service) GetRow(ctx context.Context, actor Actor, ref RowRef) (*sheets.Row, error) {
	_, snap, err := s.openFresh(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.resolve(snap, ref)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, snap, row); err != nil {
		return nil, err
	}
	return &row, nil
}

// AddRow appends rec. Non-administrators always own the rows they add, and a
// fresh UUID is assigned when the tab has an ID column.
func (s *service) AddRow(ctx context.Context, actor Actor, rec sheets.Record) (*sheets.Row, error) {
	values := cleanRecord(rec)
	if len(values) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record has no values")
	}

	tab, snap, err := s.openFresh(ctx)
	if err != nil {
		return nil, err
	}

	owner := s.engine.OwnerColumn()
	if !actor.IsAdmin() {
		if !snap.HasColumn(owner) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("owner column %q missing; only administrators may add rows", owner))
		}
		values[owner] = strings.TrimSpace(actor.Email)
	}

	if s.idColumn != "" && snap.HasColumn(s.idColumn) {
		if id := values[s.idColumn]; id == "" {
			values[s.idColumn] = uuid.NewString()
		} else if _, taken := snap.RowByID(id); taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("row id %q already exists", id))
		}
	}

	number, err := tab.AppendRecord(ctx, values)
	if err != nil {
		if sheets.KindOf(err) != sheets.KindInvalid {
			s.cache.invalidate(ctx, s.tab)
		}
		return nil, sheets.AsAPIError(err, "adding row")
	}
	s.cache.invalidate(ctx, s.tab)

	row := sheets.Row{
		Number: number,
		ID:     values[s.idColumn],
		Values: make(sheets.Record, len(snap.Header)),
	}
	for _, col := range snap.Header {
		row.Values[col] = values[col]
	}
	s.emit(ctx, actor, enums.AuditEventRowCreated, row, sortedKeys(values))
	return &row, nil
}

// EditRow writes the sparse patch into the referenced row. A failure part way
// leaves the cells already written in place; the error lists them.
func (s *service) EditRow(ctx context.Context, actor Actor, ref RowRef, patch sheets.Record) (*sheets.Row, error) {
	values := cleanRecord(patch)
	if len(values) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patch has no values")
	}
	if s.idColumn != "" {
		if _, ok := values[s.idColumn]; ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("column %q cannot be edited", s.idColumn))
		}
	}

	tab, snap, err := s.openFresh(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.resolve(snap, ref)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, snap, row); err != nil {
		return nil, err
	}
	owner := s.engine.OwnerColumn()
	if v, ok := values[owner]; ok && !actor.IsAdmin() && !strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(actor.Email)) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "rows cannot be reassigned to another owner")
	}

	if err := tab.UpdateRow(ctx, row.Number, sheets.Patch{Values: values}); err != nil {
		if sheets.KindOf(err) != sheets.KindInvalid {
			s.cache.invalidate(ctx, s.tab)
		}
		return nil, sheets.AsAPIError(err, fmt.Sprintf("updating row %d", row.Number))
	}
	s.cache.invalidate(ctx, s.tab)

	updated := sheets.Row{Number: row.Number, ID: row.ID, Values: row.Values.Clone()}
	for col, v := range values {
		updated.Values[col] = v
	}
	s.emit(ctx, actor, enums.AuditEventRowUpdated, updated, sortedKeys(values))
	return &updated, nil
}

// DeleteRow removes the referenced row. Later rows shift up by one.
func (s *service) DeleteRow(ctx context.Context, actor Actor, ref RowRef) error {
	tab, snap, err := s.openFresh(ctx)
	if err != nil {
		return err
	}
	row, err := s.resolve(snap, ref)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, snap, row); err != nil {
		return err
	}

	if err := tab.DeleteRow(ctx, row.Number); err != nil {
		if sheets.KindOf(err) != sheets.KindInvalid {
			s.cache.invalidate(ctx, s.tab)
		}
		return sheets.AsAPIError(err, fmt.Sprintf("deleting row %d", row.Number))
	}
	s.cache.invalidate(ctx, s.tab)
	s.emit(ctx, actor, enums.AuditEventRowDeleted, row, nil)
	return nil
}

func (s *service) openFresh(ctx context.Context) (*sheets.Tab, *sheets.Snapshot, error) {
	tab, err := s.openTab(ctx)
	if err != nil {
		return nil, nil, err
	}
	snap, err := tab.ReadAll(ctx)
	if err != nil {
		return nil, nil, sheets.AsAPIError(err, "loading schedule")
	}
	return tab, snap, nil
}

// resolve maps ref onto a row of a fresh snapshot. IDs are looked up here,
// right before the write, because row numbers shift after deletes.
func (s *service) resolve(snap *sheets.Snapshot, ref RowRef) (sheets.Row, error) {
	if ref.ID != "" {
		if s.idColumn == "" || !snap.HasColumn(s.idColumn) {
			return sheets.Row{}, pkgerrors.New(pkgerrors.CodeNotFound, "tab has no id column")
		}
		row, ok := snap.RowByID(ref.ID)
		if !ok {
			return sheets.Row{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("row %q not found", ref.ID))
		}
		return row, nil
	}
	row, ok := snap.RowByNumber(ref.Number)
	if !ok {
		return sheets.Row{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("row %d not found", ref.Number))
	}
	return row, nil
}

// authorize lets administrators touch any row and everyone else only rows
// carrying their e-mail in the owner column.
func (s *service) authorize(actor Actor, snap *sheets.Snapshot, row sheets.Row) error {
	if actor.IsAdmin() {
		return nil
	}
	owner := s.engine.OwnerColumn()
	if !snap.HasColumn(owner) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("owner column %q missing; only administrators may change rows", owner))
	}
	if !strings.EqualFold(strings.TrimSpace(row.Values[owner]), strings.TrimSpace(actor.Email)) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "row belongs to another user")
	}
	return nil
}

func (s *service) emit(ctx context.Context, actor Actor, typ enums.AuditEventType, row sheets.Row, columns []string) {
	err := s.publisher.Publish(ctx, audit.Event{
		Type:      typ,
		Tab:       s.tab,
		RowNumber: row.Number,
		RowID:     row.ID,
		Actor:     actor.Login,
		Columns:   columns,
		At:        s.now().UTC(),
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_type": typ,
			"row_number": row.Number,
		})
		s.logg.Error(logCtx, "audit publish failed", err)
	}
}

func cleanRecord(rec sheets.Record) sheets.Record {
	out := make(sheets.Record, len(rec))
	for k, v := range rec {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func sortedKeys(rec sheets.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
