package schedule

import (
	"context"
	"io"

	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/export"
)

// Export writes the filtered view as an XLSX workbook.
func (s *service) Export(ctx context.Context, actor Actor, sel filters.Selection, w io.Writer) error {
	view, err := s.ApplyFilters(ctx, actor, sel)
	if err != nil {
		return err
	}
	if len(view.Header) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "schedule tab has no columns")
	}

	rows := make([]map[string]string, len(view.Rows))
	for i, row := range view.Rows {
		rows[i] = row.Values
	}
	if err := export.WriteXLSX(w, export.Table{Sheet: s.tab, Header: view.Header, Rows: rows}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering export")
	}
	return nil
}
