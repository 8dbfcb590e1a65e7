package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
)

// ErrUserExists is the conflict message returned for a duplicate login.
const ErrUserExists = "Usuário já existe"

// ErrUserNotFound is wrapped by FindByLogin when no row matches.
var ErrUserNotFound = errors.New("user not found")

type tabOpener interface {
	OpenTab(ctx context.Context, name string) (*sheets.Tab, error)
}

// Repository exposes user-related persistence operations over the users tab.
type Repository struct {
	sheets tabOpener
	tab    string
}

// NewRepository constructs a users repo bound to the given spreadsheet tab.
func NewRepository(client tabOpener, tab string) *Repository {
	return &Repository{sheets: client, tab: tab}
}

// FindByLogin retrieves the user whose login matches case-insensitively.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*User, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := findLogin(snap, login)
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrUserNotFound, "user not found")
	}
	return fromRow(row), nil
}

// List returns every user in sheet order.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		if strings.TrimSpace(row.Values[ColumnLogin]) == "" {
			continue
		}
		out = append(out, *fromRow(row))
	}
	return out, nil
}

// Create appends a user after checking the login is unused. The check and the
// append are separate calls against the sheet.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := findLogin(snap, dto.Login); exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, ErrUserExists)
	}

	tab, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	rec := dto.toRecord()
	number, err := tab.AppendRecord(ctx, rec)
	if err != nil {
		return nil, sheets.AsAPIError(err, "saving user")
	}

	return fromRow(sheets.Row{Number: number, Values: rec}), nil
}

func (r *Repository) read(ctx context.Context) (*sheets.Snapshot, error) {
	tab, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := tab.ReadAll(ctx)
	if err != nil {
		return nil, sheets.AsAPIError(err, "loading users")
	}
	for _, col := range requiredColumns {
		if !snap.HasColumn(col) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("users tab is missing column %q", col)).
				WithDetails(map[string]any{"tab": r.tab, "column": col})
		}
	}
	return snap, nil
}

func (r *Repository) open(ctx context.Context) (*sheets.Tab, error) {
	tab, err := r.sheets.OpenTab(ctx, r.tab)
	if err != nil {
		return nil, sheets.AsAPIError(err, "opening users tab")
	}
	return tab, nil
}

func findLogin(snap *sheets.Snapshot, login string) (sheets.Row, bool) {
	want := strings.TrimSpace(login)
	if want == "" {
		return sheets.Row{}, false
	}
	for _, row := range snap.Rows {
		if strings.EqualFold(strings.TrimSpace(row.Values[ColumnLogin]), want) {
			return row, true
		}
	}
	return sheets.Row{}, false
}
