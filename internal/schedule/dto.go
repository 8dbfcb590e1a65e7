package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	pkgAuth "github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
)

// Actor is the authenticated caller of a schedule operation.
type Actor struct {
	Login string
	Email string
	Role  enums.UserRole
}

// ActorFromClaims builds the actor carried by an access token.
func ActorFromClaims(claims *pkgAuth.AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{Login: claims.Login, Email: claims.Email, Role: claims.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// ownerEmail is nil for administrators, who are not scoped.
func (a Actor) ownerEmail() *string {
	if a.IsAdmin() {
		return nil
	}
	email := strings.TrimSpace(a.Email)
	return &email
}

func (a Actor) cacheScope() string {
	if a.IsAdmin() {
		return "all"
	}
	return "owner:" + strings.ToLower(strings.TrimSpace(a.Email))
}

// View is the set of rows a caller may see, with the header they were read under.
type View struct {
	Header []string     `json:"header"`
	Rows   []sheets.Row `json:"rows"`
	// OwnerColumnMissing is set when scoping was skipped because the sheet
	// has no owner column.
	OwnerColumnMissing bool      `json:"owner_column_missing,omitempty"`
	LoadedAt           time.Time `json:"loaded_at"`
}

// Count is the number of rows in the view.
func (v *View) Count() int {
	if v == nil {
		return 0
	}
	return len(v.Rows)
}

func (v *View) withRows(rows []sheets.Row) *View {
	out := *v
	if rows == nil {
		rows = []sheets.Row{}
	}
	out.Rows = rows
	return &out
}

// FilterResult is the state of a filter session after a change.
type FilterResult struct {
	Selection          filters.Selection `json:"selection"`
	Options            []filters.Options `json:"options"`
	Header             []string          `json:"header"`
	Rows               []sheets.Row      `json:"rows"`
	Count              int               `json:"count"`
	OwnerColumnMissing bool              `json:"owner_column_missing,omitempty"`
}

// RowRef addresses a row either by sheet position or by synthetic ID.
type RowRef struct {
	Number int
	ID     string
}

// ParseRowRef reads a numeric ref as a row number and anything else as an ID.
func ParseRowRef(raw string) (RowRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RowRef{}, pkgerrors.New(pkgerrors.CodeValidation, "row reference is required")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < sheets.FirstDataRow {
			return RowRef{}, pkgerrors.New(pkgerrors.CodeValidation, "row number must be 2 or greater")
		}
		return RowRef{Number: n}, nil
	}
	return RowRef{ID: raw}, nil
}

func (r RowRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Number)
}
