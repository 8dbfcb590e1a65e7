package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"google.golang.org/api/googleapi"
)

func TestRowFromRange(t *testing.T) {
	cases := map[string]int{
		"'Cronograma'!A5:G5":    5,
		"Cronograma!A12:G12":    12,
		"'Tab ! odd'!$B$40:H40": 40,
		"Sheet1!AA7":            7,
	}
	for a1, want := range cases {
		got, err := rowFromRange(a1)
		if err != nil {
			t.Fatalf("rowFromRange(%q): %v", a1, err)
		}
		if got != want {
			t.Fatalf("rowFromRange(%q) = %d, want %d", a1, got, want)
		}
	}
	for _, bad := range []string{"", "Cronograma!A:G", "Cronograma"} {
		if _, err := rowFromRange(bad); err == nil {
			t.Fatalf("rowFromRange(%q) should fail", bad)
		}
	}
}

func TestColumnLetters(t *testing.T) {
	cases := map[int]string{1: "A", 5: "E", 26: "Z", 27: "AA", 52: "AZ", 53: "BA", 702: "ZZ", 703: "AAA", 0: ""}
	for col, want := range cases {
		if got := columnLetters(col); got != want {
			t.Fatalf("columnLetters(%d) = %q, want %q", col, got, want)
		}
	}
}

func TestCellRefQuotesTab(t *testing.T) {
	if got := cellRef("Usuários", 3, 2); got != "'Usuários'!B3" {
		t.Fatalf("unexpected ref %q", got)
	}
	if got := cellRef("Meta's", 10, 28); got != "'Meta''s'!AB10" {
		t.Fatalf("unexpected ref %q", got)
	}
}

func TestParseSpreadsheetID(t *testing.T) {
	id, err := ParseSpreadsheetID("https://docs.google.com/spreadsheets/d/1x_Y-z0123456789/edit#gid=12")
	if err != nil || id != "1x_Y-z0123456789" {
		t.Fatalf("unexpected id %q err %v", id, err)
	}
	id, err = ParseSpreadsheetID("  1x_Y-z0123456789 ")
	if err != nil || id != "1x_Y-z0123456789" {
		t.Fatalf("expected bare id accepted, got %q err %v", id, err)
	}
	if _, err := ParseSpreadsheetID(""); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected connection error for empty url, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), KindTimeout},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, KindConnection},
		{"gateway timeout", &googleapi.Error{Code: http.StatusGatewayTimeout}, KindTimeout},
		{"server error", &googleapi.Error{Code: http.StatusInternalServerError}, KindWrite},
		{"plain", errors.New("boom"), KindWrite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(KindWrite, "update_row", "Cronograma", tc.err)
			if got.Kind != tc.want {
				t.Fatalf("expected %s got %s", tc.want, got.Kind)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("cause should stay reachable")
			}
		})
	}
}

func TestBuildSnapshotSkipsBlankHeaders(t *testing.T) {
	grid := [][]any{
		{"ID", "", " Setor ", "Setor"},
		{"x", "ignored", "Viveiro", "Outro"},
	}
	snap := buildSnapshot("Cronograma", grid, "ID", time.Unix(0, 0))
	if len(snap.Header) != 2 {
		t.Fatalf("unexpected header %v", snap.Header)
	}
	rec := snap.Rows[0].Values
	if rec["Setor"] != "Viveiro" {
		t.Fatalf("first duplicate column should win, got %q", rec["Setor"])
	}
	if _, ok := rec[""]; ok {
		t.Fatalf("blank header must not become a key")
	}
	if snap.Rows[0].ID != "x" {
		t.Fatalf("unexpected id %q", snap.Rows[0].ID)
	}
}

func TestAsAPIError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want pkgerrors.Code
	}{
		{name: "connection", err: &Error{Kind: KindConnection, Op: "connect"}, want: pkgerrors.CodeDependency},
		{name: "read", err: &Error{Kind: KindRead, Op: "read_all"}, want: pkgerrors.CodeDependency},
		{name: "timeout", err: &Error{Kind: KindTimeout, Op: "read_all"}, want: pkgerrors.CodeTimeout},
		{name: "not found", err: &Error{Kind: KindNotFound, Op: "open_tab"}, want: pkgerrors.CodeNotFound},
		{name: "write", err: &Error{Kind: KindWrite, Op: "update_row", Written: []string{"Setor"}}, want: pkgerrors.CodeWriteFailed},
		{name: "invalid", err: invalid("update_row", "Cronograma", "empty patch"), want: pkgerrors.CodeValidation},
		{name: "untyped", err: errors.New("boom"), want: pkgerrors.CodeInternal},
		{name: "already typed", err: pkgerrors.New(pkgerrors.CodeConflict, "dup"), want: pkgerrors.CodeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pkgerrors.As(AsAPIError(tc.err, "loading"))
			if got == nil || got.Code() != tc.want {
				t.Fatalf("AsAPIError code = %v, want %s", got, tc.want)
			}
		})
	}

	if AsAPIError(nil, "x") != nil {
		t.Fatal("nil must stay nil")
	}

	typed := pkgerrors.As(AsAPIError(&Error{Kind: KindWrite, Written: []string{"Setor"}}, "saving"))
	details, _ := typed.Details().(map[string]any)
	if cols, _ := details["written_columns"].([]string); len(cols) != 1 || cols[0] != "Setor" {
		t.Fatalf("unexpected details %v", typed.Details())
	}
	if msg := pkgerrors.As(AsAPIError(invalid("update_row", "Cronograma", "empty patch"), "saving")).Message(); msg != "empty patch" {
		t.Fatalf("unexpected validation message %q", msg)
	}
}
