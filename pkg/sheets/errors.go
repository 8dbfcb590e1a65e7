package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind classifies every failure that can leave this package.
type Kind string

const (
	KindConnection Kind = "connection"
	KindNotFound   Kind = "not_found"
	KindRead       Kind = "read"
	KindWrite      Kind = "write"
	KindTimeout    Kind = "timeout"
	KindInvalid    Kind = "invalid"
)

var (
	ErrConnection = errors.New("sheets: could not connect")
	ErrNotFound   = errors.New("sheets: not found")
	ErrRead       = errors.New("sheets: read failed")
	ErrWrite      = errors.New("sheets: write failed")
	ErrTimeout    = errors.New("sheets: call timed out")
	ErrInvalid    = errors.New("sheets: invalid request")
)

var sentinelByKind = map[Kind]error{
	KindConnection: ErrConnection,
	KindNotFound:   ErrNotFound,
	KindRead:       ErrRead,
	KindWrite:      ErrWrite,
	KindTimeout:    ErrTimeout,
	KindInvalid:    ErrInvalid,
}

// Error is the only error type returned by the store. Provider errors are kept
// as the cause but never surface on their own.
type Error struct {
	Kind Kind
	Op   string
	Tab  string
	// Written lists the columns already applied when a row update fails part way.
	Written []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("sheets ")
	b.WriteString(e.Op)
	if e.Tab != "" {
		fmt.Fprintf(&b, " %q", e.Tab)
	}
	fmt.Fprintf(&b, ": %s", e.Kind)
	if len(e.Written) > 0 {
		fmt.Fprintf(&b, " after writing %s", strings.Join(e.Written, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets callers match on the kind sentinels (errors.Is(err, sheets.ErrWrite)).
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinelByKind[e.Kind] == target
}

// KindOf returns the kind carried by err, or "" when err did not come from this package.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

func invalid(op, tab, msg string) *Error {
	return &Error{Kind: KindInvalid, Op: op, Tab: tab, Err: errors.New(msg)}
}

// classify converts a provider error into a typed error. Timeouts and
// credential rejections win over the kind implied by the operation.
func classify(kind Kind, op, tab string, err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Tab: tab, Err: err}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindConnection
		case http.StatusGatewayTimeout:
			kind = KindTimeout
		}
	}
	return &Error{Kind: kind, Op: op, Tab: tab, Err: err}
}
