package sheets

import (
	"errors"

	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
)

// AsAPIError maps a store error onto the service error codes. Errors that
// already carry a code pass through; anything else is internal.
func AsAPIError(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}

	var se *Error
	if !errors.As(err, &se) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}

	details := map[string]any{"tab": se.Tab, "op": se.Op}
	switch se.Kind {
	case KindConnection, KindRead:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message).WithDetails(details)
	case KindTimeout:
		if len(se.Written) > 0 {
			details["written_columns"] = se.Written
		}
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, message).WithDetails(details)
	case KindNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	case KindWrite:
		written := se.Written
		if written == nil {
			written = []string{}
		}
		details["written_columns"] = written
		return pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, message).WithDetails(details)
	case KindInvalid:
		if se.Err != nil {
			message = se.Err.Error()
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}
}
