package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
)

// QueryMap flattens the query string to its only value per key. Blank keys
// are dropped; keys listed in reserved are left to the caller. Values are
// not trimmed: filter values must match cells exactly.
func QueryMap(r *http.Request, reserved ...string) (map[string]string, error) {
	skip := make(map[string]bool, len(reserved))
	for _, k := range reserved {
		skip[k] = true
	}
	out := map[string]string{}
	for key, values := range r.URL.Query() {
		key = strings.TrimSpace(key)
		if key == "" || skip[key] {
			continue
		}
		if len(values) > 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "parâmetro de consulta repetido").WithDetails(map[string]any{"field": key})
		}
		out[key] = CapRunes(values[0], maxQueryValueRunes)
	}
	return out, nil
}
