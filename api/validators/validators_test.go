package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
)

type signup struct {
	Login    string `json:"login" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		details map[string]string
	}{
		{name: "valid", body: `{"login":"ana","email":"ana@x.com","password":"segredo"}`},
		{
			name:    "field errors use json names",
			body:    `{"login":"","email":"nope","password":"123"}`,
			details: map[string]string{"login": "campo obrigatório", "email": "e-mail inválido", "password": "mínimo de 6"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest signup
			err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
			if tc.details == nil {
				require.NoError(t, err)
				require.Equal(t, "ana", dest.Login)
				return
			}
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodeValidation, typed.Code())
			require.Equal(t, tc.details, typed.Details())
		})
	}
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndOversize(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"ana","admin":true}`))
	require.True(t, pkgerrors.Is(DecodeJSONBody(httptest.NewRecorder(), req, &signup{}), pkgerrors.CodeValidation))

	huge := `{"login":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	require.True(t, pkgerrors.Is(DecodeJSONBody(httptest.NewRecorder(), req, &signup{}), pkgerrors.CodeValidation))
}

func TestQueryMap(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?Setor=%20Viveiro%20&format=xlsx&Status=", nil)
	got, err := QueryMap(req, "format")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Setor": " Viveiro ", "Status": ""}, got)

	req = httptest.NewRequest(http.MethodGet, "/?Setor=a&Setor=b", nil)
	_, err = QueryMap(req)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCapRunes(t *testing.T) {
	require.Equal(t, "  ç", CapRunes("  çãoé ", 3))
	require.Equal(t, "Pendente ", CapRunes("Pendente ", 0))
	require.Equal(t, "abc", CapRunes("abc", 10))
}
