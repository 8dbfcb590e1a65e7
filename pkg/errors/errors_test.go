package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "dados inválidos", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "autenticação necessária"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "acesso negado"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "registro não encontrado"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflito detectado"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "operação não permitida", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "erro interno", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "serviço indisponível", retryable: true, detailsOK: true},
		{code: CodeTimeout, status: http.StatusGatewayTimeout, publicMsg: "serviço não respondeu a tempo", retryable: true, detailsOK: true},
		{code: CodeWriteFailed, status: http.StatusBadGateway, publicMsg: "falha ao gravar na planilha", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsMatchesWrappedCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "tab missing"))
	if !Is(err, CodeNotFound) {
		t.Fatalf("expected Is to find wrapped code")
	}
	if Is(err, CodeConflict) {
		t.Fatalf("unexpected code match")
	}
	if Is(nil, CodeNotFound) {
		t.Fatalf("nil error should not match")
	}
}

func TestDumpCapturesGoogleAPIError(t *testing.T) {
	apiErr := &googleapi.Error{
		Code:    http.StatusForbidden,
		Message: "The caller does not have permission",
		Errors:  []googleapi.ErrorItem{{Reason: "forbidden"}},
	}
	err := Wrap(CodeDependency, apiErr, "read tab")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if d.APIStatus != http.StatusForbidden || d.APIReason != "forbidden" {
		t.Fatalf("unexpected api fields %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
}
