package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/middleware"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/responses"
	"github.com/gustavosantosASA/Florestal-App-PPR/api/validators"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/schedule"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/export"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
)

// RowRefParam is the chi URL parameter holding a row number or synthetic ID.
const RowRefParam = "ref"

type rowsResponse struct {
	Header             []string     `json:"header"`
	Rows               []sheets.Row `json:"rows"`
	Count              int          `json:"count"`
	OwnerColumnMissing bool         `json:"owner_column_missing,omitempty"`
	LoadedAt           time.Time    `json:"loaded_at"`
}

type optionsResponse struct {
	Selection filters.Selection `json:"selection"`
	Options   []filters.Options `json:"options"`
}

type filterChangeRequest struct {
	Column string `json:"column" validate:"required"`
	Value  string `json:"value"`
}

type rowRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1"`
}

type rowDeletedResponse struct {
	Status string `json:"status"`
	Ref    string `json:"ref"`
}

func scheduleActor(r *http.Request) (schedule.Actor, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return schedule.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return schedule.ActorFromClaims(claims), nil
}

func scheduleUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "schedule service unavailable")
}

// querySelection reads the filter selection carried in the query string.
func querySelection(svc schedule.Service, r *http.Request) (filters.Selection, error) {
	values, err := validators.QueryMap(r)
	if err != nil {
		return filters.Selection{}, err
	}
	return svc.ParseSelection(values)
}

// ScheduleRows returns the caller's rows narrowed by the selection in the query string.
func ScheduleRows(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sel, err := querySelection(svc, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ApplyFilters(r.Context(), actor, sel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rowsResponse{
			Header:             view.Header,
			Rows:               view.Rows,
			Count:              view.Count(),
			OwnerColumnMissing: view.OwnerColumnMissing,
			LoadedAt:           view.LoadedAt,
		})
	}
}

// ScheduleOptions lists the cascading dropdown options for the selection in the query string.
func ScheduleOptions(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sel, err := querySelection(svc, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		options, err := svc.FilterOptions(r.Context(), actor, sel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, optionsResponse{Selection: sel, Options: options})
	}
}

// ScheduleGetFilters returns the filter session of the presented access token.
func ScheduleGetFilters(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetSelection(r.Context(), actor, middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ScheduleChangeFilter sets one column of the filter session; later columns reset.
func ScheduleChangeFilter(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body filterChangeRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		result, err := svc.ChangeSelection(r.Context(), actor, sessionID, body.Column, body.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ScheduleResetFilters clears the filter session and returns the unfiltered state.
func ScheduleResetFilters(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := svc.ResetSelection(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GetSelection(r.Context(), actor, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ScheduleGetRow returns one row the caller may see.
func ScheduleGetRow(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := schedule.ParseRowRef(chi.URLParam(r, RowRefParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.GetRow(r.Context(), actor, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// ScheduleAddRow appends a row owned by the caller.
func ScheduleAddRow(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rowRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.AddRow(r.Context(), actor, sheets.Record(body.Values))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// ScheduleEditRow applies a sparse patch; columns absent from the body keep their value.
func ScheduleEditRow(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := schedule.ParseRowRef(chi.URLParam(r, RowRefParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rowRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.EditRow(r.Context(), actor, ref, sheets.Record(body.Values))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func ScheduleDeleteRow(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := schedule.ParseRowRef(chi.URLParam(r, RowRefParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRow(r.Context(), actor, ref); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rowDeletedResponse{Status: "deleted", Ref: ref.String()})
	}
}

// ScheduleExport downloads the filtered view as an XLSX workbook.
func ScheduleExport(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, scheduleUnavailable())
			return
		}
		actor, err := scheduleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sel, err := querySelection(svc, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := svc.Export(r.Context(), actor, sel, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filename := fmt.Sprintf("cronograma-%s.xlsx", time.Now().UTC().Format("20060102"))
		responses.WriteAttachment(w, export.ContentTypeXLSX, filename, buf.Bytes())
	}
}
