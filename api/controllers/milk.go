package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkemboi/maziwa-backend/api/middleware"
	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/api/validators"
	"github.com/jkemboi/maziwa-backend/internal/importer"
	"github.com/jkemboi/maziwa-backend/internal/milk"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

type milkCreateRequest struct {
	FarmerID string  `json:"farmerId" validate:"required,max=16"`
	Date     string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Session  string  `json:"session" validate:"required"`
	Litres   float64 `json:"litres" validate:"required,gt=0"`
}

func callerFromContext(r *http.Request) milk.Caller {
	ctx := r.Context()
	return milk.Caller{
		UserID:   middleware.UserIDFromContext(ctx),
		Role:     enums.Role(middleware.RoleFromContext(ctx)),
		FarmerID: middleware.FarmerIDFromContext(ctx),
	}
}

// MilkCreate records one intake event.
func MilkCreate(svc *milk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body milkCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			middleware.UserIDFromContext(r.Context()),
			milk.CreateInput{
				FarmerID: body.FarmerID,
				Date:     body.Date,
				Session:  body.Session,
				Litres:   body.Litres,
			},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// MilkList returns intake records with role-based narrowing and filters.
func MilkList(svc *milk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		result, err := svc.List(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			callerFromContext(r),
			milk.ListFilter{
				FarmerID:  query.Get("farmerId"),
				CreatedBy: query.Get("createdBy"),
				Region:    query.Get("region"),
				Date:      query.Get("date"),
				Month:     query.Get("month"),
			},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MilkMine returns the calling farmer's own intake history.
func MilkMine(svc *milk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.List(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			callerFromContext(r),
			milk.ListFilter{Month: r.URL.Query().Get("month")},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MilkDelete removes a record.
func MilkDelete(svc *milk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Delete(r.Context(), middleware.BusinessIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"deleted": id})
	}
}

// MilkImport bulk-loads intake from an uploaded xlsx sheet.
func MilkImport(svc *importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upload, _, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing file upload"))
			return
		}
		defer upload.Close()

		result, err := svc.ImportMilk(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			middleware.UserIDFromContext(r.Context()),
			upload,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type milkBulkRequest struct {
	Rows []milkCreateRequest `json:"rows" validate:"required,min=1,max=1000"`
}

// MilkBulk records a JSON batch of intake rows through the same per-row loop
// as the sheet import.
func MilkBulk(svc *importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body milkBulkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]milk.CreateInput, 0, len(body.Rows))
		for _, row := range body.Rows {
			inputs = append(inputs, milk.CreateInput{
				FarmerID: row.FarmerID,
				Date:     row.Date,
				Session:  row.Session,
				Litres:   row.Litres,
			})
		}
		result := svc.BulkMilk(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			middleware.UserIDFromContext(r.Context()),
			inputs,
			nil,
		)
		responses.WriteSuccess(w, result)
	}
}

// MilkTemplate serves the blank intake upload sheet.
func MilkTemplate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := importer.MilkTemplate()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build template"))
			return
		}
		writeXLSX(r.Context(), logg, w, file, "milk-template.xlsx")
	}
}

// MilkExport serves intake records as a downloadable sheet, honoring the same
// filters and role narrowing as the list endpoint.
func MilkExport(svc *milk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		result, err := svc.List(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			callerFromContext(r),
			milk.ListFilter{
				FarmerID: query.Get("farmerId"),
				Region:   query.Get("region"),
				Month:    query.Get("month"),
			},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, err := importer.ExportMilk(result)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build export"))
			return
		}
		writeXLSX(r.Context(), logg, w, file, "milk-records.xlsx")
	}
}
