package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkemboi/maziwa-backend/api/middleware"
	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/api/validators"
	"github.com/jkemboi/maziwa-backend/internal/farmers"
	"github.com/jkemboi/maziwa-backend/internal/importer"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

type farmerCreateRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=120"`
	Phone  string `json:"phone" validate:"omitempty,max=20"`
	Region string `json:"region" validate:"omitempty,max=64"`
}

type farmerUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=120"`
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Region *string `json:"region" validate:"omitempty,max=64"`
}

// FarmersCreate registers a farmer and returns the one-time login credentials.
func FarmersCreate(svc *farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body farmerCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), middleware.BusinessIDFromContext(r.Context()), farmers.CreateInput{
			Name:   body.Name,
			Phone:  body.Phone,
			Region: body.Region,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// FarmersList returns the business's farmers, filtered by region and active
// state.
func FarmersList(svc *farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := farmers.ListFilter{Region: r.URL.Query().Get("region")}
		switch r.URL.Query().Get("active") {
		case "false":
			inactive := false
			filter.Active = &inactive
		case "true", "":
			// active-only is the default
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "active must be true or false"))
			return
		}

		result, err := svc.List(r.Context(), middleware.BusinessIDFromContext(r.Context()), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// FarmersGet returns one farmer. Farmer callers may only fetch themselves.
func FarmersGet(svc *farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		farmer, err := svc.Get(ctx,
			middleware.BusinessIDFromContext(ctx),
			chi.URLParam(r, "id"),
			enums.Role(middleware.RoleFromContext(ctx)),
			middleware.FarmerIDFromContext(ctx),
		)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, farmer)
	}
}

// FarmersUpdate applies a partial update to a farmer.
func FarmersUpdate(svc *farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body farmerUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmer, err := svc.Update(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			chi.URLParam(r, "id"),
			farmers.UpdateInput{Name: body.Name, Phone: body.Phone, Region: body.Region},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, farmer)
	}
}

// FarmersDelete soft-deletes a farmer.
func FarmersDelete(svc *farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Delete(r.Context(), middleware.BusinessIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"deactivated": id})
	}
}

// FarmersImport bulk-loads farmers from an uploaded xlsx sheet.
func FarmersImport(svc *importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upload, _, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing file upload"))
			return
		}
		defer upload.Close()

		result, err := svc.ImportFarmers(r.Context(), middleware.BusinessIDFromContext(r.Context()), upload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type farmerBulkRequest struct {
	Rows []farmerCreateRequest `json:"rows" validate:"required,min=1,max=1000"`
}

// FarmersBulk registers a JSON batch of farmers through the same per-row loop
// as the sheet import.
func FarmersBulk(svc *importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body farmerBulkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]farmers.CreateInput, 0, len(body.Rows))
		for _, row := range body.Rows {
			inputs = append(inputs, farmers.CreateInput{Name: row.Name, Phone: row.Phone, Region: row.Region})
		}
		result := svc.BulkFarmers(r.Context(), middleware.BusinessIDFromContext(r.Context()), inputs, nil)
		responses.WriteSuccess(w, result)
	}
}

// FarmersTemplate serves the blank farmer upload sheet.
func FarmersTemplate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := importer.FarmerTemplate()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build template"))
			return
		}
		writeXLSX(r.Context(), logg, w, file, "farmers-template.xlsx")
	}
}

// FarmersExport serves the current roster as a downloadable sheet.
func FarmersExport(svc *farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roster, err := svc.List(r.Context(), middleware.BusinessIDFromContext(r.Context()), farmers.ListFilter{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, err := importer.ExportFarmers(roster)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build export"))
			return
		}
		writeXLSX(r.Context(), logg, w, file, "farmers.xlsx")
	}
}
