package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jkemboi/maziwa-backend/api/middleware"
	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/api/validators"
	"github.com/jkemboi/maziwa-backend/internal/accounts"
	"github.com/jkemboi/maziwa-backend/pkg/db"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
	"gorm.io/gorm"
)

type accountCreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// AccountsCreate lets the admin add a staff login to their own business.
func AccountsCreate(svc *accounts.Service, client *db.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body accountCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var account *models.Account
		err := client.WithTx(r.Context(), func(tx *gorm.DB) error {
			created, err := svc.Register(r.Context(), tx, accounts.RegisterInput{
				Username:   body.Username,
				Password:   body.Password,
				Role:       enums.RoleStaff,
				BusinessID: middleware.BusinessIDFromContext(r.Context()),
			})
			if err != nil {
				return err
			}
			account = created
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toAccountResponse(account))
	}
}

// AccountsList returns every account in the caller's business.
func AccountsList(svc *accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.List(r.Context(), middleware.BusinessIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]accountResponse, 0, len(result))
		for i := range result {
			out = append(out, toAccountResponse(&result[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AccountsDelete removes an account within the caller's business.
func AccountsDelete(svc *accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid account id"))
			return
		}

		if err := svc.Delete(r.Context(), middleware.BusinessIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"deleted": id.String()})
	}
}
