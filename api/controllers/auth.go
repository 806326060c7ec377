package controllers

import (
	"net/http"
	"time"

	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/api/validators"
	"github.com/jkemboi/maziwa-backend/internal/accounts"
	pkgAuth "github.com/jkemboi/maziwa-backend/pkg/auth"
	"github.com/jkemboi/maziwa-backend/pkg/config"
	"github.com/jkemboi/maziwa-backend/pkg/db"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
	"gorm.io/gorm"
)

type registerRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=64"`
	Password   string `json:"password" validate:"required,min=4,max=128"`
	Role       string `json:"role" validate:"omitempty,oneof=admin staff"`
	BusinessID string `json:"businessId" validate:"omitempty,max=64"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

type accountResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Role       string  `json:"role"`
	BusinessID string  `json:"businessId"`
	FarmerID   *string `json:"farmerId,omitempty"`
}

func toAccountResponse(account *models.Account) accountResponse {
	return accountResponse{
		ID:         account.ID.String(),
		Username:   account.Username,
		Role:       string(account.Role),
		BusinessID: account.BusinessID,
		FarmerID:   account.FarmerID,
	}
}

// AuthRegister wires self-service registration into the HTTP layer. Admin
// registrations mint a business and open its trial in one transaction.
func AuthRegister(svc *accounts.Service, client *db.Client, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.Role(body.Role)
		if body.Role == "" {
			role = enums.RoleStaff
		}

		var account *models.Account
		err := client.WithTx(r.Context(), func(tx *gorm.DB) error {
			var err error
			account, err = svc.Register(r.Context(), tx, accounts.RegisterInput{
				Username:   body.Username,
				Password:   body.Password,
				Role:       role,
				BusinessID: body.BusinessID,
			})
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := mintToken(jwtCfg, account)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, authResponse{
			Token:   token,
			Account: toAccountResponse(account),
		})
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc *accounts.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Login(r.Context(), body.Username, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := mintToken(jwtCfg, account)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccess(w, authResponse{
			Token:   token,
			Account: toAccountResponse(account),
		})
	}
}

func mintToken(cfg config.JWTConfig, account *models.Account) (string, error) {
	return pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:     account.ID,
		Role:       account.Role,
		BusinessID: account.BusinessID,
		FarmerID:   account.FarmerID,
	})
}
