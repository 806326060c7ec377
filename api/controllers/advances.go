package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/api/middleware"
	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/api/validators"
	"github.com/jkemboi/maziwa-backend/internal/advances"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

type advanceCreateRequest struct {
	FarmerID string          `json:"farmerId" validate:"required,max=16"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Date     string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func advanceCaller(r *http.Request) advances.Caller {
	ctx := r.Context()
	return advances.Caller{
		Role:     enums.Role(middleware.RoleFromContext(ctx)),
		FarmerID: middleware.FarmerIDFromContext(ctx),
	}
}

// AdvancesCreate issues a cash advance against a farmer.
func AdvancesCreate(svc *advances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body advanceCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		advance, err := svc.Create(r.Context(), middleware.BusinessIDFromContext(r.Context()), advances.CreateInput{
			FarmerID: body.FarmerID,
			Amount:   body.Amount,
			Date:     body.Date,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, advance)
	}
}

// AdvancesList returns the payout ledger with role-based narrowing.
func AdvancesList(svc *advances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		result, err := svc.List(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			advanceCaller(r),
			advances.ListFilter{
				FarmerID: query.Get("farmerId"),
				Region:   query.Get("region"),
				Month:    query.Get("month"),
			},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdvancesMine returns the calling farmer's own payout history.
func AdvancesMine(svc *advances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.List(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			advanceCaller(r),
			advances.ListFilter{Month: r.URL.Query().Get("month")},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdvancesForFarmer returns one farmer's payout history.
func AdvancesForFarmer(svc *advances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListForFarmer(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			chi.URLParam(r, "farmerId"),
			advanceCaller(r),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
