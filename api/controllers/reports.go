package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/api/middleware"
	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/internal/reports"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

// ReportsDaily serves the daily collections report.
func ReportsDaily(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Daily(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			r.URL.Query().Get("date"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportsMonthly serves the monthly collections report.
func ReportsMonthly(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Monthly(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			r.URL.Query().Get("month"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportsFarmerWise serves per-farmer delivery totals for a month.
func ReportsFarmerWise(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := svc.FarmerWise(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			r.URL.Query().Get("month"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

// ReportsFarmerStatement serves one farmer's deliveries and advances for a
// month.
func ReportsFarmerStatement(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statement, err := svc.Statement(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			chi.URLParam(r, "farmerId"),
			r.URL.Query().Get("month"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statement)
	}
}

// ReportsRegionSummary serves litres per region for a month.
func ReportsRegionSummary(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regions, err := svc.RegionSummary(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			r.URL.Query().Get("month"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, regions)
	}
}

// ReportsSummary serves the monthly payout sheet; rate is KES per litre.
func ReportsSummary(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rate *decimal.Decimal
		if raw := r.URL.Query().Get("rate"); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid rate"))
				return
			}
			rate = &parsed
		}

		rows, err := svc.Summary(r.Context(),
			middleware.BusinessIDFromContext(r.Context()),
			r.URL.Query().Get("month"),
			rate,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
