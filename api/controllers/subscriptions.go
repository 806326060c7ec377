package controllers

import (
	"net/http"

	"github.com/jkemboi/maziwa-backend/api/middleware"
	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/api/validators"
	"github.com/jkemboi/maziwa-backend/internal/subscriptions"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

type subscribeRequest struct {
	Plan string `json:"plan" validate:"required,oneof=monthly quarterly yearly"`
}

// SubscriptionsSubscribe moves the business onto a paid plan pending payment.
func SubscriptionsSubscribe(svc *subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body subscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := enums.ParseSubscriptionPlan(body.Plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		sub, err := svc.Subscribe(r.Context(), middleware.BusinessIDFromContext(r.Context()), plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// SubscriptionsStatus reports the business's billing state, applying lazy
// expiry on read.
func SubscriptionsStatus(svc *subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Status(r.Context(), middleware.BusinessIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if view.Warning != "" {
			w.Header().Set("X-Subscription-Warning", view.Warning)
		}
		responses.WriteSuccess(w, view)
	}
}
