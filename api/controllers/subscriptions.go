package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/api/middleware"
	"github.com/dmagan/asadmindset-admin/api/responses"
	"github.com/dmagan/asadmindset-admin/api/validators"
	"github.com/dmagan/asadmindset-admin/internal/discounts"
	subsvc "github.com/dmagan/asadmindset-admin/internal/subscriptions"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
)

type validateDiscountRequest struct {
	Code     string          `json:"code" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	PlanType string          `json:"plan_type" validate:"required"`
}

// ValidateDiscount runs the eligibility and pricing checks without
// consuming a slot, so the storefront can preview the discounted price.
func ValidateDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		var payload validateDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		outcome, err := svc.ApplyDiscount(r.Context(), payload.Code, userID, payload.Amount, payload.PlanType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}

type subscriptionRequestBody struct {
	PlanType     string          `json:"plan_type" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentProof string          `json:"payment_proof"`
	TxHash       string          `json:"tx_hash"`
	DiscountCode string          `json:"discount_code"`
}

// SubscriptionRequest creates a pending purchase, optionally applying a
// discount code inside the same transaction.
func SubscriptionRequest(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		var payload subscriptionRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		sub, err := svc.Request(r.Context(), userID, subsvc.RequestDTO{
			PlanType:     payload.PlanType,
			Amount:       payload.Amount,
			PaymentProof: payload.PaymentProof,
			TxHash:       payload.TxHash,
			DiscountCode: payload.DiscountCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, subsvc.ToDTO(sub))
	}
}

// SubscriptionStatus answers where the caller stands: active plan, pending
// request, last rejection.
func SubscriptionStatus(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		summary, err := svc.Status(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// SubscriptionHistory lists the caller's non-trashed subscriptions, newest
// first.
func SubscriptionHistory(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		history, err := svc.History(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, history)
	}
}
