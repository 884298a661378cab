package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/api/responses"
	"github.com/dmagan/asadmindset-admin/api/validators"
	"github.com/dmagan/asadmindset-admin/internal/discounts"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
)

type discountCodeResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MaxUses       int             `json:"max_uses"`
	UsedCount     int             `json:"used_count"`
	MinMonths     int             `json:"min_months"`
	MaxMonths     int             `json:"max_months"`
	PerUserLimit  int             `json:"per_user_limit"`
	ValidFrom     *time.Time      `json:"valid_from,omitempty"`
	ValidUntil    *time.Time      `json:"valid_until,omitempty"`
	IsActive      bool            `json:"is_active"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func newDiscountCodeResponse(code *models.DiscountCode) discountCodeResponse {
	return discountCodeResponse{
		ID:            code.ID,
		Code:          code.Code,
		Description:   code.Description,
		DiscountType:  code.DiscountType.String(),
		DiscountValue: code.DiscountValue,
		MaxUses:       code.MaxUses,
		UsedCount:     code.UsedCount,
		MinMonths:     code.MinMonths,
		MaxMonths:     code.MaxMonths,
		PerUserLimit:  code.PerUserLimit,
		ValidFrom:     code.ValidFrom,
		ValidUntil:    code.ValidUntil,
		IsActive:      code.IsActive,
		Status:        code.Status.String(),
		CreatedAt:     code.CreatedAt,
		UpdatedAt:     code.UpdatedAt,
	}
}

func discountCodeIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount code id")
	}
	return id, nil
}

// AdminDiscountCodesList returns every code; trashed rows are included
// only when ?include_trashed=true.
func AdminDiscountCodesList(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		includeTrashed := r.URL.Query().Get("include_trashed") == "true"
		codes, err := svc.ListCodes(r.Context(), includeTrashed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]discountCodeResponse, 0, len(codes))
		for i := range codes {
			items = append(items, newDiscountCodeResponse(&codes[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

type createDiscountCodeRequest struct {
	Code          string          `json:"code" validate:"required,min=3"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type" validate:"required,oneof=percent fixed"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MaxUses       int             `json:"max_uses" validate:"min=0"`
	MinMonths     int             `json:"min_months" validate:"min=0"`
	MaxMonths     int             `json:"max_months" validate:"min=0,max=12"`
	PerUserLimit  int             `json:"per_user_limit" validate:"min=0"`
	ValidFrom     *time.Time      `json:"valid_from"`
	ValidUntil    *time.Time      `json:"valid_until"`
}

func AdminDiscountCodeCreate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		var payload createDiscountCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.CreateCode(r.Context(), discounts.CreateCodeDTO{
			Code:          payload.Code,
			Description:   payload.Description,
			DiscountType:  payload.DiscountType,
			DiscountValue: payload.DiscountValue,
			MaxUses:       payload.MaxUses,
			MinMonths:     payload.MinMonths,
			MaxMonths:     payload.MaxMonths,
			PerUserLimit:  payload.PerUserLimit,
			ValidFrom:     payload.ValidFrom,
			ValidUntil:    payload.ValidUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDiscountCodeResponse(code))
	}
}

func AdminDiscountCodeGet(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := discountCodeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.GetCode(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountCodeResponse(code))
	}
}

type updateDiscountCodeRequest struct {
	Code          *string          `json:"code"`
	Description   *string          `json:"description"`
	DiscountType  *string          `json:"discount_type"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	MaxUses       *int             `json:"max_uses"`
	MinMonths     *int             `json:"min_months"`
	MaxMonths     *int             `json:"max_months"`
	PerUserLimit  *int             `json:"per_user_limit"`
	ValidFrom     *time.Time       `json:"valid_from"`
	ValidUntil    *time.Time       `json:"valid_until"`
	IsActive      *bool            `json:"is_active"`
}

// AdminDiscountCodeUpdate applies a partial update; absent fields keep
// their stored value.
func AdminDiscountCodeUpdate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := discountCodeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateDiscountCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.UpdateCode(r.Context(), id, discounts.UpdateCodeDTO{
			Code:          payload.Code,
			Description:   payload.Description,
			DiscountType:  payload.DiscountType,
			DiscountValue: payload.DiscountValue,
			MaxUses:       payload.MaxUses,
			MinMonths:     payload.MinMonths,
			MaxMonths:     payload.MaxMonths,
			PerUserLimit:  payload.PerUserLimit,
			ValidFrom:     payload.ValidFrom,
			ValidUntil:    payload.ValidUntil,
			IsActive:      payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountCodeResponse(code))
	}
}

func AdminDiscountCodeTrash(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := discountCodeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.TrashCode(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountCodeResponse(code))
	}
}

func AdminDiscountCodeRestore(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := discountCodeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.RestoreCode(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountCodeResponse(code))
	}
}

// AdminDiscountCodePermanentDelete removes a trashed code and its ledger
// rows, freeing the code name for reuse.
func AdminDiscountCodePermanentDelete(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := discountCodeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.PermanentlyDeleteCode(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

func AdminDiscountCodeStats(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := discountCodeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.CodeStats(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recent := make([]discountUsageResponse, 0, len(stats.RecentUsages))
		for i := range stats.RecentUsages {
			recent = append(recent, newDiscountUsageResponse(&stats.RecentUsages[i]))
		}
		responses.WriteSuccess(w, discountStatsResponse{
			TotalUses:     stats.TotalUses,
			TotalDiscount: stats.TotalDiscount,
			TotalRevenue:  stats.TotalRevenue,
			DistinctUsers: stats.DistinctUsers,
			RecentUsages:  recent,
		})
	}
}

type discountStatsResponse struct {
	TotalUses     int64                   `json:"total_uses"`
	TotalDiscount decimal.Decimal         `json:"total_discount"`
	TotalRevenue  decimal.Decimal         `json:"total_revenue"`
	DistinctUsers int64                   `json:"distinct_users"`
	RecentUsages  []discountUsageResponse `json:"recent_usages"`
}

type discountUsageResponse struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	SubscriptionID *uuid.UUID      `json:"subscription_id,omitempty"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	UsedAt         time.Time       `json:"used_at"`
}

func newDiscountUsageResponse(usage *models.DiscountUsage) discountUsageResponse {
	return discountUsageResponse{
		ID:             usage.ID,
		UserID:         usage.UserID,
		SubscriptionID: usage.SubscriptionID,
		OriginalAmount: usage.OriginalAmount,
		DiscountAmount: usage.DiscountAmount,
		FinalAmount:    usage.FinalAmount,
		UsedAt:         usage.UsedAt,
	}
}
