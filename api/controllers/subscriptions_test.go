package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmagan/asadmindset-admin/api/middleware"
	"github.com/dmagan/asadmindset-admin/internal/discounts"
	subsvc "github.com/dmagan/asadmindset-admin/internal/subscriptions"
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/types"
)

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

func TestSubscriptionRequestCreates(t *testing.T) {
	userID := uuid.New()
	svc := &stubSubscriptionService{
		requestFn: func(_ context.Context, gotUser uuid.UUID, dto subsvc.RequestDTO) (*models.Subscription, error) {
			if gotUser != userID {
				t.Fatalf("expected user %s, got %s", userID, gotUser)
			}
			if dto.PlanType != "3-months" || dto.DiscountCode != "SAVE20" {
				t.Fatalf("unexpected dto %+v", dto)
			}
			return &models.Subscription{
				ID:       uuid.New(),
				UserID:   gotUser,
				PlanType: dto.PlanType,
				Amount:   decimal.NewFromInt(80000),
				Status:   enums.SubscriptionStatusPending,
			}, nil
		},
	}

	body := `{"plan_type":"3-months","amount":100000,"tx_hash":"0xabc","discount_code":"SAVE20"}`
	r := authedRequest(http.MethodPost, "/subscription/request", body, userID)
	w := httptest.NewRecorder()
	SubscriptionRequest(svc, testLogger())(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["status"] != "pending" {
		t.Fatalf("unexpected status %v", data["status"])
	}
}

func TestSubscriptionRequestMapsConflict(t *testing.T) {
	svc := &stubSubscriptionService{
		requestFn: func(context.Context, uuid.UUID, subsvc.RequestDTO) (*models.Subscription, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending request already exists")
		},
	}

	r := authedRequest(http.MethodPost, "/subscription/request", `{"plan_type":"monthly","amount":50000}`, uuid.New())
	w := httptest.NewRecorder()
	SubscriptionRequest(svc, testLogger())(w, r)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestSubscriptionRequestRejectsUnknownFields(t *testing.T) {
	svc := &stubSubscriptionService{}
	r := authedRequest(http.MethodPost, "/subscription/request", `{"plan_type":"monthly","amount":1,"bogus":true}`, uuid.New())
	w := httptest.NewRecorder()
	SubscriptionRequest(svc, testLogger())(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestValidateDiscountReturnsQuote(t *testing.T) {
	svc := &stubDiscountService{
		applyFn: func(_ context.Context, code string, _ uuid.UUID, amount decimal.Decimal, planLabel string) (discounts.PricingOutcome, error) {
			if code != "SAVE20" || planLabel != "3-months" {
				t.Fatalf("unexpected args %s %s", code, planLabel)
			}
			return discounts.PricingOutcome{
				Code:            "SAVE20",
				DiscountPercent: 20,
				OriginalAmount:  amount,
				DiscountAmount:  decimal.NewFromInt(20000),
				FinalAmount:     decimal.NewFromInt(80000),
			}, nil
		},
	}

	r := authedRequest(http.MethodPost, "/subscription/validate-discount", `{"code":"SAVE20","amount":100000,"plan_type":"3-months"}`, uuid.New())
	w := httptest.NewRecorder()
	ValidateDiscount(svc, testLogger())(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["discount_percent"] != float64(20) {
		t.Fatalf("unexpected percent %v", data["discount_percent"])
	}
}

func TestValidateDiscountMapsNotFound(t *testing.T) {
	svc := &stubDiscountService{
		applyFn: func(context.Context, string, uuid.UUID, decimal.Decimal, string) (discounts.PricingOutcome, error) {
			return discounts.PricingOutcome{}, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		},
	}

	r := authedRequest(http.MethodPost, "/subscription/validate-discount", `{"code":"NOPE","amount":100000,"plan_type":"monthly"}`, uuid.New())
	w := httptest.NewRecorder()
	ValidateDiscount(svc, testLogger())(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSubscriptionStatusSummary(t *testing.T) {
	svc := &stubSubscriptionService{
		statusFn: func(context.Context, uuid.UUID) (subsvc.StatusSummaryDTO, error) {
			return subsvc.StatusSummaryDTO{HasActive: true}, nil
		},
	}

	r := authedRequest(http.MethodGet, "/subscription/status", "", uuid.New())
	w := httptest.NewRecorder()
	SubscriptionStatus(svc, testLogger())(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.(map[string]any)["has_active"] != true {
		t.Fatal("expected has_active true")
	}
}
