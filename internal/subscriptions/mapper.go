package subscriptions

import (
	"github.com/dmagan/asadmindset-admin/pkg/db/models"
)

// ToDTO maps a subscription row to its API shape.
func ToDTO(sub *models.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:              sub.ID,
		UserID:          sub.UserID,
		PlanType:        sub.PlanType,
		Amount:          sub.Amount,
		OriginalAmount:  sub.OriginalAmount,
		DiscountCode:    sub.DiscountCode,
		DiscountAmount:  sub.DiscountAmount,
		DiscountPercent: sub.DiscountPercent,
		Status:          sub.Status,
		AdminNote:       sub.AdminNote,
		PreviousStatus:  sub.PreviousStatus,
		IsRenewal:       sub.IsRenewal,
		ApprovedAt:      sub.ApprovedAt,
		StartedAt:       sub.StartedAt,
		ExpiresAt:       sub.ExpiresAt,
		CreatedAt:       sub.CreatedAt,
	}
}

// ToDTOs maps a slice of rows.
func ToDTOs(subs []models.Subscription) []SubscriptionDTO {
	out := make([]SubscriptionDTO, len(subs))
	for i := range subs {
		out[i] = ToDTO(&subs[i])
	}
	return out
}
