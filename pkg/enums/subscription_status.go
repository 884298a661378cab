package enums

import "fmt"

// SubscriptionStatus tracks a subscription request through its lifecycle.
type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusApproved SubscriptionStatus = "approved"
	SubscriptionStatusRejected SubscriptionStatus = "rejected"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusTrashed  SubscriptionStatus = "trashed"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusPending,
	SubscriptionStatusApproved,
	SubscriptionStatusRejected,
	SubscriptionStatusExpired,
	SubscriptionStatusTrashed,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CountsTowardDiscountUsage reports whether a subscription in this status
// occupies a discount-code usage slot.
func (s SubscriptionStatus) CountsTowardDiscountUsage() bool {
	return s == SubscriptionStatusPending || s == SubscriptionStatusApproved
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}
