package enums

import "fmt"

// DiscountCodeStatus distinguishes live code definitions from soft-deleted ones.
// Trashed codes are invisible to application logic regardless of is_active.
type DiscountCodeStatus string

const (
	DiscountCodeStatusActive  DiscountCodeStatus = "active"
	DiscountCodeStatusTrashed DiscountCodeStatus = "trashed"
)

// String implements fmt.Stringer.
func (s DiscountCodeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s DiscountCodeStatus) IsValid() bool {
	return s == DiscountCodeStatusActive || s == DiscountCodeStatusTrashed
}

// ParseDiscountCodeStatus converts raw input into a DiscountCodeStatus.
func ParseDiscountCodeStatus(value string) (DiscountCodeStatus, error) {
	switch DiscountCodeStatus(value) {
	case DiscountCodeStatusActive:
		return DiscountCodeStatusActive, nil
	case DiscountCodeStatusTrashed:
		return DiscountCodeStatusTrashed, nil
	}
	return "", fmt.Errorf("invalid discount code status %q", value)
}
