package enums

// DiscountType selects how a discount code reduces the price.
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

// String implements fmt.Stringer.
func (t DiscountType) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercent || t == DiscountTypeFixed
}

// ParseDiscountType converts raw input into a DiscountType. Unknown values
// fall back to percent, matching how code definitions are sanitized on write.
func ParseDiscountType(value string) DiscountType {
	if DiscountType(value) == DiscountTypeFixed {
		return DiscountTypeFixed
	}
	return DiscountTypePercent
}
