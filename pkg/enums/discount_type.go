package enums

import "fmt"

// DiscountType classifies the raw discount text from the feed.
type DiscountType string

const (
	DiscountTypeNone    DiscountType = "none"
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeText    DiscountType = "text"
)

var validDiscountTypes = []DiscountType{
	DiscountTypeNone,
	DiscountTypePercent,
	DiscountTypeText,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
