package enums

import "fmt"

// ShippingMethod selects the carrier rate applied at checkout.
type ShippingMethod string

const (
	ShippingMethodStandard      ShippingMethod = "standard"
	ShippingMethodExpress       ShippingMethod = "express"
	ShippingMethodInternational ShippingMethod = "international"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodStandard,
	ShippingMethodExpress,
	ShippingMethodInternational,
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
