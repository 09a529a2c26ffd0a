package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
)

// QuantityValidationInput describes one line checked against the per-line cap.
type QuantityValidationInput struct {
	ProductID   string
	ProductName string
	Max         int
	Quantity    int
}

// QuantityViolationDetail exposes the data returned to callers when a validation fails.
type QuantityViolationDetail struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	MaxQty       int    `json:"max_qty"`
	RequestedQty int    `json:"requested_qty"`
}

// ValidateQuantities ensures no line exceeds its cap. A cap below 1 disables the check.
func ValidateQuantities(items []QuantityValidationInput) error {
	var violations []QuantityViolationDetail
	for _, item := range items {
		if item.Max < 1 {
			continue
		}
		if item.Quantity > item.Max {
			violations = append(violations, QuantityViolationDetail{
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				MaxQty:       item.Max,
				RequestedQty: item.Quantity,
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity limit exceeded for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
