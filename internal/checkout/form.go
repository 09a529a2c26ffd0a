package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// OrderForm is the checkout form. Empty ShippingMethod means standard; empty PaymentMethod means card.
type OrderForm struct {
	Name           string               `json:"name" validate:"required"`
	Email          string               `json:"email" validate:"required,storefront_email"`
	Phone          string               `json:"phone" validate:"required,phone"`
	Address        string               `json:"address" validate:"required"`
	City           string               `json:"city" validate:"required"`
	ZipCode        string               `json:"zipCode" validate:"required"`
	Country        string               `json:"country" validate:"required"`
	ShippingMethod enums.ShippingMethod `json:"shippingMethod" validate:"omitempty,oneof=standard express international"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod" validate:"omitempty,oneof=card cod bank_transfer"`
	CouponCode     string               `json:"couponCode"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("storefront_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// normalize trims text fields and fills the method defaults.
func (f OrderForm) normalize() OrderForm {
	for _, p := range []*string{&f.Name, &f.Email, &f.Phone, &f.Address, &f.City, &f.ZipCode, &f.Country, &f.CouponCode} {
		*p = strings.TrimSpace(*p)
	}
	if f.ShippingMethod == "" {
		f.ShippingMethod = enums.ShippingMethodStandard
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = enums.PaymentMethodCard
	}
	return f
}

// Validate returns per-field messages keyed by json name; nil when the form is complete.
func (f OrderForm) Validate() map[string]string {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "storefront_email":
		return "Invalid email format"
	case "phone":
		return "Invalid phone format"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	}
	return fe.Field() + " is invalid"
}
