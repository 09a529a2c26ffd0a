// Package locale picks localized product copy and formats prices in the display currency.
package locale

import (
	"strings"

	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// USDToVND is the fixed display conversion rate.
var USDToVND = decimal.NewFromInt(24000)

var (
	usdPrinter = message.NewPrinter(language.AmericanEnglish)
	vndPrinter = message.NewPrinter(language.Vietnamese)
)

// ProductName returns the Vietnamese name for vi when the feed provides one.
func ProductName(p catalog.Product, lang enums.Language) string {
	return pick(p.Name, p.NameVN, lang)
}

func ProductDescription(p catalog.Product, lang enums.Language) string {
	return pick(p.Description, p.DescriptionVN, lang)
}

func pick(base, vn string, lang enums.Language) string {
	if lang == enums.LanguageVietnamese && strings.TrimSpace(vn) != "" {
		return vn
	}
	return base
}

// Convert turns a USD amount into the display currency.
func Convert(amount decimal.Decimal, currency enums.Currency) decimal.Decimal {
	if currency == enums.CurrencyVND {
		return amount.Mul(USDToVND).Round(0)
	}
	return amount.Round(2)
}

// FormatPrice renders a USD amount as "$1,234.56" or, for VND, "29.628.000 ₫".
func FormatPrice(amount decimal.Decimal, currency enums.Currency) string {
	converted := Convert(amount, currency)
	if currency == enums.CurrencyVND {
		return vndPrinter.Sprintf("%v", number.Decimal(converted.InexactFloat64(), number.MaxFractionDigits(0))) + " ₫"
	}
	return "$" + usdPrinter.Sprintf("%v", number.Decimal(converted.InexactFloat64(), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
