package locale

import (
	"testing"

	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductCopy(t *testing.T) {
	t.Parallel()
	p := catalog.Product{Name: "Desk Lamp", NameVN: "Đèn bàn", Description: "Warm light", DescriptionVN: ""}

	assert.Equal(t, "Desk Lamp", ProductName(p, enums.LanguageEnglish))
	assert.Equal(t, "Đèn bàn", ProductName(p, enums.LanguageVietnamese))
	assert.Equal(t, "Warm light", ProductDescription(p, enums.LanguageVietnamese))
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()
	cases := []struct {
		amount   string
		currency enums.Currency
		want     string
	}{
		{"1234.56", enums.CurrencyUSD, "$1,234.56"},
		{"9.9", enums.CurrencyUSD, "$9.90"},
		{"0", enums.CurrencyUSD, "$0.00"},
		{"1234.5", enums.CurrencyVND, "29.628.000 ₫"},
		{"9.99", enums.CurrencyVND, "239.760 ₫"},
	}
	for _, tc := range cases {
		got := FormatPrice(decimal.RequireFromString(tc.amount), tc.currency)
		assert.Equal(t, tc.want, got, tc.amount)
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "240000", Convert(decimal.NewFromInt(10), enums.CurrencyVND).String())
	assert.Equal(t, "10.01", Convert(decimal.RequireFromString("10.005"), enums.CurrencyUSD).String())
}
