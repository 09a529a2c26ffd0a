package catalog

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

type field string

const (
	fieldID            field = "id"
	fieldName          field = "name"
	fieldBrand         field = "brand"
	fieldPrice         field = "price"
	fieldImage         field = "image"
	fieldStock         field = "stock"
	fieldStatus        field = "status"
	fieldCategory      field = "category"
	fieldDescription   field = "description"
	fieldDescriptionVN field = "description_vn"
	fieldNameVN        field = "name_vn"
	fieldDiscount      field = "discount"
	fieldRating        field = "rating"
	fieldReviewCount   field = "reviewCount"
)

// headerAliases lists accepted header spellings per field; earlier aliases win.
var headerAliases = []struct {
	field   field
	aliases []string
}{
	{fieldID, []string{"id"}},
	{fieldName, []string{"name"}},
	{fieldBrand, []string{"brand"}},
	{fieldPrice, []string{"price"}},
	{fieldImage, []string{"images", "image", "img"}},
	{fieldStock, []string{"stock", "inventory", "quantity"}},
	{fieldStatus, []string{"status"}},
	{fieldCategory, []string{"category_en", "category", "type"}},
	{fieldDescription, []string{"description_en", "description"}},
	{fieldDescriptionVN, []string{"description_vn"}},
	{fieldNameVN, []string{"name_vn", "title_vn"}},
	{fieldDiscount, []string{"discounts", "discount"}},
	{fieldRating, []string{"rating", "stars", "rate"}},
	{fieldReviewCount, []string{"reviews", "review", "review_count"}},
}

var (
	percentDiscountRe = regexp.MustCompile(`^-(\d+)%$`)
	leadingFloatRe    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingIntRe      = regexp.MustCompile(`^[+-]?\d+`)
	lineBreakRe       = regexp.MustCompile(`[\r\n]+`)
	hundred           = decimal.NewFromInt(100)
)

// Parse turns the raw feed text into products in source row order.
// Fewer than two non-blank records yields an empty result.
func Parse(raw string) ([]Product, error) {
	records, err := readRecords(raw)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Product{}, nil
	}

	columns := resolveHeader(records[0])
	products := make([]Product, 0, len(records)-1)
	for _, rec := range records[1:] {
		products = append(products, decodeRow(rec, columns))
	}
	return products, nil
}

// percentDiscount reads a "-N%" badge. Badges above 100% are kept as plain text.
func percentDiscount(raw string) (int, bool) {
	m := percentDiscountRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil || pct > 100 {
		return 0, false
	}
	return pct, true
}

func readRecords(raw string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.ReuseRecord = false

	records := [][]string{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func resolveHeader(header []string) map[field]int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	columns := map[field]int{}
	for _, entry := range headerAliases {
	aliases:
		for _, alias := range entry.aliases {
			for idx, h := range normalized {
				if h == alias {
					columns[entry.field] = idx
					break aliases
				}
			}
		}
	}
	return columns
}

func decodeRow(rec []string, columns map[field]int) Product {
	get := func(f field) string {
		idx, ok := columns[f]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(lineBreakRe.ReplaceAllString(rec[idx], " "))
	}

	price := parseDecimal(get(fieldPrice))
	discountRaw := get(fieldDiscount)

	p := Product{
		ID:                    get(fieldID),
		Name:                  get(fieldName),
		NameVN:                get(fieldNameVN),
		Brand:                 get(fieldBrand),
		Price:                 price,
		DisplayPrice:          price,
		DiscountOriginalPrice: decimal.Zero,
		Stock:                 max(parseInt(get(fieldStock)), 0),
		Description:           get(fieldDescription),
		DescriptionVN:         get(fieldDescriptionVN),
		Category:              get(fieldCategory),
		DiscountType:          enums.DiscountTypeNone,
		Discounts:             []string{},
		Status:                get(fieldStatus),
		Rating:                clampRating(parseFloat(get(fieldRating))),
		ReviewCount:           max(parseInt(get(fieldReviewCount)), 0),
	}

	if pct, ok := percentDiscount(discountRaw); ok {
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(pct)).Div(hundred))
		p.DiscountOriginalPrice = price
		p.DisplayPrice = price.Mul(factor).Round(2)
		p.BadgeText = "-" + strconv.Itoa(pct) + "%"
		p.DiscountType = enums.DiscountTypePercent
	} else if discountRaw != "" {
		p.DiscountType = enums.DiscountTypeText
	}
	if discountRaw != "" {
		p.Discounts = []string{discountRaw}
	}

	p.Images = splitImages(get(fieldImage))
	if len(p.Images) == 0 {
		p.Images = []string{PlaceholderImage}
	}
	p.Image = p.Images[0]

	applyDefaults(&p)
	return p
}

func applyDefaults(p *Product) {
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.NameVN == "" {
		p.NameVN = p.Name
	}
	if p.DescriptionVN == "" {
		p.DescriptionVN = p.Description
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	p.IsUpcoming = strings.EqualFold(p.Status, statusUpcoming)
}

// splitImages accepts comma or pipe separated lists; unquoted commas never reach here.
func splitImages(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDecimal(s string) decimal.Decimal {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseFloat(s string) float64 {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	m := leadingIntRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func clampRating(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 5:
		return 5
	default:
		return r
	}
}
