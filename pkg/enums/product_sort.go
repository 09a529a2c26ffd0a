package enums

import "fmt"

// ProductSort orders catalog listings.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price-asc"
	ProductSortPriceDesc ProductSort = "price-desc"
	ProductSortNameAsc   ProductSort = "name-asc"
	ProductSortNameDesc  ProductSort = "name-desc"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortNameAsc,
	ProductSortNameDesc,
}

// String implements fmt.Stringer.
func (p ProductSort) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductSort.
func (p ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort.
func ParseProductSort(value string) (ProductSort, error) {
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
