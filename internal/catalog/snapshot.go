package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/angelmondragon/aether-storefront/pkg/types"
	"github.com/shopspring/decimal"
)

const DefaultPerPage = 9

// Snapshot is an immutable catalog generation. Readers never observe a partial swap.
type Snapshot struct {
	Version  uint64
	SyncedAt time.Time

	products []Product
	index    map[string]int
}

// NewSnapshot indexes products by id; on duplicate ids the first row wins.
func NewSnapshot(version uint64, syncedAt time.Time, products []Product) *Snapshot {
	s := &Snapshot{
		Version:  version,
		SyncedAt: syncedAt,
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if _, dup := s.index[p.ID]; dup {
			continue
		}
		s.index[p.ID] = len(s.products)
		s.products = append(s.products, p.clone())
	}
	return s
}

// Empty is the snapshot before the first successful sync.
func Empty() *Snapshot {
	return NewSnapshot(0, time.Time{}, nil)
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.products)
}

// All returns every product in feed order.
func (s *Snapshot) All() []Product {
	if s == nil {
		return nil
	}
	out := make([]Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.clone()
	}
	return out
}

func (s *Snapshot) ByID(id string) (Product, bool) {
	if s == nil {
		return Product{}, false
	}
	idx, ok := s.index[id]
	if !ok {
		return Product{}, false
	}
	return s.products[idx].clone(), true
}

func (s *Snapshot) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

// ByIDs resolves ids in the given order, skipping unknown ones.
func (s *Snapshot) ByIDs(ids []string) []Product {
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.ByID(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns the id set, used to diff generations.
func (s *Snapshot) IDs() map[string]struct{} {
	out := make(map[string]struct{}, s.Len())
	if s == nil {
		return out
	}
	for id := range s.index {
		out[id] = struct{}{}
	}
	return out
}

func (s *Snapshot) Categories() []string {
	return s.distinct(func(p Product) string { return p.Category })
}

func (s *Snapshot) Brands() []string {
	return s.distinct(func(p Product) string { return p.Brand })
}

func (s *Snapshot) distinct(key func(Product) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	if s == nil {
		return out
	}
	for _, p := range s.products {
		v := key(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Criteria narrows a listing. Zero values mean "no constraint".
type Criteria struct {
	Query           string
	Category        string
	Brands          []string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	InStockOnly     bool
	OnSaleOnly      bool
	IncludeUpcoming bool
}

// Filter returns displayable products matching c, in feed order.
// Upcoming products are excluded unless IncludeUpcoming is set.
func (s *Snapshot) Filter(c Criteria) []Product {
	if s == nil {
		return []Product{}
	}
	query := strings.ToLower(strings.TrimSpace(c.Query))
	brands := map[string]struct{}{}
	for _, b := range c.Brands {
		if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
			brands[b] = struct{}{}
		}
	}
	category := strings.TrimSpace(c.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}

	out := []Product{}
	for _, p := range s.products {
		if !p.IsDisplayable() {
			continue
		}
		if p.IsUpcoming && !c.IncludeUpcoming {
			continue
		}
		if category != "" && !CategoryMatches(p.Category, category) {
			continue
		}
		if len(brands) > 0 {
			if _, ok := brands[strings.ToLower(p.Brand)]; !ok {
				continue
			}
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		if c.MinPrice != nil && p.EffectivePrice().LessThan(*c.MinPrice) {
			continue
		}
		if c.MaxPrice != nil && p.EffectivePrice().GreaterThan(*c.MaxPrice) {
			continue
		}
		if c.InStockOnly && !p.InStock() {
			continue
		}
		if c.OnSaleOnly && !p.IsDiscounted() {
			continue
		}
		out = append(out, p.clone())
	}
	return out
}

// Search matches name, brand, category and both description variants, case-insensitively.
func (s *Snapshot) Search(q string) []Product {
	return s.Filter(Criteria{Query: q, IncludeUpcoming: true})
}

func matchesQuery(p Product, lowerQuery string) bool {
	for _, v := range []string{p.Name, p.NameVN, p.Brand, p.Category, p.Description, p.DescriptionVN} {
		if strings.Contains(strings.ToLower(v), lowerQuery) {
			return true
		}
	}
	return false
}

// CategoryMatches compares categories ignoring case, separators and simple plurals.
func CategoryMatches(dataCat, filterCat string) bool {
	d, f := cleanCategory(dataCat), cleanCategory(filterCat)
	if d == f {
		return true
	}
	return singular(d) == singular(f)
}

func cleanCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	default:
		return s
	}
}

// Related returns up to limit other products in the same category.
func (s *Snapshot) Related(id string, limit int) []Product {
	p, ok := s.ByID(id)
	if !ok {
		return []Product{}
	}
	out := []Product{}
	for _, candidate := range s.products {
		if len(out) >= limit {
			break
		}
		if candidate.ID == p.ID || candidate.Category != p.Category || !candidate.IsDisplayable() {
			continue
		}
		out = append(out, candidate.clone())
	}
	return out
}

func (s *Snapshot) OnSale(limit int) []Product {
	out := []Product{}
	if s == nil {
		return out
	}
	for _, p := range s.products {
		if limit > 0 && len(out) >= limit {
			break
		}
		if p.IsDiscounted() && p.IsDisplayable() {
			out = append(out, p.clone())
		}
	}
	return out
}

func (s *Snapshot) Upcoming() []Product {
	out := []Product{}
	if s == nil {
		return out
	}
	for _, p := range s.products {
		if p.IsUpcoming && p.IsDisplayable() {
			out = append(out, p.clone())
		}
	}
	return out
}

// Sort returns a sorted copy; unknown orders keep feed order.
func Sort(products []Product, by enums.ProductSort) []Product {
	out := append([]Product(nil), products...)
	var less func(a, b Product) bool
	switch by {
	case enums.ProductSortPriceAsc:
		less = func(a, b Product) bool { return a.EffectivePrice().LessThan(b.EffectivePrice()) }
	case enums.ProductSortPriceDesc:
		less = func(a, b Product) bool { return a.EffectivePrice().GreaterThan(b.EffectivePrice()) }
	case enums.ProductSortNameAsc:
		less = func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case enums.ProductSortNameDesc:
		less = func(a, b Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case enums.ProductSortNewest:
		less = func(a, b Product) bool { return idGreater(a.ID, b.ID) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// idGreater compares numerically when both ids are integers, lexically otherwise.
func idGreater(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return ai > bi
	}
	return a > b
}

// Paginate slices a 1-based page; out-of-range pages clamp to the nearest valid page.
func Paginate(products []Product, page, perPage int) ([]Product, types.Page) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(products)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := min(start+perPage, total)
	items := []Product{}
	if start < total {
		items = append(items, products[start:end]...)
	}
	return items, types.Page{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
