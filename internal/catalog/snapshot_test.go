package catalog

import (
	"testing"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureFeed = `id,name,brand,price,category,stock,discount,status,description
1,Alpha Keyboard,Aether,120,Keyboards,5,-10%,,mechanical
2,Beta Mouse,Nova,40,Mice,0,,,wireless
3,Gamma Keycaps,Aether,30,accessories,10,FREESHIP,,pbt
4,Delta Switches,Nova,15,accessories,3,,upcoming,linear
5,Broken,,10,Mice,1,,,missing brand
10,Omega Keyboard,Orbit,300,keyboard,2,-50%,,flagship
`

func fixtureSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	products, err := Parse(fixtureFeed)
	require.NoError(t, err)
	return NewSnapshot(1, time.Unix(0, 0), products)
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestSnapshotLookups(t *testing.T) {
	t.Parallel()
	snap := fixtureSnapshot(t)

	p, ok := snap.ByID("3")
	require.True(t, ok)
	assert.Equal(t, "Gamma Keycaps", p.Name)
	assert.False(t, snap.Contains("404"))
	assert.Equal(t, []string{"10", "1"}, ids(snap.ByIDs([]string{"10", "404", "1"})))
	assert.Equal(t, []string{"Aether", "Nova", "Orbit"}, snap.Brands())
}

func TestSnapshotIsolatesCallers(t *testing.T) {
	t.Parallel()
	snap := fixtureSnapshot(t)
	p, _ := snap.ByID("1")
	p.Images[0] = "mutated.png"
	again, _ := snap.ByID("1")
	assert.Equal(t, PlaceholderImage, again.Images[0])
}

func TestFilter(t *testing.T) {
	t.Parallel()
	snap := fixtureSnapshot(t)

	assert.Equal(t, []string{"1", "2", "3", "10"}, ids(snap.Filter(Criteria{})))
	assert.Equal(t, []string{"1", "10"}, ids(snap.Filter(Criteria{Category: "keyboard"})))
	assert.Equal(t, []string{"3", "4"}, ids(snap.Filter(Criteria{Category: "Accessories", IncludeUpcoming: true})))
	assert.Equal(t, []string{"2"}, ids(snap.Filter(Criteria{Brands: []string{"NOVA"}})))
	assert.Equal(t, []string{"1", "3", "10"}, ids(snap.Filter(Criteria{InStockOnly: true})))
	assert.Equal(t, []string{"1", "10"}, ids(snap.Filter(Criteria{OnSaleOnly: true})))
	assert.Equal(t, []string{"3"}, ids(snap.Filter(Criteria{Query: "PBT"})))

	lo, mid, hi := dec("30"), dec("40"), dec("108")
	assert.Equal(t, []string{"2", "3"}, ids(snap.Filter(Criteria{MinPrice: &lo, MaxPrice: &mid})))
	assert.Equal(t, []string{"1", "2", "3"}, ids(snap.Filter(Criteria{MaxPrice: &hi})))
}

func TestCategoryMatches(t *testing.T) {
	t.Parallel()
	assert.True(t, CategoryMatches("Keyboards", "keyboard"))
	assert.True(t, CategoryMatches("accessories", "Accessory"))
	assert.True(t, CategoryMatches("Head_Sets", "headset"))
	assert.False(t, CategoryMatches("Mice", "Keyboards"))
}

func TestSortOrders(t *testing.T) {
	t.Parallel()
	snap := fixtureSnapshot(t)
	list := snap.Filter(Criteria{})

	assert.Equal(t, []string{"10", "3", "2", "1"}, ids(Sort(list, enums.ProductSortNewest)))
	assert.Equal(t, []string{"3", "2", "1", "10"}, ids(Sort(list, enums.ProductSortPriceAsc)))
	assert.Equal(t, []string{"10", "1", "2", "3"}, ids(Sort(list, enums.ProductSortPriceDesc)))
	assert.Equal(t, []string{"1", "2", "3", "10"}, ids(Sort(list, enums.ProductSortNameAsc)))
	assert.Equal(t, []string{"10", "3", "2", "1"}, ids(Sort(list, enums.ProductSortNameDesc)))
	assert.Equal(t, ids(list), ids(Sort(list, enums.ProductSort("random"))))
}

func TestPaginate(t *testing.T) {
	t.Parallel()
	products := make([]Product, 20)
	for i := range products {
		products[i] = Product{ID: string(rune('a' + i))}
	}

	items, page := Paginate(products, 3, 0)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, DefaultPerPage, page.PerPage)

	items, page = Paginate(products, 99, 9)
	assert.Equal(t, 3, page.Page)
	assert.Len(t, items, 2)

	items, page = Paginate(nil, 1, 9)
	assert.Empty(t, items)
	assert.Equal(t, 0, page.TotalPages)
}

func TestRelatedOnSaleUpcoming(t *testing.T) {
	t.Parallel()
	snap := fixtureSnapshot(t)
	assert.Equal(t, []string{"4"}, ids(snap.Related("3", 4)))
	assert.Empty(t, snap.Related("2", 4))
	assert.Empty(t, snap.Related("404", 4))
	assert.Equal(t, []string{"1", "10"}, ids(snap.OnSale(0)))
	assert.Equal(t, []string{"1"}, ids(snap.OnSale(1)))
	assert.Equal(t, []string{"4"}, ids(snap.Upcoming()))
}
