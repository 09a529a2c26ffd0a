package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/internal/profile"
	"github.com/angelmondragon/aether-storefront/internal/storefront"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/metrics"
)

const testFeed = "id,name,brand,price,stock,category,name_vn\n" +
	"1,Lamp,Aether,10,5,Home,Đèn\n" +
	"2,Chair,Aether,20,5,Home,\n" +
	"3,Poster,Other,5,0,Art,\n"

type harness struct {
	handler http.Handler
	svc     *storefront.Services
}

func newHarness(t *testing.T, sync bool) harness {
	t.Helper()
	bus := events.NewBus()
	reg := prometheus.NewRegistry()
	store, err := catalog.NewStore(catalog.StoreConfig{
		Fetcher: catalog.FetcherFunc(func(context.Context) (string, error) { return testFeed, nil }),
		Events:  bus,
		Metrics: metrics.NewCatalogMetrics(reg),
	})
	require.NoError(t, err)
	if sync {
		_, err = store.Sync(context.Background())
		require.NoError(t, err)
	}

	svc, err := storefront.New(storefront.Params{
		Store:   kv.NewMemory(),
		Catalog: store,
		Bus:     bus,
		Metrics: metrics.NewCheckoutMetrics(reg),
	})
	require.NoError(t, err)

	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
	return harness{
		handler: NewRouter(cfg, nil, svc, metrics.NewHTTPMetrics(reg), reg, nil),
		svc:     svc,
	}
}

func (h harness) do(t *testing.T, method, path, profileID, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if profileID != "" {
		req.Header.Set(profile.Header, profileID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
}

const checkoutForm = `{"name":"Ada","email":"ada@example.com","phone":"+1 555 0100","address":"1 Main St","city":"Springfield","zipCode":"12345","country":"US"}`

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t, false)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/health/ready", "", "").Code)

	resp := h.do(t, http.MethodPost, "/api/v1/catalog/sync", "", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health/ready", "", "").Code)
	metricsResp := h.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, metricsResp.Code)
	assert.Contains(t, metricsResp.Body.String(), "catalog_products")
}

func TestProfileHeaderRequired(t *testing.T) {
	h := newHarness(t, true)
	resp := h.do(t, http.MethodGet, "/api/v1/cart", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCatalogListingLocalizesAndPaginates(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(t, http.MethodGet, "/api/v1/catalog/products?lang=vi&currency=VND&sort=price-asc&per_page=2", "tab-1", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Data []struct {
			ID             string `json:"id"`
			LocalizedName  string `json:"localized_name"`
			FormattedPrice string `json:"formatted_price"`
		} `json:"data"`
		Page struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "3", body.Data[0].ID)
	assert.Equal(t, "Đèn", body.Data[1].LocalizedName)
	assert.Equal(t, "240.000 ₫", body.Data[1].FormattedPrice)
	assert.Equal(t, 3, body.Page.Total)
	assert.Equal(t, 2, body.Page.TotalPages)

	bad := h.do(t, http.MethodGet, "/api/v1/catalog/products?sort=random", "tab-1", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestProductDetailRecordsHistory(t *testing.T) {
	h := newHarness(t, true)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/catalog/products/1", "tab-1", "").Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/catalog/products/2", "tab-1", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/catalog/products/99", "tab-1", "").Code)

	var viewed []struct {
		ID string `json:"id"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/history", "tab-1", ""), &viewed)
	require.Len(t, viewed, 2)
	assert.Equal(t, "2", viewed[0].ID)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodDelete, "/api/v1/history", "tab-1", "").Code)
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/history", "tab-1", ""), &viewed)
	assert.Empty(t, viewed)
}

func TestCartRequiresSession(t *testing.T) {
	h := newHarness(t, true)
	resp := h.do(t, http.MethodPost, "/api/v1/cart/items", "tab-1", `{"productId":"1","quantity":1}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	toggle := h.do(t, http.MethodPost, "/api/v1/saved/wishlist/1/toggle", "tab-1", "")
	assert.Equal(t, http.StatusUnauthorized, toggle.Code)
}

func TestShoppingFlow(t *testing.T) {
	h := newHarness(t, true)
	const tab = "tab-1"

	signup := h.do(t, http.MethodPost, "/api/v1/auth/signup", tab, `{"email":"ada@example.com"}`)
	require.Equal(t, http.StatusCreated, signup.Code, signup.Body.String())

	var held struct {
		Held []struct {
			Code string `json:"code"`
		} `json:"held"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/coupons", tab, ""), &held)
	assert.Len(t, held.Held, 2)

	add := h.do(t, http.MethodPost, "/api/v1/cart/items", tab, `{"productId":"1","quantity":2}`)
	require.Equal(t, http.StatusCreated, add.Code, add.Body.String())
	var cartBody struct {
		Count    int    `json:"count"`
		Subtotal string `json:"subtotal"`
	}
	decodeData(t, add, &cartBody)
	assert.Equal(t, 2, cartBody.Count)
	assert.Equal(t, "20", cartBody.Subtotal)

	tooMany := h.do(t, http.MethodPost, "/api/v1/cart/items", tab, `{"productId":"1","quantity":51}`)
	assert.Equal(t, http.StatusBadRequest, tooMany.Code)

	inc := h.do(t, http.MethodPost, "/api/v1/cart/items/1/increment", tab, "")
	require.Equal(t, http.StatusOK, inc.Code)
	dec := h.do(t, http.MethodPost, "/api/v1/cart/items/1/decrement", tab, "")
	require.Equal(t, http.StatusOK, dec.Code)

	toggle := h.do(t, http.MethodPost, "/api/v1/saved/favorites/2/toggle", tab, "")
	require.Equal(t, http.StatusOK, toggle.Code)
	var saved struct {
		TotalCount int `json:"total_count"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/saved", tab, ""), &saved)
	assert.Equal(t, 1, saved.TotalCount)

	quote := h.do(t, http.MethodGet, "/api/v1/checkout/quote?method=express", tab, "")
	require.Equal(t, http.StatusOK, quote.Code, quote.Body.String())
	var quoteBody struct {
		Subtotal string `json:"subtotal"`
		Shipping string `json:"shipping"`
		Total    string `json:"total"`
	}
	decodeData(t, quote, &quoteBody)
	assert.Equal(t, "20", quoteBody.Subtotal)
	assert.Equal(t, "19.99", quoteBody.Shipping)
	assert.Equal(t, "39.99", quoteBody.Total)

	placed := h.do(t, http.MethodPost, "/api/v1/checkout", tab, checkoutForm, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, placed.Code, placed.Body.String())
	var result struct {
		Success bool   `json:"success"`
		OrderID string `json:"order_id"`
		Order   struct {
			PointsEarned int64 `json:"pointsEarned"`
		} `json:"order"`
	}
	decodeData(t, placed, &result)
	require.True(t, result.Success)
	require.NotEmpty(t, result.OrderID)

	replay := h.do(t, http.MethodPost, "/api/v1/checkout", tab, checkoutForm, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, placed.Body.String(), replay.Body.String())

	var orderList []struct {
		ID string `json:"id"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/orders", tab, ""), &orderList)
	require.Len(t, orderList, 1)
	assert.Equal(t, result.OrderID, orderList[0].ID)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/orders/"+result.OrderID, tab, "").Code)

	var points struct {
		Balance int64 `json:"balance"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/loyalty", tab, ""), &points)
	assert.Equal(t, result.Order.PointsEarned, points.Balance)

	emptyCart := h.do(t, http.MethodPost, "/api/v1/checkout", tab, checkoutForm)
	assert.Equal(t, http.StatusUnprocessableEntity, emptyCart.Code)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodDelete, "/api/v1/orders", tab, "").Code)
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/orders", tab, ""), &orderList)
	assert.Empty(t, orderList)
}

func TestCheckoutRejectsInvalidForm(t *testing.T) {
	h := newHarness(t, true)
	const tab = "tab-2"
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/auth/login", tab, `{"email":"bo@example.com"}`).Code)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/cart/items", tab, `{"productId":"2"}`).Code)

	resp := h.do(t, http.MethodPost, "/api/v1/checkout", tab, `{"name":"Bo","email":"nope"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	var result struct {
		Success     bool              `json:"success"`
		FieldErrors map[string]string `json:"field_errors"`
	}
	decodeData(t, resp, &result)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid email format", result.FieldErrors["email"])

	var cartBody struct {
		Count int `json:"count"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/cart", tab, ""), &cartBody)
	assert.Equal(t, 1, cartBody.Count)
}

func TestRedeemWithoutPointsIsRejected(t *testing.T) {
	h := newHarness(t, true)
	const tab = "tab-3"
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/auth/signup", tab, `{"email":"cy@example.com"}`).Code)

	resp := h.do(t, http.MethodPost, "/api/v1/loyalty/rewards/coupon-10/redeem", tab, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var rewards []struct {
		ID         string `json:"id"`
		Affordable bool   `json:"affordable"`
	}
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/loyalty/rewards", tab, ""), &rewards)
	require.Len(t, rewards, 4)
	for _, r := range rewards {
		assert.False(t, r.Affordable, r.ID)
	}
}

func TestAccountUpdate(t *testing.T) {
	h := newHarness(t, true)
	const tab = "tab-4"

	unauth := h.do(t, http.MethodPatch, "/api/v1/account", tab, `{"username":"neo"}`)
	assert.Equal(t, http.StatusUnauthorized, unauth.Code)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/auth/login", tab, `{"email":"neo@example.com"}`).Code)
	resp := h.do(t, http.MethodPatch, "/api/v1/account", tab, `{"username":"  neo  "}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var account struct {
		LoggedIn bool   `json:"logged_in"`
		Username string `json:"username"`
	}
	decodeData(t, resp, &account)
	assert.True(t, account.LoggedIn)
	assert.Equal(t, "neo", account.Username)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/auth/logout", tab, "").Code)
	decodeData(t, h.do(t, http.MethodGet, "/api/v1/account", tab, ""), &account)
	assert.False(t, account.LoggedIn)
}
