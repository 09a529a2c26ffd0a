package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aether-storefront/api/responses"
	"github.com/angelmondragon/aether-storefront/api/validators"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/history"
	"github.com/angelmondragon/aether-storefront/internal/locale"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

const (
	maxPerPage      = 100
	relatedProducts = 4
)

// CatalogReader exposes the active catalog generation.
type CatalogReader interface {
	Snapshot() *catalog.Snapshot
}

// CatalogSyncer triggers a feed refresh, coalescing concurrent callers.
type CatalogSyncer interface {
	SyncShared(ctx context.Context) (catalog.SyncResult, error)
}

// productView is a product localized for the requested language and currency.
type productView struct {
	catalog.Product
	LocalizedName          string         `json:"localized_name"`
	LocalizedDescription   string         `json:"localized_description"`
	Currency               enums.Currency `json:"currency"`
	FormattedPrice         string         `json:"formatted_price"`
	FormattedOriginalPrice string         `json:"formatted_original_price,omitempty"`
	DiscountPercent        int            `json:"discount_percent"`
	InStock                bool           `json:"in_stock"`
	FreeShipping           bool           `json:"free_shipping"`
}

type displayOptions struct {
	lang     enums.Language
	currency enums.Currency
}

func parseDisplayOptions(r *http.Request) (displayOptions, error) {
	opts := displayOptions{lang: enums.LanguageEnglish, currency: enums.CurrencyUSD}
	if raw := strings.TrimSpace(r.URL.Query().Get("lang")); raw != "" {
		lang, err := enums.ParseLanguage(strings.ToLower(raw))
		if err != nil {
			return opts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported language").WithDetails(map[string]any{"field": "lang"})
		}
		opts.lang = lang
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("currency")); raw != "" {
		currency, err := enums.ParseCurrency(strings.ToUpper(raw))
		if err != nil {
			return opts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency").WithDetails(map[string]any{"field": "currency"})
		}
		opts.currency = currency
	}
	return opts, nil
}

func newProductView(p catalog.Product, opts displayOptions) productView {
	v := productView{
		Product:              p,
		LocalizedName:        locale.ProductName(p, opts.lang),
		LocalizedDescription: locale.ProductDescription(p, opts.lang),
		Currency:             opts.currency,
		FormattedPrice:       locale.FormatPrice(p.EffectivePrice(), opts.currency),
		DiscountPercent:      p.DiscountPercent(),
		InStock:              p.InStock(),
		FreeShipping:         p.HasFreeShipping(),
	}
	if p.IsDiscounted() {
		v.FormattedOriginalPrice = locale.FormatPrice(p.Price, opts.currency)
	}
	return v
}

func newProductViews(products []catalog.Product, opts displayOptions) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(p, opts))
	}
	return out
}

func parseCriteria(r *http.Request) (catalog.Criteria, error) {
	q := r.URL.Query()
	c := catalog.Criteria{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Brands:   validators.ParseQueryList(r, "brand"),
	}
	var err error
	if c.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return c, err
	}
	if c.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return c, err
	}
	if c.InStockOnly, err = validators.ParseQueryBool(r, "in_stock"); err != nil {
		return c, err
	}
	if c.OnSaleOnly, err = validators.ParseQueryBool(r, "on_sale"); err != nil {
		return c, err
	}
	if c.IncludeUpcoming, err = validators.ParseQueryBool(r, "upcoming"); err != nil {
		return c, err
	}
	return c, nil
}

// CatalogList filters, sorts and paginates the displayable catalog.
func CatalogList(store CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		opts, err := parseDisplayOptions(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		criteria, err := parseCriteria(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sortBy := enums.ProductSortNewest
		if raw := strings.TrimSpace(r.URL.Query().Get("sort")); raw != "" {
			if sortBy, err = enums.ParseProductSort(raw); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported sort order").WithDetails(map[string]any{"field": "sort"}))
				return
			}
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", catalog.DefaultPerPage, 1, maxPerPage)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		matched := catalog.Sort(store.Snapshot().Filter(criteria), sortBy)
		items, meta := catalog.Paginate(matched, page, perPage)
		responses.WritePage(w, newProductViews(items, opts), meta)
	}
}

type productDetailResponse struct {
	Product productView   `json:"product"`
	Related []productView `json:"related"`
}

// CatalogProduct returns one product with related items and records the view.
func CatalogProduct(store CatalogReader, views history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil || views == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		opts, err := parseDisplayOptions(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		snap := store.Snapshot()
		product, ok := snap.ByID(id)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"id": id}))
			return
		}
		if _, err := views.Record(ctx, product.ID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, productDetailResponse{
			Product: newProductView(product, opts),
			Related: newProductViews(snap.Related(product.ID, relatedProducts), opts),
		})
	}
}

type facetsResponse struct {
	Version    uint64   `json:"version"`
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	Total      int      `json:"total"`
	OnSale     int      `json:"on_sale"`
	Upcoming   int      `json:"upcoming"`
}

// CatalogFacets lists the filter values available in the active generation.
func CatalogFacets(store CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		snap := store.Snapshot()
		responses.WriteSuccess(w, facetsResponse{
			Version:    snap.Version,
			Categories: snap.Categories(),
			Brands:     snap.Brands(),
			Total:      len(snap.Filter(catalog.Criteria{IncludeUpcoming: true})),
			OnSale:     len(snap.OnSale(0)),
			Upcoming:   len(snap.Upcoming()),
		})
	}
}

// CatalogSync refreshes the feed on demand. Reconciliation of active profiles
// runs synchronously on the catalog.synced event before this returns.
func CatalogSync(syncer CatalogSyncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if syncer == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		result, err := syncer.SyncShared(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
