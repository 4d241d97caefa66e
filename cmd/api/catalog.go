package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain/products"
	"storefront/internal/params"

	"github.com/go-chi/chi/v5"
)

// parseProductFilter reads the storefront listing query string.
func parseProductFilter(r *http.Request) (products.ProductFilter, error) {
	q := r.URL.Query()
	f := products.ProductFilter{
		Query:           strings.TrimSpace(q.Get("q")),
		CategorySlug:    strings.TrimSpace(q.Get("category")),
		SubCategorySlug: strings.TrimSpace(q.Get("subcategory")),
		BrandSlug:       strings.TrimSpace(q.Get("brand")),
	}

	var err error
	if f.Sort, err = params.ParseSort(q, products.SortNewest, products.SortOptions...); err != nil {
		return f, err
	}
	if f.MinPriceCents, err = params.OptionalInt64(q, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPriceCents, err = params.OptionalInt64(q, "max_price"); err != nil {
		return f, err
	}
	if f.MinPriceCents != nil && f.MaxPriceCents != nil && *f.MinPriceCents > *f.MaxPriceCents {
		return f, errors.New("min_price must not exceed max_price")
	}
	if f.InStock, err = params.OptionalBool(q, "in_stock"); err != nil {
		return f, err
	}
	if f.Featured, err = params.OptionalBool(q, "featured"); err != nil {
		return f, err
	}
	return f, nil
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Paginated storefront listing of active products with filters and sorting
//	@Tags			store
//	@Produce		json
//	@Param			q			query		string	false	"Search in name and description"
//	@Param			category	query		string	false	"Category slug"
//	@Param			subcategory	query		string	false	"Subcategory slug"
//	@Param			brand		query		string	false	"Brand slug"
//	@Param			min_price	query		int		false	"Minimum price in cents"
//	@Param			max_price	query		int		false	"Maximum price in cents"
//	@Param			in_stock	query		bool	false	"Only products with stock"
//	@Param			featured	query		bool	false	"Only featured products"
//	@Param			sort		query		string	false	"newest | price_asc | price_desc | name_asc | name_desc"
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	listResponse[products.ProductCard]
//	@Failure		400			{object}	error
//	@Failure		500			{object}	error
//	@Router			/store/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	f, err := parseProductFilter(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cards, total, err := app.store.Products.ListProductCards(ctx, f, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[*products.ProductCard]{Items: cards, Pagination: p})
}

// searchProductsHandler godoc
//
//	@Summary		Search products
//	@Tags			store
//	@Produce		json
//	@Param			q		query		string	true	"Search text"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	listResponse[products.ProductCard]
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Router			/store/search [get]
func (app *application) searchProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < 2 {
		app.badRequestResponse(w, r, errors.New("q must be at least 2 characters"))
		return
	}
	p := params.ParsePagination(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cards, total, err := app.store.Products.SearchProducts(ctx, q, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[*products.ProductCard]{Items: cards, Pagination: p})
}

// getProductHandler godoc
//
//	@Summary		Product detail
//	@Description	Product with variants, option groups and images. Served from cache when available.
//	@Tags			store
//	@Produce		json
//	@Param			slug	path		string	true	"Product slug"
//	@Success		200		{object}	products.ProductDetail
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Router			/store/products/{slug} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	detail, err := cache.GetOrLoad(ctx, app.cache, cache.ProductKey(slug), func(ctx context.Context) (*products.ProductDetail, error) {
		return app.store.Products.GetProductDetailBySlug(ctx, slug)
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, detail)
}

// listCategoriesHandler godoc
//
//	@Summary		Category tree
//	@Tags			store
//	@Produce		json
//	@Success		200	{array}		products.CategoryWithSubs
//	@Failure		500	{object}	error
//	@Router			/store/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tree, err := cache.GetOrLoad(ctx, app.cache, cache.CategoryTreeKey, func(ctx context.Context) ([]*products.CategoryWithSubs, error) {
		return app.store.Products.ListCategories(ctx, false)
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, tree)
}

// getCategoryHandler godoc
//
//	@Summary		Category by slug
//	@Tags			store
//	@Produce		json
//	@Param			slug	path		string	true	"Category slug"
//	@Success		200		{object}	products.CategoryWithSubs
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Router			/store/categories/{slug} [get]
func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := app.store.Products.GetCategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, c)
}

// listBrandsHandler godoc
//
//	@Summary		List brands
//	@Tags			store
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{object}	listResponse[products.Brand]
//	@Failure		500		{object}	error
//	@Router			/store/brands [get]
func (app *application) listBrandsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	brands, total, err := app.store.Products.ListBrands(ctx, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[*products.Brand]{Items: brands, Pagination: p})
}

// invalidateCatalog drops cached product details and the category tree after
// an admin write.
func (app *application) invalidateCatalog(ctx context.Context) {
	if err := app.cache.InvalidateProducts(ctx); err != nil {
		app.logger.Warnw("cache invalidation failed", "key", "products", "error", err)
	}
	if err := app.cache.Delete(ctx, cache.CategoryTreeKey); err != nil {
		app.logger.Warnw("cache invalidation failed", "key", cache.CategoryTreeKey, "error", err)
	}
}
