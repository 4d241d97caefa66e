package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/products"
	"storefront/internal/params"
)

const maxSlugLen = 80

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	edgeHyphens  = regexp.MustCompile(`^-+|-+$`)
)

// generateSlug derives a slug from name, cut at a word boundary when it
// would exceed maxSlugLen.
func generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = edgeHyphens.ReplaceAllString(slug, "")
	if len(slug) > maxSlugLen {
		cut := maxSlugLen
		if slug[cut] != '-' {
			if i := strings.LastIndex(slug[:cut], "-"); i > 0 {
				cut = i
			}
		}
		slug = edgeHyphens.ReplaceAllString(slug[:cut], "")
	}
	return slug
}

func isValidSlug(slug string) bool {
	return len(slug) >= 2 && len(slug) <= maxSlugLen && slugRe.MatchString(slug)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// resolveSlug returns the explicit slug, or one derived from name.
func resolveSlug(explicit, name string) (string, error) {
	slug := strings.TrimSpace(explicit)
	if slug == "" {
		slug = generateSlug(name)
	}
	if !isValidSlug(slug) {
		return "", fmt.Errorf("invalid slug %q", slug)
	}
	return slug, nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// ---------- Admin: Brands ----------

// adminListBrandsHandler godoc
//
//	@Summary		List brands
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{object}	listResponse[products.Brand]
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/brands [get]
func (app *application) adminListBrandsHandler(w http.ResponseWriter, r *http.Request) {
	app.listBrandsHandler(w, r)
}

// createBrandHandler godoc
//
//	@Summary		Create brand
//	@Description	Multipart form with name, optional slug, description and logo image
//	@Tags			admin-catalog
//	@Accept			mpfd
//	@Produce		json
//	@Param			name		formData	string	true	"Brand name"
//	@Param			slug		formData	string	false	"Slug, derived from name when empty"
//	@Param			description	formData	string	false	"Description"
//	@Param			logo		formData	file	false	"Logo (JPEG, PNG or WebP)"
//	@Success		201			{object}	products.Brand
//	@Failure		400			{object}	error
//	@Failure		409			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/brands [post]
func (app *application) createBrandHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseImageForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer cleanupMultipart(r)

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" || len(name) > 120 {
		app.badRequestResponse(w, r, errors.New("brand name is required and must be at most 120 characters"))
		return
	}
	slug, err := resolveSlug(r.FormValue("slug"), name)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	logoURL, _, err := app.uploadFormImage(ctx, r, "logo", "brands")
	if err != nil {
		app.imageUploadError(w, r, err)
		return
	}

	created, err := app.store.Products.CreateBrand(ctx, &products.Brand{
		Name:        name,
		Slug:        slug,
		Description: optionalString(r.FormValue("description")),
		LogoURL:     optionalString(logoURL),
	})
	if err != nil {
		app.deleteImageLater(logoURL)
		app.handleStoreError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/store/admin/brands/%d", created.ID))
	app.jsonResponse(w, http.StatusCreated, created)
}

// getBrandHandler godoc
//
//	@Summary		Get brand
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			id	path		int	true	"Brand ID"
//	@Success		200	{object}	products.Brand
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/brands/{id} [get]
func (app *application) getBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.store.Products.GetBrandByID(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, b)
}

// updateBrandHandler godoc
//
//	@Summary		Update brand
//	@Description	Multipart form; absent fields are left unchanged. A new logo replaces the old one.
//	@Tags			admin-catalog
//	@Accept			mpfd
//	@Produce		json
//	@Param			id			path		int		true	"Brand ID"
//	@Param			name		formData	string	false	"Brand name"
//	@Param			slug		formData	string	false	"Slug"
//	@Param			description	formData	string	false	"Description"
//	@Param			logo		formData	file	false	"Logo"
//	@Success		200			{object}	products.Brand
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/brands/{id} [patch]
func (app *application) updateBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := parseImageForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer cleanupMultipart(r)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	existing, err := app.store.Products.GetBrandByID(ctx, id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	form := r.MultipartForm.Value
	if v, ok := form["name"]; ok {
		name := strings.TrimSpace(v[0])
		if name == "" || len(name) > 120 {
			app.badRequestResponse(w, r, errors.New("brand name must be 1 to 120 characters"))
			return
		}
		existing.Name = name
	}
	if v, ok := form["slug"]; ok {
		if !isValidSlug(v[0]) {
			app.badRequestResponse(w, r, fmt.Errorf("invalid slug %q", v[0]))
			return
		}
		existing.Slug = v[0]
	}
	if v, ok := form["description"]; ok {
		existing.Description = optionalString(v[0])
	}

	newLogo, uploaded, err := app.uploadFormImage(ctx, r, "logo", "brands")
	if err != nil {
		app.imageUploadError(w, r, err)
		return
	}
	var oldLogo string
	if uploaded {
		if existing.LogoURL != nil {
			oldLogo = *existing.LogoURL
		}
		existing.LogoURL = &newLogo
	}

	if err := app.store.Products.UpdateBrand(ctx, existing); err != nil {
		app.deleteImageLater(newLogo)
		app.handleStoreError(w, r, err)
		return
	}
	app.deleteImageLater(oldLogo)
	app.invalidateCatalog(ctx)

	app.jsonResponse(w, http.StatusOK, existing)
}

// deleteBrandHandler godoc
//
//	@Summary		Delete brand
//	@Description	Fails with 409 while products reference the brand
//	@Tags			admin-catalog
//	@Param			id	path	int	true	"Brand ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/brands/{id} [delete]
func (app *application) deleteBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := app.store.Products.GetBrandByID(ctx, id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if err := app.store.Products.DeleteBrand(ctx, id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if b.LogoURL != nil {
		app.deleteImageLater(*b.LogoURL)
	}
	app.invalidateCatalog(ctx)

	w.WriteHeader(http.StatusNoContent)
}

// ---------- Admin: Categories ----------

type CategoryPayload struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Slug        string  `json:"slug" validate:"omitempty,slug,max=80"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateCategoryPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug        *string `json:"slug" validate:"omitempty,slug,max=80"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active"`
}

// adminListCategoriesHandler godoc
//
//	@Summary		Category tree including inactive nodes
//	@Tags			admin-catalog
//	@Produce		json
//	@Success		200	{array}		products.CategoryWithSubs
//	@Security		ApiKeyAuth
//	@Router			/store/admin/categories [get]
func (app *application) adminListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	tree, err := app.store.Products.ListCategories(r.Context(), true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, tree)
}

// createCategoryHandler godoc
//
//	@Summary		Create category
//	@Tags			admin-catalog
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CategoryPayload	true	"Category"
//	@Success		201		{object}	products.Category
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CategoryPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	slug, err := resolveSlug(payload.Slug, payload.Name)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c := &products.Category{
		Name:        strings.TrimSpace(payload.Name),
		Slug:        slug,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
		IsActive:    payload.IsActive == nil || *payload.IsActive,
	}
	created, err := app.store.Products.CreateCategory(r.Context(), c)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	app.jsonResponse(w, http.StatusCreated, created)
}

// getCategoryByIDHandler godoc
//
//	@Summary		Get category
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			id	path		int	true	"Category ID"
//	@Success		200	{object}	products.Category
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/categories/{id} [get]
func (app *application) getCategoryByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	c, err := app.store.Products.GetCategoryByID(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, c)
}

// updateCategoryHandler godoc
//
//	@Summary		Update category
//	@Tags			admin-catalog
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Category ID"
//	@Param			payload	body		UpdateCategoryPayload	true	"Fields to change"
//	@Success		200		{object}	products.Category
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/categories/{id} [patch]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload UpdateCategoryPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := app.store.Products.GetCategoryByID(ctx, id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if payload.Name != nil {
		c.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Slug != nil {
		c.Slug = *payload.Slug
	}
	if payload.Description != nil {
		c.Description = optionalString(*payload.Description)
	}
	if payload.ImageURL != nil {
		c.ImageURL = optionalString(*payload.ImageURL)
	}
	if payload.IsActive != nil {
		c.IsActive = *payload.IsActive
	}

	if err := app.store.Products.UpdateCategory(ctx, c); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(ctx)

	app.jsonResponse(w, http.StatusOK, c)
}

// deleteCategoryHandler godoc
//
//	@Summary		Delete category
//	@Description	Fails with 409 while subcategories or products reference it
//	@Tags			admin-catalog
//	@Param			id	path	int	true	"Category ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/categories/{id} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.store.Products.DeleteCategory(r.Context(), id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// ---------- Admin: Subcategories ----------

type SubCategoryPayload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Slug     string `json:"slug" validate:"omitempty,slug,max=80"`
	IsActive *bool  `json:"is_active"`
}

type UpdateSubCategoryPayload struct {
	CategoryID *int64  `json:"category_id" validate:"omitempty,gt=0"`
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug       *string `json:"slug" validate:"omitempty,slug,max=80"`
	IsActive   *bool   `json:"is_active"`
}

// listSubCategoriesHandler godoc
//
//	@Summary		List subcategories of a category
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			id	path		int	true	"Category ID"
//	@Success		200	{array}		products.SubCategory
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/categories/{id}/subcategories [get]
func (app *application) listSubCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if _, err := app.store.Products.GetCategoryByID(r.Context(), id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	subs, err := app.store.Products.ListSubCategories(r.Context(), id, true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, subs)
}

// createSubCategoryHandler godoc
//
//	@Summary		Create subcategory
//	@Tags			admin-catalog
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Category ID"
//	@Param			payload	body		SubCategoryPayload	true	"Subcategory"
//	@Success		201		{object}	products.SubCategory
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/categories/{id}/subcategories [post]
func (app *application) createSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload SubCategoryPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	slug, err := resolveSlug(payload.Slug, payload.Name)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	created, err := app.store.Products.CreateSubCategory(r.Context(), &products.SubCategory{
		CategoryID: categoryID,
		Name:       strings.TrimSpace(payload.Name),
		Slug:       slug,
		IsActive:   payload.IsActive == nil || *payload.IsActive,
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	app.jsonResponse(w, http.StatusCreated, created)
}

// getSubCategoryHandler godoc
//
//	@Summary		Get subcategory
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			id	path		int	true	"Subcategory ID"
//	@Success		200	{object}	products.SubCategory
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/subcategories/{id} [get]
func (app *application) getSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	s, err := app.store.Products.GetSubCategoryByID(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, s)
}

// updateSubCategoryHandler godoc
//
//	@Summary		Update subcategory
//	@Tags			admin-catalog
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Subcategory ID"
//	@Param			payload	body		UpdateSubCategoryPayload	true	"Fields to change"
//	@Success		200		{object}	products.SubCategory
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/subcategories/{id} [patch]
func (app *application) updateSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload UpdateSubCategoryPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := app.store.Products.GetSubCategoryByID(ctx, id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if payload.CategoryID != nil {
		s.CategoryID = *payload.CategoryID
	}
	if payload.Name != nil {
		s.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Slug != nil {
		s.Slug = *payload.Slug
	}
	if payload.IsActive != nil {
		s.IsActive = *payload.IsActive
	}

	if err := app.store.Products.UpdateSubCategory(ctx, s); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(ctx)

	app.jsonResponse(w, http.StatusOK, s)
}

// deleteSubCategoryHandler godoc
//
//	@Summary		Delete subcategory
//	@Tags			admin-catalog
//	@Param			id	path	int	true	"Subcategory ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/subcategories/{id} [delete]
func (app *application) deleteSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.store.Products.DeleteSubCategory(r.Context(), id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// ---------- Admin: Products ----------

type ProductPayload struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Slug           string  `json:"slug" validate:"omitempty,slug,max=80"`
	Description    *string `json:"description" validate:"omitempty,max=10000"`
	CategoryID     *int64  `json:"category_id" validate:"omitempty,gt=0"`
	SubCategoryID  *int64  `json:"subcategory_id" validate:"omitempty,gt=0"`
	BrandID        *int64  `json:"brand_id" validate:"omitempty,gt=0"`
	BasePriceCents int64   `json:"base_price_cents" validate:"gte=0"`
	IsActive       *bool   `json:"is_active"`
	IsFeatured     bool    `json:"is_featured"`
}

// UpdateProductPayload is a partial update. Send 0 for category_id,
// subcategory_id or brand_id to clear it.
type UpdateProductPayload struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=200"`
	Slug           *string `json:"slug" validate:"omitempty,slug,max=80"`
	Description    *string `json:"description" validate:"omitempty,max=10000"`
	CategoryID     *int64  `json:"category_id" validate:"omitempty,gte=0"`
	SubCategoryID  *int64  `json:"subcategory_id" validate:"omitempty,gte=0"`
	BrandID        *int64  `json:"brand_id" validate:"omitempty,gte=0"`
	BasePriceCents *int64  `json:"base_price_cents" validate:"omitempty,gte=0"`
	IsActive       *bool   `json:"is_active"`
	IsFeatured     *bool   `json:"is_featured"`
}

func zeroAsNil(v *int64) *int64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

// adminListProductsHandler godoc
//
//	@Summary		List products for the back-office
//	@Description	Includes inactive products with variant, stock and image counters
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			q		query		string	false	"Search"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	listResponse[products.AdminProductCard]
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products [get]
func (app *application) adminListProductsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, total, err := app.store.Products.ListAdminProducts(ctx, r.URL.Query().Get("q"), p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[*products.AdminProductCard]{Items: items, Pagination: p})
}

// createProductHandler godoc
//
//	@Summary		Create product
//	@Tags			admin-catalog
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ProductPayload	true	"Product"
//	@Success		201		{object}	products.Product
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Failure		422		{object}	error	"Subcategory does not belong to category"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload ProductPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	slug, err := resolveSlug(payload.Slug, payload.Name)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.SubCategoryID != nil && payload.CategoryID == nil {
		app.badRequestResponse(w, r, errors.New("subcategory_id requires category_id"))
		return
	}

	created, err := app.store.Products.CreateProduct(r.Context(), &products.Product{
		Name:           strings.TrimSpace(payload.Name),
		Slug:           slug,
		Description:    payload.Description,
		CategoryID:     payload.CategoryID,
		SubCategoryID:  payload.SubCategoryID,
		BrandID:        payload.BrandID,
		BasePriceCents: payload.BasePriceCents,
		IsActive:       payload.IsActive == nil || *payload.IsActive,
		IsFeatured:     payload.IsFeatured,
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/store/admin/products/"+strconv.FormatInt(created.ID, 10))
	app.jsonResponse(w, http.StatusCreated, created)
}

// adminGetProductHandler godoc
//
//	@Summary		Get product
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			id	path		int	true	"Product ID"
//	@Success		200	{object}	products.Product
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id} [get]
func (app *application) adminGetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p, err := app.store.Products.GetProductByID(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, p)
}

// updateProductHandler godoc
//
//	@Summary		Update product
//	@Tags			admin-catalog
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Product ID"
//	@Param			payload	body		UpdateProductPayload	true	"Fields to change"
//	@Success		200		{object}	products.Product
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Failure		422		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id} [patch]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload UpdateProductPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := app.store.Products.GetProductByID(ctx, id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if payload.Name != nil {
		p.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Slug != nil {
		p.Slug = *payload.Slug
	}
	if payload.Description != nil {
		p.Description = optionalString(*payload.Description)
	}
	if payload.CategoryID != nil {
		p.CategoryID = zeroAsNil(payload.CategoryID)
		// moving category drops a subcategory that is not re-sent
		if payload.SubCategoryID == nil {
			p.SubCategoryID = nil
		}
	}
	if payload.SubCategoryID != nil {
		p.SubCategoryID = zeroAsNil(payload.SubCategoryID)
	}
	if payload.BrandID != nil {
		p.BrandID = zeroAsNil(payload.BrandID)
	}
	if payload.BasePriceCents != nil {
		p.BasePriceCents = *payload.BasePriceCents
	}
	if payload.IsActive != nil {
		p.IsActive = *payload.IsActive
	}
	if payload.IsFeatured != nil {
		p.IsFeatured = *payload.IsFeatured
	}
	if p.SubCategoryID != nil && p.CategoryID == nil {
		app.badRequestResponse(w, r, errors.New("subcategory_id requires category_id"))
		return
	}

	if err := app.store.Products.UpdateProduct(ctx, p); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(ctx)

	app.jsonResponse(w, http.StatusOK, p)
}

// deleteProductHandler godoc
//
//	@Summary		Delete product
//	@Description	Removes the product with its variants and images. Past orders keep their snapshots.
//	@Tags			admin-catalog
//	@Param			id	path	int	true	"Product ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	images, err := app.store.Products.ListProductImages(ctx, id)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.store.Products.DeleteProduct(ctx, id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	for _, img := range images {
		app.deleteImageLater(img.URL)
	}
	app.invalidateCatalog(ctx)

	w.WriteHeader(http.StatusNoContent)
}
