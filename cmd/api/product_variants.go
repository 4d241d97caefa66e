package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/variants"
)

// ---------- Admin: Attributes ----------

type AttributePayload struct {
	Name string `json:"name" validate:"required,max=60"`
	Code string `json:"code" validate:"omitempty,slug,max=40"`
}

type AttributeValuePayload struct {
	Value string `json:"value" validate:"required,max=60"`
	Code  string `json:"code" validate:"omitempty,max=20"`
}

// listAttributesHandler godoc
//
//	@Summary		List attributes with their values
//	@Tags			admin-variants
//	@Produce		json
//	@Success		200	{array}	variants.Attribute
//	@Security		ApiKeyAuth
//	@Router			/store/admin/attributes [get]
func (app *application) listAttributesHandler(w http.ResponseWriter, r *http.Request) {
	attrs, err := app.store.Variants.ListAttributes(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, attrs)
}

// createAttributeHandler godoc
//
//	@Summary		Create attribute
//	@Description	e.g. Size or Color. The code defaults to the slugified name.
//	@Tags			admin-variants
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AttributePayload	true	"Attribute"
//	@Success		201		{object}	variants.Attribute
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/attributes [post]
func (app *application) createAttributeHandler(w http.ResponseWriter, r *http.Request) {
	var payload AttributePayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	code, err := resolveSlug(payload.Code, payload.Name)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	a, err := app.store.Variants.CreateAttribute(r.Context(), &variants.Attribute{
		Name: strings.TrimSpace(payload.Name),
		Code: code,
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusCreated, a)
}

// getAttributeHandler godoc
//
//	@Summary		Get attribute
//	@Tags			admin-variants
//	@Produce		json
//	@Param			id	path		int	true	"Attribute ID"
//	@Success		200	{object}	variants.Attribute
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/attributes/{id} [get]
func (app *application) getAttributeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	a, err := app.store.Variants.GetAttributeByID(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, a)
}

// updateAttributeHandler godoc
//
//	@Summary		Rename attribute
//	@Tags			admin-variants
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Attribute ID"
//	@Param			payload	body		AttributePayload	true	"Attribute"
//	@Success		200		{object}	variants.Attribute
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/attributes/{id} [patch]
func (app *application) updateAttributeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload AttributePayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	a, err := app.store.Variants.GetAttributeByID(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	a.Name = strings.TrimSpace(payload.Name)
	if payload.Code != "" {
		a.Code = payload.Code
	}

	if err := app.store.Variants.UpdateAttribute(r.Context(), a); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	app.jsonResponse(w, http.StatusOK, a)
}

// deleteAttributeHandler godoc
//
//	@Summary		Delete attribute
//	@Description	Fails with 409 while any variant uses one of its values
//	@Tags			admin-variants
//	@Param			id	path	int	true	"Attribute ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/attributes/{id} [delete]
func (app *application) deleteAttributeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.store.Variants.DeleteAttribute(r.Context(), id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createAttributeValueHandler godoc
//
//	@Summary		Add a value to an attribute
//	@Description	The code is used in derived SKUs and defaults to the value in upper case.
//	@Tags			admin-variants
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Attribute ID"
//	@Param			payload	body		AttributeValuePayload	true	"Value"
//	@Success		201		{object}	variants.AttributeValue
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/attributes/{id}/values [post]
func (app *application) createAttributeValueHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload AttributeValuePayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	code := payload.Code
	if code == "" {
		code = variants.CodeFromValue(payload.Value)
	}

	v, err := app.store.Variants.CreateAttributeValue(r.Context(), &variants.AttributeValue{
		AttributeID: id,
		Value:       strings.TrimSpace(payload.Value),
		Code:        strings.ToUpper(code),
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusCreated, v)
}

// deleteAttributeValueHandler godoc
//
//	@Summary		Delete attribute value
//	@Tags			admin-variants
//	@Param			id		path	int	true	"Attribute ID"
//	@Param			valueID	path	int	true	"Value ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/attributes/{id}/values/{valueID} [delete]
func (app *application) deleteAttributeValueHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	valueID, err := idParam(r, "valueID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.store.Variants.DeleteAttributeValue(r.Context(), id, valueID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- Admin: Variants ----------

type CreateVariantPayload struct {
	SKU               string  `json:"sku" validate:"omitempty,max=64"`
	PriceCents        int64   `json:"price_cents" validate:"gte=0"`
	Stock             int     `json:"stock" validate:"gte=0"`
	LowStockThreshold *int    `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	IsActive          *bool   `json:"is_active"`
	ValueIDs          []int64 `json:"value_ids" validate:"omitempty,unique,dive,gt=0"`
}

type GenerateVariantsPayload struct {
	Selections        []variants.Selection `json:"selections" validate:"required,min=1,dive"`
	PriceCents        int64                `json:"price_cents" validate:"gte=0"`
	LowStockThreshold *int                 `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	IsActive          *bool                `json:"is_active"`
}

type UpdateVariantPayload struct {
	SKU               *string `json:"sku" validate:"omitempty,min=1,max=64"`
	PriceCents        *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	LowStockThreshold *int    `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	IsActive          *bool   `json:"is_active"`
}

func (app *application) lowStockOrDefault(v *int) int {
	if v != nil {
		return *v
	}
	return app.config.Store.DefaultLowStock
}

// listVariantsHandler godoc
//
//	@Summary		List variants of a product
//	@Tags			admin-variants
//	@Produce		json
//	@Param			id	path		int	true	"Product ID"
//	@Success		200	{array}		variants.Variant
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/variants [get]
func (app *application) listVariantsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if _, err := app.store.Products.GetProductByID(r.Context(), productID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	vs, err := app.store.Variants.ListVariantsByProduct(r.Context(), productID, true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, vs)
}

// createVariantHandler godoc
//
//	@Summary		Create a variant
//	@Description	Creates one variant with at most one value per attribute. An empty SKU is derived from the product slug and value codes.
//	@Tags			admin-variants
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Product ID"
//	@Param			payload	body		CreateVariantPayload	true	"Variant"
//	@Success		201		{object}	variants.Variant
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Duplicate SKU or option set"
//	@Failure		422		{object}	error	"Two values for one attribute"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/variants [post]
func (app *application) createVariantHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload CreateVariantPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	admin := getUserFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	v, err := app.store.Variants.CreateVariant(ctx, variants.NewVariant{
		ProductID:         productID,
		SKU:               payload.SKU,
		PriceCents:        payload.PriceCents,
		Stock:             payload.Stock,
		LowStockThreshold: app.lowStockOrDefault(payload.LowStockThreshold),
		IsActive:          payload.IsActive == nil || *payload.IsActive,
		ValueIDs:          payload.ValueIDs,
		CreatedBy:         &admin.ID,
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(ctx)

	app.jsonResponse(w, http.StatusCreated, v)
}

// generateVariantsHandler godoc
//
//	@Summary		Generate variant combinations
//	@Description	Creates every missing combination of the selected attribute values with zero stock. Existing combinations are skipped.
//	@Tags			admin-variants
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Product ID"
//	@Param			payload	body		GenerateVariantsPayload	true	"Selections"
//	@Success		201		{object}	variants.GenerateResult
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		422		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/variants/generate [post]
func (app *application) generateVariantsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload GenerateVariantsPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res, err := app.store.Variants.GenerateVariants(ctx, variants.GenerateRequest{
		ProductID:         productID,
		Selections:        payload.Selections,
		PriceCents:        payload.PriceCents,
		LowStockThreshold: app.lowStockOrDefault(payload.LowStockThreshold),
		IsActive:          payload.IsActive == nil || *payload.IsActive,
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if len(res.Created) > 0 {
		app.invalidateCatalog(ctx)
	}

	app.jsonResponse(w, http.StatusCreated, res)
}

// getVariantHandler godoc
//
//	@Summary		Get variant
//	@Tags			admin-variants
//	@Produce		json
//	@Param			id	path		int	true	"Variant ID"
//	@Success		200	{object}	variants.Variant
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/variants/{id} [get]
func (app *application) getVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	v, err := app.store.Variants.GetVariant(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, v)
}

// updateVariantHandler godoc
//
//	@Summary		Update variant
//	@Description	Changes SKU, price, threshold or active flag. Stock changes go through the stock endpoints.
//	@Tags			admin-variants
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Variant ID"
//	@Param			payload	body		UpdateVariantPayload	true	"Fields to change"
//	@Success		200		{object}	variants.Variant
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/variants/{id} [patch]
func (app *application) updateVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload UpdateVariantPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := app.store.Variants.GetVariant(ctx, id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if payload.SKU != nil {
		v.SKU = strings.ToUpper(strings.TrimSpace(*payload.SKU))
	}
	if payload.PriceCents != nil {
		v.PriceCents = *payload.PriceCents
	}
	if payload.LowStockThreshold != nil {
		v.LowStockThreshold = *payload.LowStockThreshold
	}
	if payload.IsActive != nil {
		v.IsActive = *payload.IsActive
	}

	if err := app.store.Variants.UpdateVariant(ctx, v); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(ctx)

	app.jsonResponse(w, http.StatusOK, v)
}

// deleteVariantHandler godoc
//
//	@Summary		Delete variant
//	@Tags			admin-variants
//	@Param			id	path	int	true	"Variant ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/variants/{id} [delete]
func (app *application) deleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.store.Variants.DeleteVariant(r.Context(), id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
