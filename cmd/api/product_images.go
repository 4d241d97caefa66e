package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/products"
)

type ReorderImagesPayload struct {
	ImageIDs []int64 `json:"image_ids" validate:"required,min=1,unique,dive,gt=0"`
}

// listProductImagesHandler godoc
//
//	@Summary		List product images
//	@Tags			admin-catalog
//	@Produce		json
//	@Param			id	path		int	true	"Product ID"
//	@Success		200	{array}		products.ProductImage
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/images [get]
func (app *application) listProductImagesHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if _, err := app.store.Products.GetProductByID(r.Context(), productID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	imgs, err := app.store.Products.ListProductImages(r.Context(), productID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, imgs)
}

// uploadProductImageHandler godoc
//
//	@Summary		Upload product image
//	@Description	Appends an image to the gallery. The first image becomes primary.
//	@Tags			admin-catalog
//	@Accept			mpfd
//	@Produce		json
//	@Param			id					path		int		true	"Product ID"
//	@Param			image				formData	file	true	"Image (JPEG, PNG or WebP, max 5MB)"
//	@Param			alt					formData	string	false	"Alt text"
//	@Param			is_primary			formData	bool	false	"Make primary"
//	@Param			product_variant_id	formData	int		false	"Variant the image shows"
//	@Success		201					{object}	products.ProductImage
//	@Failure		400					{object}	error
//	@Failure		404					{object}	error
//	@Failure		503					{object}	error	"Image hosting not configured"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/images [post]
func (app *application) uploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := parseImageForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer cleanupMultipart(r)

	var variantID *int64
	if raw := strings.TrimSpace(r.FormValue("product_variant_id")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			app.badRequestResponse(w, r, errors.New("invalid product_variant_id"))
			return
		}
		variantID = &v
	}
	isPrimary := false
	if raw := r.FormValue("is_primary"); raw != "" {
		if isPrimary, err = strconv.ParseBool(raw); err != nil {
			app.badRequestResponse(w, r, errors.New("invalid is_primary"))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	if _, err := app.store.Products.GetProductByID(ctx, productID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if variantID != nil {
		v, err := app.store.Variants.GetVariant(ctx, *variantID)
		if err != nil {
			app.handleStoreError(w, r, err)
			return
		}
		if v.ProductID != productID {
			app.badRequestResponse(w, r, errors.New("variant belongs to another product"))
			return
		}
	}

	url, ok, err := app.uploadFormImage(ctx, r, "image", fmt.Sprintf("products/%d", productID))
	if err != nil {
		app.imageUploadError(w, r, err)
		return
	}
	if !ok {
		app.badRequestResponse(w, r, errors.New("image file is required"))
		return
	}

	img, err := app.store.Products.CreateProductImage(ctx, &products.ProductImage{
		ProductID:        productID,
		ProductVariantID: variantID,
		URL:              url,
		Alt:              optionalString(r.FormValue("alt")),
		IsPrimary:        isPrimary,
	})
	if err != nil {
		app.deleteImageLater(url)
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(ctx)

	app.jsonResponse(w, http.StatusCreated, img)
}

// setPrimaryImageHandler godoc
//
//	@Summary		Set primary image
//	@Tags			admin-catalog
//	@Param			id		path	int	true	"Product ID"
//	@Param			imageID	path	int	true	"Image ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/images/{imageID}/primary [patch]
func (app *application) setPrimaryImageHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	imageID, err := idParam(r, "imageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Products.SetPrimaryImage(r.Context(), productID, imageID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// reorderProductImagesHandler godoc
//
//	@Summary		Reorder gallery
//	@Description	image_ids must list every image of the product exactly once
//	@Tags			admin-catalog
//	@Accept			json
//	@Param			id		path	int						true	"Product ID"
//	@Param			payload	body	ReorderImagesPayload	true	"New order"
//	@Success		204
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/images/order [put]
func (app *application) reorderProductImagesHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload ReorderImagesPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Products.ReorderProductImages(r.Context(), productID, payload.ImageIDs); err != nil {
		if errors.Is(err, products.ErrImageNotFound) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.handleStoreError(w, r, err)
		return
	}
	app.invalidateCatalog(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// deleteProductImageHandler godoc
//
//	@Summary		Delete product image
//	@Tags			admin-catalog
//	@Param			id		path	int	true	"Product ID"
//	@Param			imageID	path	int	true	"Image ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/products/{id}/images/{imageID} [delete]
func (app *application) deleteProductImageHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	imageID, err := idParam(r, "imageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	img, err := app.store.Products.GetProductImageByID(ctx, imageID)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if img.ProductID != productID {
		app.notFoundResponse(w, r, products.ErrImageNotFound)
		return
	}

	if err := app.store.Products.DeleteProductImage(ctx, imageID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.deleteImageLater(img.URL)
	app.invalidateCatalog(ctx)

	w.WriteHeader(http.StatusNoContent)
}
