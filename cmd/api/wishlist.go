package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/storage"
	"storefront/internal/domain/wishlists"
	"storefront/internal/params"
)

type MoveToCartPayload struct {
	VariantID int64 `json:"variant_id" validate:"required,gt=0"`
	Qty       int   `json:"qty" validate:"omitempty,gt=0,lte=100"`
}

// listWishlistHandler godoc
//
//	@Summary		List wishlist
//	@Tags			wishlist
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{object}	listResponse[wishlists.Item]
//	@Security		ApiKeyAuth
//	@Router			/store/wishlist [get]
func (app *application) listWishlistHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	items, total, err := app.store.Wishlists.List(r.Context(), user.ID, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[*wishlists.Item]{Items: items, Pagination: p})
}

// addToWishlistHandler godoc
//
//	@Summary		Add product to wishlist
//	@Description	Idempotent. Returns 201 when added, 200 when it was already there.
//	@Tags			wishlist
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	map[string]bool
//	@Success		201			{object}	map[string]bool
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/wishlist/{productID} [put]
func (app *application) addToWishlistHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	user := getUserFromContext(r)

	added, err := app.store.Wishlists.Add(r.Context(), user.ID, productID)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	app.jsonResponse(w, status, map[string]bool{"added": added})
}

// removeFromWishlistHandler godoc
//
//	@Summary		Remove product from wishlist
//	@Tags			wishlist
//	@Param			productID	path	int	true	"Product ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/wishlist/{productID} [delete]
func (app *application) removeFromWishlistHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	user := getUserFromContext(r)

	if err := app.store.Wishlists.Remove(r.Context(), user.ID, productID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// moveWishlistToCartHandler godoc
//
//	@Summary		Move a wishlisted product to the cart
//	@Description	Adds the chosen variant to the cart and removes the product from the wishlist atomically
//	@Tags			wishlist
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int					true	"Product ID"
//	@Param			payload		body		MoveToCartPayload	true	"Variant to add"
//	@Success		200			{object}	carts.CartView
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/wishlist/{productID}/move-to-cart [post]
func (app *application) moveWishlistToCartHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var in MoveToCartPayload
	if err := readAndValidate(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if in.Qty == 0 {
		in.Qty = 1
	}
	user := getUserFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := app.store.Variants.GetVariant(ctx, in.VariantID)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if v.ProductID != productID {
		app.badRequestResponse(w, r, errors.New("variant belongs to another product"))
		return
	}

	err = app.store.WithTx(ctx, func(tx *storage.Tx) error {
		if err := tx.Wishlists.Remove(ctx, user.ID, productID); err != nil {
			return err
		}
		return tx.Carts.AddItem(ctx, user.ID, in.VariantID, in.Qty)
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	view, err := app.cartView(ctx, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, view)
}
