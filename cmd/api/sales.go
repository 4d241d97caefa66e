package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/carts"
	"storefront/internal/params"
)

type AddCartItemPayload struct {
	VariantID int64 `json:"variant_id" validate:"required,gt=0"`
	Qty       int   `json:"qty" validate:"required,gt=0,lte=100"`
}

type UpdateCartItemPayload struct {
	Qty int `json:"qty" validate:"required,gt=0,lte=100"`
}

// cartView returns the caller's cart, opening one when none is active.
func (app *application) cartView(ctx context.Context, userID int64) (*carts.CartView, error) {
	view, err := app.store.Carts.GetView(ctx, userID)
	if err != nil || view != nil {
		return view, err
	}
	cartID, err := app.store.Carts.EnsureActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return app.store.Carts.GetViewByCartID(ctx, cartID)
}

// GetCart godoc
//
//	@Summary		Get user's cart
//	@Description	Returns the active cart priced at current variant prices, creating an empty one when needed
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	carts.CartView	"Cart retrieved successfully"
//	@Failure		401	{object}	error			"Unauthorized"
//	@Failure		500	{object}	error			"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/store/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user := getUserFromContext(r)

	view, err := app.cartView(ctx, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, view)
}

// AddCartItem godoc
//
//	@Summary		Add item to cart
//	@Description	Adds qty of a variant, merging with an existing line. The merged quantity may not exceed stock.
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AddCartItemPayload	true	"Variant and quantity"
//	@Success		201		{object}	carts.CartView
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error	"Not enough stock"
//	@Failure		422		{object}	error	"Variant unavailable"
//	@Security		ApiKeyAuth
//	@Router			/store/cart/items [post]
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user := getUserFromContext(r)

	var in AddCartItemPayload
	if err := readAndValidate(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Carts.AddItem(ctx, user.ID, in.VariantID, in.Qty); err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	view, err := app.cartView(ctx, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusCreated, view)
}

// UpdateCartItemQty godoc
//
//	@Summary		Change line quantity
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			itemID	path		int						true	"Cart item ID"
//	@Param			payload	body		UpdateCartItemPayload	true	"New quantity"
//	@Success		200		{object}	carts.CartView
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Not enough stock"
//	@Security		ApiKeyAuth
//	@Router			/store/cart/items/{itemID} [patch]
func (app *application) updateCartItemQtyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user := getUserFromContext(r)

	itemID, err := idParam(r, "itemID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var in UpdateCartItemPayload
	if err := readAndValidate(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Carts.UpdateItemQty(ctx, user.ID, itemID, in.Qty); err != nil {
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

// RemoveCartItem godoc
//
//	@Summary		Remove cart line
//	@Tags			cart
//	@Param			itemID	path	int	true	"Cart item ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/cart/items/{itemID} [delete]
func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user := getUserFromContext(r)

	itemID, err := idParam(r, "itemID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Carts.RemoveItem(ctx, user.ID, itemID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart godoc
//
//	@Summary		Empty the cart
//	@Tags			cart
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/store/cart [delete]
func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user := getUserFromContext(r)

	if err := app.store.Carts.Clear(ctx, user.ID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- Admin: carts ----------

// AdminListCarts godoc
//
//	@Summary		List carts
//	@Tags			admin-carts
//	@Produce		json
//	@Param			status			query		string	false	"active | converted | abandoned"
//	@Param			include_expired	query		bool	false	"Include expired carts"
//	@Param			page			query		int		false	"Page"
//	@Param			limit			query		int		false	"Page size"
//	@Success		200				{object}	listResponse[carts.Cart]
//	@Security		ApiKeyAuth
//	@Router			/store/admin/carts [get]
func (app *application) adminListCartsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	switch status {
	case "", carts.StatusActive, carts.StatusConverted, carts.StatusAbandoned:
	default:
		app.badRequestResponse(w, r, fmt.Errorf("invalid status %q", status))
		return
	}
	includeExpired, err := params.OptionalBool(q, "include_expired")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(q)

	list, total, err := app.store.Carts.List(r.Context(), status, includeExpired != nil && *includeExpired, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[carts.Cart]{Items: list, Pagination: p})
}

// AdminGetCart godoc
//
//	@Summary		Get any cart with its lines
//	@Tags			admin-carts
//	@Produce		json
//	@Param			id	path		int	true	"Cart ID"
//	@Success		200	{object}	carts.CartView
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/carts/{id} [get]
func (app *application) adminGetCartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	view, err := app.store.Carts.GetViewByCartID(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, view)
}

// AdminMarkAbandonedCarts godoc
//
//	@Summary		Mark expired carts abandoned
//	@Description	Runs the housekeeping pass that also runs on a schedule
//	@Tags			admin-carts
//	@Produce		json
//	@Success		200	{object}	map[string]int64
//	@Security		ApiKeyAuth
//	@Router			/store/admin/carts/mark-abandoned [post]
func (app *application) adminMarkAbandonedCartsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := app.store.Carts.MarkExpiredAsAbandoned(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, map[string]int64{"abandoned": n})
}
