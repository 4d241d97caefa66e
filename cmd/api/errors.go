package main

import (
	"errors"
	"net/http"

	"storefront/internal/domain/accesscontrol"
	"storefront/internal/domain/carts"
	"storefront/internal/domain/inventory"
	"storefront/internal/domain/notifications"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/products"
	"storefront/internal/domain/users"
	"storefront/internal/domain/variants"
	"storefront/internal/domain/wishlists"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) unprocessableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unprocessable", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

func (app *application) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("service unavailable", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusServiceUnavailable, err.Error())
}

// stockErrorResponse tells the shopper which line failed so the cart can be fixed.
func (app *application) stockErrorResponse(w http.ResponseWriter, r *http.Request, se *orders.StockError) {
	app.logger.Warnw("checkout rejected", "path", r.URL.Path, "variant_id", se.VariantID, "sku", se.SKU,
		"requested", se.Requested, "available", se.Available)

	type envelope struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		Status    int    `json:"status"`
		VariantID int64  `json:"variant_id"`
		SKU       string `json:"sku"`
		Requested int    `json:"requested"`
		Available int    `json:"available"`
	}
	writeJSON(w, http.StatusConflict, &envelope{
		Message:   se.Error(),
		Status:    http.StatusConflict,
		VariantID: se.VariantID,
		SKU:       se.SKU,
		Requested: se.Requested,
		Available: se.Available,
	})
}

var (
	notFoundErrors = []error{
		users.ErrNotFound,
		products.ErrBrandNotFound, products.ErrCategoryNotFound, products.ErrSubCategoryNotFound,
		products.ErrProductNotFound, products.ErrImageNotFound,
		variants.ErrAttributeNotFound, variants.ErrValueNotFound, variants.ErrProductNotFound, variants.ErrVariantNotFound,
		inventory.ErrVariantNotFound,
		carts.ErrCartNotFound, carts.ErrItemNotFound,
		wishlists.ErrProductNotFound, wishlists.ErrNotFound,
		orders.ErrOrderNotFound,
		notifications.ErrNotFound,
		accesscontrol.ErrRoleNotFound,
	}
	conflictErrors = []error{
		users.ErrDuplicateEmail,
		products.ErrBrandHasProducts, products.ErrDuplicateBrand, products.ErrCategoryHasChildren,
		products.ErrCategoryHasProducts, products.ErrSubCategoryHasProducts, products.ErrDuplicateSlug,
		variants.ErrDuplicateAttribute, variants.ErrAttributeInUse, variants.ErrDuplicateValue, variants.ErrValueInUse,
		variants.ErrDuplicateSKU, variants.ErrDuplicateOptions,
		carts.ErrInsufficientStock,
		inventory.ErrNegativeStock,
		orders.ErrInsufficientStock, orders.ErrInvalidTransition,
	}
	unprocessableErrors = []error{
		products.ErrSubCategoryMismatch,
		variants.ErrRepeatedAttribute, variants.ErrValueMismatch,
		variants.ErrTooManyCombinations, variants.ErrEmptySelection,
		inventory.ErrInvalidReason, inventory.ErrNoChange,
		carts.ErrEmptyCart, carts.ErrInvalidQuantity, carts.ErrVariantUnavailable,
		orders.ErrVariantUnavailable,
	}
)

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// handleStoreError maps repository sentinels to responses and falls back to 500.
func (app *application) handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var se *orders.StockError
	switch {
	case errors.As(err, &se):
		app.stockErrorResponse(w, r, se)
	case matchesAny(err, notFoundErrors):
		app.notFoundResponse(w, r, err)
	case matchesAny(err, conflictErrors):
		app.conflictResponse(w, r, err)
	case matchesAny(err, unprocessableErrors):
		app.unprocessableResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
