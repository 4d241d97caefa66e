package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/orders"
	"storefront/internal/domain/users"
	"storefront/internal/mailer"
	"storefront/internal/metrics"
	"storefront/internal/params"
	"storefront/internal/push"

	"github.com/samber/lo"
)

type CheckoutPayload struct {
	Name          string  `json:"name" validate:"required,min=2,max=120"`
	Phone         string  `json:"phone" validate:"required,phone"`
	Address       string  `json:"address" validate:"required,min=5,max=500"`
	City          string  `json:"city" validate:"required,max=100"`
	PostalCode    *string `json:"postal_code" validate:"omitempty,max=20"`
	Country       string  `json:"country" validate:"omitempty,max=100"`
	PaymentMethod string  `json:"payment_method" validate:"omitempty,oneof=cash_on_delivery"`
}

type CancelOrderPayload struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type orderLine struct {
	Quantity     int
	ProductName  string
	VariantLabel string
	Total        string
}

// checkoutHandler godoc
//
//	@Summary		Checkout
//	@Description	Converts the active cart into an order. Stock is locked and decremented in the same transaction; a line that cannot be fulfilled rejects the whole order with 409.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CheckoutPayload	true	"Shipping details"
//	@Success		201		{object}	orders.OrderDetail
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error	"Not enough stock"
//	@Failure		422		{object}	error	"Empty cart or unavailable variant"
//	@Failure		429		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/checkout [post]
func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	var in CheckoutPayload
	if err := readAndValidate(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = orders.PaymentCashOnDelivery
	}
	if in.Country == "" {
		in.Country = app.config.Store.DefaultCountry
	}
	user := getUserFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	placed, err := app.store.Orders.PlaceOrder(ctx, orders.PlaceOrderInput{
		UserID: user.ID,
		Shipping: orders.ShippingInfo{
			Name:       strings.TrimSpace(in.Name),
			Phone:      in.Phone,
			Address:    strings.TrimSpace(in.Address),
			City:       strings.TrimSpace(in.City),
			PostalCode: in.PostalCode,
			Country:    in.Country,
		},
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		metrics.CheckoutRejected(checkoutRejectReason(err))
		app.handleStoreError(w, r, err)
		return
	}

	metrics.OrderPlaced()
	for _, a := range placed.Alerts {
		metrics.StockAlert(a.Type)
	}
	app.invalidateCatalog(ctx)

	d := placed.Detail
	app.logger.Infow("order placed", "order", d.Order.OrderNumber, "user_id", user.ID,
		"items", len(d.Items), "total_cents", d.Order.TotalCents)

	app.background("order push", func(ctx context.Context) error {
		err := app.push.OrderStatus(ctx, push.OrderUpdate{
			UserID:      user.ID,
			OrderID:     d.Order.ID,
			OrderNumber: d.Order.OrderNumber,
			Status:      d.Order.Status,
			Title:       "Order placed",
			Body:        fmt.Sprintf("We received your order %s", d.Order.OrderNumber),
		})
		if errors.Is(err, push.ErrNoTokens) {
			return nil
		}
		return err
	})

	name, email := user.FirstName, user.Email
	app.background("order confirmation email", func(context.Context) error {
		data := struct {
			Name        string
			OrderNumber string
			Items       []orderLine
			Subtotal    string
			Shipping    string
			Total       string
			Address     string
		}{
			Name:        name,
			OrderNumber: d.Order.OrderNumber,
			Items: lo.Map(d.Items, func(it orders.OrderItem, _ int) orderLine {
				return orderLine{
					Quantity:     it.Quantity,
					ProductName:  it.ProductName,
					VariantLabel: it.VariantLabel,
					Total:        orders.FormatCents(it.TotalPriceCents),
				}
			}),
			Subtotal: orders.FormatCents(d.Order.SubtotalCents),
			Shipping: orders.FormatCents(d.Order.ShippingCents),
			Total:    orders.FormatCents(d.Order.TotalCents),
			Address:  fmt.Sprintf("%s, %s, %s", d.Order.Shipping.Address, d.Order.Shipping.City, d.Order.Shipping.Country),
		}
		_, err := app.mailer.Send(mailer.OrderConfirmationTemplate, name, email, data)
		if errors.Is(err, mailer.ErrDisabled) {
			return nil
		}
		return err
	})

	w.Header().Set("Location", fmt.Sprintf("/v1/store/orders/%d", d.Order.ID))
	app.jsonResponse(w, http.StatusCreated, d)
}

func checkoutRejectReason(err error) string {
	switch {
	case errors.Is(err, orders.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, orders.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, orders.ErrVariantUnavailable):
		return "variant_unavailable"
	}
	return "error"
}

func parseOrderStatus(r *http.Request) (string, error) {
	status := r.URL.Query().Get("status")
	if status != "" && !lo.Contains(orders.Statuses, status) {
		return "", fmt.Errorf("invalid status %q", status)
	}
	return status, nil
}

// listMyOrdersHandler godoc
//
//	@Summary		My orders
//	@Tags			orders
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	listResponse[orders.Order]
//	@Security		ApiKeyAuth
//	@Router			/store/orders [get]
func (app *application) listMyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	status, err := parseOrderStatus(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())
	user := getUserFromContext(r)

	list, total, err := app.store.Orders.ListByUser(r.Context(), user.ID, status, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[orders.Order]{Items: list, Pagination: p})
}

// getMyOrderHandler godoc
//
//	@Summary		Get one of my orders
//	@Tags			orders
//	@Produce		json
//	@Param			orderID	path		int	true	"Order ID"
//	@Success		200		{object}	orders.OrderDetail
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/orders/{orderID} [get]
func (app *application) getMyOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "orderID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	user := getUserFromContext(r)

	d, err := app.store.Orders.GetDetailForUser(r.Context(), user.ID, orderID)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, d)
}

// cancelMyOrderHandler godoc
//
//	@Summary		Cancel my order
//	@Description	Allowed while the order is pending or processing. Stock is returned.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		int					true	"Order ID"
//	@Param			payload	body		CancelOrderPayload	false	"Reason"
//	@Success		200		{object}	orders.StatusChange
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Order already shipped"
//	@Security		ApiKeyAuth
//	@Router			/store/orders/{orderID}/cancel [post]
func (app *application) cancelMyOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "orderID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var in CancelOrderPayload
	if r.ContentLength != 0 {
		if err := readAndValidate(w, r, &in); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}
	user := getUserFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	change, err := app.store.Orders.CancelOrder(ctx, user.ID, orderID, in.Reason)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.afterStatusChange(ctx, change, in.Reason)

	app.jsonResponse(w, http.StatusOK, change)
}

// afterStatusChange records the transition and tells the customer about it.
func (app *application) afterStatusChange(ctx context.Context, change *orders.StatusChange, reason *string) {
	metrics.OrderTransition(change.To)
	if change.Restocked > 0 {
		app.invalidateCatalog(ctx)
	}
	app.logger.Infow("order status changed", "order", change.OrderNumber, "from", change.From, "to", change.To,
		"restocked", change.Restocked)

	message := orders.StatusMessage(change.OrderNumber, change.To)
	app.background("order status push", func(ctx context.Context) error {
		err := app.push.OrderStatus(ctx, push.OrderUpdate{
			UserID:      change.UserID,
			OrderID:     change.OrderID,
			OrderNumber: change.OrderNumber,
			Status:      change.To,
			Title:       "Order update",
			Body:        message,
		})
		if errors.Is(err, push.ErrNoTokens) {
			return nil
		}
		return err
	})

	app.background("order status email", func(ctx context.Context) error {
		u, err := app.store.Users.GetByID(ctx, change.UserID)
		if errors.Is(err, users.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data := struct {
			Name        string
			OrderNumber string
			Status      string
			Message     string
			Reason      string
		}{u.FirstName, change.OrderNumber, change.To, message, lo.FromPtr(reason)}
		_, err = app.mailer.Send(mailer.OrderStatusTemplate, u.FirstName, u.Email, data)
		if errors.Is(err, mailer.ErrDisabled) {
			return nil
		}
		return err
	})
}
