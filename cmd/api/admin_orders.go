package main

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/orders"
	"storefront/internal/params"
)

type UpdateOrderStatusPayload struct {
	Status string  `json:"status" validate:"required,oneof=processing shipped delivered cancelled refunded"`
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// adminOrderDetail adds the statuses the order may move to next.
type adminOrderDetail struct {
	*orders.OrderDetail
	NextStatuses []string `json:"next_statuses"`
}

// adminListOrdersHandler godoc
//
//	@Summary		List all orders
//	@Tags			admin-orders
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	listResponse[orders.Order]
//	@Security		ApiKeyAuth
//	@Router			/store/admin/orders [get]
func (app *application) adminListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	status, err := parseOrderStatus(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())

	list, total, err := app.store.Orders.ListAll(r.Context(), status, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[orders.Order]{Items: list, Pagination: p})
}

// adminGetOrderHandler godoc
//
//	@Summary		Get order
//	@Tags			admin-orders
//	@Produce		json
//	@Param			id	path		int	true	"Order ID"
//	@Success		200	{object}	adminOrderDetail
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/orders/{id} [get]
func (app *application) adminGetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	d, err := app.store.Orders.GetDetail(r.Context(), id)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, adminOrderDetail{OrderDetail: d, NextStatuses: orders.NextStatuses(d.Order.Status)})
}

// adminUpdateOrderStatusHandler godoc
//
//	@Summary		Move an order through its lifecycle
//	@Description	pending -> processing -> shipped -> delivered -> refunded. Cancelling before shipment returns stock. The customer is notified in app, by push and by email.
//	@Tags			admin-orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Order ID"
//	@Param			payload	body		UpdateOrderStatusPayload	true	"Target status"
//	@Success		200		{object}	orders.StatusChange
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Transition not allowed"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/orders/{id}/status [patch]
func (app *application) adminUpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var in UpdateOrderStatusPayload
	if err := readAndValidate(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	admin := getUserFromContext(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	change, err := app.store.Orders.UpdateStatus(ctx, id, in.Status, in.Reason, &admin.ID)
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	app.afterStatusChange(ctx, change, in.Reason)

	app.jsonResponse(w, http.StatusOK, change)
}
