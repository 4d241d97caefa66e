package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/inventory"
	"storefront/internal/domain/notifications"
	"storefront/internal/domain/storage"
	"storefront/internal/metrics"
	"storefront/internal/params"
)

type AdjustStockPayload struct {
	Delta  int    `json:"delta" validate:"required,ne=0"`
	Reason string `json:"reason" validate:"omitempty,oneof=manual_adjustment restock"`
}

type SetStockPayload struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

func parseInventoryFilter(r *http.Request) (inventory.Filter, error) {
	q := r.URL.Query()
	f := inventory.Filter{Query: strings.TrimSpace(q.Get("q"))}
	for key, dst := range map[string]*bool{"low_stock": &f.LowStock, "out_of_stock": &f.OutOfStock} {
		b, err := params.OptionalBool(q, key)
		if err != nil {
			return f, err
		}
		if b != nil {
			*dst = *b
		}
	}
	return f, nil
}

// listInventoryHandler godoc
//
//	@Summary		Inventory list
//	@Description	Every variant with its stock and threshold. Filter by low or out of stock.
//	@Tags			admin-inventory
//	@Produce		json
//	@Param			q				query		string	false	"Search product name or SKU"
//	@Param			low_stock		query		bool	false	"At or below threshold"
//	@Param			out_of_stock	query		bool	false	"Zero stock"
//	@Param			page			query		int		false	"Page"
//	@Param			limit			query		int		false	"Page size"
//	@Success		200				{object}	listResponse[inventory.Item]
//	@Security		ApiKeyAuth
//	@Router			/store/admin/inventory [get]
func (app *application) listInventoryHandler(w http.ResponseWriter, r *http.Request) {
	f, err := parseInventoryFilter(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())

	items, total, err := app.store.Inventory.List(r.Context(), f, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[*inventory.Item]{Items: items, Pagination: p})
}

// exportInventoryHandler godoc
//
//	@Summary		Export inventory as XLSX
//	@Tags			admin-inventory
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			q				query	string	false	"Search product name or SKU"
//	@Param			low_stock		query	bool	false	"At or below threshold"
//	@Param			out_of_stock	query	bool	false	"Zero stock"
//	@Success		200				{file}	file
//	@Security		ApiKeyAuth
//	@Router			/store/admin/inventory/export [get]
func (app *application) exportInventoryHandler(w http.ResponseWriter, r *http.Request) {
	f, err := parseInventoryFilter(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	items, err := app.store.Inventory.ListAll(ctx, f)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// buffer so a failed write still yields a JSON error
	var buf bytes.Buffer
	if err := inventory.WriteWorkbook(&buf, items); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102-1504"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// adjustStockHandler godoc
//
//	@Summary		Adjust stock
//	@Description	Applies a signed delta, records a movement and raises a low or out of stock notification when the threshold is crossed
//	@Tags			admin-inventory
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Variant ID"
//	@Param			payload	body		AdjustStockPayload	true	"Delta and reason"
//	@Success		200		{object}	inventory.AdjustResult
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Stock would go below zero"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/variants/{id}/stock [post]
func (app *application) adjustStockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload AdjustStockPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Reason == "" {
		payload.Reason = inventory.ReasonManualAdjustment
	}
	admin := getUserFromContext(r)

	app.applyStockChange(w, r, func(ctx context.Context, inv inventory.Store) (*inventory.AdjustResult, error) {
		return inv.Adjust(ctx, inventory.Adjustment{
			VariantID: id,
			Delta:     payload.Delta,
			Reason:    payload.Reason,
			ActorID:   &admin.ID,
		})
	})
}

// setStockHandler godoc
//
//	@Summary		Set stock
//	@Description	Sets an absolute stock value after a physical count. Recorded as a manual adjustment.
//	@Tags			admin-inventory
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Variant ID"
//	@Param			payload	body		SetStockPayload	true	"New stock"
//	@Success		200		{object}	inventory.AdjustResult
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/variants/{id}/stock [put]
func (app *application) setStockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload SetStockPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	admin := getUserFromContext(r)

	app.applyStockChange(w, r, func(ctx context.Context, inv inventory.Store) (*inventory.AdjustResult, error) {
		return inv.SetStock(ctx, id, *payload.Stock, &admin.ID)
	})
}

// applyStockChange runs change and its alert notification in one transaction.
func (app *application) applyStockChange(w http.ResponseWriter, r *http.Request,
	change func(ctx context.Context, inv inventory.Store) (*inventory.AdjustResult, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var res *inventory.AdjustResult
	err := app.store.WithTx(ctx, func(tx *storage.Tx) error {
		var err error
		if res, err = change(ctx, tx.Inventory); err != nil {
			return err
		}
		if n := notifications.StockAlert(res.Level, res.VariantID, res.SKU, res.ProductName, res.StockAfter); n != nil {
			return tx.Notifications.Create(ctx, n)
		}
		return nil
	})
	if err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	if res.Level != inventory.LevelNone {
		metrics.StockAlert(string(res.Level))
	}
	if res.StockBefore != res.StockAfter {
		app.invalidateCatalog(ctx)
	}

	app.jsonResponse(w, http.StatusOK, res)
}

// listMovementsHandler godoc
//
//	@Summary		Stock movement history of a variant
//	@Tags			admin-inventory
//	@Produce		json
//	@Param			id		path		int	true	"Variant ID"
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{object}	listResponse[inventory.Movement]
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/variants/{id}/movements [get]
func (app *application) listMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if _, err := app.store.Variants.GetVariant(r.Context(), id); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())

	moves, total, err := app.store.Inventory.ListMovements(r.Context(), id, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[*inventory.Movement]{Items: moves, Pagination: p})
}
