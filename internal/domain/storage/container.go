package storage

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/accesscontrol"
	"storefront/internal/domain/carts"
	"storefront/internal/domain/inventory"
	"storefront/internal/domain/notifications"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/products"
	"storefront/internal/domain/pushtokens"
	"storefront/internal/domain/users"
	"storefront/internal/domain/variants"
	"storefront/internal/domain/wishlists"
	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Options struct {
	OrderNumbers *orders.OrderNumberGenerator
	Shipping     orders.ShippingPolicy
	CartTTL      time.Duration
}

type Container struct {
	db            dbx.DB
	Users         users.Store
	AccessControl accesscontrol.Store
	PushTokens    pushtokens.Store
	Products      products.Store
	Variants      variants.Store
	Inventory     inventory.Store
	Carts         carts.Store
	Wishlists     wishlists.Store
	Orders        orders.Store
	Notifications notifications.Store
}

func NewContainer(db dbx.DB, opts Options) *Container {
	return &Container{
		db:            db,
		Users:         users.NewRepository(db),
		AccessControl: accesscontrol.NewRepository(db),
		PushTokens:    pushtokens.NewRepository(db),
		Products:      products.NewRepository(db),
		Variants:      variants.NewRepository(db),
		Inventory:     inventory.NewRepository(db),
		Carts:         carts.NewRepositoryWithTTL(db, opts.CartTTL),
		Wishlists:     wishlists.NewRepository(db),
		Orders:        orders.NewRepository(db, opts.OrderNumbers, opts.Shipping),
		Notifications: notifications.NewRepository(db),
	}
}

// Tx is a tx-scoped set of repositories for units of work that span packages.
type Tx struct {
	Carts         carts.Store
	Wishlists     wishlists.Store
	Inventory     inventory.Store
	Notifications notifications.Store
}

// WithTx runs fn atomically. Repositories that open their own transactions
// (orders, variants, users) are not part of Tx.
func (c *Container) WithTx(ctx context.Context, fn func(s *Tx) error) error {
	if c.db == nil {
		return errors.New("storage container has no database")
	}
	return dbx.WithTx(ctx, c.db, func(tx pgx.Tx) error {
		return fn(&Tx{
			Carts:         carts.NewRepository(tx),
			Wishlists:     wishlists.NewRepository(tx),
			Inventory:     inventory.NewRepository(tx),
			Notifications: notifications.NewRepository(tx),
		})
	})
}
