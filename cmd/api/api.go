package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"storefront/docs" // registers the swagger spec
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/domain/storage"
	"storefront/internal/mailer"
	"storefront/internal/metrics"
	"storefront/internal/push"
	"storefront/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config          *config.Config
	store           *storage.Container
	logger          *zap.SugaredLogger
	images          ImageStore
	mailer          mailer.Client
	push            *push.Notifier
	cache           cache.Cache
	authenticator   auth.Authenticator
	rateLimiter     ratelimiter.Limiter
	checkoutLimiter ratelimiter.Limiter
	wg              sync.WaitGroup
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.FrontendURL, "https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(app.RateLimiterMiddleware)

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.Addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", metrics.Handler())

		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Post("/logout", app.logoutHandler)
		})

		r.Route("/push-tokens", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.addPushTokenHandler)
			r.Delete("/", app.deletePushTokenHandler)
		})

		r.Route("/store", func(r chi.Router) {
			// catalog is public
			r.Get("/products", app.listProductsHandler)
			r.Get("/products/{slug}", app.getProductHandler)
			r.Get("/categories", app.listCategoriesHandler)
			r.Get("/categories/{slug}", app.getCategoryHandler)
			r.Get("/brands", app.listBrandsHandler)
			r.Get("/search", app.searchProductsHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", app.getCartHandler)
					r.Delete("/", app.clearCartHandler)
					r.Post("/items", app.addCartItemHandler)
					r.Patch("/items/{itemID}", app.updateCartItemQtyHandler)
					r.Delete("/items/{itemID}", app.removeCartItemHandler)
				})

				r.Route("/wishlist", func(r chi.Router) {
					r.Get("/", app.listWishlistHandler)
					r.Put("/{productID}", app.addToWishlistHandler)
					r.Delete("/{productID}", app.removeFromWishlistHandler)
					r.Post("/{productID}/move-to-cart", app.moveWishlistToCartHandler)
				})

				r.With(app.CheckoutRateLimit).Post("/checkout", app.checkoutHandler)

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", app.listMyOrdersHandler)
					r.Get("/{orderID}", app.getMyOrderHandler)
					r.Post("/{orderID}/cancel", app.cancelMyOrderHandler)
				})

				r.Get("/notifications", app.listMyNotificationsHandler)
				r.Patch("/notifications/{id}/read", app.markMyNotificationReadHandler)

				r.Route("/admin", func(r chi.Router) {
					r.Use(app.RequireRole("admin"))
					app.mountAdmin(r)
				})
			})
		})
	})
	return r
}

func (app *application) mountAdmin(r chi.Router) {
	r.Route("/brands", func(r chi.Router) {
		r.Get("/", app.adminListBrandsHandler)
		r.Post("/", app.createBrandHandler)
		r.Get("/{id}", app.getBrandHandler)
		r.Patch("/{id}", app.updateBrandHandler)
		r.Delete("/{id}", app.deleteBrandHandler)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", app.adminListCategoriesHandler)
		r.Post("/", app.createCategoryHandler)
		r.Get("/{id}", app.getCategoryByIDHandler)
		r.Patch("/{id}", app.updateCategoryHandler)
		r.Delete("/{id}", app.deleteCategoryHandler)
		r.Get("/{id}/subcategories", app.listSubCategoriesHandler)
		r.Post("/{id}/subcategories", app.createSubCategoryHandler)
	})
	r.Route("/subcategories/{id}", func(r chi.Router) {
		r.Get("/", app.getSubCategoryHandler)
		r.Patch("/", app.updateSubCategoryHandler)
		r.Delete("/", app.deleteSubCategoryHandler)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", app.adminListProductsHandler)
		r.Post("/", app.createProductHandler)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.adminGetProductHandler)
			r.Patch("/", app.updateProductHandler)
			r.Delete("/", app.deleteProductHandler)

			r.Get("/images", app.listProductImagesHandler)
			r.Post("/images", app.uploadProductImageHandler)
			r.Put("/images/order", app.reorderProductImagesHandler)
			r.Patch("/images/{imageID}/primary", app.setPrimaryImageHandler)
			r.Delete("/images/{imageID}", app.deleteProductImageHandler)

			r.Get("/variants", app.listVariantsHandler)
			r.Post("/variants", app.createVariantHandler)
			r.Post("/variants/generate", app.generateVariantsHandler)
		})
	})

	r.Route("/attributes", func(r chi.Router) {
		r.Get("/", app.listAttributesHandler)
		r.Post("/", app.createAttributeHandler)
		r.Get("/{id}", app.getAttributeHandler)
		r.Patch("/{id}", app.updateAttributeHandler)
		r.Delete("/{id}", app.deleteAttributeHandler)
		r.Post("/{id}/values", app.createAttributeValueHandler)
		r.Delete("/{id}/values/{valueID}", app.deleteAttributeValueHandler)
	})

	r.Route("/variants/{id}", func(r chi.Router) {
		r.Get("/", app.getVariantHandler)
		r.Patch("/", app.updateVariantHandler)
		r.Delete("/", app.deleteVariantHandler)
		r.Post("/stock", app.adjustStockHandler)
		r.Put("/stock", app.setStockHandler)
		r.Get("/movements", app.listMovementsHandler)
	})

	r.Get("/inventory", app.listInventoryHandler)
	r.Get("/inventory/export", app.exportInventoryHandler)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", app.adminListOrdersHandler)
		r.Get("/{id}", app.adminGetOrderHandler)
		r.Patch("/{id}/status", app.adminUpdateOrderStatusHandler)
	})

	r.Get("/notifications", app.adminListNotificationsHandler)
	r.Patch("/notifications/{id}/read", app.adminMarkNotificationReadHandler)
	r.Post("/notifications/read-all", app.adminMarkAllNotificationsReadHandler)

	r.Route("/carts", func(r chi.Router) {
		r.Get("/", app.adminListCartsHandler)
		r.Post("/mark-abandoned", app.adminMarkAbandonedCartsHandler)
		r.Get("/{id}", app.adminGetCartHandler)
	})

	r.Route("/users/{id}/roles", func(r chi.Router) {
		r.Get("/", app.adminGetUserRolesHandler)
		r.Post("/", app.adminAssignUserRoleHandler)
		r.Delete("/", app.adminRemoveUserRoleHandler)
	})
}

func (app *application) run(mux http.Handler) error {
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.APIURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		err := srv.Shutdown(ctx)
		// let post-commit emails and pushes finish
		app.wg.Wait()
		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", app.config.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Addr, "env", app.config.Env)
	return nil
}

// background runs fn outside the request. Failures are logged, never returned.
func (app *application) background(name string, fn func(ctx context.Context) error) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				app.logger.Errorw("background task panicked", "task", name, "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			app.logger.Warnw("background task failed", "task", name, "error", err)
		}
	}()
}
