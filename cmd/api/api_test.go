package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/domain/accesscontrol"
	"storefront/internal/domain/carts"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/products"
	"storefront/internal/domain/storage"
	"storefront/internal/domain/users"
	"storefront/internal/domain/variants"
	"storefront/internal/mailer"
	"storefront/internal/push"
	"storefront/internal/ratelimiter"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users.Store
	byID map[int64]*users.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, users.ErrNotFound
}

type fakeRoles struct {
	accesscontrol.Store
	admins map[int64]bool
}

func (f *fakeRoles) UserHasRole(_ context.Context, userID int64, role accesscontrol.RoleName) (bool, error) {
	if role == accesscontrol.RoleAdmin {
		return f.admins[userID], nil
	}
	return true, nil
}

type fakeProducts struct {
	products.Store
	cards       []*products.ProductCard
	lastFilter  products.ProductFilter
	detail      *products.ProductDetail
	detailCalls int
	created     *products.Product
}

func (f *fakeProducts) CreateProduct(_ context.Context, p *products.Product) (*products.Product, error) {
	cp := *p
	cp.ID = 21
	f.created = &cp
	return &cp, nil
}

func (f *fakeProducts) ListProductCards(_ context.Context, pf products.ProductFilter, limit, offset int) ([]*products.ProductCard, int, error) {
	f.lastFilter = pf
	return f.cards, len(f.cards), nil
}

func (f *fakeProducts) GetProductDetailBySlug(_ context.Context, slug string) (*products.ProductDetail, error) {
	f.detailCalls++
	if f.detail == nil || f.detail.Product.Slug != slug {
		return nil, products.ErrProductNotFound
	}
	return f.detail, nil
}

type fakeCarts struct {
	carts.Store
	view   *carts.CartView
	added  []int64
	addErr error
}

func (f *fakeCarts) GetView(context.Context, int64) (*carts.CartView, error) { return f.view, nil }

func (f *fakeCarts) AddItem(_ context.Context, _ int64, variantID int64, _ int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, variantID)
	return nil
}

type fakeOrders struct {
	orders.Store
	placed    *orders.Placed
	placeErr  error
	lastInput orders.PlaceOrderInput
	change    *orders.StatusChange
	changeErr error
}

func (f *fakeOrders) PlaceOrder(_ context.Context, in orders.PlaceOrderInput) (*orders.Placed, error) {
	f.lastInput = in
	return f.placed, f.placeErr
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID int64, status string, _ *string, _ *int64) (*orders.StatusChange, error) {
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	return f.change, nil
}

type fakeVariants struct {
	variants.Store
	genReq variants.GenerateRequest
	genRes *variants.GenerateResult
	genErr error
}

func (f *fakeVariants) GenerateVariants(_ context.Context, req variants.GenerateRequest) (*variants.GenerateResult, error) {
	f.genReq = req
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.genRes, nil
}

type noTokens struct{}

func (noTokens) GetTokensByUserIDs(context.Context, []int64) (map[int64][]string, error) {
	return map[int64][]string{}, nil
}

type nopSender struct{}

func (nopSender) Publish(context.Context, []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}

// memoryCache round-trips through JSON like the Redis cache does.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) InvalidateProducts(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string][]byte{}
	return nil
}

const (
	customerID int64 = 7
	adminID    int64 = 1
)

type testEnv struct {
	app      *application
	handler  http.Handler
	products *fakeProducts
	carts    *fakeCarts
	orders   *fakeOrders
	variants *fakeVariants
	cache    *memoryCache
}

func newTestApp(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		products: &fakeProducts{},
		carts:    &fakeCarts{},
		orders:   &fakeOrders{},
		variants: &fakeVariants{genRes: &variants.GenerateResult{Created: []*variants.Variant{}}},
		cache:    &memoryCache{data: map[string][]byte{}},
	}
	store := &storage.Container{
		Users: &fakeUsers{byID: map[int64]*users.User{
			customerID: {ID: customerID, FirstName: "Asha", Email: "asha@example.com", IsActive: true},
			adminID:    {ID: adminID, FirstName: "Root", Email: "root@example.com", IsActive: true},
			99:         {ID: 99, FirstName: "Gone", Email: "gone@example.com", IsActive: false},
		}},
		AccessControl: &fakeRoles{admins: map[int64]bool{adminID: true}},
		Products:      env.products,
		Carts:         env.carts,
		Orders:        env.orders,
		Variants:      env.variants,
	}

	cfg := &config.Config{
		Addr: ":0",
		Env:  "test",
		Auth: config.AuthConfig{BasicUser: "ops", BasicPass: "secret"},
		RateLimiter: config.RateLimiterConfig{
			Enabled:              false,
			RequestsPerTimeFrame: 100,
			TimeFrame:            time.Second,
		},
		Store: config.StoreConfig{DefaultCountry: "NP", DefaultLowStock: 5},
	}

	env.app = &application{
		config:          cfg,
		store:           store,
		logger:          zap.NewNop().Sugar(),
		images:          disabledImages{},
		mailer:          mailer.Noop{},
		push:            push.NewNotifier(nopSender{}, noTokens{}),
		cache:           env.cache,
		authenticator:   auth.NewJWTAuthenticator("test-secret", "test-refresh", "storefront", time.Hour, time.Hour),
		rateLimiter:     ratelimiter.NewFixedWindowLimiter(100, time.Second),
		checkoutLimiter: ratelimiter.NewTokenBucketLimiter(60, 10),
	}
	env.handler = env.app.mount()
	t.Cleanup(env.app.wg.Wait)
	return env
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	access, _, err := e.app.authenticator.GenerateTokens(userID, nil)
	require.NoError(t, err)
	return access
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}
