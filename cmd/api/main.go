package main

import (
	"context"
	"expvar"
	"log"
	"os"
	"runtime"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/storage"
	"storefront/internal/mailer"
	"storefront/internal/push"
	"storefront/internal/ratelimiter"

	"github.com/9ssi7/exponent"
	"github.com/cloudinary/cloudinary-go/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a coloured console logger in development and JSON in production.
func NewLogger(production bool) (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if production {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)
	return zap.New(core, zap.AddCaller()).Sugar(), nil
}

var version = "1.0.0"

//	@title			Storefront API
//	@description	Storefront catalog, cart and checkout API with an admin back-office.

//	@contact.name	API Support
//	@contact.email	support@storefront.local

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DB.AutoMigrate {
		v, err := db.Migrate(cfg.DB.Addr)
		if err != nil {
			logger.Fatalw("migrations failed", "error", err)
		}
		logger.Infow("database migrated", "version", v)
	}

	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	orderNumbers, err := orders.NewOrderNumberGenerator(cfg.Store.OrderNumberSalt)
	if err != nil {
		logger.Fatal(err)
	}

	store := storage.NewContainer(pool, storage.Options{
		OrderNumbers: orderNumbers,
		Shipping: orders.ShippingPolicy{
			FlatCents:     cfg.Store.ShippingFlatCents,
			FreeOverCents: cfg.Store.FreeShippingOverCents,
		},
		CartTTL: cfg.Store.CartTTL,
	})

	var images ImageStore = disabledImages{}
	if cfg.Cloudinary != "" {
		cld, err := cloudinary.NewFromURL(cfg.Cloudinary)
		if err != nil {
			logger.Fatal(err)
		}
		images = &cloudinaryImages{cld: cld}
	} else {
		logger.Warn("CLOUDINARY_URL not set, image uploads are disabled")
	}

	var mail mailer.Client = mailer.Noop{}
	if cfg.Mail.Enabled {
		mail = mailer.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.FromEmail)
	}

	var expo *exponent.Client
	if cfg.ExpoToken != "" {
		expo = exponent.NewClient(exponent.WithAccessToken(cfg.ExpoToken))
	} else {
		expo = exponent.NewClient()
	}
	notifier := push.NewNotifier(push.NewExpoAdapter(expo), store.PushTokens)

	var catalogCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err := rc.Ping(context.Background()); err != nil {
			logger.Warnw("redis unavailable, catalog cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rc.Close()
			catalogCache = rc
			logger.Infow("catalog cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.RateLimiter.RequestsPerTimeFrame,
		cfg.RateLimiter.TimeFrame,
	)
	checkoutLimiter := ratelimiter.NewTokenBucketLimiter(
		cfg.RateLimiter.CheckoutPerMinute,
		cfg.RateLimiter.CheckoutBurst,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.Auth.TokenSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.Issuer,
		cfg.Auth.AccessTokenExp,
		cfg.Auth.RefreshTokenExp,
	)

	app := &application{
		config:          cfg,
		store:           store,
		logger:          logger,
		images:          images,
		mailer:          mail,
		push:            notifier,
		cache:           catalogCache,
		authenticator:   jwtAuthenticator,
		rateLimiter:     rateLimiter,
		checkoutLimiter: checkoutLimiter,
	}

	// http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"acquired_conns": s.AcquiredConns(),
			"idle_conns":     s.IdleConns(),
			"total_conns":    s.TotalConns(),
			"max_conns":      s.MaxConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	scheduler := app.startScheduler(rateLimiter, checkoutLimiter)

	mux := app.mount()

	err = app.run(mux)
	<-scheduler.Stop().Done()
	if err != nil {
		logger.Fatal(err)
	}
}
