package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr        string
	Env         string
	APIURL      string
	FrontendURL string
	DB          DBConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Mail        MailConfig
	RateLimiter RateLimiterConfig
	Store       StoreConfig
	Cloudinary  string
	ExpoToken   string
}

type DBConfig struct {
	Addr        string
	MaxConns    int32
	MaxIdleTime string
	AutoMigrate bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	BasicUser       string
	BasicPass       string
	TokenSecret     string
	RefreshSecret   string
	AccessTokenExp  time.Duration
	RefreshTokenExp time.Duration
	Issuer          string
}

type MailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	Enabled   bool
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
	// token bucket guarding checkout, per user
	CheckoutPerMinute int
	CheckoutBurst     int
}

type StoreConfig struct {
	ShippingFlatCents     int64
	FreeShippingOverCents int64
	OrderNumberSalt       string
	CartTTL               time.Duration
	DefaultLowStock       int
	DefaultCountry        string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and then the process environment.
// Environment variables always win over the file.
func Load() (*Config, error) {
	// missing .env is fine in containers
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Addr:        v.GetString("ADDR"),
		Env:         v.GetString("ENV"),
		APIURL:      v.GetString("EXTERNAL_URL"),
		FrontendURL: v.GetString("FRONTEND_URL"),
		DB: DBConfig{
			Addr:        v.GetString("DB_ADDR"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			MaxIdleTime: v.GetString("DB_MAX_IDLE_TIME"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		Auth: AuthConfig{
			BasicUser:       v.GetString("AUTH_BASIC_USER"),
			BasicPass:       v.GetString("AUTH_BASIC_PASS"),
			TokenSecret:     v.GetString("AUTH_TOKEN_SECRET"),
			RefreshSecret:   v.GetString("AUTH_TOKEN_REFRESH_SECRET"),
			AccessTokenExp:  v.GetDuration("AUTH_TOKEN_EXP"),
			RefreshTokenExp: v.GetDuration("AUTH_REFRESH_TOKEN_EXP"),
			Issuer:          v.GetString("AUTH_TOKEN_ISS"),
		},
		Mail: MailConfig{
			Host:      v.GetString("SMTP_HOST"),
			Port:      v.GetInt("SMTP_PORT"),
			Username:  v.GetString("SMTP_USERNAME"),
			Password:  v.GetString("SMTP_PASSWORD"),
			FromEmail: v.GetString("MAIL_FROM_EMAIL"),
		},
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: v.GetInt("RATELIMITER_REQUESTS_COUNT"),
			TimeFrame:            v.GetDuration("RATELIMITER_TIME_FRAME"),
			Enabled:              v.GetBool("RATE_LIMITER_ENABLED"),
			CheckoutPerMinute:    v.GetInt("CHECKOUT_RATE_PER_MINUTE"),
			CheckoutBurst:        v.GetInt("CHECKOUT_RATE_BURST"),
		},
		Store: StoreConfig{
			ShippingFlatCents:     v.GetInt64("SHIPPING_FLAT_CENTS"),
			FreeShippingOverCents: v.GetInt64("FREE_SHIPPING_OVER_CENTS"),
			OrderNumberSalt:       v.GetString("ORDER_NUMBER_SALT"),
			CartTTL:               v.GetDuration("CART_TTL"),
			DefaultLowStock:       v.GetInt("DEFAULT_LOW_STOCK_THRESHOLD"),
			DefaultCountry:        v.GetString("DEFAULT_COUNTRY"),
		},
		Cloudinary: strings.TrimSpace(v.GetString("CLOUDINARY_URL")),
		ExpoToken:  strings.TrimSpace(v.GetString("EXPO_ACCESS_TOKEN")),
	}
	cfg.Mail.Enabled = cfg.Mail.Host != ""

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("EXTERNAL_URL", "localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	v.SetDefault("DB_MAX_CONNS", 30)
	v.SetDefault("DB_MAX_IDLE_TIME", "15m")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "5m")

	v.SetDefault("AUTH_TOKEN_EXP", "72h")
	v.SetDefault("AUTH_REFRESH_TOKEN_EXP", "216h")
	v.SetDefault("AUTH_TOKEN_ISS", "storefront")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM_EMAIL", "no-reply@storefront.local")

	v.SetDefault("RATELIMITER_REQUESTS_COUNT", 200)
	v.SetDefault("RATELIMITER_TIME_FRAME", "5s")
	v.SetDefault("RATE_LIMITER_ENABLED", false)
	v.SetDefault("CHECKOUT_RATE_PER_MINUTE", 6)
	v.SetDefault("CHECKOUT_RATE_BURST", 3)

	v.SetDefault("SHIPPING_FLAT_CENTS", 500)
	v.SetDefault("FREE_SHIPPING_OVER_CENTS", 10000)
	v.SetDefault("ORDER_NUMBER_SALT", "storefront-orders")
	v.SetDefault("CART_TTL", "168h")
	v.SetDefault("DEFAULT_LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("DEFAULT_COUNTRY", "NP")
}

func (c *Config) validate() error {
	if c.DB.Addr == "" {
		return fmt.Errorf("DB_ADDR is required")
	}
	if c.Auth.TokenSecret == "" || c.Auth.RefreshSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET and AUTH_TOKEN_REFRESH_SECRET are required")
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be > 0")
	}
	if c.Store.ShippingFlatCents < 0 || c.Store.FreeShippingOverCents < 0 {
		return fmt.Errorf("shipping amounts must be >= 0")
	}
	if c.Store.CartTTL <= 0 {
		return fmt.Errorf("CART_TTL must be > 0")
	}
	if c.IsProduction() && (c.Auth.BasicUser == "" || c.Auth.BasicPass == "") {
		return fmt.Errorf("AUTH_BASIC_USER and AUTH_BASIC_PASS are required in production")
	}
	return nil
}
