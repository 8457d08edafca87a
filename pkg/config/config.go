package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App       AppConfig
	Bot       BotConfig
	Catalog   CatalogConfig
	Partner   PartnerConfig
	Data      DataConfig
	Sessions  SessionsConfig
	Cart      CartConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Sessions.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"APP_ENV" default:"development"`
	Port         string   `envconfig:"APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BotConfig carries the chat-adapter credential and the privileged user.
// Both are opaque to the core; they are threaded through to the shell.
type BotConfig struct {
	Token   string `envconfig:"BOT_TOKEN"`
	OwnerID int64  `envconfig:"OWNER_ID" default:"0"`
}

type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH" default:"assets/catalog.yaml"`
}

type PartnerConfig struct {
	Code         string `envconfig:"PARTNER_CODE" default:"aff_skincare_bot"`
	AffiliateTag string `envconfig:"AFFILIATE_TAG" default:"skincare_bot"`
	RedirectBase string `envconfig:"REDIRECT_BASE"`
	Campaign     string `envconfig:"PARTNER_CAMPAIGN" default:"recommendation"`
}

type DataConfig struct {
	BaseDir     string `envconfig:"DATA_DIR" default:"data"`
	PIDFilePath string `envconfig:"PID_FILE" default:"data/beautycare.pid"`
}

// CartsDir is where per-user cart JSON files live.
func (d DataConfig) CartsDir() string {
	return d.BaseDir + "/carts"
}

// ProfilesDir is where per-user profile snapshots live.
func (d DataConfig) ProfilesDir() string {
	return d.BaseDir + "/user_profiles"
}

type SessionsConfig struct {
	IdleTimeout       time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	AggressiveTimeout time.Duration `envconfig:"SESSION_AGGRESSIVE_TIMEOUT" default:"5m"`
	SweepInterval     time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"10m"`
	CallbackDebounce  time.Duration `envconfig:"SESSION_CALLBACK_DEBOUNCE" default:"700ms"`
}

func (s SessionsConfig) validate() error {
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if s.SweepInterval > s.IdleTimeout/2 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be at most half of SESSION_IDLE_TIMEOUT")
	}
	return nil
}

type CartConfig struct {
	DebounceWindow time.Duration `envconfig:"CART_DEBOUNCE_WINDOW" default:"2s"`
	DebouncePrune  time.Duration `envconfig:"CART_DEBOUNCE_PRUNE" default:"5m"`
	MaxQuantity    int           `envconfig:"CART_MAX_QUANTITY" default:"99"`
	UndoTTL        time.Duration `envconfig:"CART_UNDO_TTL" default:"15s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	Address      string        `envconfig:"REDIS_ADDR"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint is configured at all. The API
// degrades to in-process rate limiting when it is not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type RateLimitConfig struct {
	CallbackWindow time.Duration `envconfig:"RATE_LIMIT_CALLBACK_WINDOW" default:"1s"`
	CallbackLimit  int           `envconfig:"RATE_LIMIT_CALLBACK_LIMIT" default:"5"`
}
