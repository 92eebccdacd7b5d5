package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PACKFINDERZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "PACKFINDERZ_APP_ENV"
	EnvGatewayBaseURL  = "PACKFINDERZ_GATEWAY_BASE_URL"
	EnvRedisURL        = "PACKFINDERZ_REDIS_URL"
	EnvCartDebounce    = "PACKFINDERZ_CART_DEBOUNCE"
	EnvOrdersPollEvery = "PACKFINDERZ_POLLER_ORDERS_INTERVAL"
)

type Config struct {
	App     AppConfig
	Gateway GatewayConfig
	Cart    CartConfig
	Poller  PollerConfig
	Orders  OrdersConfig
	Notify  NotifyConfig
	Redis   RedisConfig
	Session SessionConfig
	Ops     OpsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Gateway.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKFINDERZ_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type GatewayConfig struct {
	BaseURL string        `envconfig:"PACKFINDERZ_GATEWAY_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"PACKFINDERZ_GATEWAY_TIMEOUT" default:"15s"`
}

type CartConfig struct {
	Debounce time.Duration `envconfig:"PACKFINDERZ_CART_DEBOUNCE" default:"800ms"`
}

type PollerConfig struct {
	OrdersInterval time.Duration `envconfig:"PACKFINDERZ_POLLER_ORDERS_INTERVAL" default:"30s"`
}

type OrdersConfig struct {
	PerPage int `envconfig:"PACKFINDERZ_ORDERS_PER_PAGE" default:"10"`
}

type NotifyConfig struct {
	QueueSize int `envconfig:"PACKFINDERZ_NOTIFY_QUEUE_SIZE" default:"64"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKFINDERZ_REDIS_URL"`
	Address      string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a durable store is configured. Without it "remember me"
// degrades to session-scoped persistence.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionConfig struct {
	RememberMe  bool          `envconfig:"PACKFINDERZ_SESSION_REMEMBER_ME" default:"false"`
	DurableTTL  time.Duration `envconfig:"PACKFINDERZ_SESSION_DURABLE_TTL" default:"720h"`
	Role        string        `envconfig:"PACKFINDERZ_SESSION_ROLE" default:"customer"`
	AccessToken string        `envconfig:"PACKFINDERZ_SESSION_ACCESS_TOKEN"`
}

type OpsConfig struct {
	Addr string `envconfig:"PACKFINDERZ_OPS_ADDR" default:":9090"`
}

func (g *GatewayConfig) validate() error {
	trimmed := strings.TrimSpace(g.BaseURL)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvGatewayBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvGatewayBaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", EnvGatewayBaseURL)
	}
	g.BaseURL = strings.TrimRight(trimmed, "/")
	return nil
}
