package config

import (
	"os"
	"time"

	"github.com/dushixiang/coinbook/internal/retry"
	"github.com/shopspring/decimal"
)

const (
	EnvJWTSecret   = "COINBOOK_JWT_SECRET"
	EnvPriceAPIKey = "COINBOOK_PRICE_API_KEY"
)

type Config struct {
	Auth     AuthConf     `json:"auth"`
	Tax      TaxConf      `json:"tax"`
	Prices   PricesConf   `json:"prices"`
	Redis    RedisConf    `json:"redis"`
	Telegram TelegramConf `json:"telegram"`
}

type AuthConf struct {
	JWTSecret  string `json:"jwt_secret"`
	TokenHours int    `json:"token_hours"` // 令牌有效期（小时），默认24
}

type TaxConf struct {
	CloseEstimateRate   float64 `json:"close_estimate_rate"`   // 完全平仓记账税率，默认0.35
	SummaryEstimateRate float64 `json:"summary_estimate_rate"` // 交易汇总税率，默认0.30
}

type PricesConf struct {
	Enabled         bool      `json:"enabled"`
	BaseURL         string    `json:"base_url"`          // 默认 https://api.coingecko.com/api/v3
	APIKey          string    `json:"api_key"`           // 可选
	APIKeyHeader    string    `json:"api_key_header"`    // 默认 x-cg-demo-api-key
	VsCurrency      string    `json:"vs_currency"`       // 计价货币，默认 usd
	TimeoutSeconds  int       `json:"timeout_seconds"`   // 单次请求超时，默认10
	RatePerSecond   float64   `json:"rate_per_second"`   // 每秒请求数，默认0.5
	CacheTTLSeconds int       `json:"cache_ttl_seconds"` // 价格缓存有效期，默认60
	RefreshCron     string    `json:"refresh_cron"`      // 定时刷新持仓现价，为空则不启用
	Retry           RetryConf `json:"retry"`
}

type RetryConf struct {
	MaxAttempts int     `json:"max_attempts"` // 默认3
	BackoffMs   int     `json:"backoff_ms"`   // 默认1000
	Multiplier  float64 `json:"multiplier"`   // 默认1（固定间隔）
}

type RedisConf struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"` // 键前缀，默认 coinbook
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

// ApplyDefaults 填充未配置的项，空的密钥从环境变量读取
func (c *Config) ApplyDefaults() {
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv(EnvJWTSecret)
	}
	if c.Auth.TokenHours <= 0 {
		c.Auth.TokenHours = 24
	}
	if c.Tax.CloseEstimateRate <= 0 {
		c.Tax.CloseEstimateRate = 0.35
	}
	if c.Tax.SummaryEstimateRate <= 0 {
		c.Tax.SummaryEstimateRate = 0.30
	}

	p := &c.Prices
	if p.BaseURL == "" {
		p.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if p.APIKey == "" {
		p.APIKey = os.Getenv(EnvPriceAPIKey)
	}
	if p.VsCurrency == "" {
		p.VsCurrency = "usd"
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 10
	}
	if p.RatePerSecond <= 0 {
		p.RatePerSecond = 0.5
	}
	if p.CacheTTLSeconds <= 0 {
		p.CacheTTLSeconds = 60
	}
	if p.Retry.MaxAttempts <= 0 {
		p.Retry.MaxAttempts = 3
	}
	if p.Retry.BackoffMs <= 0 {
		p.Retry.BackoffMs = 1000
	}
	if p.Retry.Multiplier <= 0 {
		p.Retry.Multiplier = 1
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "coinbook"
	}
}

func (a AuthConf) TokenTTL() time.Duration {
	return time.Duration(a.TokenHours) * time.Hour
}

func (t TaxConf) CloseRate() decimal.Decimal {
	return decimal.NewFromFloat(t.CloseEstimateRate)
}

func (t TaxConf) SummaryRate() decimal.Decimal {
	return decimal.NewFromFloat(t.SummaryEstimateRate)
}

func (p PricesConf) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p PricesConf) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// RetryPolicy 行情请求的重试策略
func (p PricesConf) RetryPolicy() retry.Policy {
	backoff := time.Duration(p.Retry.BackoffMs) * time.Millisecond
	maxDelay := backoff
	if p.Retry.Multiplier > 1 {
		maxDelay = 30 * time.Second
	}
	return retry.Policy{
		MaxAttempts:  p.Retry.MaxAttempts,
		InitialDelay: backoff,
		MaxDelay:     maxDelay,
		Multiplier:   p.Retry.Multiplier,
	}
}
