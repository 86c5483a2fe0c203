package internal

import (
	"net/http"
	"time"

	"github.com/dushixiang/coinbook/internal/cache"
	"github.com/dushixiang/coinbook/internal/config"
	"github.com/dushixiang/coinbook/internal/service"
	"github.com/dushixiang/coinbook/internal/telegram"
	"github.com/dushixiang/coinbook/pkg/coingecko"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const telegramHTTPTimeout = 10 * time.Second

// providePriceSource 行情数据源
func providePriceSource(conf *config.Config, logger *zap.Logger) service.PriceSource {
	p := conf.Prices
	client := coingecko.NewClient(
		coingecko.WithBaseURL(p.BaseURL),
		coingecko.WithAPIKey(p.APIKeyHeader, p.APIKey),
		coingecko.WithHTTPClient(&http.Client{Timeout: p.Timeout()}),
		coingecko.WithRateLimit(p.RatePerSecond),
	)
	logger.Info("price client initialized",
		zap.String("base_url", p.BaseURL),
		zap.Bool("has_api_key", p.APIKey != ""),
		zap.Float64("rate_per_second", p.RatePerSecond))
	return client
}

// provideCache 启用 Redis 时使用共享缓存，否则使用进程内缓存
func provideCache(conf *config.Config, logger *zap.Logger) cache.Cache {
	ttl := conf.Prices.CacheTTL()
	if !conf.Redis.Enabled {
		return cache.NewMemoryCache(ttl)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	logger.Info("redis cache enabled", zap.String("addr", conf.Redis.Addr))
	return cache.NewRedisCache(client, conf.Redis.Prefix, ttl)
}

// provideNotifier 未启用或初始化失败时返回 nil
func provideNotifier(logger *zap.Logger, conf *config.Config) service.Notifier {
	if !conf.Telegram.Enabled {
		return nil
	}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		ChatID: conf.Telegram.ChatID,
		Client: &http.Client{Timeout: telegramHTTPTimeout},
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}
	return tg
}

func providePriceService(logger *zap.Logger, source service.PriceSource, c cache.Cache, conf *config.Config) *service.PriceService {
	return service.NewPriceService(logger, source, c, conf.Prices.RetryPolicy(), conf.Prices.VsCurrency)
}

func provideTradeService(db *gorm.DB, logger *zap.Logger, prices *service.PriceService, notifier service.Notifier, conf *config.Config) *service.TradeService {
	var enrich *service.PriceService
	if conf.Prices.Enabled {
		enrich = prices
	}
	return service.NewTradeService(db, logger, enrich, notifier, service.TradeOptions{
		CloseTaxRate:   conf.Tax.CloseRate(),
		SummaryTaxRate: conf.Tax.SummaryRate(),
	})
}

func provideAuthService(logger *zap.Logger, db *gorm.DB, conf *config.Config) *service.AuthService {
	return service.NewAuthService(logger, db, conf.Auth.JWTSecret, conf.Auth.TokenTTL())
}

func providePriceRefresher(logger *zap.Logger, tradeService *service.TradeService, conf *config.Config) *service.PriceRefresher {
	spec := conf.Prices.RefreshCron
	if !conf.Prices.Enabled {
		spec = ""
	}
	return service.NewPriceRefresher(logger, tradeService, spec, time.Minute)
}
