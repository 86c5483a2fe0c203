package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/dushixiang/coinbook/internal/cache"
	"github.com/dushixiang/coinbook/internal/retry"
	"github.com/dushixiang/coinbook/internal/xe"
	"github.com/dushixiang/coinbook/pkg/coingecko"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceSource 行情与代币元数据来源
type PriceSource interface {
	SimplePrice(ctx context.Context, ids []string, vsCurrency string) (coingecko.Prices, error)
	GetCoin(ctx context.Context, id string) (*coingecko.Coin, error)
	Search(ctx context.Context, query string) ([]coingecko.SearchCoin, error)
}

var _ PriceSource = (*coingecko.Client)(nil)

// PriceService 带缓存和重试的行情查询，失败统一返回 xe.ErrUpstream
type PriceService struct {
	logger     *zap.Logger
	source     PriceSource
	cache      cache.Cache
	policy     retry.Policy
	vsCurrency string
}

// NewPriceService 创建行情服务
func NewPriceService(logger *zap.Logger, source PriceSource, c cache.Cache, policy retry.Policy, vsCurrency string) *PriceService {
	return &PriceService{
		logger:     logger,
		source:     source,
		cache:      c,
		policy:     policy,
		vsCurrency: strings.ToLower(vsCurrency),
	}
}

func (s *PriceService) priceKey(id string) string {
	return "price:" + s.vsCurrency + ":" + id
}

func logoKey(id string) string {
	return "logo:" + id
}

// GetPrices 获取代币现价，缺失的代币不出现在结果中
func (s *PriceService) GetPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal, len(ids))
	var missing []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(strings.ToLower(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if price, ok := s.cachedPrice(ctx, id); ok {
			result[id] = price
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}
	sort.Strings(missing)

	var prices coingecko.Prices
	err := retry.Do(ctx, s.policy, s.logger, func(ctx context.Context, attempt int) error {
		p, err := s.source.SimplePrice(ctx, missing, s.vsCurrency)
		if err != nil {
			return classify(err)
		}
		prices = p
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to fetch prices", zap.Strings("ids", missing), zap.Error(err))
		return nil, xe.Wrap(xe.ErrUpstream, "price lookup: %v", err)
	}

	for _, id := range missing {
		price, ok := prices[id][s.vsCurrency]
		if !ok {
			continue
		}
		result[id] = price
		if err := s.cache.Set(ctx, s.priceKey(id), price.String()); err != nil {
			s.logger.Warn("failed to cache price", zap.String("token_id", id), zap.Error(err))
		}
	}
	return result, nil
}

func (s *PriceService) cachedPrice(ctx context.Context, id string) (decimal.Decimal, bool) {
	raw, ok, err := s.cache.Get(ctx, s.priceKey(id))
	if err != nil {
		s.logger.Warn("price cache read failed", zap.String("token_id", id), zap.Error(err))
		return decimal.Zero, false
	}
	if !ok {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// TokenImage 获取代币图标地址
func (s *PriceService) TokenImage(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(strings.ToLower(id))
	if raw, ok, err := s.cache.Get(ctx, logoKey(id)); err == nil && ok {
		return raw, nil
	}

	var coin *coingecko.Coin
	err := retry.Do(ctx, s.policy, s.logger, func(ctx context.Context, attempt int) error {
		c, err := s.source.GetCoin(ctx, id)
		if err != nil {
			return classify(err)
		}
		coin = c
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to fetch token metadata", zap.String("token_id", id), zap.Error(err))
		return "", xe.Wrap(xe.ErrUpstream, "token metadata: %v", err)
	}

	image := coin.Image.Large
	if image == "" {
		image = coin.Image.Small
	}
	if image != "" {
		if err := s.cache.Set(ctx, logoKey(id), image); err != nil {
			s.logger.Warn("failed to cache token image", zap.String("token_id", id), zap.Error(err))
		}
	}
	return image, nil
}

// SearchResult 代币搜索结果
type SearchResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Rank   int    `json:"rank"`
	Image  string `json:"image"`
}

// Search 搜索代币，结果按市值排名缓存
func (s *PriceService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	key := "search:" + strings.ToLower(query)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached []SearchResult
		if json.Unmarshal([]byte(raw), &cached) == nil {
			return cached, nil
		}
	}

	var coins []coingecko.SearchCoin
	err := retry.Do(ctx, s.policy, s.logger, func(ctx context.Context, attempt int) error {
		c, err := s.source.Search(ctx, query)
		if err != nil {
			return classify(err)
		}
		coins = c
		return nil
	})
	if err != nil {
		s.logger.Warn("token search failed", zap.String("query", query), zap.Error(err))
		return nil, xe.Wrap(xe.ErrUpstream, "token search: %v", err)
	}

	results := make([]SearchResult, 0, len(coins))
	for _, c := range coins {
		results = append(results, SearchResult{
			ID:     c.ID,
			Name:   c.Name,
			Symbol: strings.ToUpper(c.Symbol),
			Rank:   c.MarketCapRank,
			Image:  c.Large,
		})
	}
	if raw, err := json.Marshal(results); err == nil {
		_ = s.cache.Set(ctx, key, string(raw))
	}
	return results, nil
}

// Invalidate 清除代币的价格与图标缓存
func (s *PriceService) Invalidate(ctx context.Context, id string) error {
	id = strings.TrimSpace(strings.ToLower(id))
	if err := s.cache.Invalidate(ctx, s.priceKey(id)); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, logoKey(id))
}

// classify 仅限流与服务端错误、网络错误参与重试
func classify(err error) error {
	var apiErr *coingecko.APIError
	if errors.As(err, &apiErr) && !apiErr.Retryable() {
		return retry.Permanent(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Permanent(err)
	}
	return err
}
