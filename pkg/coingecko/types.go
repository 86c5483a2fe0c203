package coingecko

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// CoinImage 代币图标
type CoinImage struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

// Coin 代币元数据
type Coin struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Image  CoinImage `json:"image"`
}

// SearchCoin 搜索结果中的代币
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

type searchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// Prices 代币ID -> 计价货币 -> 价格
type Prices map[string]map[string]decimal.Decimal

// APIError 非 2xx 响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko: status %d: %s", e.StatusCode, e.Body)
}

// Retryable 限流与服务端错误可以重试
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
