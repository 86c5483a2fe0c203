package models

import (
	"fmt"
	"time"

	"github.com/dushixiang/coinbook/pkg/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ClaimDetailsVersion 当前领取明细结构版本
const ClaimDetailsVersion = 1

// ClaimDetails 领取明细，以 JSON 存储
type ClaimDetails struct {
	Version int                 `json:"version"`
	Tokens  ledger.TokenAmounts `json:"tokens"`
}

// NewClaimDetails 构造当前版本的领取明细
func NewClaimDetails(tokens ledger.TokenAmounts) ClaimDetails {
	if tokens == nil {
		tokens = ledger.TokenAmounts{}
	}
	return ClaimDetails{Version: ClaimDetailsVersion, Tokens: tokens}
}

// Validate 写入前校验明细结构
func (d ClaimDetails) Validate() error {
	if d.Version != ClaimDetailsVersion {
		return fmt.Errorf("unsupported claim details version %d", d.Version)
	}
	for symbol, amount := range d.Tokens {
		if symbol == "" {
			return fmt.Errorf("empty token symbol")
		}
		if amount.IsNegative() {
			return fmt.Errorf("negative amount %s for %s", amount, symbol)
		}
	}
	return nil
}

// Claim 按日聚合的代币领取记录，每个 UTC 日期最多一条
type Claim struct {
	ID            string                           `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date          time.Time                        `gorm:"not null" json:"date"`                             // 领取日期（UTC 正午）
	Day           string                           `gorm:"type:varchar(10);not null;uniqueIndex" json:"day"` // 日期键 YYYY-MM-DD
	Details       datatypes.JSONType[ClaimDetails] `json:"details"`
	TotalAmount   decimal.Decimal                  `gorm:"size:100;not null" json:"total_amount"` // 始终等于明细之和
	HeldForTaxes  bool                             `gorm:"not null;default:false" json:"held_for_taxes"`
	TaxAmount     *decimal.Decimal                 `gorm:"size:100" json:"tax_amount"`
	TaxPercentage *decimal.Decimal                 `gorm:"size:100" json:"tax_percentage"`
	Txn           string                           `gorm:"type:varchar(128)" json:"txn"` // 外部交易哈希
	CreatedAt     time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Claim) TableName() string {
	return "claims"
}

// TokenClaims 领取的代币数量
func (c *Claim) TokenClaims() ledger.TokenAmounts {
	tokens := c.Details.Data().Tokens
	if tokens == nil {
		return ledger.TokenAmounts{}
	}
	return tokens
}

// SetTokenClaims 写入代币明细并同步总额
func (c *Claim) SetTokenClaims(tokens ledger.TokenAmounts) {
	c.Details = datatypes.NewJSONType(NewClaimDetails(tokens))
	c.TotalAmount = tokens.Sum()
}

// SetDate 归一日期并同步日期键
func (c *Claim) SetDate(t time.Time) {
	c.Date = ledger.NormalizeDay(t)
	c.Day = ledger.DayKey(c.Date)
}

// ApplyTaxHold 写入预留税款字段
func (c *Claim) ApplyTaxHold(hold ledger.TaxHold) {
	c.HeldForTaxes = hold.HeldForTaxes
	c.TaxAmount = hold.TaxAmount
	c.TaxPercentage = hold.TaxPercentage
}

// NetAmount 扣除预留税款后的净额
func (c *Claim) NetAmount() decimal.Decimal {
	return ledger.NetAfterTax(c.TotalAmount, c.TaxAmount)
}
