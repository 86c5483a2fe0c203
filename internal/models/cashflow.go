package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense 支出记录
type Expense struct {
	ID          string          `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Category    string          `gorm:"type:varchar(64);not null;index" json:"category"`
	Description string          `gorm:"type:varchar(500)" json:"description"`
	Amount      decimal.Decimal `gorm:"size:100;not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Expense) TableName() string {
	return "expenses"
}

// Income 收入记录
type Income struct {
	ID          string          `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Source      string          `gorm:"type:varchar(64);not null;index" json:"source"`
	Description string          `gorm:"type:varchar(500)" json:"description"`
	Amount      decimal.Decimal `gorm:"size:100;not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Income) TableName() string {
	return "incomes"
}
