package models

import "gorm.io/gorm"

// AutoMigrate 同步所有表结构
//
// 金额字段以文本保存，各数据库下都保留完整精度，计算只在程序内进行。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Claim{},
		&Trade{}, &TradeHistory{}, &PnlEntry{},
		&Expense{}, &Income{},
	)
}
