package repo

import (
	"context"
	"time"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

// DateRange 可选的日期过滤，零值表示不限
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) apply(db *gorm.DB) *gorm.DB {
	if !r.From.IsZero() {
		db = db.Where("date >= ?", r.From)
	}
	if !r.To.IsZero() {
		db = db.Where("date < ?", r.To)
	}
	return db
}

func NewExpenseRepo(db *gorm.DB) *ExpenseRepo {
	return &ExpenseRepo{
		Repository: orz.NewRepository[models.Expense, string](db),
	}
}

type ExpenseRepo struct {
	orz.Repository[models.Expense, string]
}

// FindInRange 按日期倒序获取范围内的支出
func (r ExpenseRepo) FindInRange(ctx context.Context, rng DateRange) ([]models.Expense, error) {
	var items []models.Expense
	db := rng.apply(r.GetDB(ctx).Model(&models.Expense{}))
	err := db.Order("date DESC").Find(&items).Error
	return items, err
}

func NewIncomeRepo(db *gorm.DB) *IncomeRepo {
	return &IncomeRepo{
		Repository: orz.NewRepository[models.Income, string](db),
	}
}

type IncomeRepo struct {
	orz.Repository[models.Income, string]
}

// FindInRange 按日期倒序获取范围内的收入
func (r IncomeRepo) FindInRange(ctx context.Context, rng DateRange) ([]models.Income, error) {
	var items []models.Income
	db := rng.apply(r.GetDB(ctx).Model(&models.Income{}))
	err := db.Order("date DESC").Find(&items).Error
	return items, err
}
