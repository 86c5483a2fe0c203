package repo

import (
	"context"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewClaimRepo(db *gorm.DB) *ClaimRepo {
	return &ClaimRepo{
		Repository: orz.NewRepository[models.Claim, string](db),
	}
}

type ClaimRepo struct {
	orz.Repository[models.Claim, string]
}

// FindByDay 根据日期键查找当日领取记录
func (r ClaimRepo) FindByDay(ctx context.Context, day string) (m models.Claim, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("day = ?", day).
		First(&m).Error
	return m, err
}

// FindAllOrderByDateDesc 按日期倒序获取所有领取记录
func (r ClaimRepo) FindAllOrderByDateDesc(ctx context.Context) ([]models.Claim, error) {
	var claims []models.Claim
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("day DESC").
		Find(&claims).Error
	return claims, err
}

// FindBetweenDays 获取日期键范围内的领取记录（含两端）
func (r ClaimRepo) FindBetweenDays(ctx context.Context, from, to string) ([]models.Claim, error) {
	var claims []models.Claim
	db := r.GetDB(ctx).Table(r.GetTableName())
	if from != "" {
		db = db.Where("day >= ?", from)
	}
	if to != "" {
		db = db.Where("day <= ?", to)
	}
	err := db.Order("day DESC").Find(&claims).Error
	return claims, err
}
