package repo

import (
	"context"
	"time"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{
		Repository: orz.NewRepository[models.User, string](db),
	}
}

// UserRepo 账户仓储
type UserRepo struct {
	orz.Repository[models.User, string]
}

// FindByUsername 根据用户名查找用户
func (r UserRepo) FindByUsername(ctx context.Context, username string) (m models.User, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("username = ?", username).
		First(&m).Error
	return m, err
}

// UpdateLastLogin 更新最后登录信息
func (r UserRepo) UpdateLastLogin(ctx context.Context, id string, ip string) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": time.Now(),
			"last_login_ip": ip,
		}).Error
}

// UpdatePassword 更新密码
func (r UserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

// CountUsers 统计用户数量
func (r UserRepo) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.GetDB(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
