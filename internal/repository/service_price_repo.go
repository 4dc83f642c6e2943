package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
)

// ServicePriceRepository 服务单价数据访问接口
type ServicePriceRepository interface {
	Create(ctx context.Context, price *model.ServicePrice) error
	// DeactivateByName 将该服务所有生效中的价格置为失效
	DeactivateByName(ctx context.Context, serviceName string) error
	// GetCurrent 生效中且 apply_date 最新的一条（同日取最新创建）
	GetCurrent(ctx context.Context, serviceName string) (*model.ServicePrice, error)
	List(ctx context.Context, serviceName string, includeInactive bool) ([]model.ServicePrice, error)
}

type servicePriceRepo struct {
	db *gorm.DB
}

// NewServicePriceRepo 创建 ServicePriceRepository 实例
func NewServicePriceRepo(db *gorm.DB) ServicePriceRepository {
	return &servicePriceRepo{db: db}
}

func (r *servicePriceRepo) Create(ctx context.Context, price *model.ServicePrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}

func (r *servicePriceRepo) DeactivateByName(ctx context.Context, serviceName string) error {
	return r.db.WithContext(ctx).
		Model(&model.ServicePrice{}).
		Where("service_name = ? AND is_active = ?", serviceName, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *servicePriceRepo) GetCurrent(ctx context.Context, serviceName string) (*model.ServicePrice, error) {
	var price model.ServicePrice
	err := r.db.WithContext(ctx).
		Where("service_name = ? AND is_active = ?", serviceName, true).
		Order("apply_date DESC").
		Order("created_at DESC").
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *servicePriceRepo) List(ctx context.Context, serviceName string, includeInactive bool) ([]model.ServicePrice, error) {
	var prices []model.ServicePrice
	db := r.db.WithContext(ctx)
	if serviceName != "" {
		db = db.Where("service_name = ?", serviceName)
	}
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("service_name ASC, apply_date DESC, created_at DESC").Find(&prices).Error
	return prices, err
}
