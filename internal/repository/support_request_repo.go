package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
)

// SupportRequestFilter 支持请求筛选条件
type SupportRequestFilter struct {
	StudentID string
	Status    string
	Type      string
}

// SupportRequestRepository 支持请求数据访问接口
type SupportRequestRepository interface {
	Create(ctx context.Context, req *model.SupportRequest) error
	GetByID(ctx context.Context, id string) (*model.SupportRequest, error)
	Update(ctx context.Context, req *model.SupportRequest) error
	Delete(ctx context.Context, id string, deletedBy string) error
	List(ctx context.Context, filter SupportRequestFilter, offset, limit int) ([]model.SupportRequest, int64, error)
}

type supportRequestRepo struct {
	db *gorm.DB
}

// NewSupportRequestRepo 创建 SupportRequestRepository 实例
func NewSupportRequestRepo(db *gorm.DB) SupportRequestRepository {
	return &supportRequestRepo{db: db}
}

func (r *supportRequestRepo) Create(ctx context.Context, req *model.SupportRequest) error {
	return r.db.WithContext(ctx).Omit("Student").Create(req).Error
}

func (r *supportRequestRepo) GetByID(ctx context.Context, id string) (*model.SupportRequest, error) {
	var req model.SupportRequest
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("support_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *supportRequestRepo) Update(ctx context.Context, req *model.SupportRequest) error {
	return r.db.WithContext(ctx).Omit("Student").Save(req).Error
}

func (r *supportRequestRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.SupportRequest{}).
		Where("support_request_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *supportRequestRepo) List(ctx context.Context, filter SupportRequestFilter, offset, limit int) ([]model.SupportRequest, int64, error) {
	var reqs []model.SupportRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SupportRequest{})
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Student").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reqs).Error
	return reqs, total, err
}
