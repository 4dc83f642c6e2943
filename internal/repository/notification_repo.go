package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	CreateRecipients(ctx context.Context, rows []model.NotificationRecipient) error
	GetRecipient(ctx context.Context, id string) (*model.NotificationRecipient, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]model.NotificationRecipient, int64, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) CreateRecipients(ctx context.Context, rows []model.NotificationRecipient) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Notification").Create(&rows).Error
}

func (r *notificationRepo) GetRecipient(ctx context.Context, id string) (*model.NotificationRecipient, error) {
	var row model.NotificationRecipient
	err := r.db.WithContext(ctx).
		Preload("Notification").
		Where("recipient_row_id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]model.NotificationRecipient, int64, error) {
	var rows []model.NotificationRecipient
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.NotificationRecipient{}).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Notification").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.NotificationRecipient{}).
		Where("recipient_row_id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		}).Error
}
