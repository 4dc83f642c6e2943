package model

import (
	"time"

	"gorm.io/gorm"
)

// 通知目标范围
const (
	TargetScopeBuilding = "BUILDING"
	TargetScopeUser     = "USER"
)

// Notification 通知消息表 — 对应 notifications
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey"               json:"notification_id"`
	SenderRole     string    `gorm:"type:varchar(20);not null"          json:"sender_role"`
	SenderID       string    `gorm:"type:uuid;not null"                 json:"sender_id"`
	TargetScope    string    `gorm:"type:varchar(20);not null"          json:"target_scope"`
	TargetID       *string   `gorm:"type:uuid"                          json:"target_id,omitempty"`
	Type           string    `gorm:"type:varchar(50);not null"          json:"type"`
	Title          string    `gorm:"type:varchar(200);not null"         json:"title"`
	Content        string    `gorm:"type:text;not null"                 json:"content"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// BeforeCreate 生成主键
func (n *Notification) BeforeCreate(*gorm.DB) error {
	assignID(&n.NotificationID)
	return nil
}

// NotificationRecipient 通知接收人 — 对应 notification_recipients
type NotificationRecipient struct {
	RecipientRowID string     `gorm:"type:uuid;primaryKey"               json:"id"`
	NotificationID string     `gorm:"type:uuid;not null;index"           json:"notification_id"`
	RecipientID    string     `gorm:"type:uuid;not null;index"           json:"recipient_id"`
	IsRead         bool       `gorm:"not null;default:false"             json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联
	Notification *Notification `gorm:"foreignKey:NotificationID;references:NotificationID" json:"notification,omitempty"`
}

// TableName 指定表名
func (NotificationRecipient) TableName() string { return "notification_recipients" }

// BeforeCreate 生成主键
func (r *NotificationRecipient) BeforeCreate(*gorm.DB) error {
	assignID(&r.RecipientRowID)
	return nil
}
