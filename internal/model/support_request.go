package model

import (
	"time"

	"gorm.io/gorm"
)

// 支持请求状态
const (
	SupportStatusPending    = "PENDING"
	SupportStatusProcessing = "PROCESSING"
	SupportStatusDone       = "DONE"
	SupportStatusRejected   = "REJECTED"
)

// SupportRequest 学生支持请求 — 对应 support_requests
type SupportRequest struct {
	SupportRequestID string     `gorm:"type:uuid;primaryKey"                         json:"support_request_id"`
	StudentID        string     `gorm:"type:uuid;not null;index"                     json:"student_id"`
	Type             string     `gorm:"type:varchar(20);not null"                    json:"type"` // REPAIR | COMPLAINT | PROPOSAL | OTHER
	Title            string     `gorm:"type:varchar(200);not null"                   json:"title"`
	Content          string     `gorm:"type:text;not null"                           json:"content"`
	AttachmentPath   *string    `gorm:"type:varchar(255)"                            json:"attachment_path,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'PENDING'"  json:"status"`
	ManagerID        *string    `gorm:"type:uuid"                                    json:"manager_id,omitempty"`
	ResponseContent  *string    `gorm:"type:text"                                    json:"response_content,omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	SoftDeleteModel

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (SupportRequest) TableName() string { return "support_requests" }

// BeforeCreate 生成主键
func (r *SupportRequest) BeforeCreate(*gorm.DB) error {
	assignID(&r.SupportRequestID)
	return nil
}
