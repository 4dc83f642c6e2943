package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"     json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// assignID 主键为空时生成 UUID。
// 迁移脚本中同样有 gen_random_uuid() 默认值，这里保证 ID 在 INSERT 前即可被引用。
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Audit 设置创建/更新人
func (b *BaseModel) Audit(callerID string) {
	if callerID == "" {
		return
	}
	if b.CreatedBy == nil {
		b.CreatedBy = &callerID
	}
	b.UpdatedBy = &callerID
}
