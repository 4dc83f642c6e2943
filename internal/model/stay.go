package model

import (
	"time"

	"gorm.io/gorm"
)

// 住宿状态
const (
	StayStatusActive    = "ACTIVE"
	StayStatusEnded     = "ENDED"
	StayStatusCancelled = "CANCELLED"
)

// Stay 住宿记录 — 对应 stays
// 每个学生最多一条 ACTIVE 记录（迁移中的部分唯一索引保证）
type Stay struct {
	StayID     string     `gorm:"type:uuid;primaryKey"                       json:"stay_id"`
	StudentID  string     `gorm:"type:uuid;not null;index"                   json:"student_id"`
	RoomID     string     `gorm:"type:uuid;not null;index"                   json:"room_id"`
	SemesterID string     `gorm:"type:uuid;not null;index"                   json:"semester_id"`
	StartDate  time.Time  `gorm:"type:date;not null"                         json:"start_date"`
	EndDate    *time.Time `gorm:"type:date"                                  json:"end_date,omitempty"`
	Status     string     `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	BaseModel

	// 关联
	Student  *User     `gorm:"foreignKey:StudentID;references:UserID"      json:"student,omitempty"`
	Room     *Room     `gorm:"foreignKey:RoomID;references:RoomID"         json:"room,omitempty"`
	Semester *Semester `gorm:"foreignKey:SemesterID;references:SemesterID" json:"semester,omitempty"`
}

// TableName 指定表名
func (Stay) TableName() string { return "stays" }

// BeforeCreate 生成主键
func (s *Stay) BeforeCreate(*gorm.DB) error {
	assignID(&s.StayID)
	return nil
}
