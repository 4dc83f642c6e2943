package model

import (
	"time"

	"gorm.io/gorm"
)

// 学期类型
const (
	TermFirst  = "1"
	TermSecond = "2"
	TermSummer = "SUMMER"
)

// Semester 学期表 — 对应 semesters
// 同一时刻最多一个 is_active=true（迁移中的部分唯一索引保证）
type Semester struct {
	SemesterID               string     `gorm:"type:uuid;primaryKey"       json:"semester_id"`
	Term                     string     `gorm:"type:varchar(10);not null"  json:"term"`
	AcademicYear             string     `gorm:"type:varchar(20);not null"  json:"academic_year"` // 2025-2026
	StartDate                time.Time  `gorm:"type:date;not null"         json:"start_date"`
	EndDate                  time.Time  `gorm:"type:date;not null"         json:"end_date"`
	RegistrationStart        *time.Time `gorm:"type:date"                  json:"registration_start,omitempty"`
	RegistrationEnd          *time.Time `gorm:"type:date"                  json:"registration_end,omitempty"`
	SpecialRegistrationStart *time.Time `gorm:"type:date"                  json:"special_registration_start,omitempty"`
	SpecialRegistrationEnd   *time.Time `gorm:"type:date"                  json:"special_registration_end,omitempty"`
	RenewalStart             *time.Time `gorm:"type:date"                  json:"renewal_start,omitempty"`
	RenewalEnd               *time.Time `gorm:"type:date"                  json:"renewal_end,omitempty"`
	IsActive                 bool       `gorm:"not null;default:false"     json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// BeforeCreate 生成主键
func (s *Semester) BeforeCreate(*gorm.DB) error {
	assignID(&s.SemesterID)
	return nil
}
