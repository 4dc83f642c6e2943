package model

import "gorm.io/gorm"

// 用户角色
const (
	RoleStudent = "student"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// IsStaff 管理员或宿舍管理员
func IsStaff(role string) bool {
	return role == RoleManager || role == RoleAdmin
}

// ValidRole 是否为已知角色
func ValidRole(role string) bool {
	return role == RoleStudent || IsStaff(role)
}

// User 用户表 — 对应 users（学生 / 宿舍管理员 / 系统管理员）
type User struct {
	UserID      string  `gorm:"type:uuid;primaryKey"                           json:"user_id"`
	FullName    string  `gorm:"type:varchar(100);not null"                     json:"full_name"`
	Email       string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	StudentCode *string `gorm:"type:varchar(20)"                               json:"student_code,omitempty"`
	Phone       *string `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	Role        string  `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.UserID)
	return nil
}
