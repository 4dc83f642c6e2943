package model

import (
	"time"

	"gorm.io/gorm"
)

// 房间状态
const (
	RoomStatusAvailable   = "AVAILABLE"
	RoomStatusMaintenance = "MAINTENANCE"
)

// Building 宿舍楼 — 对应 buildings
type Building struct {
	BuildingID string `gorm:"type:uuid;primaryKey"                      json:"building_id"`
	Name       string `gorm:"type:varchar(100);not null;uniqueIndex"    json:"name"`
	Gender     string `gorm:"type:varchar(10);not null;default:'MIXED'" json:"gender"` // MALE | FEMALE | MIXED
	Address    string `gorm:"type:varchar(255)"                         json:"address,omitempty"`
	SoftDeleteModel

	// 关联
	Managers []BuildingManager `gorm:"foreignKey:BuildingID;references:BuildingID" json:"managers,omitempty"`
}

// TableName 指定表名
func (Building) TableName() string { return "buildings" }

// BeforeCreate 生成主键
func (b *Building) BeforeCreate(*gorm.DB) error {
	assignID(&b.BuildingID)
	return nil
}

// BuildingManager 宿舍楼管理员关系表 — 对应 building_managers
type BuildingManager struct {
	BuildingID string    `gorm:"type:uuid;primaryKey"                 json:"building_id"`
	ManagerID  string    `gorm:"type:uuid;primaryKey"                 json:"manager_id"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"   json:"created_at"`

	// 关联
	Manager *User `gorm:"foreignKey:ManagerID;references:UserID" json:"manager,omitempty"`
}

// TableName 指定表名
func (BuildingManager) TableName() string { return "building_managers" }

// Room 房间 — 对应 rooms
type Room struct {
	RoomID           string `gorm:"type:uuid;primaryKey"                          json:"room_id"`
	BuildingID       string `gorm:"type:uuid;not null;index"                      json:"building_id"`
	RoomNumber       string `gorm:"type:varchar(20);not null"                     json:"room_number"`
	Floor            int    `gorm:"not null;default:1"                            json:"floor"`
	Capacity         int    `gorm:"not null"                                      json:"capacity"`
	PricePerSemester int64  `gorm:"not null"                                      json:"price_per_semester"`
	Status           string `gorm:"type:varchar(20);not null;default:'AVAILABLE'" json:"status"`
	SoftDeleteModel

	// 关联
	Building *Building `gorm:"foreignKey:BuildingID;references:BuildingID" json:"building,omitempty"`
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }

// BeforeCreate 生成主键
func (r *Room) BeforeCreate(*gorm.DB) error {
	assignID(&r.RoomID)
	return nil
}
