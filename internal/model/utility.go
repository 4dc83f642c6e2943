package model

import (
	"time"

	"gorm.io/gorm"
)

// 水电周期状态
const (
	CycleStatusDraft     = "DRAFT"
	CycleStatusReady     = "READY"
	CycleStatusPublished = "PUBLISHED"
)

// 水电账单行状态
const (
	UtilityStatusUnrecorded = "UNRECORDED"
	UtilityStatusRecorded   = "RECORDED"
	UtilityStatusPublished  = "PUBLISHED"
)

// UtilityInvoiceCycle 水电抄表周期 — 对应 utility_invoice_cycles，(month, year) 唯一
type UtilityInvoiceCycle struct {
	CycleID     string     `gorm:"type:uuid;primaryKey"                       json:"cycle_id"`
	Month       int        `gorm:"not null;uniqueIndex:ux_cycle_month_year"   json:"month"`
	Year        int        `gorm:"not null;uniqueIndex:ux_cycle_month_year"   json:"year"`
	Status      string     `gorm:"type:varchar(20);not null;default:'DRAFT'"  json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	PublishedBy *string    `gorm:"type:uuid"                                  json:"published_by,omitempty"`
	Version     int        `gorm:"not null;default:1"                         json:"version"`
	BaseModel
}

// TableName 指定表名
func (UtilityInvoiceCycle) TableName() string { return "utility_invoice_cycles" }

// BeforeCreate 生成主键
func (c *UtilityInvoiceCycle) BeforeCreate(*gorm.DB) error {
	assignID(&c.CycleID)
	return nil
}

// UtilityInvoice 房间水电账单 — 对应 utility_invoices，(cycle_id, room_id) 唯一
// 抄表前四个读数均为 NULL
type UtilityInvoice struct {
	UtilityInvoiceID string     `gorm:"type:uuid;primaryKey"                            json:"utility_invoice_id"`
	CycleID          string     `gorm:"type:uuid;not null;uniqueIndex:ux_utility_cycle_room" json:"cycle_id"`
	RoomID           string     `gorm:"type:uuid;not null;uniqueIndex:ux_utility_cycle_room" json:"room_id"`
	ElectricityOld   *int64     `json:"electricity_old"`
	ElectricityNew   *int64     `json:"electricity_new"`
	WaterOld         *int64     `json:"water_old"`
	WaterNew         *int64     `json:"water_new"`
	Amount           int64      `gorm:"not null;default:0"                              json:"amount"`
	Status           string     `gorm:"type:varchar(20);not null;default:'UNRECORDED'"  json:"status"`
	InvoiceID        *string    `gorm:"type:uuid"                                       json:"invoice_id,omitempty"`
	RecordedAt       *time.Time `json:"recorded_at,omitempty"`
	RecordedBy       *string    `gorm:"type:uuid"                                       json:"recorded_by,omitempty"`
	BaseModel

	// 关联
	Room  *Room                `gorm:"foreignKey:RoomID;references:RoomID"   json:"room,omitempty"`
	Cycle *UtilityInvoiceCycle `gorm:"foreignKey:CycleID;references:CycleID" json:"cycle,omitempty"`
}

// TableName 指定表名
func (UtilityInvoice) TableName() string { return "utility_invoices" }

// BeforeCreate 生成主键
func (u *UtilityInvoice) BeforeCreate(*gorm.DB) error {
	assignID(&u.UtilityInvoiceID)
	return nil
}

// IsRecorded 新读数均已录入
func (u *UtilityInvoice) IsRecorded() bool {
	return u.ElectricityNew != nil && u.WaterNew != nil
}
