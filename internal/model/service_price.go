package model

import (
	"time"

	"gorm.io/gorm"
)

// 服务名称
const (
	ServiceElectricity = "ELECTRICITY"
	ServiceWater       = "WATER"
)

// ServicePrice 服务单价 — 对应 service_prices
// 同一 service_name 保留历史记录，is_active=true 的最新一条为当前价格
type ServicePrice struct {
	ServicePriceID string    `gorm:"type:uuid;primaryKey"        json:"service_price_id"`
	ServiceName    string    `gorm:"type:varchar(30);not null;index" json:"service_name"`
	UnitPrice      int64     `gorm:"not null"                    json:"unit_price"`
	Unit           string    `gorm:"type:varchar(20);not null"   json:"unit"` // kWh | m3
	ApplyDate      time.Time `gorm:"type:date;not null"          json:"apply_date"`
	IsActive       bool      `gorm:"not null;default:true"       json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (ServicePrice) TableName() string { return "service_prices" }

// BeforeCreate 生成主键
func (p *ServicePrice) BeforeCreate(*gorm.DB) error {
	assignID(&p.ServicePriceID)
	return nil
}
