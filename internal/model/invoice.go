package model

import (
	"time"

	"gorm.io/gorm"
)

// 账单类别
const (
	InvoiceCategoryRoomFee    = "ROOM_FEE"
	InvoiceCategoryUtilityFee = "UTILITY_FEE"
	InvoiceCategoryOther      = "OTHER"
)

// 账单状态
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusPublished = "PUBLISHED"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusOverdue   = "OVERDUE"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice 账单总表 — 对应 invoices
type Invoice struct {
	InvoiceID        string     `gorm:"type:uuid;primaryKey"                      json:"invoice_id"`
	InvoiceCode      string     `gorm:"type:varchar(20);not null;uniqueIndex"     json:"invoice_code"`
	Category         string     `gorm:"type:varchar(20);not null;index"           json:"category"`
	TotalAmount      int64      `gorm:"not null"                                  json:"total_amount"`
	Status           string     `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	StudentID        *string    `gorm:"type:uuid;index"                           json:"student_id,omitempty"`
	RoomID           *string    `gorm:"type:uuid;index"                           json:"room_id,omitempty"`
	SemesterID       *string    `gorm:"type:uuid"                                 json:"semester_id,omitempty"`
	CycleID          *string    `gorm:"type:uuid"                                 json:"cycle_id,omitempty"`
	UtilityInvoiceID *string    `gorm:"type:uuid;uniqueIndex"                     json:"utility_invoice_id,omitempty"`
	Description      string     `gorm:"type:varchar(255)"                         json:"description,omitempty"`
	DueDate          *time.Time `gorm:"type:date"                                 json:"due_date,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Invoice) TableName() string { return "invoices" }

// BeforeCreate 生成主键
func (i *Invoice) BeforeCreate(*gorm.DB) error {
	assignID(&i.InvoiceID)
	return nil
}

// RoomFeeInvoice 住宿费账单明细 — 对应 room_fee_invoices，每条住宿记录最多一条
type RoomFeeInvoice struct {
	RoomFeeInvoiceID string    `gorm:"type:uuid;primaryKey"              json:"room_fee_invoice_id"`
	InvoiceID        string    `gorm:"type:uuid;not null;uniqueIndex"    json:"invoice_id"`
	StayID           string    `gorm:"type:uuid;not null;uniqueIndex"    json:"stay_id"`
	StudentID        string    `gorm:"type:uuid;not null"                json:"student_id"`
	RoomID           string    `gorm:"type:uuid;not null"                json:"room_id"`
	SemesterID       string    `gorm:"type:uuid;not null;index"          json:"semester_id"`
	PricePerSemester int64     `gorm:"not null"                          json:"price_per_semester"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联
	Invoice *Invoice `gorm:"foreignKey:InvoiceID;references:InvoiceID" json:"invoice,omitempty"`
}

// TableName 指定表名
func (RoomFeeInvoice) TableName() string { return "room_fee_invoices" }

// BeforeCreate 生成主键
func (r *RoomFeeInvoice) BeforeCreate(*gorm.DB) error {
	assignID(&r.RoomFeeInvoiceID)
	return nil
}

// InvoiceSequence 发票编号计数器 — 对应 invoice_sequences，(prefix, year_month) 为主键
type InvoiceSequence struct {
	Prefix    string    `gorm:"type:varchar(10);primaryKey"        json:"prefix"`
	YearMonth string    `gorm:"type:char(6);primaryKey"            json:"year_month"`
	LastValue int64     `gorm:"not null;default:0"                 json:"last_value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (InvoiceSequence) TableName() string { return "invoice_sequences" }
