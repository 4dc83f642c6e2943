package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
)

// InvoiceFilter 账单列表筛选条件
type InvoiceFilter struct {
	Category      string
	Status        string
	StudentID     string
	RoomID        string
	CycleID       string
	// VisibleRoomID 与 StudentID 同时设置时，额外包含该房间未指定学生的账单（水电费）
	VisibleRoomID string
}

// InvoiceRepository 账单数据访问接口
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	GetByID(ctx context.Context, id string) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, offset, limit int) ([]model.Invoice, int64, error)
	// UpdateStatus 仅当当前状态仍为 fromStatus 时更新，否则返回 ErrOptimisticLock
	UpdateStatus(ctx context.Context, id, fromStatus string, updates map[string]interface{}) error
}

type invoiceRepo struct {
	db *gorm.DB
}

// NewInvoiceRepo 创建 InvoiceRepository 实例
func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepo) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) List(ctx context.Context, filter InvoiceFilter, offset, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Invoice{})
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	switch {
	case filter.StudentID != "" && filter.VisibleRoomID != "":
		db = db.Where("(student_id = ? OR (student_id IS NULL AND room_id = ?))", filter.StudentID, filter.VisibleRoomID)
	case filter.StudentID != "":
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.RoomID != "" {
		db = db.Where("room_id = ?", filter.RoomID)
	}
	if filter.CycleID != "" {
		db = db.Where("cycle_id = ?", filter.CycleID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id, fromStatus string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("invoice_id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// ════════════════════════════════════════
// 住宿费账单明细
// ════════════════════════════════════════

// RoomFeeInvoiceRepository 住宿费账单明细数据访问接口
type RoomFeeInvoiceRepository interface {
	Create(ctx context.Context, row *model.RoomFeeInvoice) error
	// ListBilledStayIDs 学期内已出住宿费账单的 stay_id
	ListBilledStayIDs(ctx context.Context, semesterID string) ([]string, error)
}

type roomFeeInvoiceRepo struct {
	db *gorm.DB
}

// NewRoomFeeInvoiceRepo 创建 RoomFeeInvoiceRepository 实例
func NewRoomFeeInvoiceRepo(db *gorm.DB) RoomFeeInvoiceRepository {
	return &roomFeeInvoiceRepo{db: db}
}

func (r *roomFeeInvoiceRepo) Create(ctx context.Context, row *model.RoomFeeInvoice) error {
	return r.db.WithContext(ctx).Omit("Invoice").Create(row).Error
}

func (r *roomFeeInvoiceRepo) ListBilledStayIDs(ctx context.Context, semesterID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.RoomFeeInvoice{}).
		Where("semester_id = ?", semesterID).
		Pluck("stay_id", &ids).Error
	return ids, err
}

// ════════════════════════════════════════
// 账单编号计数器
// ════════════════════════════════════════

// InvoiceSequenceRepository 账单编号序列
type InvoiceSequenceRepository interface {
	// Next 原子地递增 (prefix, yearMonth) 计数器并返回新值（首次为 1）
	Next(ctx context.Context, prefix, yearMonth string) (int64, error)
}

type invoiceSequenceRepo struct {
	db *gorm.DB
}

// NewInvoiceSequenceRepo 创建 InvoiceSequenceRepository 实例
func NewInvoiceSequenceRepo(db *gorm.DB) InvoiceSequenceRepository {
	return &invoiceSequenceRepo{db: db}
}

const nextSequenceSQL = `
INSERT INTO invoice_sequences (prefix, year_month, last_value, updated_at)
VALUES (?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT (prefix, year_month)
DO UPDATE SET last_value = invoice_sequences.last_value + 1, updated_at = CURRENT_TIMESTAMP
RETURNING last_value`

func (r *invoiceSequenceRepo) Next(ctx context.Context, prefix, yearMonth string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).
		Raw(nextSequenceSQL, prefix, yearMonth).
		Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
