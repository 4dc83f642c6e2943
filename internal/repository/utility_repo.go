package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
)

// ════════════════════════════════════════
// 水电周期
// ════════════════════════════════════════

// UtilityCycleRepository 水电周期数据访问接口
type UtilityCycleRepository interface {
	Create(ctx context.Context, cycle *model.UtilityInvoiceCycle) error
	GetByID(ctx context.Context, id string) (*model.UtilityInvoiceCycle, error)
	// GetByIDForUpdate SELECT ... FOR UPDATE，必须在事务内调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.UtilityInvoiceCycle, error)
	GetByMonthYear(ctx context.Context, month, year int) (*model.UtilityInvoiceCycle, error)
	List(ctx context.Context, year int) ([]model.UtilityInvoiceCycle, error)
	// UpdateStatus 带乐观锁的状态迁移，version 不匹配返回 ErrOptimisticLock
	UpdateStatus(ctx context.Context, id string, version int, status string, updatedBy string) error
	// MarkPublished 仅当周期尚未发布时生效，返回是否真正更新
	MarkPublished(ctx context.Context, id string, publishedBy string, at time.Time) (bool, error)
}

type utilityCycleRepo struct {
	db *gorm.DB
}

// NewUtilityCycleRepo 创建 UtilityCycleRepository 实例
func NewUtilityCycleRepo(db *gorm.DB) UtilityCycleRepository {
	return &utilityCycleRepo{db: db}
}

func (r *utilityCycleRepo) Create(ctx context.Context, cycle *model.UtilityInvoiceCycle) error {
	return r.db.WithContext(ctx).Create(cycle).Error
}

func (r *utilityCycleRepo) GetByID(ctx context.Context, id string) (*model.UtilityInvoiceCycle, error) {
	var cycle model.UtilityInvoiceCycle
	err := r.db.WithContext(ctx).
		Where("cycle_id = ?", id).
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *utilityCycleRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.UtilityInvoiceCycle, error) {
	var cycle model.UtilityInvoiceCycle
	db := r.db.WithContext(ctx)
	// sqlite 不支持行锁，依赖其库级写锁
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := db.Where("cycle_id = ?", id).First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *utilityCycleRepo) GetByMonthYear(ctx context.Context, month, year int) (*model.UtilityInvoiceCycle, error) {
	var cycle model.UtilityInvoiceCycle
	err := r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *utilityCycleRepo) List(ctx context.Context, year int) ([]model.UtilityInvoiceCycle, error) {
	var cycles []model.UtilityInvoiceCycle
	db := r.db.WithContext(ctx)
	if year > 0 {
		db = db.Where("year = ?", year)
	}
	err := db.Order("year DESC, month DESC").Find(&cycles).Error
	return cycles, err
}

func (r *utilityCycleRepo) UpdateStatus(ctx context.Context, id string, version int, status string, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.UtilityInvoiceCycle{}).
		Where("cycle_id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *utilityCycleRepo) MarkPublished(ctx context.Context, id string, publishedBy string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.UtilityInvoiceCycle{}).
		Where("cycle_id = ? AND status <> ?", id, model.CycleStatusPublished).
		Updates(map[string]interface{}{
			"status":       model.CycleStatusPublished,
			"published_at": at,
			"published_by": publishedBy,
			"version":      gorm.Expr("version + 1"),
			"updated_by":   publishedBy,
			"updated_at":   at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ════════════════════════════════════════
// 房间水电账单
// ════════════════════════════════════════

// UtilityInvoiceRepository 房间水电账单数据访问接口
type UtilityInvoiceRepository interface {
	BatchCreate(ctx context.Context, rows []model.UtilityInvoice) error
	GetByCycleAndRoom(ctx context.Context, cycleID, roomID string) (*model.UtilityInvoice, error)
	// Upsert 按 (cycle_id, room_id) 写入读数，已存在则覆盖读数与金额
	Upsert(ctx context.Context, row *model.UtilityInvoice) error
	// GetPreviousReading 同一房间在 (year, month) 之前最近一个已抄表周期的账单
	GetPreviousReading(ctx context.Context, roomID string, month, year int) (*model.UtilityInvoice, error)
	ListByCycle(ctx context.Context, cycleID, buildingID string) ([]model.UtilityInvoice, error)
	CountUnrecorded(ctx context.Context, cycleID string) (int64, error)
	MarkPublished(ctx context.Context, id string, invoiceID string) error
}

type utilityInvoiceRepo struct {
	db *gorm.DB
}

// NewUtilityInvoiceRepo 创建 UtilityInvoiceRepository 实例
func NewUtilityInvoiceRepo(db *gorm.DB) UtilityInvoiceRepository {
	return &utilityInvoiceRepo{db: db}
}

func (r *utilityInvoiceRepo) BatchCreate(ctx context.Context, rows []model.UtilityInvoice) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, 200).Error
}

func (r *utilityInvoiceRepo) GetByCycleAndRoom(ctx context.Context, cycleID, roomID string) (*model.UtilityInvoice, error) {
	var row model.UtilityInvoice
	err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND room_id = ?", cycleID, roomID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *utilityInvoiceRepo) Upsert(ctx context.Context, row *model.UtilityInvoice) error {
	return r.db.WithContext(ctx).
		Omit("Room", "Cycle").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cycle_id"}, {Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"electricity_old", "electricity_new", "water_old", "water_new",
				"amount", "status", "recorded_at", "recorded_by", "updated_by", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *utilityInvoiceRepo) GetPreviousReading(ctx context.Context, roomID string, month, year int) (*model.UtilityInvoice, error) {
	var row model.UtilityInvoice
	err := r.db.WithContext(ctx).
		Joins("JOIN utility_invoice_cycles c ON c.cycle_id = utility_invoices.cycle_id").
		Where("utility_invoices.room_id = ?", roomID).
		Where("utility_invoices.electricity_new IS NOT NULL AND utility_invoices.water_new IS NOT NULL").
		Where("c.year < ? OR (c.year = ? AND c.month < ?)", year, year, month).
		Order("c.year DESC").
		Order("c.month DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *utilityInvoiceRepo) ListByCycle(ctx context.Context, cycleID, buildingID string) ([]model.UtilityInvoice, error) {
	var rows []model.UtilityInvoice
	db := r.db.WithContext(ctx).
		Preload("Room.Building").
		Joins("JOIN rooms ON rooms.room_id = utility_invoices.room_id").
		Where("utility_invoices.cycle_id = ?", cycleID)
	if buildingID != "" {
		db = db.Where("rooms.building_id = ?", buildingID)
	}
	err := db.Order("rooms.building_id ASC, rooms.room_number ASC").Find(&rows).Error
	return rows, err
}

func (r *utilityInvoiceRepo) CountUnrecorded(ctx context.Context, cycleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UtilityInvoice{}).
		Where("cycle_id = ?", cycleID).
		Where("electricity_new IS NULL OR water_new IS NULL").
		Count(&count).Error
	return count, err
}

func (r *utilityInvoiceRepo) MarkPublished(ctx context.Context, id string, invoiceID string) error {
	return r.db.WithContext(ctx).
		Model(&model.UtilityInvoice{}).
		Where("utility_invoice_id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.UtilityStatusPublished,
			"invoice_id": invoiceID,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}
