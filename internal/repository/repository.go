package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User            UserRepository
	Semester        SemesterRepository
	Building        BuildingRepository
	Room            RoomRepository
	Stay            StayRepository
	ServicePrice    ServicePriceRepository
	UtilityCycle    UtilityCycleRepository
	UtilityInvoice  UtilityInvoiceRepository
	Invoice         InvoiceRepository
	RoomFeeInvoice  RoomFeeInvoiceRepository
	InvoiceSequence InvoiceSequenceRepository
	SupportRequest  SupportRequestRepository
	Notification    NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		User:            NewUserRepo(db),
		Semester:        NewSemesterRepo(db),
		Building:        NewBuildingRepo(db),
		Room:            NewRoomRepo(db),
		Stay:            NewStayRepo(db),
		ServicePrice:    NewServicePriceRepo(db),
		UtilityCycle:    NewUtilityCycleRepo(db),
		UtilityInvoice:  NewUtilityInvoiceRepo(db),
		Invoice:         NewInvoiceRepo(db),
		RoomFeeInvoice:  NewRoomFeeInvoiceRepo(db),
		InvoiceSequence: NewInvoiceSequenceRepo(db),
		SupportRequest:  NewSupportRequestRepo(db),
		Notification:    NewNotificationRepo(db),
	}
}

// Transaction 在同一数据库事务中执行 fn，fn 收到的聚合内所有 Repository 共享该事务。
// fn 返回错误时整体回滚。
// 聚合未绑定 *gorm.DB（单元测试中手工组装 mock）时直接以自身调用 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// DB 返回底层连接（健康检查用）
func (r *Repository) DB() *gorm.DB {
	return r.db
}
