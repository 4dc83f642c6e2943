package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
)

// RoomFilter 房间列表筛选条件
type RoomFilter struct {
	BuildingID string
	Status     string
}

// RoomRepository 房间数据访问接口
type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	List(ctx context.Context, filter RoomFilter) ([]model.Room, error)
	// ListBillable 所有非维修中的房间，用于创建水电周期
	ListBillable(ctx context.Context) ([]model.Room, error)
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepo 创建 RoomRepository 实例
func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).
		Preload("Building").
		Where("room_id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) List(ctx context.Context, filter RoomFilter) ([]model.Room, error) {
	var rooms []model.Room
	db := r.db.WithContext(ctx).Preload("Building")
	if filter.BuildingID != "" {
		db = db.Where("building_id = ?", filter.BuildingID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	err := db.Order("building_id ASC, room_number ASC").Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) ListBillable(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.WithContext(ctx).
		Where("status <> ?", model.RoomStatusMaintenance).
		Order("room_number ASC").
		Find(&rooms).Error
	return rooms, err
}
