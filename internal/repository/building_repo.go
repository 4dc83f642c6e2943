package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
)

// BuildingRepository 宿舍楼数据访问接口
type BuildingRepository interface {
	Create(ctx context.Context, building *model.Building) error
	GetByID(ctx context.Context, id string) (*model.Building, error)
	List(ctx context.Context) ([]model.Building, error)
	ReplaceManagers(ctx context.Context, buildingID string, managerIDs []string) error
	ListManagerIDs(ctx context.Context, buildingID string) ([]string, error)
}

type buildingRepo struct {
	db *gorm.DB
}

// NewBuildingRepo 创建 BuildingRepository 实例
func NewBuildingRepo(db *gorm.DB) BuildingRepository {
	return &buildingRepo{db: db}
}

func (r *buildingRepo) Create(ctx context.Context, building *model.Building) error {
	return r.db.WithContext(ctx).Create(building).Error
}

func (r *buildingRepo) GetByID(ctx context.Context, id string) (*model.Building, error) {
	var building model.Building
	err := r.db.WithContext(ctx).
		Preload("Managers.Manager").
		Where("building_id = ?", id).
		First(&building).Error
	if err != nil {
		return nil, err
	}
	return &building, nil
}

func (r *buildingRepo) List(ctx context.Context) ([]model.Building, error) {
	var buildings []model.Building
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&buildings).Error
	return buildings, err
}

// ReplaceManagers 以 managerIDs 覆盖宿舍楼的管理员集合，需在事务内调用
func (r *buildingRepo) ReplaceManagers(ctx context.Context, buildingID string, managerIDs []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("building_id = ?", buildingID).Delete(&model.BuildingManager{}).Error; err != nil {
		return err
	}
	if len(managerIDs) == 0 {
		return nil
	}

	rows := make([]model.BuildingManager, 0, len(managerIDs))
	for _, id := range managerIDs {
		rows = append(rows, model.BuildingManager{BuildingID: buildingID, ManagerID: id})
	}
	return db.Create(&rows).Error
}

func (r *buildingRepo) ListManagerIDs(ctx context.Context, buildingID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.BuildingManager{}).
		Where("building_id = ?", buildingID).
		Order("created_at ASC").
		Pluck("manager_id", &ids).Error
	return ids, err
}
