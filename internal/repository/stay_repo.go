package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
)

// StayFilter 住宿记录筛选条件
type StayFilter struct {
	SemesterID string
	BuildingID string
	StudentID  string
	Status     string
}

// RoomOccupant 房间内在住学生（用于水电账单列表展示）
type RoomOccupant struct {
	RoomID    string
	StudentID string
	FullName  string
}

// StayRepository 住宿记录数据访问接口
type StayRepository interface {
	Create(ctx context.Context, stay *model.Stay) error
	GetByID(ctx context.Context, id string) (*model.Stay, error)
	Update(ctx context.Context, stay *model.Stay) error
	// GetActiveByStudent 学生当前 ACTIVE 住宿，附带房间、宿舍楼、学期
	GetActiveByStudent(ctx context.Context, studentID string) (*model.Stay, error)
	CountActiveByRoom(ctx context.Context, roomID string) (int64, error)
	ListActiveBySemester(ctx context.Context, semesterID string) ([]model.Stay, error)
	ListActiveOccupants(ctx context.Context, roomIDs []string) ([]RoomOccupant, error)
	List(ctx context.Context, filter StayFilter, offset, limit int) ([]model.Stay, int64, error)
}

type stayRepo struct {
	db *gorm.DB
}

// NewStayRepo 创建 StayRepository 实例
func NewStayRepo(db *gorm.DB) StayRepository {
	return &stayRepo{db: db}
}

func (r *stayRepo) Create(ctx context.Context, stay *model.Stay) error {
	return r.db.WithContext(ctx).Create(stay).Error
}

func (r *stayRepo) GetByID(ctx context.Context, id string) (*model.Stay, error) {
	var stay model.Stay
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Room.Building").
		Preload("Semester").
		Where("stay_id = ?", id).
		First(&stay).Error
	if err != nil {
		return nil, err
	}
	return &stay, nil
}

func (r *stayRepo) Update(ctx context.Context, stay *model.Stay) error {
	return r.db.WithContext(ctx).
		Omit("Student", "Room", "Semester").
		Save(stay).Error
}

func (r *stayRepo) GetActiveByStudent(ctx context.Context, studentID string) (*model.Stay, error) {
	var stay model.Stay
	err := r.db.WithContext(ctx).
		Preload("Room.Building").
		Preload("Semester").
		Where("student_id = ? AND status = ?", studentID, model.StayStatusActive).
		First(&stay).Error
	if err != nil {
		return nil, err
	}
	return &stay, nil
}

func (r *stayRepo) CountActiveByRoom(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Stay{}).
		Where("room_id = ? AND status = ?", roomID, model.StayStatusActive).
		Count(&count).Error
	return count, err
}

func (r *stayRepo) ListActiveBySemester(ctx context.Context, semesterID string) ([]model.Stay, error) {
	var stays []model.Stay
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("semester_id = ? AND status = ?", semesterID, model.StayStatusActive).
		Order("created_at ASC").
		Find(&stays).Error
	return stays, err
}

func (r *stayRepo) ListActiveOccupants(ctx context.Context, roomIDs []string) ([]RoomOccupant, error) {
	var rows []RoomOccupant
	if len(roomIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Table("stays s").
		Select("s.room_id, s.student_id, u.full_name").
		Joins("JOIN users u ON u.user_id = s.student_id").
		Where("s.room_id IN ? AND s.status = ?", roomIDs, model.StayStatusActive).
		Order("u.full_name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *stayRepo) List(ctx context.Context, filter StayFilter, offset, limit int) ([]model.Stay, int64, error) {
	var stays []model.Stay
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Stay{})
	if filter.SemesterID != "" {
		db = db.Where("stays.semester_id = ?", filter.SemesterID)
	}
	if filter.StudentID != "" {
		db = db.Where("stays.student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		db = db.Where("stays.status = ?", filter.Status)
	}
	if filter.BuildingID != "" {
		db = db.Where("stays.room_id IN (?)",
			r.db.Model(&model.Room{}).Select("room_id").Where("building_id = ?", filter.BuildingID))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Student").
		Preload("Room.Building").
		Preload("Semester").
		Order("stays.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&stays).Error
	return stays, total, err
}
