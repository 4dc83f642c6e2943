package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
)

// ── 宿舍楼 / 房间业务错误 ──

var (
	ErrBuildingNotFound   = errors.New("宿舍楼不存在")
	ErrBuildingNameExists = errors.New("宿舍楼名称已存在")
	ErrManagerInvalid     = errors.New("指定的用户不是宿舍管理员")
	ErrRoomNotFound       = errors.New("房间不存在")
	ErrRoomNumberExists   = errors.New("该宿舍楼下房间号已存在")
)

// BuildingService 宿舍楼与房间业务接口
type BuildingService interface {
	CreateBuilding(ctx context.Context, req *dto.CreateBuildingRequest, callerID string) (*dto.BuildingResponse, error)
	GetBuilding(ctx context.Context, id string) (*dto.BuildingResponse, error)
	ListBuildings(ctx context.Context) ([]dto.BuildingResponse, error)
	// AssignManagers 覆盖宿舍楼管理员集合
	AssignManagers(ctx context.Context, buildingID string, req *dto.AssignManagersRequest) (*dto.BuildingResponse, error)

	CreateRoom(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error)
	GetRoom(ctx context.Context, id string) (*dto.RoomResponse, error)
	ListRooms(ctx context.Context, req *dto.ListRoomsRequest) ([]dto.RoomResponse, error)
}

type buildingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBuildingService 创建 BuildingService 实例
func NewBuildingService(repo *repository.Repository, logger *zap.Logger) BuildingService {
	return &buildingService{repo: repo, logger: logger}
}

// ════════════════════════════════════════
// 宿舍楼
// ════════════════════════════════════════

func (s *buildingService) CreateBuilding(ctx context.Context, req *dto.CreateBuildingRequest, callerID string) (*dto.BuildingResponse, error) {
	gender := req.Gender
	if gender == "" {
		gender = "MIXED"
	}
	building := &model.Building{
		Name:    req.Name,
		Gender:  gender,
		Address: req.Address,
	}
	building.Audit(callerID)

	if err := s.repo.Building.Create(ctx, building); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrBuildingNameExists
		}
		s.logger.Error("创建宿舍楼失败", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}

	return toBuildingResponse(building), nil
}

func (s *buildingService) GetBuilding(ctx context.Context, id string) (*dto.BuildingResponse, error) {
	building, err := s.repo.Building.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuildingNotFound
		}
		s.logger.Error("查询宿舍楼失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toBuildingResponse(building), nil
}

func (s *buildingService) ListBuildings(ctx context.Context) ([]dto.BuildingResponse, error) {
	buildings, err := s.repo.Building.List(ctx)
	if err != nil {
		s.logger.Error("列出宿舍楼失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.BuildingResponse, 0, len(buildings))
	for i := range buildings {
		result = append(result, *toBuildingResponse(&buildings[i]))
	}
	return result, nil
}

func (s *buildingService) AssignManagers(ctx context.Context, buildingID string, req *dto.AssignManagersRequest) (*dto.BuildingResponse, error) {
	if _, err := s.repo.Building.GetByID(ctx, buildingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuildingNotFound
		}
		s.logger.Error("查询宿舍楼失败", zap.String("id", buildingID), zap.Error(err))
		return nil, err
	}

	// 去重并校验角色
	seen := make(map[string]bool, len(req.ManagerIDs))
	ids := make([]string, 0, len(req.ManagerIDs))
	for _, id := range req.ManagerIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询管理员失败", zap.Error(err))
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, ErrManagerInvalid
	}
	for _, u := range users {
		if u.Role != model.RoleManager {
			return nil, ErrManagerInvalid
		}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Building.ReplaceManagers(ctx, buildingID, ids)
	})
	if err != nil {
		s.logger.Error("分配宿舍楼管理员失败", zap.String("building_id", buildingID), zap.Error(err))
		return nil, err
	}

	return s.GetBuilding(ctx, buildingID)
}

// ════════════════════════════════════════
// 房间
// ════════════════════════════════════════

func (s *buildingService) CreateRoom(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	building, err := s.repo.Building.GetByID(ctx, req.BuildingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuildingNotFound
		}
		s.logger.Error("查询宿舍楼失败", zap.String("id", req.BuildingID), zap.Error(err))
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.RoomStatusAvailable
	}
	floor := req.Floor
	if floor == 0 {
		floor = 1
	}
	room := &model.Room{
		BuildingID:       req.BuildingID,
		RoomNumber:       req.RoomNumber,
		Floor:            floor,
		Capacity:         req.Capacity,
		PricePerSemester: req.PricePerSemester,
		Status:           status,
	}
	room.Audit(callerID)

	if err := s.repo.Room.Create(ctx, room); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrRoomNumberExists
		}
		s.logger.Error("创建房间失败", zap.String("room_number", req.RoomNumber), zap.Error(err))
		return nil, err
	}
	room.Building = building

	return toRoomResponse(room), nil
}

func (s *buildingService) GetRoom(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toRoomResponse(room), nil
}

func (s *buildingService) ListRooms(ctx context.Context, req *dto.ListRoomsRequest) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.Room.List(ctx, repository.RoomFilter{
		BuildingID: req.BuildingID,
		Status:     req.Status,
	})
	if err != nil {
		s.logger.Error("列出房间失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, *toRoomResponse(&rooms[i]))
	}
	return result, nil
}

// ── 转换 ──

func toBuildingResponse(b *model.Building) *dto.BuildingResponse {
	resp := &dto.BuildingResponse{
		ID:      b.BuildingID,
		Name:    b.Name,
		Gender:  b.Gender,
		Address: b.Address,
	}
	for _, m := range b.Managers {
		brief := dto.UserBrief{ID: m.ManagerID}
		if m.Manager != nil {
			brief.FullName = m.Manager.FullName
		}
		resp.Managers = append(resp.Managers, brief)
	}
	return resp
}

func toRoomResponse(r *model.Room) *dto.RoomResponse {
	resp := &dto.RoomResponse{
		ID:               r.RoomID,
		BuildingID:       r.BuildingID,
		RoomNumber:       r.RoomNumber,
		Floor:            r.Floor,
		Capacity:         r.Capacity,
		PricePerSemester: r.PricePerSemester,
		Status:           r.Status,
	}
	if r.Building != nil {
		resp.BuildingName = r.Building.Name
	}
	return resp
}
