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

// ── 住宿模块业务错误 ──

var (
	ErrStayNotFound         = errors.New("住宿记录不存在")
	ErrActiveStayExists     = errors.New("该学生已有在住记录")
	ErrStayNotActive        = errors.New("住宿记录不处于在住状态")
	ErrStayDateInvalid      = errors.New("住宿日期无效")
	ErrStudentInvalid       = errors.New("指定的用户不是学生")
	ErrRoomFull             = errors.New("房间已住满")
	ErrRoomUnderMaintenance = errors.New("房间维修中，暂不可入住")
)

// StayService 住宿业务接口
type StayService interface {
	Create(ctx context.Context, req *dto.CreateStayRequest, callerID string) (*dto.StayResponse, error)
	End(ctx context.Context, id string, req *dto.EndStayRequest, callerID string) (*dto.StayResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateStayStatusRequest, callerID string) (*dto.StayResponse, error)
	// GetActiveByStudent 学生当前在住记录，附带房间 / 宿舍楼 / 学期信息
	GetActiveByStudent(ctx context.Context, studentID string) (*dto.StayResponse, error)
	List(ctx context.Context, req *dto.ListStaysRequest) (*dto.PageResult[dto.StayResponse], error)
}

type stayService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStayService 创建 StayService 实例
func NewStayService(repo *repository.Repository, logger *zap.Logger) StayService {
	return &stayService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *stayService) Create(ctx context.Context, req *dto.CreateStayRequest, callerID string) (*dto.StayResponse, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, ErrStayDateInvalid
	}

	stay := &model.Stay{
		StudentID:  req.StudentID,
		RoomID:     req.RoomID,
		SemesterID: req.SemesterID,
		StartDate:  startDate,
		Status:     model.StayStatusActive,
	}
	stay.Audit(callerID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		student, err := tx.User.GetByID(ctx, req.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if student.Role != model.RoleStudent {
			return ErrStudentInvalid
		}

		if _, err := tx.Semester.GetByID(ctx, req.SemesterID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSemesterNotFound
			}
			return err
		}

		if err := s.checkRoomAvailable(ctx, tx, req.RoomID); err != nil {
			return err
		}
		if err := s.checkNoActiveStay(ctx, tx, req.StudentID); err != nil {
			return err
		}

		return tx.Stay.Create(ctx, stay)
	})
	if err != nil {
		// 并发下检查可能同时通过，由部分唯一索引兜底
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrActiveStayExists
		}
		if isStayBusinessError(err) {
			return nil, err
		}
		s.logger.Error("创建住宿记录失败", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("学生入住",
		zap.String("stay_id", stay.StayID),
		zap.String("student_id", stay.StudentID),
		zap.String("room_id", stay.RoomID),
	)
	return s.reload(ctx, stay.StayID)
}

// ────────────────────── End ──────────────────────

func (s *stayService) End(ctx context.Context, id string, req *dto.EndStayRequest, callerID string) (*dto.StayResponse, error) {
	stay, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stay.Status != model.StayStatusActive {
		return nil, ErrStayNotActive
	}

	endDate, err := parseDate(req.EndDate)
	if err != nil || endDate.Before(stay.StartDate) {
		return nil, ErrStayDateInvalid
	}

	stay.Status = model.StayStatusEnded
	stay.EndDate = &endDate
	stay.Audit(callerID)

	if err := s.repo.Stay.Update(ctx, stay); err != nil {
		s.logger.Error("退宿失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toStayResponse(stay), nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *stayService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateStayStatusRequest, callerID string) (*dto.StayResponse, error) {
	stay, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stay.Status == req.Status {
		return toStayResponse(stay), nil
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 重新激活需要与新建相同的检查
		if req.Status == model.StayStatusActive {
			if err := s.checkRoomAvailable(ctx, tx, stay.RoomID); err != nil {
				return err
			}
			if err := s.checkNoActiveStay(ctx, tx, stay.StudentID); err != nil {
				return err
			}
			stay.EndDate = nil
		}
		stay.Status = req.Status
		stay.Audit(callerID)
		return tx.Stay.Update(ctx, stay)
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrActiveStayExists
		}
		if isStayBusinessError(err) {
			return nil, err
		}
		s.logger.Error("更新住宿状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toStayResponse(stay), nil
}

// ────────────────────── GetActiveByStudent ──────────────────────

func (s *stayService) GetActiveByStudent(ctx context.Context, studentID string) (*dto.StayResponse, error) {
	stay, err := s.repo.Stay.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStayNotFound
		}
		s.logger.Error("查询在住记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toStayResponse(stay), nil
}

// ────────────────────── List ──────────────────────

func (s *stayService) List(ctx context.Context, req *dto.ListStaysRequest) (*dto.PageResult[dto.StayResponse], error) {
	stays, total, err := s.repo.Stay.List(ctx, repository.StayFilter{
		SemesterID: req.SemesterID,
		BuildingID: req.BuildingID,
		StudentID:  req.StudentID,
		Status:     req.Status,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出住宿记录失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.StayResponse, 0, len(stays))
	for i := range stays {
		list = append(list, *toStayResponse(&stays[i]))
	}
	return &dto.PageResult[dto.StayResponse]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

// ── 内部辅助方法 ──

func (s *stayService) get(ctx context.Context, id string) (*model.Stay, error) {
	stay, err := s.repo.Stay.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStayNotFound
		}
		s.logger.Error("查询住宿记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return stay, nil
}

func (s *stayService) reload(ctx context.Context, id string) (*dto.StayResponse, error) {
	stay, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStayResponse(stay), nil
}

func (s *stayService) checkRoomAvailable(ctx context.Context, tx *repository.Repository, roomID string) error {
	room, err := tx.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	if room.Status == model.RoomStatusMaintenance {
		return ErrRoomUnderMaintenance
	}

	occupied, err := tx.Stay.CountActiveByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if occupied >= int64(room.Capacity) {
		return ErrRoomFull
	}
	return nil
}

func (s *stayService) checkNoActiveStay(ctx context.Context, tx *repository.Repository, studentID string) error {
	_, err := tx.Stay.GetActiveByStudent(ctx, studentID)
	if err == nil {
		return ErrActiveStayExists
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func isStayBusinessError(err error) bool {
	for _, target := range []error{
		ErrUserNotFound, ErrStudentInvalid, ErrSemesterNotFound, ErrRoomNotFound,
		ErrRoomUnderMaintenance, ErrRoomFull, ErrActiveStayExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func toStayResponse(stay *model.Stay) *dto.StayResponse {
	resp := &dto.StayResponse{
		ID:         stay.StayID,
		StudentID:  stay.StudentID,
		RoomID:     stay.RoomID,
		SemesterID: stay.SemesterID,
		StartDate:  formatDate(stay.StartDate),
		Status:     stay.Status,
	}
	if stay.EndDate != nil {
		resp.EndDate = formatDate(*stay.EndDate)
	}
	if stay.Student != nil {
		resp.StudentName = stay.Student.FullName
	}
	if stay.Room != nil {
		resp.RoomNumber = stay.Room.RoomNumber
		resp.BuildingID = stay.Room.BuildingID
		if stay.Room.Building != nil {
			resp.BuildingName = stay.Room.Building.Name
		}
	}
	if stay.Semester != nil {
		resp.Term = stay.Semester.Term
		resp.AcademicYear = stay.Semester.AcademicYear
	}
	return resp
}
