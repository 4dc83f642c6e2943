package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound      = errors.New("学期不存在")
	ErrSemesterDateInvalid   = errors.New("学期结束日期必须晚于开始日期")
	ErrSemesterWindowInvalid = errors.New("登记时间窗口无效：开始与结束需同时提供，且结束不早于开始")
	ErrSemesterInactive      = errors.New("只能修改当前激活的学期")
	ErrSemesterActiveDelete  = errors.New("不能删除当前激活的学期")
)

// SemesterService 学期业务接口
type SemesterService interface {
	Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error)
	GetCurrent(ctx context.Context) (*dto.SemesterResponse, error)
	List(ctx context.Context) ([]dto.SemesterResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	Activate(ctx context.Context, id string, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
	// ExportCalendar 导出学期日历（.ics），返回内容与建议文件名
	ExportCalendar(ctx context.Context, id string) ([]byte, string, error)
}

type semesterService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, ErrSemesterDateInvalid
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, ErrSemesterDateInvalid
	}
	if !endDate.After(startDate) {
		return nil, ErrSemesterDateInvalid
	}

	semester := &model.Semester{
		Term:         req.Term,
		AcademicYear: req.AcademicYear,
		StartDate:    startDate,
		EndDate:      endDate,
		IsActive:     req.IsActive,
	}
	if err := applyWindows(semester, windowInput{
		req.RegistrationStart, req.RegistrationEnd,
		req.SpecialRegistrationStart, req.SpecialRegistrationEnd,
		req.RenewalStart, req.RenewalEnd,
	}); err != nil {
		return nil, err
	}
	semester.Audit(callerID)

	// 创建即激活时，与清除旧激活学期放在同一事务
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if semester.IsActive {
			if err := tx.Semester.ClearActive(ctx); err != nil {
				return err
			}
		}
		return tx.Semester.Create(ctx, semester)
	})
	if err != nil {
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}

	return s.toSemesterResponse(semester), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *semesterService) GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error) {
	semester, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toSemesterResponse(semester), nil
}

// ────────────────────── GetCurrent ──────────────────────

func (s *semesterService) GetCurrent(ctx context.Context) (*dto.SemesterResponse, error) {
	semester, err := s.repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}

	return s.toSemesterResponse(semester), nil
}

// ────────────────────── List ──────────────────────

func (s *semesterService) List(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		result = append(result, *s.toSemesterResponse(&semesters[i]))
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *semesterService) Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	semester, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !semester.IsActive {
		return nil, ErrSemesterInactive
	}

	if req.Term != nil {
		semester.Term = *req.Term
	}
	if req.AcademicYear != nil {
		semester.AcademicYear = *req.AcademicYear
	}
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			return nil, ErrSemesterDateInvalid
		}
		semester.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, ErrSemesterDateInvalid
		}
		semester.EndDate = endDate
	}
	if !semester.EndDate.After(semester.StartDate) {
		return nil, ErrSemesterDateInvalid
	}

	// 未传的窗口字段保持原值
	in := windowInput{
		formatOptionalDate(semester.RegistrationStart), formatOptionalDate(semester.RegistrationEnd),
		formatOptionalDate(semester.SpecialRegistrationStart), formatOptionalDate(semester.SpecialRegistrationEnd),
		formatOptionalDate(semester.RenewalStart), formatOptionalDate(semester.RenewalEnd),
	}
	overrideIfSet(&in.regStart, req.RegistrationStart)
	overrideIfSet(&in.regEnd, req.RegistrationEnd)
	overrideIfSet(&in.specialStart, req.SpecialRegistrationStart)
	overrideIfSet(&in.specialEnd, req.SpecialRegistrationEnd)
	overrideIfSet(&in.renewalStart, req.RenewalStart)
	overrideIfSet(&in.renewalEnd, req.RenewalEnd)
	if err := applyWindows(semester, in); err != nil {
		return nil, err
	}

	semester.Audit(callerID)

	if err := s.repo.Semester.Update(ctx, semester); err != nil {
		s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toSemesterResponse(semester), nil
}

// ────────────────────── Activate ──────────────────────

func (s *semesterService) Activate(ctx context.Context, id string, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	// 先清除全部激活状态再激活目标学期，二者同一事务
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Semester.ClearActive(ctx); err != nil {
			return err
		}
		return tx.Semester.SetActive(ctx, id, callerID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		s.logger.Error("激活学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("学期已激活", zap.String("semester_id", id), zap.String("by", callerID))
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *semesterService) Delete(ctx context.Context, id string, callerID string) error {
	semester, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if semester.IsActive {
		return ErrSemesterActiveDelete
	}

	if err := s.repo.Semester.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── ExportCalendar ──────────────────────

func (s *semesterService) ExportCalendar(ctx context.Context, id string) ([]byte, string, error) {
	semester, err := s.get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	title := fmt.Sprintf("第 %s 学期 (%s)", semester.Term, semester.AcademicYear)
	stamp := s.now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ql-ktx//semester calendar//VI")
	cal.SetXWRCalName(title)

	addAllDay := func(key, summary string, start, end time.Time) {
		event := cal.AddEvent(fmt.Sprintf("%s-%s@ql-ktx", semester.SemesterID, key))
		event.SetDtStampTime(stamp)
		event.SetSummary(summary)
		event.SetAllDayStartAt(start)
		// DTEND 为开区间
		event.SetAllDayEndAt(end.AddDate(0, 0, 1))
	}

	addAllDay("term", title, semester.StartDate, semester.EndDate)
	if semester.RegistrationStart != nil && semester.RegistrationEnd != nil {
		addAllDay("registration", "住宿登记", *semester.RegistrationStart, *semester.RegistrationEnd)
	}
	if semester.SpecialRegistrationStart != nil && semester.SpecialRegistrationEnd != nil {
		addAllDay("special-registration", "特殊登记", *semester.SpecialRegistrationStart, *semester.SpecialRegistrationEnd)
	}
	if semester.RenewalStart != nil && semester.RenewalEnd != nil {
		addAllDay("renewal", "续住登记", *semester.RenewalStart, *semester.RenewalEnd)
	}

	filename := fmt.Sprintf("semester_%s_%s.ics", semester.AcademicYear, semester.Term)
	return []byte(cal.Serialize()), filename, nil
}

// ── 内部辅助方法 ──

func (s *semesterService) get(ctx context.Context, id string) (*model.Semester, error) {
	semester, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return semester, nil
}

type windowInput struct {
	regStart, regEnd         *string
	specialStart, specialEnd *string
	renewalStart, renewalEnd *string
}

func overrideIfSet(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}

// applyWindows 解析并校验三个登记窗口
func applyWindows(semester *model.Semester, in windowInput) error {
	pairs := []struct {
		start, end       *string
		dstStart, dstEnd **time.Time
	}{
		{in.regStart, in.regEnd, &semester.RegistrationStart, &semester.RegistrationEnd},
		{in.specialStart, in.specialEnd, &semester.SpecialRegistrationStart, &semester.SpecialRegistrationEnd},
		{in.renewalStart, in.renewalEnd, &semester.RenewalStart, &semester.RenewalEnd},
	}

	for _, p := range pairs {
		start, err := parseOptionalDate(p.start)
		if err != nil {
			return ErrSemesterWindowInvalid
		}
		end, err := parseOptionalDate(p.end)
		if err != nil {
			return ErrSemesterWindowInvalid
		}
		if (start == nil) != (end == nil) {
			return ErrSemesterWindowInvalid
		}
		if start != nil && end.Before(*start) {
			return ErrSemesterWindowInvalid
		}
		*p.dstStart, *p.dstEnd = start, end
	}
	return nil
}

func (s *semesterService) toSemesterResponse(semester *model.Semester) *dto.SemesterResponse {
	return &dto.SemesterResponse{
		ID:                       semester.SemesterID,
		Term:                     semester.Term,
		AcademicYear:             semester.AcademicYear,
		StartDate:                formatDate(semester.StartDate),
		EndDate:                  formatDate(semester.EndDate),
		RegistrationStart:        formatOptionalDate(semester.RegistrationStart),
		RegistrationEnd:          formatOptionalDate(semester.RegistrationEnd),
		SpecialRegistrationStart: formatOptionalDate(semester.SpecialRegistrationStart),
		SpecialRegistrationEnd:   formatOptionalDate(semester.SpecialRegistrationEnd),
		RenewalStart:             formatOptionalDate(semester.RenewalStart),
		RenewalEnd:               formatOptionalDate(semester.RenewalEnd),
		IsActive:                 semester.IsActive,
		CreatedAt:                formatTimestamp(&semester.CreatedAt),
		UpdatedAt:                formatTimestamp(&semester.UpdatedAt),
	}
}
