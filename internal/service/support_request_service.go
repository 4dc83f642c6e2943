package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
)

// ── 支持请求模块业务错误 ──

var (
	ErrSupportRequestNotFound    = errors.New("支持请求不存在")
	ErrSupportRequestForbidden   = errors.New("无权操作该支持请求")
	ErrSupportRequestStudentOnly = errors.New("只有学生可以提交支持请求")
	ErrSupportRequestLocked      = errors.New("支持请求已在处理中，不能再修改")
	ErrSupportRequestTransition  = errors.New("支持请求状态不允许该变更")
)

// supportTransitions 管理人员可执行的状态迁移
var supportTransitions = map[string][]string{
	model.SupportStatusPending:    {model.SupportStatusProcessing, model.SupportStatusRejected},
	model.SupportStatusProcessing: {model.SupportStatusDone, model.SupportStatusRejected},
}

// SupportRequestService 支持请求业务接口
type SupportRequestService interface {
	Create(ctx context.Context, req *dto.CreateSupportRequestRequest, callerID, callerRole string) (*dto.SupportRequestResponse, error)
	Get(ctx context.Context, id, callerID, callerRole string) (*dto.SupportRequestResponse, error)
	List(ctx context.Context, req *dto.ListSupportRequestsRequest, callerID, callerRole string) (*dto.PageResult[dto.SupportRequestResponse], error)
	// Update 学生修改自己待处理的请求；管理人员更新状态与回复
	Update(ctx context.Context, id string, req *dto.UpdateSupportRequestRequest, callerID, callerRole string) (*dto.SupportRequestResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
}

type supportRequestService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

// NewSupportRequestService 创建 SupportRequestService 实例
func NewSupportRequestService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) SupportRequestService {
	return &supportRequestService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *supportRequestService) Create(ctx context.Context, req *dto.CreateSupportRequestRequest, callerID, callerRole string) (*dto.SupportRequestResponse, error) {
	if callerRole != model.RoleStudent {
		return nil, ErrSupportRequestStudentOnly
	}

	sr := &model.SupportRequest{
		StudentID:      callerID,
		Type:           req.Type,
		Title:          req.Title,
		Content:        req.Content,
		AttachmentPath: req.AttachmentPath,
		Status:         model.SupportStatusPending,
	}
	sr.Audit(callerID)

	if err := s.repo.SupportRequest.Create(ctx, sr); err != nil {
		s.logger.Error("创建支持请求失败", zap.String("student_id", callerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("学生提交支持请求", zap.String("id", sr.SupportRequestID), zap.String("student_id", callerID))
	// 请求已提交，客户端断开不应中断通知写入
	s.notifier.NotifyBuildingManagers(context.WithoutCancel(ctx), callerID, "新的支持请求："+sr.Title, sr.Content, NotifySupportRequestCreated)

	return toSupportRequestResponse(sr), nil
}

// ────────────────────── Get / List ──────────────────────

func (s *supportRequestService) Get(ctx context.Context, id, callerID, callerRole string) (*dto.SupportRequestResponse, error) {
	sr, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.IsStaff(callerRole) && sr.StudentID != callerID {
		return nil, ErrSupportRequestForbidden
	}
	return toSupportRequestResponse(sr), nil
}

func (s *supportRequestService) List(ctx context.Context, req *dto.ListSupportRequestsRequest, callerID, callerRole string) (*dto.PageResult[dto.SupportRequestResponse], error) {
	filter := repository.SupportRequestFilter{
		StudentID: req.StudentID,
		Status:    req.Status,
		Type:      req.Type,
	}
	if !model.IsStaff(callerRole) {
		filter.StudentID = callerID
	}

	rows, total, err := s.repo.SupportRequest.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出支持请求失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.SupportRequestResponse, 0, len(rows))
	for i := range rows {
		list = append(list, *toSupportRequestResponse(&rows[i]))
	}
	return &dto.PageResult[dto.SupportRequestResponse]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

// ────────────────────── Update ──────────────────────

func (s *supportRequestService) Update(ctx context.Context, id string, req *dto.UpdateSupportRequestRequest, callerID, callerRole string) (*dto.SupportRequestResponse, error) {
	sr, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if model.IsStaff(callerRole) {
		return s.respond(ctx, sr, req, callerID, callerRole)
	}
	return s.edit(ctx, sr, req, callerID)
}

// edit 学生修改自己的请求
func (s *supportRequestService) edit(ctx context.Context, sr *model.SupportRequest, req *dto.UpdateSupportRequestRequest, callerID string) (*dto.SupportRequestResponse, error) {
	if sr.StudentID != callerID {
		return nil, ErrSupportRequestForbidden
	}
	if req.Status != nil || req.ResponseContent != nil {
		return nil, ErrSupportRequestForbidden
	}
	if sr.Status != model.SupportStatusPending {
		return nil, ErrSupportRequestLocked
	}

	if req.Type != nil {
		sr.Type = *req.Type
	}
	if req.Title != nil {
		sr.Title = *req.Title
	}
	if req.Content != nil {
		sr.Content = *req.Content
	}
	if req.AttachmentPath != nil {
		sr.AttachmentPath = req.AttachmentPath
	}
	sr.Audit(callerID)

	if err := s.repo.SupportRequest.Update(ctx, sr); err != nil {
		s.logger.Error("更新支持请求失败", zap.String("id", sr.SupportRequestID), zap.Error(err))
		return nil, err
	}

	s.notifier.NotifyBuildingManagers(context.WithoutCancel(ctx), callerID, "支持请求已修改："+sr.Title, sr.Content, NotifySupportRequestUpdated)
	return toSupportRequestResponse(sr), nil
}

// respond 管理人员处理请求，处理人记为当前调用者
func (s *supportRequestService) respond(ctx context.Context, sr *model.SupportRequest, req *dto.UpdateSupportRequestRequest, callerID, callerRole string) (*dto.SupportRequestResponse, error) {
	if req.Type != nil || req.Title != nil || req.Content != nil || req.AttachmentPath != nil {
		return nil, ErrSupportRequestForbidden
	}

	if req.Status != nil && *req.Status != sr.Status {
		if !canTransitSupport(sr.Status, *req.Status) {
			return nil, ErrSupportRequestTransition
		}
		sr.Status = *req.Status
	}
	if req.ResponseContent != nil {
		now := s.now()
		sr.ResponseContent = req.ResponseContent
		sr.RespondedAt = &now
	}
	sr.ManagerID = strPtr(callerID)
	sr.Audit(callerID)

	if err := s.repo.SupportRequest.Update(ctx, sr); err != nil {
		s.logger.Error("处理支持请求失败", zap.String("id", sr.SupportRequestID), zap.Error(err))
		return nil, err
	}

	content := "状态：" + sr.Status
	if sr.ResponseContent != nil {
		content += "\n" + *sr.ResponseContent
	}
	s.notifier.NotifyUser(context.WithoutCancel(ctx), callerID, callerRole, sr.StudentID, "支持请求已回复："+sr.Title, content, NotifySupportRequestResponded)
	return toSupportRequestResponse(sr), nil
}

// ────────────────────── Delete ──────────────────────

func (s *supportRequestService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	sr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	isStaff := model.IsStaff(callerRole)
	if !isStaff && sr.StudentID != callerID {
		return ErrSupportRequestForbidden
	}

	if err := s.repo.SupportRequest.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除支持请求失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("删除支持请求", zap.String("id", id), zap.String("by", callerID))
	if !isStaff {
		s.notifier.NotifyBuildingManagers(context.WithoutCancel(ctx), callerID, "支持请求已撤回："+sr.Title, sr.Content, NotifySupportRequestDeleted)
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *supportRequestService) get(ctx context.Context, id string) (*model.SupportRequest, error) {
	sr, err := s.repo.SupportRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupportRequestNotFound
		}
		s.logger.Error("查询支持请求失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return sr, nil
}

func canTransitSupport(from, to string) bool {
	for _, next := range supportTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func toSupportRequestResponse(sr *model.SupportRequest) *dto.SupportRequestResponse {
	resp := &dto.SupportRequestResponse{
		ID:              sr.SupportRequestID,
		StudentID:       sr.StudentID,
		Type:            sr.Type,
		Title:           sr.Title,
		Content:         sr.Content,
		AttachmentPath:  sr.AttachmentPath,
		Status:          sr.Status,
		ManagerID:       sr.ManagerID,
		ResponseContent: sr.ResponseContent,
		RespondedAt:     formatTimestamp(sr.RespondedAt),
		CreatedAt:       formatTimestamp(&sr.CreatedAt),
		UpdatedAt:       formatTimestamp(&sr.UpdatedAt),
	}
	if sr.Student != nil {
		resp.StudentName = sr.Student.FullName
	}
	return resp
}
