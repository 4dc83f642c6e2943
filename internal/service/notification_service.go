package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/metrics"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound  = errors.New("通知不存在")
	ErrDeadLetterUnavailable = errors.New("死信队列未启用")
)

// 通知类型
const (
	NotifySupportRequestCreated   = "SUPPORT_REQUEST_CREATED"
	NotifySupportRequestUpdated   = "SUPPORT_REQUEST_UPDATED"
	NotifySupportRequestDeleted   = "SUPPORT_REQUEST_DELETED"
	NotifySupportRequestResponded = "SUPPORT_REQUEST_RESPONDED"
)

// DeadLetterStore 通知死信存储（pkg/redis.Client 实现）
type DeadLetterStore interface {
	PushDeadLetter(ctx context.Context, payload []byte) error
	ListDeadLetters(ctx context.Context, limit int64) ([]string, error)
}

// NotificationService 通知分发与收件箱
//
// Notify* 方法不返回错误：任何失败只记录日志、计入指标并写入死信队列，
// 不影响调用方的主操作。
type NotificationService interface {
	// NotifyBuildingManagers 通知学生当前所住宿舍楼的全部管理员；无在住记录或无管理员时不做任何事
	NotifyBuildingManagers(ctx context.Context, studentID, title, content, notifType string)
	// NotifyUser 单个接收人
	NotifyUser(ctx context.Context, senderID, senderRole, recipientID, title, content, notifType string)

	ListMine(ctx context.Context, userID string, req *dto.ListNotificationsRequest) (*dto.PageResult[dto.NotificationResponse], error)
	MarkRead(ctx context.Context, id, userID string) error
	ListDeadLetters(ctx context.Context, limit int) ([]dto.DeadLetter, error)
}

type notificationService struct {
	repo        *repository.Repository
	deadLetters DeadLetterStore
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewNotificationService 创建 NotificationService 实例，deadLetters 可为 nil
func NewNotificationService(repo *repository.Repository, deadLetters DeadLetterStore, m *metrics.Metrics, logger *zap.Logger) NotificationService {
	return &notificationService{
		repo:        repo,
		deadLetters: deadLetters,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// ════════════════════════════════════════
// 分发
// ════════════════════════════════════════

func (s *notificationService) NotifyBuildingManagers(ctx context.Context, studentID, title, content, notifType string) {
	letter := dto.DeadLetter{
		Kind:     "building_managers",
		SenderID: studentID,
		Type:     notifType,
		Title:    title,
		Content:  content,
	}
	defer s.recoverInto(ctx, letter)

	if err := s.dispatchToBuilding(ctx, studentID, title, content, notifType, &letter); err != nil {
		s.suppress(ctx, letter, err)
	}
}

func (s *notificationService) dispatchToBuilding(ctx context.Context, studentID, title, content, notifType string, letter *dto.DeadLetter) error {
	stay, err := s.repo.Stay.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.NotificationDispatched("skipped")
			return nil
		}
		return fmt.Errorf("查询在住记录失败: %w", err)
	}
	if stay.Room == nil {
		return fmt.Errorf("在住记录缺少房间信息: stay_id=%s", stay.StayID)
	}
	buildingID := stay.Room.BuildingID

	managerIDs, err := s.repo.Building.ListManagerIDs(ctx, buildingID)
	if err != nil {
		return fmt.Errorf("查询宿舍楼管理员失败: %w", err)
	}
	if len(managerIDs) == 0 {
		s.metrics.NotificationDispatched("skipped")
		return nil
	}
	letter.Recipients = managerIDs

	notification := &model.Notification{
		SenderRole:  strings.ToUpper(model.RoleStudent),
		SenderID:    studentID,
		TargetScope: model.TargetScopeBuilding,
		TargetID:    strPtr(buildingID),
		Type:        notifType,
		Title:       title,
		Content:     content,
	}
	if err := s.persist(ctx, notification, managerIDs); err != nil {
		return err
	}

	s.metrics.NotificationDispatched("sent")
	return nil
}

func (s *notificationService) NotifyUser(ctx context.Context, senderID, senderRole, recipientID, title, content, notifType string) {
	letter := dto.DeadLetter{
		Kind:        "user",
		SenderID:    senderID,
		RecipientID: recipientID,
		Type:        notifType,
		Title:       title,
		Content:     content,
	}
	defer s.recoverInto(ctx, letter)

	notification := &model.Notification{
		SenderRole:  strings.ToUpper(senderRole),
		SenderID:    senderID,
		TargetScope: model.TargetScopeUser,
		TargetID:    strPtr(recipientID),
		Type:        notifType,
		Title:       title,
		Content:     content,
	}
	if err := s.persist(ctx, notification, []string{recipientID}); err != nil {
		s.suppress(ctx, letter, err)
		return
	}
	s.metrics.NotificationDispatched("sent")
}

// persist 通知与接收人在同一事务写入
func (s *notificationService) persist(ctx context.Context, notification *model.Notification, recipientIDs []string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Notification.Create(ctx, notification); err != nil {
			return fmt.Errorf("写入通知失败: %w", err)
		}
		rows := make([]model.NotificationRecipient, 0, len(recipientIDs))
		for _, id := range recipientIDs {
			rows = append(rows, model.NotificationRecipient{
				NotificationID: notification.NotificationID,
				RecipientID:    id,
			})
		}
		if err := tx.Notification.CreateRecipients(ctx, rows); err != nil {
			return fmt.Errorf("写入通知接收人失败: %w", err)
		}
		return nil
	})
}

func (s *notificationService) recoverInto(ctx context.Context, letter dto.DeadLetter) {
	if r := recover(); r != nil {
		s.suppress(ctx, letter, fmt.Errorf("panic: %v", r))
	}
}

// suppress 吞掉分发错误：记录日志、计数并写入死信
func (s *notificationService) suppress(ctx context.Context, letter dto.DeadLetter, err error) {
	s.metrics.NotificationDispatched("failed")
	s.logger.Warn("通知分发失败，已忽略",
		zap.String("kind", letter.Kind),
		zap.String("sender_id", letter.SenderID),
		zap.String("type", letter.Type),
		zap.Error(err),
	)

	if s.deadLetters == nil {
		return
	}

	letter.Error = err.Error()
	letter.FailedAt = s.now().Format(dto.DateTimeLayout)
	payload, mErr := json.Marshal(letter)
	if mErr != nil {
		s.logger.Warn("序列化死信失败", zap.Error(mErr))
		return
	}

	// 请求可能已结束，死信写入不跟随请求取消
	dlCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if pErr := s.deadLetters.PushDeadLetter(dlCtx, payload); pErr != nil {
		s.logger.Warn("写入通知死信失败", zap.Error(pErr))
	}
}

// ════════════════════════════════════════
// 收件箱
// ════════════════════════════════════════

func (s *notificationService) ListMine(ctx context.Context, userID string, req *dto.ListNotificationsRequest) (*dto.PageResult[dto.NotificationResponse], error) {
	rows, total, err := s.repo.Notification.ListByRecipient(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.NotificationResponse, 0, len(rows))
	for i := range rows {
		list = append(list, toNotificationResponse(&rows[i]))
	}
	return &dto.PageResult[dto.NotificationResponse]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	row, err := s.repo.Notification.GetRecipient(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("查询通知失败", zap.String("id", id), zap.Error(err))
		return err
	}
	// 不暴露他人通知是否存在
	if row.RecipientID != userID {
		return ErrNotificationNotFound
	}
	if row.IsRead {
		return nil
	}

	if err := s.repo.Notification.MarkRead(ctx, id, s.now()); err != nil {
		s.logger.Error("标记已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) ListDeadLetters(ctx context.Context, limit int) ([]dto.DeadLetter, error) {
	if s.deadLetters == nil {
		return nil, ErrDeadLetterUnavailable
	}

	raw, err := s.deadLetters.ListDeadLetters(ctx, int64(limit))
	if err != nil {
		s.logger.Error("读取通知死信失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DeadLetter, 0, len(raw))
	for _, item := range raw {
		var letter dto.DeadLetter
		if err := json.Unmarshal([]byte(item), &letter); err != nil {
			s.logger.Warn("死信格式错误，已跳过", zap.Error(err))
			continue
		}
		result = append(result, letter)
	}
	return result, nil
}

func toNotificationResponse(row *model.NotificationRecipient) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:             row.RecipientRowID,
		NotificationID: row.NotificationID,
		IsRead:         row.IsRead,
		ReadAt:         formatTimestamp(row.ReadAt),
		CreatedAt:      formatTimestamp(&row.CreatedAt),
	}
	if n := row.Notification; n != nil {
		resp.SenderRole = n.SenderRole
		resp.SenderID = n.SenderID
		resp.TargetScope = n.TargetScope
		resp.Type = n.Type
		resp.Title = n.Title
		resp.Content = n.Content
	}
	return resp
}
