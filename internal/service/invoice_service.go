package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/config"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/invoicecode"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/metrics"
)

// ── 账单模块业务错误 ──

var (
	ErrInvoiceNotFound       = errors.New("账单不存在")
	ErrInvoiceForbidden      = errors.New("无权查看该账单")
	ErrInvoiceTransition     = errors.New("账单状态不允许该变更")
	ErrInvoiceDateInvalid    = errors.New("付款期限格式错误")
	ErrInvoiceTargetRequired = errors.New("必须指定学生或房间")
	ErrRoomFeeBillingRace    = errors.New("住宿费账单正在生成，请稍后重试")
)

// invoiceTransitions 允许的账单状态迁移，PAID 与 CANCELLED 为终态
var invoiceTransitions = map[string][]string{
	model.InvoiceStatusDraft:     {model.InvoiceStatusPublished, model.InvoiceStatusCancelled},
	model.InvoiceStatusPublished: {model.InvoiceStatusPaid, model.InvoiceStatusOverdue, model.InvoiceStatusCancelled},
	model.InvoiceStatusOverdue:   {model.InvoiceStatusPaid, model.InvoiceStatusCancelled},
}

// CanTransitInvoice 判断账单状态能否从 from 迁移到 to
func CanTransitInvoice(from, to string) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvoiceService 账单业务接口
type InvoiceService interface {
	// Get 学生只能查看自己的账单或所住房间的水电账单
	Get(ctx context.Context, id, callerID, callerRole string) (*dto.InvoiceResponse, error)
	// List 学生调用时强制只返回自己可见的账单
	List(ctx context.Context, req *dto.ListInvoicesRequest, callerID, callerRole string) (*dto.PageResult[dto.InvoiceResponse], error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateInvoiceStatusRequest, callerID string) (*dto.InvoiceResponse, error)
	CreateOther(ctx context.Context, req *dto.CreateOtherInvoiceRequest, callerID string) (*dto.InvoiceResponse, error)
	// BillRoomFees 为学期内尚未出账的在住记录生成住宿费账单
	BillRoomFees(ctx context.Context, req *dto.BillRoomFeesRequest, callerID string) (*dto.BillRoomFeesResponse, error)
}

type invoiceService struct {
	repo    *repository.Repository
	codes   *InvoiceCodeGenerator
	billing config.BillingConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewInvoiceService 创建 InvoiceService 实例
func NewInvoiceService(repo *repository.Repository, codes *InvoiceCodeGenerator, billing config.BillingConfig, m *metrics.Metrics, logger *zap.Logger) InvoiceService {
	return &invoiceService{
		repo:    repo,
		codes:   codes,
		billing: billing,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── Get / List ──────────────────────

func (s *invoiceService) Get(ctx context.Context, id, callerID, callerRole string) (*dto.InvoiceResponse, error) {
	invoice, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !model.IsStaff(callerRole) {
		visible, err := s.visibleToStudent(ctx, invoice, callerID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, ErrInvoiceForbidden
		}
	}
	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) List(ctx context.Context, req *dto.ListInvoicesRequest, callerID, callerRole string) (*dto.PageResult[dto.InvoiceResponse], error) {
	filter := repository.InvoiceFilter{
		Category:  req.Category,
		Status:    req.Status,
		StudentID: req.StudentID,
		RoomID:    req.RoomID,
		CycleID:   req.CycleID,
	}
	if !model.IsStaff(callerRole) {
		filter.StudentID = callerID
		filter.RoomID = ""
		roomID, err := s.activeRoomOf(ctx, callerID)
		if err != nil {
			return nil, err
		}
		filter.VisibleRoomID = roomID
	}

	invoices, total, err := s.repo.Invoice.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出账单失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		list = append(list, *toInvoiceResponse(&invoices[i]))
	}
	return &dto.PageResult[dto.InvoiceResponse]{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *invoiceService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateInvoiceStatusRequest, callerID string) (*dto.InvoiceResponse, error) {
	invoice, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitInvoice(invoice.Status, req.Status) {
		return nil, ErrInvoiceTransition
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":     req.Status,
		"updated_by": callerID,
		"updated_at": now,
	}
	switch req.Status {
	case model.InvoiceStatusPublished:
		updates["published_at"] = now
		invoice.PublishedAt = &now
	case model.InvoiceStatusPaid:
		updates["paid_at"] = now
		invoice.PaidAt = &now
	}

	if err := s.repo.Invoice.UpdateStatus(ctx, id, invoice.Status, updates); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新账单状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("账单状态变更",
		zap.String("invoice_id", id),
		zap.String("from", invoice.Status),
		zap.String("to", req.Status),
		zap.String("by", callerID),
	)
	invoice.Status = req.Status
	return toInvoiceResponse(invoice), nil
}

// ────────────────────── CreateOther ──────────────────────

func (s *invoiceService) CreateOther(ctx context.Context, req *dto.CreateOtherInvoiceRequest, callerID string) (*dto.InvoiceResponse, error) {
	if req.StudentID == nil && req.RoomID == nil {
		return nil, ErrInvoiceTargetRequired
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return nil, ErrInvoiceDateInvalid
	}

	invoice := &model.Invoice{
		Category:    model.InvoiceCategoryOther,
		TotalAmount: req.TotalAmount,
		Status:      model.InvoiceStatusDraft,
		StudentID:   req.StudentID,
		RoomID:      req.RoomID,
		Description: req.Description,
		DueDate:     dueDate,
	}
	if req.Publish {
		now := s.now()
		invoice.Status = model.InvoiceStatusPublished
		invoice.PublishedAt = &now
	}
	invoice.Audit(callerID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if req.StudentID != nil {
			student, err := tx.User.GetByID(ctx, *req.StudentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUserNotFound
				}
				return err
			}
			if student.Role != model.RoleStudent {
				return ErrStudentInvalid
			}
		}
		if req.RoomID != nil {
			if _, err := tx.Room.GetByID(ctx, *req.RoomID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRoomNotFound
				}
				return err
			}
		}

		code, err := s.codes.Next(ctx, tx, invoicecode.PrefixOther)
		if err != nil {
			return err
		}
		invoice.InvoiceCode = code
		return tx.Invoice.Create(ctx, invoice)
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrStudentInvalid) || errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		s.logger.Error("创建其他费用账单失败", zap.Error(err))
		return nil, err
	}

	s.metrics.InvoicesCreated(model.InvoiceCategoryOther, 1)
	s.logger.Info("创建其他费用账单", zap.String("invoice_code", invoice.InvoiceCode), zap.String("by", callerID))
	return toInvoiceResponse(invoice), nil
}

// ────────────────────── BillRoomFees ──────────────────────

func (s *invoiceService) BillRoomFees(ctx context.Context, req *dto.BillRoomFeesRequest, callerID string) (*dto.BillRoomFeesResponse, error) {
	semester, err := s.repo.Semester.GetByID(ctx, req.SemesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("semester_id", req.SemesterID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	dueDate := truncateToDate(now.In(s.billing.Location())).AddDate(0, 0, s.billing.RoomFeeDueDays)
	resp := &dto.BillRoomFeesResponse{SemesterID: semester.SemesterID, Codes: []string{}}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		stays, err := tx.Stay.ListActiveBySemester(ctx, semester.SemesterID)
		if err != nil {
			return err
		}
		billedIDs, err := tx.RoomFeeInvoice.ListBilledStayIDs(ctx, semester.SemesterID)
		if err != nil {
			return err
		}
		billed := make(map[string]struct{}, len(billedIDs))
		for _, id := range billedIDs {
			billed[id] = struct{}{}
		}

		for i := range stays {
			stay := &stays[i]
			if _, ok := billed[stay.StayID]; ok {
				resp.Skipped++
				continue
			}
			if stay.Room == nil {
				return fmt.Errorf("住宿记录缺少房间信息: stay_id=%s", stay.StayID)
			}

			code, err := s.codes.Next(ctx, tx, invoicecode.PrefixRoom)
			if err != nil {
				return err
			}
			invoice := &model.Invoice{
				InvoiceCode: code,
				Category:    model.InvoiceCategoryRoomFee,
				TotalAmount: stay.Room.PricePerSemester,
				Status:      model.InvoiceStatusPublished,
				StudentID:   strPtr(stay.StudentID),
				RoomID:      strPtr(stay.RoomID),
				SemesterID:  strPtr(semester.SemesterID),
				Description: fmt.Sprintf("住宿费 %s/%s 房间 %s", semester.AcademicYear, semester.Term, stay.Room.RoomNumber),
				DueDate:     &dueDate,
				PublishedAt: &now,
			}
			invoice.Audit(callerID)
			if err := tx.Invoice.Create(ctx, invoice); err != nil {
				return err
			}

			if err := tx.RoomFeeInvoice.Create(ctx, &model.RoomFeeInvoice{
				InvoiceID:        invoice.InvoiceID,
				StayID:           stay.StayID,
				StudentID:        stay.StudentID,
				RoomID:           stay.RoomID,
				SemesterID:       semester.SemesterID,
				PricePerSemester: stay.Room.PricePerSemester,
			}); err != nil {
				return err
			}

			resp.Created++
			resp.Codes = append(resp.Codes, code)
		}
		return nil
	})
	if err != nil {
		// 并发出账时 room_fee_invoices.stay_id 唯一索引冲突
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrRoomFeeBillingRace
		}
		s.logger.Error("生成住宿费账单失败", zap.String("semester_id", semester.SemesterID), zap.Error(err))
		return nil, err
	}

	s.metrics.InvoicesCreated(model.InvoiceCategoryRoomFee, resp.Created)
	s.logger.Info("住宿费出账完成",
		zap.String("semester_id", semester.SemesterID),
		zap.Int("created", resp.Created),
		zap.Int("skipped", resp.Skipped),
	)
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *invoiceService) get(ctx context.Context, id string) (*model.Invoice, error) {
	invoice, err := s.repo.Invoice.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("查询账单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return invoice, nil
}

// activeRoomOf 学生当前所住房间，无在住记录返回空串
func (s *invoiceService) activeRoomOf(ctx context.Context, studentID string) (string, error) {
	stay, err := s.repo.Stay.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		s.logger.Error("查询在住记录失败", zap.String("student_id", studentID), zap.Error(err))
		return "", err
	}
	return stay.RoomID, nil
}

func (s *invoiceService) visibleToStudent(ctx context.Context, invoice *model.Invoice, studentID string) (bool, error) {
	if invoice.StudentID != nil {
		return *invoice.StudentID == studentID, nil
	}
	if invoice.RoomID == nil {
		return false, nil
	}
	roomID, err := s.activeRoomOf(ctx, studentID)
	if err != nil {
		return false, err
	}
	return roomID != "" && roomID == *invoice.RoomID, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toInvoiceResponse(inv *model.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:               inv.InvoiceID,
		InvoiceCode:      inv.InvoiceCode,
		Category:         inv.Category,
		TotalAmount:      inv.TotalAmount,
		Status:           inv.Status,
		StudentID:        inv.StudentID,
		RoomID:           inv.RoomID,
		SemesterID:       inv.SemesterID,
		CycleID:          inv.CycleID,
		UtilityInvoiceID: inv.UtilityInvoiceID,
		Description:      inv.Description,
		PublishedAt:      formatTimestamp(inv.PublishedAt),
		PaidAt:           formatTimestamp(inv.PaidAt),
		CreatedAt:        formatTimestamp(&inv.CreatedAt),
	}
	if inv.DueDate != nil {
		resp.DueDate = formatDate(*inv.DueDate)
	}
	return resp
}
