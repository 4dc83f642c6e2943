package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/invoicecode"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/metrics"
)

// ── 水电账单模块业务错误 ──

var (
	ErrCycleNotFound         = errors.New("抄表周期不存在")
	ErrCycleExists           = errors.New("该月份的抄表周期已存在")
	ErrCyclePublished        = errors.New("抄表周期已发布，不能再录入读数")
	ErrCycleAlreadyPublished = errors.New("抄表周期已发布")
	ErrCycleNotDraft         = errors.New("只有草稿状态的周期可以标记为就绪")
	ErrServicePriceMissing   = errors.New("缺少有效的水电单价")
	ErrReadingRequired       = errors.New("必须填写电表和水表的新读数")
)

// 表计名称
const (
	MeterElectricity = "electricity"
	MeterWater       = "water"
)

// InvalidReadingError 新读数小于旧读数
type InvalidReadingError struct {
	RoomID string
	Meter  string
	Old    int64
	New    int64
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("房间 %s 的%s读数无效：新读数 %d 小于旧读数 %d", e.RoomID, meterLabel(e.Meter), e.New, e.Old)
}

func meterLabel(meter string) string {
	if meter == MeterWater {
		return "水表"
	}
	return "电表"
}

// IncompletePublishError 仍有房间未录入读数
type IncompletePublishError struct {
	Count int64
}

func (e *IncompletePublishError) Error() string {
	return fmt.Sprintf("还有 %d 个房间未录入读数", e.Count)
}

// ReadingOutcome 批量录入中单个房间的处理结果
type ReadingOutcome struct {
	RoomID string
	Amount int64
	Err    error
}

// UtilityService 水电抄表与账单发布业务接口
type UtilityService interface {
	CreateCycle(ctx context.Context, req *dto.CreateCycleRequest, callerID string) (*dto.CycleResponse, error)
	GetCycle(ctx context.Context, id string) (*dto.CycleResponse, error)
	ListCycles(ctx context.Context, year int) ([]dto.CycleResponse, error)

	// RecordReading 单个房间录入，独立事务
	RecordReading(ctx context.Context, cycleID string, reading *dto.MeterReading, callerID string) (*dto.UtilityInvoiceResponse, error)
	// RecordReadings 按顺序逐条录入，每条独立事务，前面成功的不会因后面失败而回滚
	RecordReadings(ctx context.Context, cycleID string, readings []dto.MeterReading, callerID string) ([]ReadingOutcome, error)

	MarkReady(ctx context.Context, id string, callerID string) (*dto.CycleResponse, error)
	Publish(ctx context.Context, id string, callerID string) (*dto.PublishCycleResponse, error)

	ListInvoices(ctx context.Context, cycleID string, req *dto.ListCycleInvoicesRequest) ([]dto.UtilityInvoiceResponse, error)
}

type utilityService struct {
	repo    *repository.Repository
	codes   *InvoiceCodeGenerator
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewUtilityService 创建 UtilityService 实例
func NewUtilityService(repo *repository.Repository, codes *InvoiceCodeGenerator, m *metrics.Metrics, logger *zap.Logger) UtilityService {
	return &utilityService{
		repo:    repo,
		codes:   codes,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// ════════════════════════════════════════
// 周期
// ════════════════════════════════════════

func (s *utilityService) CreateCycle(ctx context.Context, req *dto.CreateCycleRequest, callerID string) (*dto.CycleResponse, error) {
	cycle := &model.UtilityInvoiceCycle{
		Month:   req.Month,
		Year:    req.Year,
		Status:  model.CycleStatusDraft,
		Version: 1,
	}
	cycle.Audit(callerID)

	var roomCount int
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.UtilityCycle.GetByMonthYear(ctx, req.Month, req.Year); err == nil {
			return ErrCycleExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.UtilityCycle.Create(ctx, cycle); err != nil {
			return err
		}

		rooms, err := tx.Room.ListBillable(ctx)
		if err != nil {
			return err
		}
		rows := make([]model.UtilityInvoice, 0, len(rooms))
		for _, room := range rooms {
			row := model.UtilityInvoice{
				CycleID: cycle.CycleID,
				RoomID:  room.RoomID,
				Status:  model.UtilityStatusUnrecorded,
			}
			row.Audit(callerID)
			rows = append(rows, row)
		}
		roomCount = len(rows)
		return tx.UtilityInvoice.BatchCreate(ctx, rows)
	})
	if err != nil {
		if errors.Is(err, ErrCycleExists) || pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCycleExists
		}
		s.logger.Error("创建抄表周期失败", zap.Int("month", req.Month), zap.Int("year", req.Year), zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建抄表周期",
		zap.String("cycle_id", cycle.CycleID),
		zap.Int("month", cycle.Month),
		zap.Int("year", cycle.Year),
		zap.Int("rooms", roomCount),
	)
	return toCycleResponse(cycle), nil
}

func (s *utilityService) GetCycle(ctx context.Context, id string) (*dto.CycleResponse, error) {
	cycle, err := s.getCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCycleResponse(cycle), nil
}

func (s *utilityService) ListCycles(ctx context.Context, year int) ([]dto.CycleResponse, error) {
	cycles, err := s.repo.UtilityCycle.List(ctx, year)
	if err != nil {
		s.logger.Error("列出抄表周期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CycleResponse, 0, len(cycles))
	for i := range cycles {
		result = append(result, *toCycleResponse(&cycles[i]))
	}
	return result, nil
}

// ════════════════════════════════════════
// 抄表
// ════════════════════════════════════════

func (s *utilityService) RecordReading(ctx context.Context, cycleID string, reading *dto.MeterReading, callerID string) (*dto.UtilityInvoiceResponse, error) {
	row, err := s.recordOne(ctx, cycleID, reading, callerID)
	if err != nil {
		return nil, err
	}
	return toUtilityInvoiceResponse(row, nil), nil
}

func (s *utilityService) RecordReadings(ctx context.Context, cycleID string, readings []dto.MeterReading, callerID string) ([]ReadingOutcome, error) {
	if _, err := s.getCycle(ctx, cycleID); err != nil {
		return nil, err
	}

	outcomes := make([]ReadingOutcome, 0, len(readings))
	for i := range readings {
		outcome := ReadingOutcome{RoomID: readings[i].RoomID}
		row, err := s.recordOne(ctx, cycleID, &readings[i], callerID)
		if err != nil {
			outcome.Err = err
		} else {
			outcome.Amount = row.Amount
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// recordOne 在独立事务中录入一个房间，事务内锁定周期行
func (s *utilityService) recordOne(ctx context.Context, cycleID string, reading *dto.MeterReading, callerID string) (*model.UtilityInvoice, error) {
	// 缺少新读数的行不能标记为已录入
	if reading.ElectricityNew == nil || reading.WaterNew == nil {
		s.metrics.ReadingRecorded(false)
		return nil, ErrReadingRequired
	}
	electricityNew, waterNew := *reading.ElectricityNew, *reading.WaterNew

	var row *model.UtilityInvoice

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		cycle, err := tx.UtilityCycle.GetByIDForUpdate(ctx, cycleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCycleNotFound
			}
			return err
		}
		if cycle.Status == model.CycleStatusPublished {
			return ErrCyclePublished
		}

		room, err := tx.Room.GetByID(ctx, reading.RoomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		electricityOld, waterOld, err := s.resolveOldReadings(ctx, tx, cycle, reading)
		if err != nil {
			return err
		}
		if electricityNew < electricityOld {
			return &InvalidReadingError{RoomID: reading.RoomID, Meter: MeterElectricity, Old: electricityOld, New: electricityNew}
		}
		if waterNew < waterOld {
			return &InvalidReadingError{RoomID: reading.RoomID, Meter: MeterWater, Old: waterOld, New: waterNew}
		}

		electricityPrice, err := s.currentPrice(ctx, tx, model.ServiceElectricity)
		if err != nil {
			return err
		}
		waterPrice, err := s.currentPrice(ctx, tx, model.ServiceWater)
		if err != nil {
			return err
		}
		amount := (electricityNew-electricityOld)*electricityPrice + (waterNew-waterOld)*waterPrice

		now := s.now()
		row = &model.UtilityInvoice{
			CycleID:        cycleID,
			RoomID:         reading.RoomID,
			ElectricityOld: &electricityOld,
			ElectricityNew: &electricityNew,
			WaterOld:       &waterOld,
			WaterNew:       &waterNew,
			Amount:         amount,
			Status:         model.UtilityStatusRecorded,
			RecordedAt:     &now,
			RecordedBy:     strPtr(callerID),
		}
		row.Audit(callerID)
		row.UpdatedAt = now

		// 已有行沿用原主键，冲突时按 (cycle_id, room_id) 覆盖读数
		existing, err := tx.UtilityInvoice.GetByCycleAndRoom(ctx, cycleID, reading.RoomID)
		switch {
		case err == nil:
			row.UtilityInvoiceID = existing.UtilityInvoiceID
			row.CreatedAt = existing.CreatedAt
			row.CreatedBy = existing.CreatedBy
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.UtilityInvoice.Upsert(ctx, row); err != nil {
			return err
		}
		row.Room = room
		return nil
	})

	s.metrics.ReadingRecorded(err == nil)
	if err != nil {
		if isUtilityBusinessError(err) {
			return nil, err
		}
		s.logger.Error("录入抄表读数失败",
			zap.String("cycle_id", cycleID),
			zap.String("room_id", reading.RoomID),
			zap.Error(err),
		)
		return nil, err
	}
	return row, nil
}

// resolveOldReadings 未提供旧读数时取该房间上一个已录入周期的新读数，没有则为 0
func (s *utilityService) resolveOldReadings(ctx context.Context, tx *repository.Repository, cycle *model.UtilityInvoiceCycle, reading *dto.MeterReading) (int64, int64, error) {
	var electricityOld, waterOld int64
	if reading.ElectricityOld != nil {
		electricityOld = *reading.ElectricityOld
	}
	if reading.WaterOld != nil {
		waterOld = *reading.WaterOld
	}
	if reading.ElectricityOld != nil && reading.WaterOld != nil {
		return electricityOld, waterOld, nil
	}

	prev, err := tx.UtilityInvoice.GetPreviousReading(ctx, reading.RoomID, cycle.Month, cycle.Year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return electricityOld, waterOld, nil
		}
		return 0, 0, err
	}
	if reading.ElectricityOld == nil && prev.ElectricityNew != nil {
		electricityOld = *prev.ElectricityNew
	}
	if reading.WaterOld == nil && prev.WaterNew != nil {
		waterOld = *prev.WaterNew
	}
	return electricityOld, waterOld, nil
}

func (s *utilityService) currentPrice(ctx context.Context, tx *repository.Repository, serviceName string) (int64, error) {
	price, err := tx.ServicePrice.GetCurrent(ctx, serviceName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrServicePriceMissing, serviceName)
		}
		return 0, err
	}
	return price.UnitPrice, nil
}

// ════════════════════════════════════════
// 状态迁移
// ════════════════════════════════════════

func (s *utilityService) MarkReady(ctx context.Context, id string, callerID string) (*dto.CycleResponse, error) {
	cycle, err := s.getCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cycle.Status {
	case model.CycleStatusPublished:
		return nil, ErrCycleAlreadyPublished
	case model.CycleStatusDraft:
	default:
		return nil, ErrCycleNotDraft
	}

	missing, err := s.repo.UtilityInvoice.CountUnrecorded(ctx, id)
	if err != nil {
		s.logger.Error("统计未录入房间失败", zap.String("cycle_id", id), zap.Error(err))
		return nil, err
	}
	if missing > 0 {
		return nil, &IncompletePublishError{Count: missing}
	}

	if err := s.repo.UtilityCycle.UpdateStatus(ctx, id, cycle.Version, model.CycleStatusReady, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("标记周期就绪失败", zap.String("cycle_id", id), zap.Error(err))
		return nil, err
	}

	cycle.Status = model.CycleStatusReady
	cycle.Version++
	return toCycleResponse(cycle), nil
}

// Publish 在一个事务中锁定周期，为每个房间生成 UTILITY_FEE 账单并将周期置为已发布
func (s *utilityService) Publish(ctx context.Context, id string, callerID string) (*dto.PublishCycleResponse, error) {
	now := s.now()
	created := 0

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		cycle, err := tx.UtilityCycle.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCycleNotFound
			}
			return err
		}
		if cycle.Status == model.CycleStatusPublished {
			return ErrCycleAlreadyPublished
		}

		missing, err := tx.UtilityInvoice.CountUnrecorded(ctx, id)
		if err != nil {
			return err
		}
		if missing > 0 {
			return &IncompletePublishError{Count: missing}
		}

		rows, err := tx.UtilityInvoice.ListByCycle(ctx, id, "")
		if err != nil {
			return err
		}

		for i := range rows {
			row := &rows[i]
			code, err := s.codes.Next(ctx, tx, invoicecode.PrefixUtility)
			if err != nil {
				return err
			}

			invoice := &model.Invoice{
				InvoiceCode:      code,
				Category:         model.InvoiceCategoryUtilityFee,
				TotalAmount:      row.Amount,
				Status:           model.InvoiceStatusPublished,
				RoomID:           strPtr(row.RoomID),
				CycleID:          strPtr(id),
				UtilityInvoiceID: strPtr(row.UtilityInvoiceID),
				Description:      utilityDescription(cycle, row),
				PublishedAt:      &now,
			}
			invoice.Audit(callerID)
			if err := tx.Invoice.Create(ctx, invoice); err != nil {
				return err
			}
			if err := tx.UtilityInvoice.MarkPublished(ctx, row.UtilityInvoiceID, invoice.InvoiceID); err != nil {
				return err
			}
			created++
		}

		ok, err := tx.UtilityCycle.MarkPublished(ctx, id, callerID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCycleAlreadyPublished
		}
		return nil
	})
	if err != nil {
		// utility_invoice_id 唯一索引冲突说明另一个发布已提交
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCycleAlreadyPublished
		}
		if isUtilityBusinessError(err) {
			return nil, err
		}
		s.logger.Error("发布抄表周期失败", zap.String("cycle_id", id), zap.Error(err))
		return nil, err
	}

	s.metrics.CyclePublished()
	s.metrics.InvoicesCreated(model.InvoiceCategoryUtilityFee, created)
	s.logger.Info("抄表周期已发布",
		zap.String("cycle_id", id),
		zap.Int("invoices", created),
		zap.String("published_by", callerID),
	)

	return &dto.PublishCycleResponse{
		CycleID:         id,
		InvoicesCreated: created,
		PublishedAt:     formatTimestamp(&now),
	}, nil
}

func utilityDescription(cycle *model.UtilityInvoiceCycle, row *model.UtilityInvoice) string {
	roomLabel := row.RoomID
	if row.Room != nil {
		roomLabel = row.Room.RoomNumber
		if row.Room.Building != nil {
			roomLabel = row.Room.Building.Name + " - " + roomLabel
		}
	}
	return fmt.Sprintf("水电费 %02d/%d %s", cycle.Month, cycle.Year, roomLabel)
}

// ════════════════════════════════════════
// 查询
// ════════════════════════════════════════

// ListInvoices 周期内各房间账单，附带当前在住学生姓名
func (s *utilityService) ListInvoices(ctx context.Context, cycleID string, req *dto.ListCycleInvoicesRequest) ([]dto.UtilityInvoiceResponse, error) {
	if _, err := s.getCycle(ctx, cycleID); err != nil {
		return nil, err
	}

	rows, err := s.repo.UtilityInvoice.ListByCycle(ctx, cycleID, req.BuildingID)
	if err != nil {
		s.logger.Error("查询周期账单失败", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, err
	}

	roomIDs := make([]string, 0, len(rows))
	for i := range rows {
		roomIDs = append(roomIDs, rows[i].RoomID)
	}
	occupants, err := s.repo.Stay.ListActiveOccupants(ctx, roomIDs)
	if err != nil {
		s.logger.Error("查询在住学生失败", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, err
	}
	names := make(map[string][]string, len(rows))
	for _, o := range occupants {
		names[o.RoomID] = append(names[o.RoomID], o.FullName)
	}

	result := make([]dto.UtilityInvoiceResponse, 0, len(rows))
	for i := range rows {
		result = append(result, *toUtilityInvoiceResponse(&rows[i], names[rows[i].RoomID]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *utilityService) getCycle(ctx context.Context, id string) (*model.UtilityInvoiceCycle, error) {
	cycle, err := s.repo.UtilityCycle.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("查询抄表周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return cycle, nil
}

func isUtilityBusinessError(err error) bool {
	var invalid *InvalidReadingError
	var incomplete *IncompletePublishError
	switch {
	case errors.As(err, &invalid), errors.As(err, &incomplete):
		return true
	case errors.Is(err, ErrCycleNotFound),
		errors.Is(err, ErrCyclePublished),
		errors.Is(err, ErrCycleAlreadyPublished),
		errors.Is(err, ErrServicePriceMissing),
		errors.Is(err, ErrReadingRequired),
		errors.Is(err, ErrRoomNotFound):
		return true
	}
	return false
}

func toCycleResponse(c *model.UtilityInvoiceCycle) *dto.CycleResponse {
	return &dto.CycleResponse{
		ID:          c.CycleID,
		Month:       c.Month,
		Year:        c.Year,
		Status:      c.Status,
		PublishedAt: formatTimestamp(c.PublishedAt),
		Version:     c.Version,
		CreatedAt:   formatTimestamp(&c.CreatedAt),
	}
}

func toUtilityInvoiceResponse(row *model.UtilityInvoice, studentNames []string) *dto.UtilityInvoiceResponse {
	if studentNames == nil {
		studentNames = []string{}
	}
	resp := &dto.UtilityInvoiceResponse{
		ID:             row.UtilityInvoiceID,
		CycleID:        row.CycleID,
		RoomID:         row.RoomID,
		StudentNames:   studentNames,
		ElectricityOld: row.ElectricityOld,
		ElectricityNew: row.ElectricityNew,
		WaterOld:       row.WaterOld,
		WaterNew:       row.WaterNew,
		Amount:         row.Amount,
		Status:         row.Status,
		InvoiceID:      row.InvoiceID,
		RecordedAt:     formatTimestamp(row.RecordedAt),
	}
	if row.Room != nil {
		resp.RoomNumber = row.Room.RoomNumber
		resp.BuildingID = row.Room.BuildingID
		if row.Room.Building != nil {
			resp.BuildingName = row.Room.Building.Name
		}
	}
	return resp
}
