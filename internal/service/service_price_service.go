package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
)

// ── 服务单价业务错误 ──

var (
	ErrServicePriceNotFound    = errors.New("该服务暂无生效价格")
	ErrServicePriceDateInvalid = errors.New("生效日期格式错误")
)

// ServicePriceService 服务单价业务接口
//
// 当前价格 = 该服务 is_active 且 apply_date 最新的一条，不按日期区间回溯历史价格。
type ServicePriceService interface {
	Create(ctx context.Context, req *dto.CreateServicePriceRequest, callerID string) (*dto.ServicePriceResponse, error)
	Current(ctx context.Context, serviceName string) (*dto.ServicePriceResponse, error)
	List(ctx context.Context, req *dto.ListServicePricesRequest) ([]dto.ServicePriceResponse, error)
}

type servicePriceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewServicePriceService 创建 ServicePriceService 实例
func NewServicePriceService(repo *repository.Repository, logger *zap.Logger) ServicePriceService {
	return &servicePriceService{repo: repo, logger: logger}
}

func (s *servicePriceService) Create(ctx context.Context, req *dto.CreateServicePriceRequest, callerID string) (*dto.ServicePriceResponse, error) {
	applyDate, err := parseDate(req.ApplyDate)
	if err != nil {
		return nil, ErrServicePriceDateInvalid
	}

	price := &model.ServicePrice{
		ServiceName: strings.ToUpper(strings.TrimSpace(req.ServiceName)),
		UnitPrice:   req.UnitPrice,
		Unit:        req.Unit,
		ApplyDate:   applyDate,
		IsActive:    true,
	}
	price.Audit(callerID)

	// 旧价格失效与新价格写入同一事务，同名始终只有一条生效
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.ServicePrice.DeactivateByName(ctx, price.ServiceName); err != nil {
			return err
		}
		return tx.ServicePrice.Create(ctx, price)
	})
	if err != nil {
		s.logger.Error("创建服务价格失败", zap.String("service", price.ServiceName), zap.Error(err))
		return nil, err
	}

	s.logger.Info("服务价格已更新",
		zap.String("service", price.ServiceName),
		zap.Int64("unit_price", price.UnitPrice),
	)
	return toServicePriceResponse(price), nil
}

func (s *servicePriceService) Current(ctx context.Context, serviceName string) (*dto.ServicePriceResponse, error) {
	price, err := s.repo.ServicePrice.GetCurrent(ctx, strings.ToUpper(serviceName))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServicePriceNotFound
		}
		s.logger.Error("查询当前价格失败", zap.String("service", serviceName), zap.Error(err))
		return nil, err
	}
	return toServicePriceResponse(price), nil
}

func (s *servicePriceService) List(ctx context.Context, req *dto.ListServicePricesRequest) ([]dto.ServicePriceResponse, error) {
	prices, err := s.repo.ServicePrice.List(ctx, strings.ToUpper(req.ServiceName), req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出服务价格失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ServicePriceResponse, 0, len(prices))
	for i := range prices {
		result = append(result, *toServicePriceResponse(&prices[i]))
	}
	return result, nil
}

func toServicePriceResponse(p *model.ServicePrice) *dto.ServicePriceResponse {
	return &dto.ServicePriceResponse{
		ID:          p.ServicePriceID,
		ServiceName: p.ServiceName,
		UnitPrice:   p.UnitPrice,
		Unit:        p.Unit,
		ApplyDate:   formatDate(p.ApplyDate),
		IsActive:    p.IsActive,
		CreatedAt:   formatTimestamp(&p.CreatedAt),
	}
}
