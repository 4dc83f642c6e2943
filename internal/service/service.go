package service

import (
	"go.uber.org/zap"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/config"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Semester       SemesterService
	Building       BuildingService
	User           UserService
	Stay           StayService
	ServicePrice   ServicePriceService
	Utility        UtilityService
	Invoice        InvoiceService
	SupportRequest SupportRequestService
	Notification   NotificationService
	Export         ExportService
}

// NewService 创建 Service 聚合
// deadLetters 为 nil 时分发失败只记录日志
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deadLetters DeadLetterStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	codes := NewInvoiceCodeGenerator(cfg.Billing.Location())
	notification := NewNotificationService(repo, deadLetters, m, logger)
	utility := NewUtilityService(repo, codes, m, logger)

	return &Service{
		Semester:       NewSemesterService(repo, logger),
		Building:       NewBuildingService(repo, logger),
		User:           NewUserService(repo, logger),
		Stay:           NewStayService(repo, logger),
		ServicePrice:   NewServicePriceService(repo, logger),
		Utility:        utility,
		Invoice:        NewInvoiceService(repo, codes, cfg.Billing, m, logger),
		SupportRequest: NewSupportRequestService(repo, notification, logger),
		Notification:   notification,
		Export:         NewExportService(utility, logger),
	}
}
