package handler

import "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Semester       *SemesterHandler
	Building       *BuildingHandler
	User           *UserHandler
	Stay           *StayHandler
	ServicePrice   *ServicePriceHandler
	Utility        *UtilityHandler
	Invoice        *InvoiceHandler
	SupportRequest *SupportRequestHandler
	Notification   *NotificationHandler
	Export         *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Semester:       NewSemesterHandler(svc.Semester),
		Building:       NewBuildingHandler(svc.Building),
		User:           NewUserHandler(svc.User),
		Stay:           NewStayHandler(svc.Stay),
		ServicePrice:   NewServicePriceHandler(svc.ServicePrice),
		Utility:        NewUtilityHandler(svc.Utility),
		Invoice:        NewInvoiceHandler(svc.Invoice),
		SupportRequest: NewSupportRequestHandler(svc.SupportRequest),
		Notification:   NewNotificationHandler(svc.Notification),
		Export:         NewExportHandler(svc.Export),
	}
}
