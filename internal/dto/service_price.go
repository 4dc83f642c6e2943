package dto

// ── 服务单价 DTO ──

// CreateServicePriceRequest 新增价格，同名旧价格自动失效
type CreateServicePriceRequest struct {
	ServiceName string `json:"service_name" binding:"required,min=1,max=30"`
	UnitPrice   int64  `json:"unit_price"   binding:"required,gt=0"`
	Unit        string `json:"unit"         binding:"required,max=20"`
	ApplyDate   string `json:"apply_date"   binding:"required"`
}

// ListServicePricesRequest 价格列表筛选
type ListServicePricesRequest struct {
	ServiceName     string `form:"service_name"`
	IncludeInactive bool   `form:"include_inactive"`
}

// ServicePriceResponse 价格信息
type ServicePriceResponse struct {
	ID          string `json:"id"`
	ServiceName string `json:"service_name"`
	UnitPrice   int64  `json:"unit_price"`
	Unit        string `json:"unit"`
	ApplyDate   string `json:"apply_date"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}
