package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// ServicePriceHandler 服务单价 HTTP 处理器
type ServicePriceHandler struct {
	priceSvc service.ServicePriceService
}

// NewServicePriceHandler 创建 ServicePriceHandler
func NewServicePriceHandler(priceSvc service.ServicePriceService) *ServicePriceHandler {
	return &ServicePriceHandler{priceSvc: priceSvc}
}

// ListPrices 价格列表
// GET /api/v1/service-prices?service_name=&include_inactive=
func (h *ServicePriceHandler) ListPrices(c *gin.Context) {
	var req dto.ListServicePricesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	prices, err := h.priceSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handlePriceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": prices})
}

// CreatePrice 新增价格，同名旧价格失效
// POST /api/v1/service-prices
func (h *ServicePriceHandler) CreatePrice(c *gin.Context) {
	var req dto.CreateServicePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	price, err := h.priceSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePriceError(c, err)
		return
	}

	response.Created(c, price)
}

// GetCurrentPrice 当前生效价格
// GET /api/v1/service-prices/:name/current
func (h *ServicePriceHandler) GetCurrentPrice(c *gin.Context) {
	price, err := h.priceSvc.Current(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.handlePriceError(c, err)
		return
	}

	response.OK(c, price)
}

func (h *ServicePriceHandler) handlePriceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrServicePriceNotFound):
		response.NotFound(c, 17001, "该服务暂无生效价格")
	case errors.Is(err, service.ErrServicePriceDateInvalid):
		response.BadRequest(c, 17002, "生效日期格式错误")
	default:
		handleCommonError(c, err)
	}
}
