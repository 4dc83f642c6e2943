package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// InvoiceHandler 账单 HTTP 处理器
type InvoiceHandler struct {
	invoiceSvc service.InvoiceService
}

// NewInvoiceHandler 创建 InvoiceHandler
func NewInvoiceHandler(invoiceSvc service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceSvc: invoiceSvc}
}

// ListInvoices 账单列表（学生只返回自己可见的账单）
// GET /api/v1/invoices
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var req dto.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	page, err := h.invoiceSvc.List(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleInvoiceError(c, err)
		return
	}

	response.OKPage(c, page.List, page.Total, page.Page, page.PageSize)
}

// GetInvoice 账单详情
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceSvc.Get(c.Request.Context(), c.Param("id"), callerID, role)
	if err != nil {
		h.handleInvoiceError(c, err)
		return
	}

	response.OK(c, invoice)
}

// UpdateStatus 账单状态变更
// PUT /api/v1/invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleInvoiceError(c, err)
		return
	}

	response.OK(c, invoice)
}

// CreateOther 其他费用账单
// POST /api/v1/invoices
func (h *InvoiceHandler) CreateOther(c *gin.Context) {
	var req dto.CreateOtherInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceSvc.CreateOther(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleInvoiceError(c, err)
		return
	}

	response.Created(c, invoice)
}

// BillRoomFees 按学期生成住宿费账单
// POST /api/v1/invoices/room-fees
func (h *InvoiceHandler) BillRoomFees(c *gin.Context) {
	var req dto.BillRoomFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.invoiceSvc.BillRoomFees(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleInvoiceError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *InvoiceHandler) handleInvoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvoiceNotFound):
		response.NotFound(c, 19001, "账单不存在")
	case errors.Is(err, service.ErrInvoiceForbidden):
		response.Forbidden(c, 19002, "无权查看该账单")
	case errors.Is(err, service.ErrInvoiceTransition):
		response.Conflict(c, 19003, "账单状态不允许该变更")
	case errors.Is(err, service.ErrInvoiceDateInvalid):
		response.BadRequest(c, 19004, "付款期限格式错误")
	case errors.Is(err, service.ErrInvoiceTargetRequired):
		response.BadRequest(c, 19005, "必须指定学生或房间")
	case errors.Is(err, service.ErrRoomFeeBillingRace):
		response.Conflict(c, 19006, "住宿费账单正在生成，请稍后重试")
	case errors.Is(err, service.ErrStudentInvalid):
		response.BadRequest(c, 16005, "指定的用户不是学生")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 15006, "用户不存在")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 15004, "房间不存在")
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 14001, "学期不存在")
	default:
		handleCommonError(c, err)
	}
}
