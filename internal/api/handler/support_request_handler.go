package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// SupportRequestHandler 支持请求 HTTP 处理器
// 权限判断（创建者 / 管理人员）在 Service 层完成
type SupportRequestHandler struct {
	supportSvc service.SupportRequestService
}

// NewSupportRequestHandler 创建 SupportRequestHandler
func NewSupportRequestHandler(supportSvc service.SupportRequestService) *SupportRequestHandler {
	return &SupportRequestHandler{supportSvc: supportSvc}
}

// Create 学生提交支持请求
// POST /api/v1/support-requests
func (h *SupportRequestHandler) Create(c *gin.Context) {
	var req dto.CreateSupportRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.supportSvc.Create(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.Created(c, result)
}

// List 支持请求列表
// GET /api/v1/support-requests
func (h *SupportRequestHandler) List(c *gin.Context) {
	var req dto.ListSupportRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	page, err := h.supportSvc.List(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.OKPage(c, page.List, page.Total, page.Page, page.PageSize)
}

// Get 支持请求详情
// GET /api/v1/support-requests/:id
func (h *SupportRequestHandler) Get(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.supportSvc.Get(c.Request.Context(), c.Param("id"), callerID, role)
	if err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.OK(c, result)
}

// Update 修改或回复支持请求
// PUT /api/v1/support-requests/:id
func (h *SupportRequestHandler) Update(c *gin.Context) {
	var req dto.UpdateSupportRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.supportSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID, role)
	if err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除支持请求
// DELETE /api/v1/support-requests/:id
func (h *SupportRequestHandler) Delete(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.supportSvc.Delete(c.Request.Context(), c.Param("id"), callerID, role); err != nil {
		h.handleSupportError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *SupportRequestHandler) handleSupportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSupportRequestNotFound):
		response.NotFound(c, 20001, "支持请求不存在")
	case errors.Is(err, service.ErrSupportRequestForbidden):
		response.Forbidden(c, 20002, "无权操作该支持请求")
	case errors.Is(err, service.ErrSupportRequestStudentOnly):
		response.Forbidden(c, 20003, "只有学生可以提交支持请求")
	case errors.Is(err, service.ErrSupportRequestLocked):
		response.Conflict(c, 20004, "支持请求已在处理中，不能再修改")
	case errors.Is(err, service.ErrSupportRequestTransition):
		response.Conflict(c, 20005, "支持请求状态不允许该变更")
	default:
		handleCommonError(c, err)
	}
}
