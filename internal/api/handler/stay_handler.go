package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// StayHandler 住宿模块 HTTP 处理器
type StayHandler struct {
	staySvc service.StayService
}

// NewStayHandler 创建 StayHandler
func NewStayHandler(staySvc service.StayService) *StayHandler {
	return &StayHandler{staySvc: staySvc}
}

// CreateStay 办理入住
// POST /api/v1/stays
func (h *StayHandler) CreateStay(c *gin.Context) {
	var req dto.CreateStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stay, err := h.staySvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.Created(c, stay)
}

// ListStays 住宿记录列表
// GET /api/v1/stays
func (h *StayHandler) ListStays(c *gin.Context) {
	var req dto.ListStaysRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	page, err := h.staySvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OKPage(c, page.List, page.Total, page.Page, page.PageSize)
}

// EndStay 办理退宿
// PUT /api/v1/stays/:id/end
func (h *StayHandler) EndStay(c *gin.Context) {
	var req dto.EndStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stay, err := h.staySvc.End(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, stay)
}

// UpdateStayStatus 修改住宿状态
// PUT /api/v1/stays/:id/status
func (h *StayHandler) UpdateStayStatus(c *gin.Context) {
	var req dto.UpdateStayStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stay, err := h.staySvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, stay)
}

// GetMyStay 当前学生的在住记录
// GET /api/v1/stays/me
func (h *StayHandler) GetMyStay(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stay, err := h.staySvc.GetActiveByStudent(c.Request.Context(), callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, stay)
}

// GetStudentActiveStay 指定学生的在住记录
// GET /api/v1/stays/students/:studentId/active
func (h *StayHandler) GetStudentActiveStay(c *gin.Context) {
	stay, err := h.staySvc.GetActiveByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, stay)
}

func (h *StayHandler) handleStayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStayNotFound):
		response.NotFound(c, 16001, "住宿记录不存在")
	case errors.Is(err, service.ErrActiveStayExists):
		response.Conflict(c, 16002, "该学生已有在住记录")
	case errors.Is(err, service.ErrStayNotActive):
		response.Conflict(c, 16003, "住宿记录不处于在住状态")
	case errors.Is(err, service.ErrStayDateInvalid):
		response.BadRequest(c, 16004, "住宿日期无效")
	case errors.Is(err, service.ErrStudentInvalid):
		response.BadRequest(c, 16005, "指定的用户不是学生")
	case errors.Is(err, service.ErrRoomFull):
		response.Conflict(c, 16006, "房间已住满")
	case errors.Is(err, service.ErrRoomUnderMaintenance):
		response.Conflict(c, 16007, "房间维修中，暂不可入住")
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
