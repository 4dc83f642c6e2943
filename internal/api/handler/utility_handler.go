package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// UtilityHandler 水电抄表与周期发布 HTTP 处理器
type UtilityHandler struct {
	utilitySvc service.UtilityService
}

// NewUtilityHandler 创建 UtilityHandler
func NewUtilityHandler(utilitySvc service.UtilityService) *UtilityHandler {
	return &UtilityHandler{utilitySvc: utilitySvc}
}

// CreateCycle 创建抄表周期
// POST /api/v1/utility-invoices/cycles
func (h *UtilityHandler) CreateCycle(c *gin.Context) {
	var req dto.CreateCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.utilitySvc.CreateCycle(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	response.Created(c, cycle)
}

// ListCycles 周期列表
// GET /api/v1/utility-invoices/cycles?year=
func (h *UtilityHandler) ListCycles(c *gin.Context) {
	cycles, err := h.utilitySvc.ListCycles(c.Request.Context(), queryInt(c, "year", 0))
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": cycles})
}

// GetCycle 周期详情
// GET /api/v1/utility-invoices/cycles/:cycleId
func (h *UtilityHandler) GetCycle(c *gin.Context) {
	cycle, err := h.utilitySvc.GetCycle(c.Request.Context(), c.Param("cycleId"))
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	response.OK(c, cycle)
}

// RecordReadings 批量录入读数
// POST /api/v1/utility-invoices/cycles/:cycleId/record-readings
//
// 各房间独立处理，单条失败不影响其他房间，始终返回 200 与逐条结果
func (h *UtilityHandler) RecordReadings(c *gin.Context) {
	var req dto.RecordReadingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	outcomes, err := h.utilitySvc.RecordReadings(c.Request.Context(), c.Param("cycleId"), req.Readings, callerID)
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	resp := dto.RecordReadingsResponse{
		Total:   len(outcomes),
		Results: make([]dto.ReadingResult, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		result := dto.ReadingResult{RoomID: o.RoomID, Success: o.Err == nil}
		if o.Err == nil {
			amount := o.Amount
			result.Amount = &amount
			resp.Succeeded++
		} else {
			_, code, msg := utilityErrorStatus(o.Err)
			result.ErrorCode = code
			result.Error = msg
			resp.Failed++
		}
		resp.Results = append(resp.Results, result)
	}

	response.OK(c, resp)
}

// RecordReading 单个房间录入读数
// PUT /api/v1/utility-invoices/cycles/:cycleId/rooms/:roomId/reading
func (h *UtilityHandler) RecordReading(c *gin.Context) {
	var req dto.RecordReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reading := &dto.MeterReading{
		RoomID:         c.Param("roomId"),
		ElectricityOld: req.ElectricityOld,
		ElectricityNew: req.ElectricityNew,
		WaterOld:       req.WaterOld,
		WaterNew:       req.WaterNew,
	}
	row, err := h.utilitySvc.RecordReading(c.Request.Context(), c.Param("cycleId"), reading, callerID)
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	response.OK(c, row)
}

// MarkReady 标记周期就绪
// PUT /api/v1/utility-invoices/cycles/:cycleId/ready
func (h *UtilityHandler) MarkReady(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.utilitySvc.MarkReady(c.Request.Context(), c.Param("cycleId"), callerID)
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	response.OK(c, cycle)
}

// Publish 发布周期并生成账单
// POST /api/v1/utility-invoices/cycles/:cycleId/publish
func (h *UtilityHandler) Publish(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.utilitySvc.Publish(c.Request.Context(), c.Param("cycleId"), callerID)
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	response.OK(c, result)
}

// ListInvoices 周期内各房间账单
// GET /api/v1/utility-invoices/cycles/:cycleId/invoices?buildingId=
func (h *UtilityHandler) ListInvoices(c *gin.Context) {
	var req dto.ListCycleInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rows, err := h.utilitySvc.ListInvoices(c.Request.Context(), c.Param("cycleId"), &req)
	if err != nil {
		h.handleUtilityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rows})
}

// handleUtilityError 统一处理水电模块业务错误
func (h *UtilityHandler) handleUtilityError(c *gin.Context, err error) {
	var incomplete *service.IncompletePublishError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusBadRequest, response.Response{
			Code:    18008,
			Message: incomplete.Error(),
			Data:    gin.H{"unrecorded": incomplete.Count},
		})
		return
	}

	status, code, msg := utilityErrorStatus(err)
	if status == http.StatusInternalServerError {
		handleCommonError(c, err)
		return
	}
	response.Error(c, status, code, msg)
}

// utilityErrorStatus 业务错误 → HTTP 状态、业务码与提示
// 批量录入的逐条结果同样使用这里的业务码
func utilityErrorStatus(err error) (int, int, string) {
	var invalid *service.InvalidReadingError
	var incomplete *service.IncompletePublishError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, 18007, invalid.Error()
	case errors.As(err, &incomplete):
		return http.StatusBadRequest, 18008, incomplete.Error()
	case errors.Is(err, service.ErrCycleNotFound):
		return http.StatusNotFound, 18001, "抄表周期不存在"
	case errors.Is(err, service.ErrCycleExists):
		return http.StatusConflict, 18002, "该月份的抄表周期已存在"
	case errors.Is(err, service.ErrCyclePublished):
		return http.StatusConflict, 18003, "抄表周期已发布，不能再录入读数"
	case errors.Is(err, service.ErrCycleAlreadyPublished):
		return http.StatusConflict, 18004, "抄表周期已发布"
	case errors.Is(err, service.ErrCycleNotDraft):
		return http.StatusConflict, 18005, "只有草稿状态的周期可以标记为就绪"
	case errors.Is(err, service.ErrServicePriceMissing):
		return http.StatusBadRequest, 18006, "缺少有效的水电单价"
	case errors.Is(err, service.ErrReadingRequired):
		return http.StatusBadRequest, 18010, "必须填写电表和水表的新读数"
	case errors.Is(err, service.ErrRoomNotFound):
		return http.StatusNotFound, 15004, "房间不存在"
	case pkgerrors.IsOptimisticLock(err):
		return http.StatusConflict, 10006, "数据已被其他操作修改，请刷新后重试"
	}
	return http.StatusInternalServerError, 50000, "服务器内部错误"
}
