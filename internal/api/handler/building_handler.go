package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// BuildingHandler 宿舍楼与房间 HTTP 处理器
type BuildingHandler struct {
	buildingSvc service.BuildingService
}

// NewBuildingHandler 创建 BuildingHandler
func NewBuildingHandler(buildingSvc service.BuildingService) *BuildingHandler {
	return &BuildingHandler{buildingSvc: buildingSvc}
}

// ListBuildings 宿舍楼列表
// GET /api/v1/buildings
func (h *BuildingHandler) ListBuildings(c *gin.Context) {
	buildings, err := h.buildingSvc.ListBuildings(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": buildings})
}

// GetBuilding 宿舍楼详情（含管理员）
// GET /api/v1/buildings/:id
func (h *BuildingHandler) GetBuilding(c *gin.Context) {
	building, err := h.buildingSvc.GetBuilding(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleBuildingError(c, err)
		return
	}

	response.OK(c, building)
}

// CreateBuilding 创建宿舍楼
// POST /api/v1/buildings
func (h *BuildingHandler) CreateBuilding(c *gin.Context) {
	var req dto.CreateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	building, err := h.buildingSvc.CreateBuilding(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleBuildingError(c, err)
		return
	}

	response.Created(c, building)
}

// AssignManagers 覆盖宿舍楼管理员
// PUT /api/v1/buildings/:id/managers
func (h *BuildingHandler) AssignManagers(c *gin.Context) {
	var req dto.AssignManagersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	building, err := h.buildingSvc.AssignManagers(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleBuildingError(c, err)
		return
	}

	response.OK(c, building)
}

// ListRooms 房间列表
// GET /api/v1/rooms?building_id=&status=
func (h *BuildingHandler) ListRooms(c *gin.Context) {
	var req dto.ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rooms, err := h.buildingSvc.ListRooms(c.Request.Context(), &req)
	if err != nil {
		h.handleBuildingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rooms})
}

// GetRoom 房间详情
// GET /api/v1/rooms/:id
func (h *BuildingHandler) GetRoom(c *gin.Context) {
	room, err := h.buildingSvc.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleBuildingError(c, err)
		return
	}

	response.OK(c, room)
}

// CreateRoom 创建房间
// POST /api/v1/rooms
func (h *BuildingHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.buildingSvc.CreateRoom(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleBuildingError(c, err)
		return
	}

	response.Created(c, room)
}

func (h *BuildingHandler) handleBuildingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBuildingNotFound):
		response.NotFound(c, 15001, "宿舍楼不存在")
	case errors.Is(err, service.ErrBuildingNameExists):
		response.Conflict(c, 15002, "宿舍楼名称已存在")
	case errors.Is(err, service.ErrManagerInvalid):
		response.BadRequest(c, 15003, "指定的用户不是宿舍管理员")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 15004, "房间不存在")
	case errors.Is(err, service.ErrRoomNumberExists):
		response.Conflict(c, 15005, "该宿舍楼下房间号已存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 15006, "用户不存在")
	default:
		handleCommonError(c, err)
	}
}
