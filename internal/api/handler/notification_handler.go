package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// NotificationHandler 通知收件箱 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// ListMine 我的通知
// GET /api/v1/notifications/me?unread_only=
func (h *NotificationHandler) ListMine(c *gin.Context) {
	var req dto.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	page, err := h.notificationSvc.ListMine(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OKPage(c, page.List, page.Total, page.Page, page.PageSize)
}

// MarkRead 标记已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListDeadLetters 分发失败的通知
// GET /api/v1/notifications/dead-letters?limit=
func (h *NotificationHandler) ListDeadLetters(c *gin.Context) {
	letters, err := h.notificationSvc.ListDeadLetters(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": letters})
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 21001, "通知不存在")
	case errors.Is(err, service.ErrDeadLetterUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 21002, "死信队列未启用")
	default:
		handleCommonError(c, err)
	}
}
