package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/api/middleware"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextRole)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 同时提取 user_id 与 role
func MustGetCaller(c *gin.Context) (string, string, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return "", "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", "", false
	}
	return id, role, true
}

// queryInt 读取可选的整数查询参数，缺省或非法时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// handleCommonError 各模块共用的兜底映射
func handleCommonError(c *gin.Context, err error) {
	if pkgerrors.IsOptimisticLock(err) {
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
		return
	}
	response.InternalError(c)
}
