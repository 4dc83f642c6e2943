package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportCycleInvoices 导出周期水电账单
// GET /api/v1/utility-invoices/cycles/:cycleId/export
func (h *ExportHandler) ExportCycleInvoices(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportCycleInvoices(c.Request.Context(), c.Param("cycleId"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCycleNotFound):
		response.NotFound(c, 18001, "抄表周期不存在")
	case errors.Is(err, service.ErrExportNoItems):
		response.NotFound(c, 18009, "该周期暂无房间账单")
	default:
		response.InternalError(c)
	}
}
