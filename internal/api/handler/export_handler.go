package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
	"github.com/avemasa0625-dev/gantt-pro-app/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReport 导出製造日報
// GET /api/v1/export/report?format=csv|xlsx
func (h *ExportHandler) ExportReport(c *gin.Context) {
	out, err := h.exportSvc.ExportReport(c.Request.Context(), c.Query("format"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, out.Buffer.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportFormat):
		response.BadRequest(c, 22001, "format 仅支持 csv 或 xlsx")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
