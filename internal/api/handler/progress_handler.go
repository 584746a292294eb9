package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
	"github.com/avemasa0625-dev/gantt-pro-app/pkg/response"
)

// ProgressHandler 进度模块 HTTP 处理器
type ProgressHandler struct {
	progressSvc service.ProgressService
}

// NewProgressHandler 创建 ProgressHandler
func NewProgressHandler(progressSvc service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// Summary 部品进度汇总
// GET /api/v1/parts/:id/progress
func (h *ProgressHandler) Summary(c *gin.Context) {
	resp, err := h.progressSvc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleProgressError(c, err)
		return
	}
	response.OK(c, resp)
}

// Calendar 部品的日历视图（计划与实绩）
// GET /api/v1/parts/:id/calendar
func (h *ProgressHandler) Calendar(c *gin.Context) {
	view, err := h.progressSvc.Calendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleProgressError(c, err)
		return
	}
	response.OK(c, view)
}

// CalendarAll 全部日程行的日历视图
// GET /api/v1/calendar
func (h *ProgressHandler) CalendarAll(c *gin.Context) {
	view, err := h.progressSvc.Calendar(c.Request.Context(), "")
	if err != nil {
		h.handleProgressError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *ProgressHandler) handleProgressError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPartNotFound):
		response.NotFound(c, 20102, err.Error())
	default:
		response.InternalError(c)
	}
}
