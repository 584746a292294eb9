package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dto"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
	"github.com/avemasa0625-dev/gantt-pro-app/pkg/response"
)

// SessionHandler 作业计时模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Get 部品当前作业状态
// GET /api/v1/parts/:id/session
func (h *SessionHandler) Get(c *gin.Context) {
	resp, err := h.sessionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, resp)
}

// Start 开始当前工序计时
// POST /api/v1/parts/:id/session/start
func (h *SessionHandler) Start(c *gin.Context) {
	resp, err := h.sessionSvc.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, resp)
}

// Pause 暂停计时
// POST /api/v1/parts/:id/session/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	resp, err := h.sessionSvc.Pause(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, resp)
}

// Undo 撤销一步
// POST /api/v1/parts/:id/session/undo
func (h *SessionHandler) Undo(c *gin.Context) {
	resp, err := h.sessionSvc.Undo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, resp)
}

// Complete 完成当前工序
// POST /api/v1/parts/:id/session/complete
//
// 最后一道工序：不带 confirm 时返回 409 与合计时间，客户端确认后带 confirm 重新提交。
func (h *SessionHandler) Complete(c *gin.Context) {
	var req dto.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.Complete(c.Request.Context(), c.Param("id"), req.Confirm)
	if err != nil {
		if errors.Is(err, service.ErrConfirmationRequired) {
			response.ErrorWithData(c, http.StatusConflict, 21002, err.Error(), resp)
			return
		}
		h.handleSessionError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPartNotFound):
		response.NotFound(c, 20102, err.Error())
	case errors.Is(err, worksession.ErrNoProcesses):
		response.BadRequest(c, 21001, err.Error())
	case errors.Is(err, worksession.ErrEngineStopped):
		response.Error(c, http.StatusServiceUnavailable, 21003, err.Error())
	default:
		response.InternalError(c)
	}
}
