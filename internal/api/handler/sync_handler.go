package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/syncclient"
)

// SyncHandler 远端快照服务处理器（cmd/syncd）
//
// 与仪表盘约定的裸 JSON 结构，不使用统一响应封装。
type SyncHandler struct {
	snapshotSvc service.SnapshotService
	logger      *zap.Logger
}

// NewSyncHandler 创建 SyncHandler
func NewSyncHandler(snapshotSvc service.SnapshotService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{snapshotSvc: snapshotSvc, logger: logger}
}

// GetData 最新作业日志；尚无快照时 logs 为 null
// GET /api/data
func (h *SyncHandler) GetData(c *gin.Context) {
	log, err := h.snapshotSvc.Latest(c.Request.Context())
	if err != nil {
		h.logger.Error("读取最新快照失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "读取快照失败"})
		return
	}
	c.JSON(http.StatusOK, syncclient.DataResponse{
		Overall: []json.RawMessage{},
		Product: []json.RawMessage{},
		Parts:   []json.RawMessage{},
		Logs:    log,
	})
}

// SaveLog 保存一份完整作业日志
// POST /api/save-log
func (h *SyncHandler) SaveLog(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "读取请求体失败"})
		return
	}

	if _, err := h.snapshotSvc.Save(c.Request.Context(), raw, c.ClientIP()); err != nil {
		if errors.Is(err, service.ErrInvalidWorkLog) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": service.ErrInvalidWorkLog.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "保存快照失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
