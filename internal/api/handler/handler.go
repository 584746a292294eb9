package handler

import "github.com/avemasa0625-dev/gantt-pro-app/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Dataset  *DatasetHandler
	Session  *SessionHandler
	Progress *ProgressHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Dataset:  NewDatasetHandler(svc.Dataset, svc.Session),
		Session:  NewSessionHandler(svc.Session),
		Progress: NewProgressHandler(svc.Progress),
		Export:   NewExportHandler(svc.Export),
	}
}
