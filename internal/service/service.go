package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/config"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/repository"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Dataset  DatasetService
	Session  SessionService
	Progress ProgressService
	Export   ExportService
}

// NewService 创建 Service 聚合
//
// engine 需由调用方另行 Run；remote 为 nil 时仅使用本地存储。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	engine *worksession.Engine,
	remote RemoteStore,
	conn *Connectivity,
	logger *zap.Logger,
) *Service {
	loc := cfg.Tracker.Location()
	now := func() time.Time { return time.Now().In(loc) }

	datasets := newDatasetService(repo, cfg.Tracker.SampleDir, logger)
	session := newSessionService(datasets, engine, repo, remote, cfg.Sync.Timeout, conn, logger)
	datasets.onSwap = session.reconcile

	return &Service{
		Dataset:  datasets,
		Session:  session,
		Progress: NewProgressService(datasets, engine, now),
		Export:   NewExportService(datasets, engine, now, logger),
	}
}
