// Package app 装配现场服务的运行时（cmd/server 与 cmd/floorctl 共用）。
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/config"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/repository"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/syncclient"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
	"github.com/avemasa0625-dev/gantt-pro-app/pkg/kvstore"
)

// App 本地存储 → 写回 → 作业引擎 → Service
type App struct {
	Service *service.Service

	kv     *kvstore.Store
	engine *worksession.Engine
	sink   *service.WriteBehind
	logger *zap.Logger

	cancel  context.CancelFunc
	stopped chan struct{}
}

// New 打开本地存储并完成依赖注入；引擎在 Start 时才开始运行
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// 1. 本地存储
	kv, err := kvstore.Open(cfg.Storage.Dir, logger)
	if err != nil {
		return nil, err
	}
	repo := repository.NewRepository(kv)

	// 2. 远端快照（可选）
	var remote service.RemoteStore
	if cfg.Sync.Enabled {
		client := syncclient.New(cfg.Sync.BaseURL, cfg.Sync.Timeout)
		logger.Info("远端同步已启用", zap.String("base_url", client.BaseURL()))
		remote = client
	}
	conn := &service.Connectivity{}

	// 3. 写回 + 引擎
	sink := service.NewWriteBehind(repo.WorkLog, remote, cfg.Sync.Timeout, conn, logger)
	// 实绩时间戳与日期固定为 UTC；按时区换算在日历统计时进行
	store := worksession.NewStore(model.NewWorkLog(), nil)
	engine := worksession.NewEngine(store, sink, logger,
		worksession.WithTickInterval(cfg.Tracker.TickInterval),
		worksession.WithFlushInterval(cfg.Tracker.FlushInterval),
	)

	return &App{
		Service: service.NewService(cfg, repo, engine, remote, conn, logger),
		kv:      kv,
		engine:  engine,
		sink:    sink,
		logger:  logger,
	}, nil
}

// Start 启动引擎并加载数据集与作业日志
//
// 数据集读取失败只记录日志（Status 中带错误信息），不阻止启动。
func (a *App) Start(ctx context.Context) error {
	ectx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.stopped = make(chan struct{})
	go func() {
		defer close(a.stopped)
		if err := a.engine.Run(ectx); err != nil {
			a.logger.Error("作业引擎异常退出", zap.Error(err))
		}
	}()

	if err := a.Service.Dataset.Load(ctx); err != nil {
		a.logger.Error("加载数据集失败", zap.Error(err))
	}
	if err := a.Service.Session.Bootstrap(ctx); err != nil {
		return fmt.Errorf("恢复作业日志失败: %w", err)
	}
	return nil
}

// Close 停止引擎 → 写完剩余变更 → 关闭本地存储
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
		<-a.stopped
	}
	a.sink.Close()
	return a.kv.Close()
}
