package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/repository"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
)

// RemoteStore 远端快照服务（internal/syncclient 实现）
type RemoteStore interface {
	Load(ctx context.Context) (*model.WorkLog, error)
	Save(ctx context.Context, log model.WorkLog) error
}

// Connectivity 远端连通状态，由启动探测与每次上传结果更新
type Connectivity struct {
	ok atomic.Bool
}

// Record 记录一次远端调用结果
func (c *Connectivity) Record(err error) {
	c.ok.Store(err == nil)
}

// Connected 最近一次远端调用是否成功
func (c *Connectivity) Connected() bool {
	return c.ok.Load()
}

// WriteBehind 作业日志的异步写回
//
// 只保留最新一次变更：本地写入按顺序执行，
// 远端上传各自独立发出，不等待、不重试，完成顺序不保证。
type WriteBehind struct {
	repo    repository.WorkLogRepository
	remote  RemoteStore // 可为 nil
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	pending *worksession.Change
	signal  chan struct{}
	stop    chan struct{}
	done    chan struct{}
	uploads sync.WaitGroup
	conn    *Connectivity
}

// NewWriteBehind 创建并启动写回协程；remote 为 nil 时只写本地
func NewWriteBehind(repo repository.WorkLogRepository, remote RemoteStore, timeout time.Duration, conn *Connectivity, logger *zap.Logger) *WriteBehind {
	w := &WriteBehind{
		repo:    repo,
		remote:  remote,
		timeout: timeout,
		conn:    conn,
		logger:  logger,
		signal:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Submit 实现 worksession.Sink；不阻塞
func (w *WriteBehind) Submit(c worksession.Change) {
	w.mu.Lock()
	if w.pending != nil && w.pending.Remote {
		c.Remote = true
	}
	w.pending = &c
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Close 写完剩余变更并等待已发出的上传结束
func (w *WriteBehind) Close() {
	close(w.stop)
	<-w.done
	w.uploads.Wait()
}

func (w *WriteBehind) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.signal:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *WriteBehind) drain() {
	w.mu.Lock()
	c := w.pending
	w.pending = nil
	w.mu.Unlock()
	if c == nil {
		return
	}

	if err := w.repo.Save(context.Background(), c.Log); err != nil {
		w.logger.Error("写入本地作业日志失败", zap.String("reason", c.Reason), zap.Error(err))
	}
	if c.Remote && w.remote != nil {
		w.upload(c.Log, c.Reason)
	}
}

func (w *WriteBehind) upload(log model.WorkLog, reason string) {
	w.uploads.Add(1)
	go func() {
		defer w.uploads.Done()
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		err := w.remote.Save(ctx, log)
		if err != nil {
			w.logger.Warn("上传作业日志失败", zap.String("reason", reason), zap.Error(err))
		}
		if w.conn != nil {
			w.conn.Record(err)
		}
	}()
}
