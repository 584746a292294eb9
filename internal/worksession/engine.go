package worksession

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// ErrEngineStopped Run 已退出后再发送命令
var ErrEngineStopped = errors.New("作业引擎已停止")

// Change 交给 Sink 的一次持久化请求
type Change struct {
	Log    model.WorkLog
	Reason string // 触发原因：命令名 / flush / shutdown
	Remote bool   // 是否需要同步到远端（仅命令触发）
}

// Sink 写回目标；在引擎 goroutine 上调用，实现方不得阻塞
type Sink interface {
	Submit(Change)
}

// SinkFunc 函数适配
type SinkFunc func(Change)

func (f SinkFunc) Submit(c Change) { f(c) }

type request struct {
	name   string
	remote bool
	fn     func(*Store) (bool, error)
	reply  chan error
}

// Engine 独占 Store 的执行体
//
// 命令与计时 tick 在同一个 goroutine 中串行执行，
// ticker 的生命周期与 Run 调用一致。
type Engine struct {
	store  *Store
	sink   Sink
	logger *zap.Logger

	tickInterval  time.Duration
	flushInterval time.Duration
	ticks         <-chan time.Time
	flushes       <-chan time.Time

	cmds chan request
	done chan struct{}
}

// Option 引擎选项
type Option func(*Engine)

// WithTickInterval 计时周期，默认 1s
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// WithFlushInterval 仅有 tick 变化时的写回周期；0 表示只在退出时写回
func WithFlushInterval(d time.Duration) Option {
	return func(e *Engine) { e.flushInterval = d }
}

// WithTickSource 使用外部 tick 通道代替内部 ticker（测试用）
func WithTickSource(ch <-chan time.Time) Option {
	return func(e *Engine) { e.ticks = ch }
}

// WithFlushSource 使用外部 flush 通道（测试用）
func WithFlushSource(ch <-chan time.Time) Option {
	return func(e *Engine) { e.flushes = ch }
}

// NewEngine 创建引擎；sink 可为 nil
func NewEngine(store *Store, sink Sink, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		sink:         sink,
		logger:       logger,
		tickInterval: time.Second,
		cmds:         make(chan request),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run 主循环，阻塞至 ctx 取消；退出前写回未保存的 tick 变化
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	ticks := e.ticks
	if ticks == nil {
		ticker := time.NewTicker(e.tickInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}
	flushes := e.flushes
	if flushes == nil && e.flushInterval > 0 {
		ft := time.NewTicker(e.flushInterval)
		defer ft.Stop()
		flushes = ft.C
	}

	e.logger.Info("作业引擎启动",
		zap.Duration("tick", e.tickInterval),
		zap.Duration("flush", e.flushInterval),
	)

	dirty := false
	for {
		select {
		case <-ctx.Done():
			if dirty {
				e.emit("shutdown", false)
			}
			e.logger.Info("作业引擎停止")
			return nil

		case <-ticks:
			if e.store.Tick() > 0 {
				dirty = true
			}

		case <-flushes:
			if dirty {
				e.emit("flush", false)
				dirty = false
			}

		case req := <-e.cmds:
			changed, err := req.fn(e.store)
			if changed {
				e.emit(req.name, req.remote)
				dirty = false
			}
			req.reply <- err
		}
	}
}

func (e *Engine) emit(reason string, remote bool) {
	if e.sink == nil {
		return
	}
	e.sink.Submit(Change{Log: e.store.Snapshot(), Reason: reason, Remote: remote})
}

// do 把命令投递到引擎 goroutine 并等待结果
func (e *Engine) do(ctx context.Context, name string, remote bool, fn func(*Store) (bool, error)) error {
	req := request{name: name, remote: remote, fn: fn, reply: make(chan error, 1)}
	select {
	case e.cmds <- req:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ── 命令 ──

// Start 开始/继续当前工序
func (e *Engine) Start(ctx context.Context, t Target) error {
	return e.do(ctx, "start", true, func(s *Store) (bool, error) {
		if err := s.Start(t); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Pause 暂停当前工序；返回是否有状态变化
func (e *Engine) Pause(ctx context.Context, partID string) (bool, error) {
	var changed bool
	err := e.do(ctx, "pause", true, func(s *Store) (bool, error) {
		changed = s.Pause(partID)
		return changed, nil
	})
	return changed, err
}

// Complete 完成当前工序，decide 在引擎 goroutine 上同步调用
func (e *Engine) Complete(ctx context.Context, t Target, decide Decider) (Result, error) {
	var res Result
	err := e.do(ctx, "complete", true, func(s *Store) (bool, error) {
		r, err := s.Complete(t, decide)
		if err != nil {
			return false, err
		}
		res = r
		return r.Outcome != Declined, nil
	})
	return res, err
}

// Undo 撤销；返回是否有状态变化
func (e *Engine) Undo(ctx context.Context, partID string) (bool, error) {
	var changed bool
	err := e.do(ctx, "undo", true, func(s *Store) (bool, error) {
		changed = s.Undo(partID)
		return changed, nil
	})
	return changed, err
}

// Replace 整体替换日志，只写本地
func (e *Engine) Replace(ctx context.Context, log model.WorkLog) error {
	return e.do(ctx, "replace", false, func(s *Store) (bool, error) {
		s.Replace(log)
		return true, nil
	})
}

// Reconcile 数据集替换后修正越界的工序指针，只写本地
func (e *Engine) Reconcile(ctx context.Context, counts map[string]int) (int, error) {
	var fixed int
	err := e.do(ctx, "reconcile", false, func(s *Store) (bool, error) {
		fixed = s.Reconcile(counts)
		return fixed > 0, nil
	})
	return fixed, err
}

// ── 查询 ──

// Entry 读取部品进度
func (e *Engine) Entry(ctx context.Context, partID string) (model.ActiveLog, error) {
	var out model.ActiveLog
	err := e.do(ctx, "entry", false, func(s *Store) (bool, error) {
		out = s.Entry(partID)
		return false, nil
	})
	return out, err
}

// Snapshot 读取全量日志副本
func (e *Engine) Snapshot(ctx context.Context) (model.WorkLog, error) {
	var out model.WorkLog
	err := e.do(ctx, "snapshot", false, func(s *Store) (bool, error) {
		out = s.Snapshot()
		return false, nil
	})
	return out, err
}
