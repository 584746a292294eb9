package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dto"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/progress"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/report"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/repository"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/syncclient"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
	pkgerrors "github.com/avemasa0625-dev/gantt-pro-app/pkg/errors"
)

// ── 作业计时模块业务错误 ──

// ErrConfirmationRequired 最后一道工序完成前需要确认（响应中附带累计时间）
var ErrConfirmationRequired = errors.New("全工程の作業を完了しますか？")

// SessionService 作业计时业务接口
//
// 所有修改都经由 worksession.Engine 串行执行，本层只做参数组装与结果转换。
type SessionService interface {
	// Bootstrap 启动时恢复作业日志：先读本地，远端有快照时以远端为准
	Bootstrap(ctx context.Context) error
	Get(ctx context.Context, partID string) (*dto.SessionResponse, error)
	Start(ctx context.Context, partID string) (*dto.SessionResponse, error)
	Pause(ctx context.Context, partID string) (*dto.SessionResponse, error)
	Undo(ctx context.Context, partID string) (*dto.SessionResponse, error)
	// Complete confirm 为 nil 且当前是最后一道工序时返回 ErrConfirmationRequired
	Complete(ctx context.Context, partID string, confirm *bool) (*dto.CompleteResponse, error)
	Snapshot(ctx context.Context) (model.WorkLog, error)
	RemoteConnected() bool
}

type sessionService struct {
	datasets DatasetService
	engine   *worksession.Engine
	repo     *repository.Repository
	remote   RemoteStore
	timeout  time.Duration
	conn     *Connectivity
	logger   *zap.Logger
}

// NewSessionService 创建 SessionService 实例；remote 为 nil 时仅使用本地
func NewSessionService(
	datasets DatasetService,
	engine *worksession.Engine,
	repo *repository.Repository,
	remote RemoteStore,
	timeout time.Duration,
	conn *Connectivity,
	logger *zap.Logger,
) SessionService {
	return newSessionService(datasets, engine, repo, remote, timeout, conn, logger)
}

func newSessionService(
	datasets DatasetService,
	engine *worksession.Engine,
	repo *repository.Repository,
	remote RemoteStore,
	timeout time.Duration,
	conn *Connectivity,
	logger *zap.Logger,
) *sessionService {
	if conn == nil {
		conn = &Connectivity{}
	}
	return &sessionService{
		datasets: datasets,
		engine:   engine,
		repo:     repo,
		remote:   remote,
		timeout:  timeout,
		conn:     conn,
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Bootstrap：恢复作业日志
// ═══════════════════════════════════════════════════════════

func (s *sessionService) Bootstrap(ctx context.Context) error {
	// 1. 本地
	log, err := s.repo.WorkLog.Load(ctx)
	switch {
	case err == nil:
		if err := s.engine.Replace(ctx, *log); err != nil {
			return err
		}
		s.logger.Info("已恢复本地作业日志",
			zap.Int("parts", len(log.ActiveLogs)),
			zap.Int("history", len(log.History)),
		)
	case errors.Is(err, pkgerrors.ErrNotFound):
		s.logger.Info("本地无作业日志，使用空日志")
	default:
		// 日志损坏不阻止启动
		s.logger.Error("读取本地作业日志失败", zap.Error(err))
	}

	// 2. 远端（以远端为准，失败静默降级）
	if err := s.loadRemote(ctx); err != nil {
		return err
	}

	s.reconcile(ctx)
	return nil
}

func (s *sessionService) loadRemote(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	remote, err := s.remote.Load(rctx)
	switch {
	case errors.Is(err, syncclient.ErrNoLogs):
		// 远端尚无快照：连通但不覆盖本地
		s.conn.Record(nil)
		s.logger.Info("远端尚无作业日志，保留本地数据")
	case err != nil:
		s.conn.Record(err)
		s.logger.Warn("远端快照不可用，使用本地数据", zap.Error(err))
	default:
		s.conn.Record(nil)
		if err := s.engine.Replace(ctx, *remote); err != nil {
			return err
		}
		s.logger.Info("已载入远端作业日志",
			zap.Int("parts", len(remote.ActiveLogs)),
			zap.Int("history", len(remote.History)),
		)
	}
	return nil
}

// reconcile 按当前数据集修正越界的工序指针（启动恢复后与数据集替换后调用）
func (s *sessionService) reconcile(ctx context.Context) {
	ds := s.datasets.Current()
	counts := make(map[string]int, len(ds.Parts))
	for _, p := range ds.Parts {
		if t, err := targetOf(ds, p.PartID); err == nil {
			counts[p.PartID] = len(t.Processes)
		}
	}
	for _, r := range ds.Schedule {
		if _, ok := counts[r.PartID]; ok {
			continue
		}
		if t, err := targetOf(ds, r.PartID); err == nil {
			counts[r.PartID] = len(t.Processes)
		}
	}

	fixed, err := s.engine.Reconcile(ctx, counts)
	if err != nil {
		s.logger.Warn("修正工序指针失败", zap.Error(err))
		return
	}
	if fixed > 0 {
		s.logger.Info("工序列表变化，已修正工序指针", zap.Int("parts", fixed))
	}
}

func (s *sessionService) RemoteConnected() bool {
	return s.conn.Connected()
}

// ── 命令 ──

func (s *sessionService) Get(ctx context.Context, partID string) (*dto.SessionResponse, error) {
	t, err := s.datasets.Target(partID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

func (s *sessionService) Start(ctx context.Context, partID string) (*dto.SessionResponse, error) {
	t, err := s.datasets.Target(partID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Start(ctx, t); err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

func (s *sessionService) Pause(ctx context.Context, partID string) (*dto.SessionResponse, error) {
	t, err := s.datasets.Target(partID)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Pause(ctx, partID); err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

func (s *sessionService) Undo(ctx context.Context, partID string) (*dto.SessionResponse, error) {
	t, err := s.datasets.Target(partID)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Undo(ctx, partID); err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

// ═══════════════════════════════════════════════════════════
// Complete：完成当前工序
// ═══════════════════════════════════════════════════════════
//
// HTTP 客户端无法在引擎内同步应答确认，因此分两步：
//   1. confirm=nil：最后工序时不修改状态，返回累计时间与 ErrConfirmationRequired
//   2. confirm=true/false：提交或取消

func (s *sessionService) Complete(ctx context.Context, partID string, confirm *bool) (*dto.CompleteResponse, error) {
	t, err := s.datasets.Target(partID)
	if err != nil {
		return nil, err
	}

	decide := func(int) bool {
		return confirm != nil && *confirm
	}
	res, err := s.engine.Complete(ctx, t, decide)
	if err != nil {
		return nil, err
	}

	session, err := s.view(ctx, t)
	if err != nil {
		return nil, err
	}
	resp := &dto.CompleteResponse{
		Outcome:      res.Outcome.String(),
		TotalSeconds: res.TotalSeconds,
		TotalHMS:     report.FormatHMS(res.TotalSeconds),
		Recorded:     len(res.Recorded),
		Session:      session,
	}
	if res.Final {
		resp.Prompt = fmt.Sprintf("全工程の作業を完了しますか？（合計作業時間: %s）", resp.TotalHMS)
	}
	if res.Outcome == worksession.Declined && confirm == nil {
		return resp, ErrConfirmationRequired
	}
	if res.Outcome == worksession.UnitCompleted {
		s.logger.Info("一件完成",
			zap.String("part_id", partID),
			zap.Int("total_seconds", res.TotalSeconds),
			zap.Int("completed", session.CompletedWorkCount),
		)
	}
	return resp, nil
}

func (s *sessionService) Snapshot(ctx context.Context) (model.WorkLog, error) {
	return s.engine.Snapshot(ctx)
}

// view 将进度转换为响应
func (s *sessionService) view(ctx context.Context, t worksession.Target) (*dto.SessionResponse, error) {
	entry, err := s.engine.Entry(ctx, t.PartID)
	if err != nil {
		return nil, err
	}
	return sessionResponse(t, entry), nil
}

func sessionResponse(t worksession.Target, entry model.ActiveLog) *dto.SessionResponse {
	total := entry.TotalElapsed()
	resp := &dto.SessionResponse{
		PartID:              t.PartID,
		PartName:            t.PartName,
		CompletedWorkCount:  entry.CompletedWorkCount,
		CurrentProcessIndex: entry.CurrentProcessIndex,
		TotalElapsed:        total,
		TotalElapsedHMS:     report.FormatHMS(total),
		Processes:           make([]dto.ProcessStatusResponse, 0, len(t.Processes)),
	}
	for i, proc := range t.Processes {
		timer, ok := entry.ProcessTimers[i]
		if !ok {
			timer = model.ProcessTimer{Status: model.StatusNotStarted}
		}
		alert := progress.TimerAlert(timer.ElapsedSeconds, proc.StandardTimeMin)
		resp.Processes = append(resp.Processes, dto.ProcessStatusResponse{
			Index:           i,
			ProcessName:     proc.ProcessName,
			StandardTimeSec: proc.StandardTimeSec(),
			ElapsedSeconds:  timer.ElapsedSeconds,
			Elapsed:         report.FormatElapsed(timer.ElapsedSeconds),
			IsRunning:       timer.IsRunning,
			Status:          string(timer.Status),
			StatusLabel:     StatusLabel(timer),
			Current:         i == entry.CurrentProcessIndex,
			AlertLevel:      string(alert.Level),
			DelayMinutes:    alert.DelayMinutes,
		})
	}
	return resp
}

// StatusLabel 工序状态显示文字
//
// working 且未在计时表示暂停中，显示为「作業途中」。
func StatusLabel(t model.ProcessTimer) string {
	switch {
	case t.Status == model.StatusCompleted:
		return "作業完了"
	case t.IsRunning:
		return "● 作業中"
	case t.Status == model.StatusWorking, t.Status == model.StatusInProgress:
		return "作業途中"
	default:
		return "作業未"
	}
}
