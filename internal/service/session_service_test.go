package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
)

// ── 命令测试 ──

func TestSessionService_Start_UnknownPart(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.session.Start(context.Background(), "missing")
	if !errors.Is(err, ErrPartNotFound) {
		t.Errorf("期望 ErrPartNotFound，实际 %v", err)
	}
}

func TestSessionService_Start_NoProcesses(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.session.Start(context.Background(), "P9")
	if !errors.Is(err, worksession.ErrNoProcesses) {
		t.Errorf("期望 ErrNoProcesses，实际 %v", err)
	}
}

func TestSessionService_StartPause(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	s, err := env.session.Start(ctx, "P1")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Processes[0].IsRunning || s.Processes[0].StatusLabel != "● 作業中" {
		t.Errorf("开始后应在计时: %+v", s.Processes[0])
	}
	env.ticks(65)

	s, err = env.session.Pause(ctx, "P1")
	if err != nil {
		t.Fatal(err)
	}
	p := s.Processes[0]
	if p.IsRunning || p.ElapsedSeconds != 65 || p.Elapsed != "1:05" || p.StatusLabel != "作業途中" {
		t.Errorf("暂停后状态不符: %+v", p)
	}
	if s.Processes[1].Status != string(model.StatusNotStarted) || s.Processes[1].StatusLabel != "作業未" {
		t.Errorf("未开始工序状态不符: %+v", s.Processes[1])
	}
}

// ═══════════════════════════════════════════════════════════
// Complete 两步确认
// ═══════════════════════════════════════════════════════════

func TestSessionService_Complete_TwoStepConfirmation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _ = env.session.Start(ctx, "P1")
	env.ticks(5)
	_, _ = env.session.Pause(ctx, "P1")

	res, err := env.session.Complete(ctx, "P1", nil)
	if err != nil {
		t.Fatalf("非最后工序不需要确认: %v", err)
	}
	if res.Outcome != "advanced" || res.Session.CurrentProcessIndex != 1 || res.Prompt != "" {
		t.Errorf("期望进入工序 1 且无确认提示: %+v", res)
	}

	_, _ = env.session.Start(ctx, "P1")
	env.ticks(5)

	// 1. 未带确认：返回待确认信息，不修改状态
	res, err = env.session.Complete(ctx, "P1", nil)
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("期望 ErrConfirmationRequired，实际 %v", err)
	}
	if res.TotalSeconds != 10 || res.TotalHMS != "00:00:10" || res.Prompt == "" {
		t.Errorf("待确认信息不符: %+v", res)
	}
	if res.Session.CompletedWorkCount != 0 || res.Session.CurrentProcessIndex != 1 {
		t.Error("待确认时不应修改状态")
	}

	// 2. 取消
	res, err = env.session.Complete(ctx, "P1", boolPtr(false))
	if err != nil || res.Outcome != "declined" {
		t.Errorf("取消应返回 declined: %+v %v", res, err)
	}

	// 3. 确认
	res, err = env.session.Complete(ctx, "P1", boolPtr(true))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != "unit_completed" || res.Recorded != 2 {
		t.Errorf("确认后应记录 2 条: %+v", res)
	}
	if res.Session.CompletedWorkCount != 1 || res.Session.CurrentProcessIndex != 0 || res.Session.TotalElapsed != 0 {
		t.Errorf("确认后应归零: %+v", res.Session)
	}

	log, _ := env.session.Snapshot(ctx)
	if len(log.History) != 2 || log.History[0].WorkerName != "山田" || log.History[0].StandardTimeSec != 600 {
		t.Errorf("历史记录不符: %+v", log.History)
	}
}

func TestSessionService_Undo(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _ = env.session.Start(ctx, "P1")
	env.ticks(3)
	s, err := env.session.Undo(ctx, "P1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Processes[0].ElapsedSeconds != 0 || s.Processes[0].IsRunning {
		t.Errorf("撤销后计时器应清零: %+v", s.Processes[0])
	}
}

// ── 写回测试 ──

func TestSessionService_CommandsPersistLocallyAndRemotely(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, _ = env.session.Start(ctx, "P1")
	env.ticks(2)
	_, _ = env.session.Pause(ctx, "P1")

	waitFor(t, func() bool { return len(env.remote.saves()) > 0 })
	waitFor(t, func() bool {
		log, err := env.repo.WorkLog.Load(ctx)
		return err == nil && log.ActiveLogs["P1"] != nil && log.ActiveLogs["P1"].ProcessTimers[0].ElapsedSeconds == 2
	})
	waitFor(t, env.session.RemoteConnected)
}

// ── Bootstrap 测试 ──

func TestSessionService_Bootstrap_RemoteOverridesLocal(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	local := model.NewWorkLog()
	local.ActiveLogs["P1"] = &model.ActiveLog{CompletedWorkCount: 1, ProcessTimers: map[int]model.ProcessTimer{}}
	_ = env.repo.WorkLog.Save(ctx, local)

	remote := model.NewWorkLog()
	remote.ActiveLogs["P1"] = &model.ActiveLog{CompletedWorkCount: 7, ProcessTimers: map[int]model.ProcessTimer{}}
	env.remote.log = &remote

	if err := env.session.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	s, _ := env.session.Get(ctx, "P1")
	if s.CompletedWorkCount != 7 {
		t.Errorf("远端可用时应以远端为准，实际 %d", s.CompletedWorkCount)
	}
	if !env.session.RemoteConnected() {
		t.Error("远端可用时应标记为已连接")
	}
}

func TestSessionService_Bootstrap_RemoteFailureKeepsLocal(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	local := model.NewWorkLog()
	local.ActiveLogs["P1"] = &model.ActiveLog{CompletedWorkCount: 3, ProcessTimers: map[int]model.ProcessTimer{}}
	_ = env.repo.WorkLog.Save(ctx, local)
	env.remote.loadErr = errors.New("connection refused")

	if err := env.session.Bootstrap(ctx); err != nil {
		t.Fatalf("远端失败不应返回错误: %v", err)
	}
	s, _ := env.session.Get(ctx, "P1")
	if s.CompletedWorkCount != 3 {
		t.Errorf("应保留本地数据，实际 %d", s.CompletedWorkCount)
	}
	if env.session.RemoteConnected() {
		t.Error("远端失败时应标记为未连接")
	}
}

func TestSessionService_Bootstrap_RemoteWithoutLogsKeepsLocal(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	local := model.NewWorkLog()
	local.ActiveLogs["P1"] = &model.ActiveLog{CompletedWorkCount: 2, ProcessTimers: map[int]model.ProcessTimer{}}
	local.History = append(local.History, model.WorkHistory{PartID: "P1", ProcessName: "切断"})
	_ = env.repo.WorkLog.Save(ctx, local)
	env.remote.log = nil // 远端尚无快照

	if err := env.session.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	log, _ := env.session.Snapshot(ctx)
	if log.ActiveLogs["P1"].CompletedWorkCount != 2 || len(log.History) != 1 {
		t.Errorf("远端无快照时应保留本地数据: %+v", log)
	}
	if !env.session.RemoteConnected() {
		t.Error("远端可达时应标记为已连接")
	}
}

func TestSessionService_Bootstrap_ClampsStalePointer(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	local := model.NewWorkLog()
	local.ActiveLogs["P1"] = &model.ActiveLog{CurrentProcessIndex: 4, ProcessTimers: map[int]model.ProcessTimer{}}
	_ = env.repo.WorkLog.Save(ctx, local)
	env.remote.loadErr = errors.New("connection refused")

	if err := env.session.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	s, _ := env.session.Get(ctx, "P1")
	if s.CurrentProcessIndex != 1 {
		t.Errorf("启动恢复后指针应收回到 1，实际 %d", s.CurrentProcessIndex)
	}
}

func TestSessionService_Bootstrap_LocalOnly(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewSessionService(env.datasets, env.engine, env.repo, nil, time.Second, nil, zap.NewNop())

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	if svc.RemoteConnected() {
		t.Error("未配置远端时不应标记为已连接")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("等待条件超时")
}

// ═══════════════════════════════════════════════════════════
// 数据集替换后修正工序指针
// ═══════════════════════════════════════════════════════════

func TestSessionService_ImportShrinkingProcessesClampsPointer(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.datasets.(*datasetService).onSwap = env.session.(*sessionService).reconcile

	_, _ = env.session.Start(ctx, "P1")
	if _, err := env.session.Complete(ctx, "P1", nil); err != nil {
		t.Fatal(err)
	}

	shrunk := make(map[string]string, len(testFiles))
	for k, v := range testFiles {
		shrunk[k] = v
	}
	shrunk[dataset.FileTemplates] = "process_category,process_order,process_name,standard_time_min,standard_cost_yen,is_outsource\n" +
		"CAT1,1,切断,10,300,FALSE\n" +
		"CAT2,1,鋳造,5,100,FALSE\n"
	if _, err := env.datasets.Import(ctx, shrunk); err != nil {
		t.Fatal(err)
	}

	s, _ := env.session.Get(ctx, "P1")
	if s.CurrentProcessIndex != 0 {
		t.Errorf("工序减少后指针应收回到 0，实际 %d", s.CurrentProcessIndex)
	}

	// 拒绝确认不改变状态
	before, _ := env.session.Snapshot(ctx)
	if _, err := env.session.Complete(ctx, "P1", boolPtr(false)); err != nil {
		t.Fatal(err)
	}
	after, _ := env.session.Snapshot(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Error("拒绝确认后状态不应改变")
	}
}
