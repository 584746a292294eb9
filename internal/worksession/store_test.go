package worksession

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

var fixedNow = time.Date(2026, 3, 2, 6, 30, 15, 123_000_000, time.UTC)

func clock() time.Time { return fixedNow }

func twoStepTarget() Target {
	return Target{
		PartID:   "P1",
		PartName: "シャフト",
		Processes: []model.ProcessTemplate{
			{ProcessCategory: "C1", ProcessOrder: 1, ProcessName: "切断", StandardTimeMin: 1},
			{ProcessCategory: "C1", ProcessOrder: 2, ProcessName: "研磨", StandardTimeMin: 0.5},
		},
		Planned: &model.ScheduleRow{
			OrderNo: "A-001", ProductID: "PR1", ProductName: "ポンプ",
			PartID: "P1", Worker: "佐藤", Kind: model.KindPlanned,
		},
	}
}

func ticks(s *Store, n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

func yes(int) bool { return true }
func no(int) bool  { return false }

// ── Start / Pause / Tick ──

func TestStore_Start_CreatesRunningTimer(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	if err := s.Start(twoStepTarget()); err != nil {
		t.Fatalf("不应返回错误: %v", err)
	}
	e := s.Entry("P1")
	timer := e.ProcessTimers[0]
	if !timer.IsRunning || timer.Status != model.StatusWorking || timer.ElapsedSeconds != 0 {
		t.Errorf("期望 running/working/0，实际 %+v", timer)
	}
}

func TestStore_Start_NoProcesses(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	err := s.Start(Target{PartID: "P9"})
	if err != ErrNoProcesses {
		t.Errorf("期望 ErrNoProcesses，实际 %v", err)
	}
	if len(s.Snapshot().ActiveLogs) != 0 {
		t.Error("无工序时不应创建进度")
	}
}

func TestStore_Start_AlreadyRunningKeepsElapsed(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	_ = s.Start(twoStepTarget())
	ticks(s, 5)

	if err := s.Start(twoStepTarget()); err != nil {
		t.Fatal(err)
	}
	timer := s.Entry("P1").ProcessTimers[0]
	if !timer.IsRunning || timer.ElapsedSeconds != 5 {
		t.Errorf("重复开始不应重置累计时间，实际 %+v", timer)
	}
	if n := s.Tick(); n != 1 {
		t.Errorf("重复开始后仍只有 1 个计时器，实际 %d", n)
	}
}

func TestStore_Pause_KeepsElapsedAndStatus(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	_ = s.Start(twoStepTarget())
	ticks(s, 3)

	if !s.Pause("P1") {
		t.Fatal("第一次暂停应有变化")
	}
	timer := s.Entry("P1").ProcessTimers[0]
	if timer.IsRunning || timer.Status != model.StatusWorking || timer.ElapsedSeconds != 3 {
		t.Errorf("期望 paused/working/3，实际 %+v", timer)
	}

	before := s.Snapshot()
	if s.Pause("P1") {
		t.Error("重复暂停不应有变化")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("重复暂停后状态不应改变")
	}
}

func TestStore_Pause_UnknownPart(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	if s.Pause("nope") {
		t.Error("未知部品暂停应返回 false")
	}
}

func TestStore_Tick_OnlyRunningTimers(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	a := twoStepTarget()
	b := twoStepTarget()
	b.PartID = "P2"
	_ = s.Start(a)
	_ = s.Start(b)
	s.Pause("P2")

	if n := s.Tick(); n != 1 {
		t.Errorf("期望推进 1 个计时器，实际 %d", n)
	}
	if got := s.Entry("P1").ProcessTimers[0].ElapsedSeconds; got != 1 {
		t.Errorf("P1 期望 1 秒，实际 %d", got)
	}
	if got := s.Entry("P2").ProcessTimers[0].ElapsedSeconds; got != 0 {
		t.Errorf("P2 期望 0 秒，实际 %d", got)
	}
}

func TestStore_Tick_BackgroundPartKeepsRunning(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	a := twoStepTarget()
	b := twoStepTarget()
	b.PartID = "P2"
	_ = s.Start(a)
	_ = s.Start(b) // 操作员切换到 P2，P1 仍在计时
	ticks(s, 4)

	if got := s.Entry("P1").ProcessTimers[0].ElapsedSeconds; got != 4 {
		t.Errorf("P1 期望 4 秒，实际 %d", got)
	}
	if got := s.Entry("P2").ProcessTimers[0].ElapsedSeconds; got != 4 {
		t.Errorf("P2 期望 4 秒，实际 %d", got)
	}
}

// ── Complete ──

func TestStore_Complete_AdvancesToNextProcess(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	_ = s.Start(tg)
	ticks(s, 5)

	res, err := s.Complete(tg, nil)
	if err != nil {
		t.Fatalf("不应返回错误: %v", err)
	}
	if res.Outcome != Advanced || res.ProcessIndex != 1 {
		t.Errorf("期望 Advanced/1，实际 %v/%d", res.Outcome, res.ProcessIndex)
	}
	e := s.Entry("P1")
	if got := e.ProcessTimers[0]; got.Status != model.StatusCompleted || got.IsRunning || got.ElapsedSeconds != 5 {
		t.Errorf("工序 0 期望 completed/5，实际 %+v", got)
	}
	if got := e.ProcessTimers[1]; got != (model.ProcessTimer{Status: model.StatusNotStarted}) {
		t.Errorf("工序 1 期望 not_started，实际 %+v", got)
	}
}

func TestStore_Complete_FullUnit(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()

	_ = s.Start(tg)
	ticks(s, 5)
	if _, err := s.Complete(tg, nil); err != nil {
		t.Fatal(err)
	}
	_ = s.Start(tg)
	ticks(s, 5)

	var asked int
	res, err := s.Complete(tg, func(total int) bool {
		asked = total
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if asked != 10 {
		t.Errorf("确认时期望累计 10 秒，实际 %d", asked)
	}
	if res.Outcome != UnitCompleted || len(res.Recorded) != 2 {
		t.Fatalf("期望 UnitCompleted 且记录 2 条，实际 %v/%d", res.Outcome, len(res.Recorded))
	}

	log := s.Snapshot()
	if len(log.History) != 2 {
		t.Fatalf("期望历史 2 条，实际 %d", len(log.History))
	}
	h0, h1 := log.History[0], log.History[1]
	if h0.ProcessName != "切断" || h0.StandardTimeSec != 60 || h0.ActualTimeSec != 5 {
		t.Errorf("第一条记录不符: %+v", h0)
	}
	if h1.ProcessName != "研磨" || h1.StandardTimeSec != 30 || h1.ActualTimeSec != 5 {
		t.Errorf("第二条记录不符: %+v", h1)
	}
	if h0.Timestamp != "2026-03-02T06:30:15.123Z" || h0.Date != "2026-03-02" {
		t.Errorf("时间戳不符: %s / %s", h0.Timestamp, h0.Date)
	}
	if h0.OrderNo != "A-001" || h0.WorkerName != "佐藤" || h0.ProductName != "ポンプ" {
		t.Errorf("计划行字段未带入: %+v", h0)
	}

	e := s.Entry("P1")
	if e.CompletedWorkCount != 1 || e.CurrentProcessIndex != 0 || len(e.ProcessTimers) != 0 {
		t.Errorf("期望完成数 1 且指针、计时器归零，实际 %+v", e)
	}
}

func TestStore_Complete_DeclineLeavesStateUntouched(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	_ = s.Start(tg)
	ticks(s, 2)
	_, _ = s.Complete(tg, nil)
	_ = s.Start(tg)
	ticks(s, 3)

	before := s.Snapshot()
	res, err := s.Complete(tg, no)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Declined || res.TotalSeconds != 5 {
		t.Errorf("期望 Declined/5，实际 %v/%d", res.Outcome, res.TotalSeconds)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("拒绝确认后状态不应改变")
	}
}

func TestStore_Complete_NilDeciderDeclines(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	tg.Processes = tg.Processes[:1]
	res, _ := s.Complete(tg, nil)
	if res.Outcome != Declined {
		t.Errorf("最后工序未提供确认时应视为拒绝，实际 %v", res.Outcome)
	}
	if len(s.Snapshot().ActiveLogs) != 0 {
		t.Error("拒绝时不应创建进度")
	}
}

func TestStore_Complete_DefaultsWithoutPlannedRow(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	tg.Processes = tg.Processes[:1]
	tg.Planned = nil

	res, err := s.Complete(tg, yes)
	if err != nil {
		t.Fatal(err)
	}
	h := res.Recorded[0]
	if h.OrderNo != "-" || h.ProductID != "-" || h.ProductName != "-" || h.WorkerName != "未割当" {
		t.Errorf("缺省字段不符: %+v", h)
	}
}

func TestStore_Complete_ShrunkProcessListClampsIndex(t *testing.T) {
	log := model.NewWorkLog()
	log.ActiveLogs["P1"] = &model.ActiveLog{CurrentProcessIndex: 5, ProcessTimers: map[int]model.ProcessTimer{}}
	s := NewStore(log, clock)

	res, err := s.Complete(twoStepTarget(), yes)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != UnitCompleted {
		t.Errorf("越界指针应收回到最后工序，实际 %v", res.Outcome)
	}
}

func TestStore_Complete_HistoryStampedInUTC(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	s := NewStore(model.NewWorkLog(), func() time.Time {
		return time.Date(2026, 3, 2, 8, 0, 0, 0, jst)
	})
	tg := twoStepTarget()
	_, _ = s.Complete(tg, yes)
	res, _ := s.Complete(tg, yes)

	h := res.Recorded[0]
	if h.Timestamp != "2026-03-01T23:00:00.000Z" || h.Date != "2026-03-01" {
		t.Errorf("实绩时间应为 UTC，实际 %s / %s", h.Timestamp, h.Date)
	}
}

func TestStore_Complete_DeclineKeepsStalePointer(t *testing.T) {
	log := model.NewWorkLog()
	log.ActiveLogs["P1"] = &model.ActiveLog{
		CurrentProcessIndex: 4,
		ProcessTimers:       map[int]model.ProcessTimer{1: {ElapsedSeconds: 7, Status: model.StatusWorking}},
	}
	s := NewStore(log, clock)
	before := s.Snapshot()

	res, err := s.Complete(twoStepTarget(), no)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Declined || !res.Final || res.ProcessIndex != 1 {
		t.Errorf("期望 declined/final/1，实际 %+v", res)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Errorf("拒绝确认时状态不应改变，实际指针 %d", s.Entry("P1").CurrentProcessIndex)
	}
}

func TestStore_Reconcile_ShrunkProcessList(t *testing.T) {
	log := model.NewWorkLog()
	log.ActiveLogs["P1"] = &model.ActiveLog{
		CurrentProcessIndex: 4,
		ProcessTimers:       map[int]model.ProcessTimer{4: {ElapsedSeconds: 3, IsRunning: true, Status: model.StatusWorking}},
	}
	log.ActiveLogs["P2"] = &model.ActiveLog{CurrentProcessIndex: 1, ProcessTimers: map[int]model.ProcessTimer{}}
	log.ActiveLogs["GONE"] = &model.ActiveLog{CurrentProcessIndex: 3, ProcessTimers: map[int]model.ProcessTimer{}}
	s := NewStore(log, clock)

	if n := s.Reconcile(map[string]int{"P1": 2, "P2": 2}); n != 1 {
		t.Errorf("期望修正 1 个部品，实际 %d", n)
	}
	e := s.Entry("P1")
	if e.CurrentProcessIndex != 1 {
		t.Errorf("P1 指针应收回到 1，实际 %d", e.CurrentProcessIndex)
	}
	if e.ProcessTimers[4].IsRunning || e.ProcessTimers[4].ElapsedSeconds != 3 {
		t.Errorf("越界计时器应停止并保留时间，实际 %+v", e.ProcessTimers[4])
	}
	if s.Entry("P2").CurrentProcessIndex != 1 {
		t.Error("有效指针不应改变")
	}
	if s.Entry("GONE").CurrentProcessIndex != 3 {
		t.Error("数据集中不存在的部品应保持原样")
	}
	if n := s.Tick(); n != 0 {
		t.Errorf("修正后不应再有计时器推进，实际 %d", n)
	}
}

// ── Undo ──

func TestStore_Undo_ResetsCurrentTimer(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	_ = s.Start(tg)
	ticks(s, 7)

	if !s.Undo("P1") {
		t.Fatal("有累计时间时撤销应有变化")
	}
	e := s.Entry("P1")
	if e.CurrentProcessIndex != 0 || e.ProcessTimers[0] != (model.ProcessTimer{Status: model.StatusNotStarted}) {
		t.Errorf("期望计时器清零，实际 %+v", e)
	}
}

func TestStore_Undo_StepsBackWithoutTouchingPrevious(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	_ = s.Start(tg)
	ticks(s, 4)
	_, _ = s.Complete(tg, nil)
	_ = s.Start(tg)
	s.Pause("P1")

	if !s.Undo("P1") {
		t.Fatal("退回上一工序应有变化")
	}
	e := s.Entry("P1")
	if e.CurrentProcessIndex != 0 {
		t.Errorf("期望指针回到 0，实际 %d", e.CurrentProcessIndex)
	}
	if got := e.ProcessTimers[0]; got.ElapsedSeconds != 4 || got.Status != model.StatusCompleted {
		t.Errorf("上一工序计时器不应改变，实际 %+v", got)
	}
}

func TestStore_Undo_NothingToUndo(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	_ = s.Start(twoStepTarget())
	if s.Undo("P1") {
		t.Error("第一工序且无累计时间时撤销应无变化")
	}
	if s.Undo("unknown") {
		t.Error("未知部品撤销应无变化")
	}
}

func TestStore_Undo_CannotReopenCompletedUnit(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	_ = s.Start(tg)
	_, _ = s.Complete(tg, yes)
	if res, _ := s.Complete(tg, yes); res.Outcome != UnitCompleted {
		t.Fatalf("期望完成一件，实际 %v", res.Outcome)
	}
	before := s.Snapshot()

	if s.Undo("P1") {
		t.Error("完成一件后撤销应无变化")
	}
	if got := s.Entry("P1").CompletedWorkCount; got != 1 {
		t.Errorf("完成数应保持 1，实际 %d", got)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("撤销不应改动已完成的件与实绩")
	}
}

// ── Snapshot / Replace ──

func TestStore_Snapshot_IsDeepCopy(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	_ = s.Start(twoStepTarget())
	snap := s.Snapshot()
	snap.ActiveLogs["P1"].ProcessTimers[0] = model.ProcessTimer{ElapsedSeconds: 99}

	if got := s.Entry("P1").ProcessTimers[0].ElapsedSeconds; got != 0 {
		t.Errorf("修改快照不应影响内部状态，实际 %d", got)
	}
}

func TestStore_WorkLog_JSONRoundTrip(t *testing.T) {
	s := NewStore(model.NewWorkLog(), clock)
	tg := twoStepTarget()
	_ = s.Start(tg)
	ticks(s, 3)
	_, _ = s.Complete(tg, nil)
	_ = s.Start(tg)
	ticks(s, 2)
	_, _ = s.Complete(tg, yes)
	_ = s.Start(tg)
	ticks(s, 1)

	before := s.Snapshot()
	raw, err := json.Marshal(before)
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.WorkLog
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	restored := NewStore(model.NewWorkLog(), clock)
	restored.Replace(decoded)
	if !reflect.DeepEqual(before, restored.Snapshot()) {
		t.Error("序列化往返后状态应完全一致")
	}
}
