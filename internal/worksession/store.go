package worksession

import (
	"errors"
	"time"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// ErrNoProcesses 部品没有可计时的工序（未关联或全部为外协）
var ErrNoProcesses = errors.New("该部品没有可计时的工序")

const (
	unassignedWorker = "未割当"
	missingField     = "-"
	timestampLayout  = "2006-01-02T15:04:05.000Z"
)

// Target 执行命令所需的部品信息
type Target struct {
	PartID    string
	PartName  string
	Processes []model.ProcessTemplate
	Planned   *model.ScheduleRow // 可能为 nil
}

// Decider 最后一道工序完成时的确认；参数为本件累计秒数
type Decider func(totalSeconds int) bool

// Outcome Complete 的结果类别
type Outcome int

const (
	Advanced      Outcome = iota // 进入下一道工序
	UnitCompleted                // 一件完成并记录实绩
	Declined                     // 最后工序确认被拒绝，状态不变
)

func (o Outcome) String() string {
	switch o {
	case Advanced:
		return "advanced"
	case UnitCompleted:
		return "unit_completed"
	default:
		return "declined"
	}
}

// Result Complete 的返回
type Result struct {
	Outcome      Outcome             `json:"outcome"`
	Final        bool                `json:"final"` // 到达最后工序并询问过 decide
	ProcessIndex int                 `json:"process_index"`
	TotalSeconds int                 `json:"total_seconds"`
	Recorded     []model.WorkHistory `json:"recorded,omitempty"`
}

// Store 作业进度状态机
//
// 不做并发保护：同一时刻只能由一个 goroutine 持有（见 Engine）。
type Store struct {
	log model.WorkLog
	now func() time.Time
}

// NewStore 以已有日志创建状态机；now 为 nil 时使用 time.Now
func NewStore(log model.WorkLog, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	log = log.Clone()
	log.Normalize()
	return &Store{log: log, now: now}
}

// lookup 返回已有进度；不存在时返回未挂载的空进度
func (s *Store) lookup(partID string) (*model.ActiveLog, bool) {
	if e, ok := s.log.ActiveLogs[partID]; ok {
		return e, true
	}
	return model.NewActiveLog(), false
}

// attach 取得（必要时创建）部品进度
func (s *Store) attach(partID string) *model.ActiveLog {
	e, ok := s.lookup(partID)
	if !ok {
		s.log.ActiveLogs[partID] = e
	}
	return e
}

// effectiveIndex 工序列表变短（重新导入）时指针的有效值
func effectiveIndex(idx, n int) int {
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Start 当前工序开始/继续计时
func (s *Store) Start(t Target) error {
	if len(t.Processes) == 0 {
		return ErrNoProcesses
	}
	e := s.attach(t.PartID)
	e.CurrentProcessIndex = effectiveIndex(e.CurrentProcessIndex, len(t.Processes))

	timer := e.ProcessTimers[e.CurrentProcessIndex]
	timer.IsRunning = true
	timer.Status = model.StatusWorking
	e.ProcessTimers[e.CurrentProcessIndex] = timer
	return nil
}

// Pause 暂停当前工序；累计时间与状态保持不变。未在计时时返回 false
func (s *Store) Pause(partID string) bool {
	e, ok := s.lookup(partID)
	if !ok {
		return false
	}
	timer, ok := e.ProcessTimers[e.CurrentProcessIndex]
	if !ok || !timer.IsRunning {
		return false
	}
	timer.IsRunning = false
	e.ProcessTimers[e.CurrentProcessIndex] = timer
	return true
}

// Tick 所有部品中正在计时的当前工序 +1 秒，返回被推进的计时器数
func (s *Store) Tick() int {
	n := 0
	for _, e := range s.log.ActiveLogs {
		timer, ok := e.ProcessTimers[e.CurrentProcessIndex]
		if !ok || !timer.IsRunning {
			continue
		}
		timer.ElapsedSeconds++
		e.ProcessTimers[e.CurrentProcessIndex] = timer
		n++
	}
	return n
}

// Complete 完成当前工序
//
// 非最后工序：标记完成并进入下一道，新工序计时器为 not_started。
// 最后工序：先询问 decide，确认后按工序追加实绩、完成数 +1、指针与计时器归零；
// 拒绝时不做任何修改。
func (s *Store) Complete(t Target, decide Decider) (Result, error) {
	if len(t.Processes) == 0 {
		return Result{}, ErrNoProcesses
	}
	e, attached := s.lookup(t.PartID)
	// 只在提交路径上写回指针
	idx := effectiveIndex(e.CurrentProcessIndex, len(t.Processes))

	if idx < len(t.Processes)-1 {
		if !attached {
			s.log.ActiveLogs[t.PartID] = e
		}
		timer := e.ProcessTimers[idx]
		timer.IsRunning = false
		timer.Status = model.StatusCompleted
		e.ProcessTimers[idx] = timer

		e.CurrentProcessIndex = idx + 1
		e.ProcessTimers[idx+1] = model.ProcessTimer{Status: model.StatusNotStarted}
		return Result{Outcome: Advanced, ProcessIndex: idx + 1, TotalSeconds: e.TotalElapsed()}, nil
	}

	total := e.TotalElapsed()
	if decide == nil || !decide(total) {
		return Result{Outcome: Declined, Final: true, ProcessIndex: idx, TotalSeconds: total}, nil
	}

	recorded := s.buildHistory(t, e)
	s.log.History = append(s.log.History, recorded...)
	s.log.ActiveLogs[t.PartID] = &model.ActiveLog{
		CompletedWorkCount:  e.CompletedWorkCount + 1,
		CurrentProcessIndex: 0,
		ProcessTimers:       make(map[int]model.ProcessTimer),
	}
	return Result{Outcome: UnitCompleted, Final: true, ProcessIndex: 0, TotalSeconds: total, Recorded: recorded}, nil
}

func (s *Store) buildHistory(t Target, e *model.ActiveLog) []model.WorkHistory {
	ts := s.now().UTC()
	stamp := ts.Format(timestampLayout)

	orderNo, productID, productName, worker := missingField, missingField, missingField, unassignedWorker
	if p := t.Planned; p != nil {
		orderNo = orDefault(p.OrderNo, missingField)
		productID = orDefault(p.ProductID, missingField)
		productName = orDefault(p.ProductName, missingField)
		worker = orDefault(p.Worker, unassignedWorker)
	}

	out := make([]model.WorkHistory, 0, len(t.Processes))
	for i, proc := range t.Processes {
		out = append(out, model.WorkHistory{
			Timestamp:       stamp,
			Date:            stamp[:10],
			OrderNo:         orderNo,
			ProductID:       productID,
			ProductName:     productName,
			PartID:          t.PartID,
			PartName:        t.PartName,
			WorkerName:      worker,
			ProcessName:     proc.ProcessName,
			StandardTimeSec: proc.StandardTimeSec(),
			ActualTimeSec:   e.ProcessTimers[i].ElapsedSeconds,
		})
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Undo 撤销：当前工序有累计时间则清零；否则退回上一道工序（不改动其计时器）。
// 第一道工序且无累计时间时返回 false
func (s *Store) Undo(partID string) bool {
	e, ok := s.lookup(partID)
	if !ok {
		return false
	}
	if timer, has := e.ProcessTimers[e.CurrentProcessIndex]; has && timer.ElapsedSeconds > 0 {
		e.ProcessTimers[e.CurrentProcessIndex] = model.ProcessTimer{Status: model.StatusNotStarted}
		return true
	}
	if e.CurrentProcessIndex > 0 {
		e.CurrentProcessIndex--
		return true
	}
	return false
}

// Reconcile 数据集替换后把越界的工序指针收回有效范围，返回修正的部品数
//
// counts 为部品 → 可计时工序数；不在其中或没有工序的部品保持原样。
// 越界位置上仍在计时的计时器一并停止。
func (s *Store) Reconcile(counts map[string]int) int {
	fixed := 0
	for partID, e := range s.log.ActiveLogs {
		n := counts[partID]
		if n == 0 || (e.CurrentProcessIndex >= 0 && e.CurrentProcessIndex < n) {
			continue
		}
		if timer, ok := e.ProcessTimers[e.CurrentProcessIndex]; ok && timer.IsRunning {
			timer.IsRunning = false
			e.ProcessTimers[e.CurrentProcessIndex] = timer
		}
		e.CurrentProcessIndex = effectiveIndex(e.CurrentProcessIndex, n)
		fixed++
	}
	return fixed
}

// Entry 部品进度副本；未开始过的部品返回空进度
func (s *Store) Entry(partID string) model.ActiveLog {
	e, _ := s.lookup(partID)
	return *e.Clone()
}

// Snapshot 全量日志副本
func (s *Store) Snapshot() model.WorkLog {
	return s.log.Clone()
}

// Replace 整体替换日志（启动时载入本地或远端快照）
func (s *Store) Replace(log model.WorkLog) {
	log = log.Clone()
	log.Normalize()
	s.log = log
}
