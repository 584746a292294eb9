package model

// TimerStatus 工序计时器状态
//
// working 且 IsRunning=false 表示「暂停中、已有累计时间」，是合法组合。
type TimerStatus string

const (
	StatusNotStarted TimerStatus = "not_started"
	StatusInProgress TimerStatus = "in_progress"
	StatusWorking    TimerStatus = "working"
	StatusCompleted  TimerStatus = "completed"
)

// ProcessTimer 单个工序的计时器
type ProcessTimer struct {
	ElapsedSeconds int         `json:"elapsedSeconds"`
	IsRunning      bool        `json:"isRunning"`
	Status         TimerStatus `json:"status"`
}

// ActiveLog 某个部品当前一件的作业进度
type ActiveLog struct {
	CompletedWorkCount  int                  `json:"completedWorkCount"`
	CurrentProcessIndex int                  `json:"currentProcessIndex"`
	ProcessTimers       map[int]ProcessTimer `json:"processTimers"`
}

// NewActiveLog 创建空进度
func NewActiveLog() *ActiveLog {
	return &ActiveLog{ProcessTimers: make(map[int]ProcessTimer)}
}

// TotalElapsed 当前一件所有工序累计秒数
func (a *ActiveLog) TotalElapsed() int {
	total := 0
	for _, t := range a.ProcessTimers {
		total += t.ElapsedSeconds
	}
	return total
}

// Clone 深拷贝
func (a *ActiveLog) Clone() *ActiveLog {
	out := &ActiveLog{
		CompletedWorkCount:  a.CompletedWorkCount,
		CurrentProcessIndex: a.CurrentProcessIndex,
		ProcessTimers:       make(map[int]ProcessTimer, len(a.ProcessTimers)),
	}
	for k, v := range a.ProcessTimers {
		out.ProcessTimers[k] = v
	}
	return out
}

// WorkHistory 一件完成时按工序写入的实绩记录（只追加）
type WorkHistory struct {
	Timestamp       string `json:"timestamp"` // ISO8601 UTC，毫秒精度
	Date            string `json:"date"`      // YYYY-MM-DD
	OrderNo         string `json:"order_no"`
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	PartID          string `json:"part_id"`
	PartName        string `json:"part_name"`
	WorkerName      string `json:"worker_name"`
	ProcessName     string `json:"process_name"`
	StandardTimeSec int    `json:"standard_time_sec"`
	ActualTimeSec   int    `json:"actual_time_sec"`
}

// WorkLog 全部作业进度与历史，即本地 blob 与远端快照的结构
type WorkLog struct {
	ActiveLogs map[string]*ActiveLog `json:"activeLogs"`
	History    []WorkHistory         `json:"history"`
}

// NewWorkLog 创建空日志
func NewWorkLog() WorkLog {
	return WorkLog{
		ActiveLogs: make(map[string]*ActiveLog),
		History:    []WorkHistory{},
	}
}

// Normalize 补齐反序列化后可能为 nil 的字段
func (w *WorkLog) Normalize() {
	if w.ActiveLogs == nil {
		w.ActiveLogs = make(map[string]*ActiveLog)
	}
	if w.History == nil {
		w.History = []WorkHistory{}
	}
	for id, a := range w.ActiveLogs {
		if a == nil {
			w.ActiveLogs[id] = NewActiveLog()
			continue
		}
		if a.ProcessTimers == nil {
			a.ProcessTimers = make(map[int]ProcessTimer)
		}
	}
}

// Clone 深拷贝
func (w WorkLog) Clone() WorkLog {
	out := WorkLog{
		ActiveLogs: make(map[string]*ActiveLog, len(w.ActiveLogs)),
		History:    make([]WorkHistory, len(w.History)),
	}
	for id, a := range w.ActiveLogs {
		if a != nil {
			out.ActiveLogs[id] = a.Clone()
		}
	}
	copy(out.History, w.History)
	return out
}
