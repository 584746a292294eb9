package dto

// ── 作业计时模块 DTO ──

// CompleteRequest 完成工序请求
//
// 最后一道工序需要确认：confirm 缺省时返回待确认信息，false 表示取消。
type CompleteRequest struct {
	Confirm *bool `json:"confirm"`
}

// ProcessStatusResponse 单道工序的计时状态
type ProcessStatusResponse struct {
	Index           int    `json:"index"`
	ProcessName     string `json:"process_name"`
	StandardTimeSec int    `json:"standard_time_sec"`
	ElapsedSeconds  int    `json:"elapsed_seconds"`
	Elapsed         string `json:"elapsed"` // M:SS
	IsRunning       bool   `json:"is_running"`
	Status          string `json:"status"`
	StatusLabel     string `json:"status_label"` // 作業完了 / 作業中 / 作業途中 / 作業未
	Current         bool   `json:"current"`
	AlertLevel      string `json:"alert_level"`
	DelayMinutes    int    `json:"delay_minutes,omitempty"`
}

// SessionResponse 部品当前一件的作业进度
type SessionResponse struct {
	PartID              string                  `json:"part_id"`
	PartName            string                  `json:"part_name"`
	CompletedWorkCount  int                     `json:"completed_work_count"`
	CurrentProcessIndex int                     `json:"current_process_index"`
	TotalElapsed        int                     `json:"total_elapsed"`
	TotalElapsedHMS     string                  `json:"total_elapsed_hms"`
	Processes           []ProcessStatusResponse `json:"processes"`
}

// CompleteResponse 完成工序结果
type CompleteResponse struct {
	Outcome      string           `json:"outcome"` // advanced / unit_completed / declined
	TotalSeconds int              `json:"total_seconds"`
	TotalHMS     string           `json:"total_hms"`
	Recorded     int              `json:"recorded"` // 本次写入的实绩条数
	Prompt       string           `json:"prompt,omitempty"`
	Session      *SessionResponse `json:"session"`
}

// ProgressResponse 部品进度汇总
type ProgressResponse struct {
	PartID            string  `json:"part_id"`
	TotalPlanned      float64 `json:"total_planned"`
	TotalActual       int     `json:"total_actual"`
	CumulativePlanned float64 `json:"cumulative_planned"`
	Variance          float64 `json:"variance"`
	VarianceLabel     string  `json:"variance_label"`
	ProcessPercent    int     `json:"process_percent"`
	ProductPercent    int     `json:"product_percent"`
	AllComplete       bool    `json:"all_complete"`
}
