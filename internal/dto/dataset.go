package dto

// ── 数据集模块 DTO ──

// DatasetStatusResponse 当前数据集状态
type DatasetStatusResponse struct {
	Source          string   `json:"source"` // saved / sample / import / empty
	Error           string   `json:"error,omitempty"`
	ProductCount    int      `json:"product_count"`
	PartCount       int      `json:"part_count"`
	ScheduleCount   int      `json:"schedule_count"`
	Issues          []string `json:"issues,omitempty"` // 关联失败的诊断信息
	RemoteConnected bool     `json:"remote_connected"`
	LoadedAt        string   `json:"loaded_at,omitempty"`
}

// ProductResponse 製品
type ProductResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	OrderNo     string  `json:"order_no"`
	Quantity    float64 `json:"quantity"`
	PartCount   int     `json:"part_count"`
}

// ProcessResponse 工序模板
type ProcessResponse struct {
	Index           int     `json:"index"`
	ProcessName     string  `json:"process_name"`
	StandardTimeMin float64 `json:"standard_time_min"`
	StandardTimeSec int     `json:"standard_time_sec"`
}

// PartResponse 部品及其工序
type PartResponse struct {
	PartID          string            `json:"part_id"`
	ProductID       string            `json:"product_id"`
	PartName        string            `json:"part_name"`
	ProcessCategory string            `json:"process_category"`
	Quantity        float64           `json:"quantity"`
	Processes       []ProcessResponse `json:"processes"`
}
