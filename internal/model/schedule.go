package model

// ProgressKind 日程行的进度类别
type ProgressKind string

const (
	KindPlanned ProgressKind = "planned" // 計画
	KindActual  ProgressKind = "actual"  // 実績
)

// Label 日文显示名
func (k ProgressKind) Label() string {
	if k == KindActual {
		return "実績"
	}
	return "計画"
}

// DailyProgress 某一日期列的数量
type DailyProgress struct {
	Day       int          `json:"day"`
	Kind      ProgressKind `json:"type"`
	Value     float64      `json:"value"`
	DateLabel string       `json:"dateLabel"` // 形如 3月1日
}

// ScheduleRow 全体日程行：对应 overall_schedule.csv 的一行
type ScheduleRow struct {
	OrderNo         string          `json:"order_no"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductQuantity float64         `json:"product_quantity"`
	PartID          string          `json:"part_id"`
	PartName        string          `json:"part_name"`
	ProcessCategory string          `json:"process_category"`
	PartQuantity    float64         `json:"part_quantity"`
	ProcessID       string          `json:"process_id"`
	Worker          string          `json:"作業者"`
	Total           float64         `json:"合計数"`
	Kind            ProgressKind    `json:"kind"`
	DailyProgress   []DailyProgress `json:"dailyProgress"`
}

// IsPlanned 是否为计划行
func (r *ScheduleRow) IsPlanned() bool {
	return r.Kind != KindActual
}

// JoinedScheduleRow 附带工序列表的日程行
type JoinedScheduleRow struct {
	ScheduleRow
	Processes []ProcessTemplate `json:"processes"`
}
