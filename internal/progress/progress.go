// Package progress 计划与实绩的对照计算，全部为纯函数。
package progress

import (
	"math"
	"time"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// RoundHalfUp 四舍五入到整数（.5 向上）
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// TotalPlanned 计划行的合计数；无计划行时为 0
func TotalPlanned(row *model.ScheduleRow) float64 {
	if row == nil {
		return 0
	}
	return row.Total
}

// CumulativePlannedToDate 截至 today（含）的计划累计
//
// 日期标签只有月日，比较时忽略年份；无法解析的标签不计入。
func CumulativePlannedToDate(row *model.ScheduleRow, today time.Time) float64 {
	if row == nil {
		return 0
	}
	limit := int(today.Month())*100 + today.Day()
	sum := 0.0
	for _, p := range row.DailyProgress {
		m, d, ok := dataset.ParseDateLabel(p.DateLabel)
		if !ok {
			continue
		}
		if m*100+d <= limit {
			sum += p.Value
		}
	}
	return sum
}

// Variance 实绩 - 计划累计；正数为先行，负数为延迟
func Variance(actual int, cumulative float64) float64 {
	return float64(actual) - cumulative
}

// VarianceLabel 日程差异的显示文字
func VarianceLabel(v float64) string {
	switch {
	case v > 0:
		return "先行"
	case v < 0:
		return "遅延"
	default:
		return "±0"
	}
}

// ProcessPercent 当前一件的工序进度
func ProcessPercent(index, processCount int) int {
	if processCount <= 0 {
		processCount = 1
	}
	return RoundHalfUp(float64(index) / float64(processCount) * 100)
}

// ProductPercent 完成数相对计划合计的进度
func ProductPercent(actual int, planned float64) int {
	if planned <= 0 {
		return 0
	}
	return RoundHalfUp(float64(actual) / planned * 100)
}

// AllWorkComplete 计划数量已全部完成
func AllWorkComplete(actual int, planned float64) bool {
	return planned > 0 && float64(actual) >= planned
}

// Summary 某个部品的进度汇总
type Summary struct {
	TotalPlanned      float64 `json:"total_planned"`
	TotalActual       int     `json:"total_actual"`
	CumulativePlanned float64 `json:"cumulative_planned"`
	Variance          float64 `json:"variance"`
	VarianceLabel     string  `json:"variance_label"`
	ProcessPercent    int     `json:"process_percent"`
	ProductPercent    int     `json:"product_percent"`
	AllComplete       bool    `json:"all_complete"`
}

// Summarize 汇总；totalActual 取自作业进度的完成计数而非历史
func Summarize(planned *model.ScheduleRow, entry model.ActiveLog, processCount int, today time.Time) Summary {
	total := TotalPlanned(planned)
	cumulative := CumulativePlannedToDate(planned, today)
	variance := Variance(entry.CompletedWorkCount, cumulative)
	return Summary{
		TotalPlanned:      total,
		TotalActual:       entry.CompletedWorkCount,
		CumulativePlanned: cumulative,
		Variance:          variance,
		VarianceLabel:     VarianceLabel(variance),
		ProcessPercent:    ProcessPercent(entry.CurrentProcessIndex, processCount),
		ProductPercent:    ProductPercent(entry.CompletedWorkCount, total),
		AllComplete:       AllWorkComplete(entry.CompletedWorkCount, total),
	}
}

// ── 计时告警 ──

// AlertLevel 计时相对标准工时的告警级别
type AlertLevel string

const (
	AlertNormal  AlertLevel = "normal"
	AlertWarning AlertLevel = "warning" // 达到标准工时 80%
	AlertOver    AlertLevel = "over"    // 超过标准工时
)

// Alert 告警级别与超时分钟数
type Alert struct {
	Level        AlertLevel `json:"level"`
	DelayMinutes int        `json:"delay_minutes"` // 未超时为 0
}

// TimerAlert 根据已用秒数与标准工时（分）计算告警
func TimerAlert(elapsedSec int, standardMin float64) Alert {
	standardSec := standardMin * 60
	pct := 0.0
	if standardSec > 0 {
		pct = float64(elapsedSec) / standardSec * 100
	}

	a := Alert{Level: AlertNormal}
	switch {
	case pct >= 100:
		a.Level = AlertOver
	case pct >= 80:
		a.Level = AlertWarning
	}
	if over := float64(elapsedSec) - standardSec; over > 0 {
		a.DelayMinutes = int(math.Ceil(over / 60))
	}
	return a
}
