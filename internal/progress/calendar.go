package progress

import (
	"fmt"
	"sort"
	"time"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// CalendarRow 日历网格的一行；Values 与 CalendarView.Labels 一一对应
type CalendarRow struct {
	OrderNo  string             `json:"order_no"`
	PartID   string             `json:"part_id"`
	PartName string             `json:"part_name"`
	Kind     model.ProgressKind `json:"kind"`
	KindName string             `json:"kind_name"`
	Values   []float64          `json:"values"`
}

// CalendarView 计划/实绩日历
type CalendarView struct {
	Labels     []string      `json:"labels"`
	TodayLabel string        `json:"today_label"`
	Rows       []CalendarRow `json:"rows"`
}

func labelKey(label string) int {
	m, d, ok := dataset.ParseDateLabel(label)
	if !ok {
		return 0
	}
	return m*100 + d
}

// DateLabels 所有行日期标签去重后按月日排序
func DateLabels(rows []model.ScheduleRow) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range rows {
		for _, p := range r.DailyProgress {
			if !seen[p.DateLabel] {
				seen[p.DateLabel] = true
				labels = append(labels, p.DateLabel)
			}
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return labelKey(labels[i]) < labelKey(labels[j])
	})
	return labels
}

// ActualCount 某部品在某日期标签上的完成件数
//
// 同一件的各工序实绩共用时间戳，按不同时间戳计数。
// 实绩时间戳为 UTC，按 now 所在时区换算日期后再与标签比较；年份取自 now。
func ActualCount(history []model.WorkHistory, partID, label string, now time.Time) int {
	m, d, ok := dataset.ParseDateLabel(label)
	if !ok {
		return 0
	}
	date := fmt.Sprintf("%04d-%02d-%02d", now.Year(), m, d)
	stamps := make(map[string]struct{})
	for _, h := range history {
		if h.PartID == partID && localDate(h, now.Location()) == date {
			stamps[h.Timestamp] = struct{}{}
		}
	}
	return len(stamps)
}

// localDate 实绩在 loc 时区下的日期；时间戳无法解析时退回记录中的日期
func localDate(h model.WorkHistory, loc *time.Location) string {
	ts, err := time.Parse(time.RFC3339Nano, h.Timestamp)
	if err != nil {
		return h.Date
	}
	return ts.In(loc).Format("2006-01-02")
}

// Calendar 生成日历；计划行取计划值，实绩行按历史统计。年份取自 now
func Calendar(rows []model.ScheduleRow, history []model.WorkHistory, now time.Time) CalendarView {
	labels := DateLabels(rows)
	view := CalendarView{
		Labels:     labels,
		TodayLabel: fmt.Sprintf("%d月%d日", int(now.Month()), now.Day()),
		Rows:       make([]CalendarRow, 0, len(rows)),
	}

	for _, r := range rows {
		planned := make(map[string]float64, len(r.DailyProgress))
		for _, p := range r.DailyProgress {
			if _, ok := planned[p.DateLabel]; !ok {
				planned[p.DateLabel] = p.Value
			}
		}

		values := make([]float64, len(labels))
		for i, label := range labels {
			if r.IsPlanned() {
				values[i] = planned[label]
			} else {
				values[i] = float64(ActualCount(history, r.PartID, label, now))
			}
		}
		view.Rows = append(view.Rows, CalendarRow{
			OrderNo:  r.OrderNo,
			PartID:   r.PartID,
			PartName: r.PartName,
			Kind:     r.Kind,
			KindName: r.Kind.Label(),
			Values:   values,
		})
	}
	return view
}
