package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// ── CSV 解码 ──────────────────────────────────────────────
//
// 尽力解析：空文本得到空列表，单行问题只跳过该行，数值解析失败按 0 处理。
// ─────────────────────────────────────────────────────────────

// scheduleFixedColumns overall_schedule.csv 的固定前导列数，之后为日期列
const scheduleFixedColumns = 12

var dateLabelPattern = regexp.MustCompile(`(\d+)月(\d+)日`)

// readRecords 读取全部记录并去掉表头；空白行不计
func readRecords(text string) (header []string, rows [][]string) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			// 单行格式错误：跳过该行
			continue
		}
		if err != nil {
			break
		}
		if isBlank(rec) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if header == nil {
			header = rec
			continue
		}
		rows = append(rows, rec)
	}
	return header, rows
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// col 越界时返回空串
func col(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// number 与表格软件导出的习惯一致：空串、非数字均视为 0
func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseProducts 解析 product.csv: product_id,product_name,order_no,quantity
func ParseProducts(text string) []model.Product {
	_, rows := readRecords(text)
	out := make([]model.Product, 0, len(rows))
	for _, c := range rows {
		if col(c, 0) == "" {
			continue
		}
		out = append(out, model.Product{
			ProductID:   col(c, 0),
			ProductName: col(c, 1),
			OrderNo:     col(c, 2),
			Quantity:    number(col(c, 3)),
		})
	}
	return out
}

// ParseParts 解析 parts.csv: part_id,product_id,part_name,process_category,process_id,quantity
func ParseParts(text string) []model.Part {
	_, rows := readRecords(text)
	out := make([]model.Part, 0, len(rows))
	for _, c := range rows {
		if col(c, 0) == "" {
			continue
		}
		out = append(out, model.Part{
			PartID:          col(c, 0),
			ProductID:       col(c, 1),
			PartName:        col(c, 2),
			ProcessCategory: col(c, 3),
			ProcessID:       col(c, 4),
			Quantity:        number(col(c, 5)),
		})
	}
	return out
}

// ParseProcessTemplates 解析 process_templates.csv:
// process_category,process_order,process_name,standard_time_min,standard_cost_yen,is_outsource
func ParseProcessTemplates(text string) []model.ProcessTemplate {
	_, rows := readRecords(text)
	out := make([]model.ProcessTemplate, 0, len(rows))
	for _, c := range rows {
		if col(c, 0) == "" {
			continue
		}
		out = append(out, model.ProcessTemplate{
			ProcessCategory: col(c, 0),
			ProcessOrder:    int(number(col(c, 1))),
			ProcessName:     col(c, 2),
			StandardTimeMin: number(col(c, 3)),
			StandardCostYen: number(col(c, 4)),
			IsOutsource:     strings.EqualFold(col(c, 5), "TRUE"),
		})
	}
	return out
}

// ParseSchedule 解析 overall_schedule.csv
//
// 前 12 列固定，第 12 列含「実績」为实绩行，否则为计划行；
// 之后每个非空表头对应一个日期列，值允许带 % 后缀。
func ParseSchedule(text string) []model.ScheduleRow {
	header, rows := readRecords(text)
	out := make([]model.ScheduleRow, 0, len(rows))
	for _, c := range rows {
		if len(c) < scheduleFixedColumns {
			continue
		}

		kind := model.KindPlanned
		if strings.Contains(c[11], "実績") {
			kind = model.KindActual
		}

		row := model.ScheduleRow{
			OrderNo:         c[0],
			ProductID:       c[1],
			ProductName:     c[2],
			ProductQuantity: number(c[3]),
			PartID:          c[4],
			PartName:        c[5],
			ProcessCategory: c[6],
			PartQuantity:    number(c[7]),
			ProcessID:       c[8],
			Worker:          c[9],
			Total:           number(c[10]),
			Kind:            kind,
			DailyProgress:   []model.DailyProgress{},
		}

		for j := scheduleFixedColumns; j < len(header); j++ {
			label := header[j]
			if label == "" {
				continue
			}
			day := j
			if _, d, ok := ParseDateLabel(label); ok {
				day = d
			}
			raw := strings.Replace(col(c, j), "%", "", 1)
			row.DailyProgress = append(row.DailyProgress, model.DailyProgress{
				Day:       day,
				Kind:      kind,
				Value:     number(raw),
				DateLabel: label,
			})
		}
		out = append(out, row)
	}
	return out
}

// ParseDateLabel 从「3月1日」形式的标签中取出月、日
func ParseDateLabel(label string) (month, day int, ok bool) {
	m := dateLabelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, false
	}
	month, err1 := strconv.Atoi(m[1])
	day, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return month, day, true
}
