// Package report 生成制造日报（CSV / Excel）。
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/progress"
)

const (
	utf8BOM = "\ufeff"

	SectionQuantity = "【数量ベース進捗】"
	SectionHistory  = "【作業実績ログ】"

	unassignedWorker = "未割当"
	filePrefix       = "製造日報_"
)

var (
	quantityHeader = []string{"注文番号", "製品名", "部品名", "担当者", "計画合計", "累計完了", "進捗率", "日程差異"}
	historyHeader  = []string{"完了日時", "注文番号", "製品名", "部品名", "工程名", "担当者", "標準時間", "実績時間", "差異"}
)

// QuantityRow 数量进度一行（每个计划行一行）
type QuantityRow struct {
	OrderNo     string
	ProductName string
	PartName    string
	Worker      string
	Planned     float64
	Actual      int
	Percent     int
	Variance    float64
}

// Input 日报内容
type Input struct {
	Quantities []QuantityRow
	History    []model.WorkHistory
}

// BuildInput 由计划行与作业日志组装日报内容；today 用于计划累计
func BuildInput(planned []model.ScheduleRow, log model.WorkLog, today time.Time) Input {
	in := Input{
		Quantities: make([]QuantityRow, 0, len(planned)),
		History:    log.History,
	}
	for i := range planned {
		row := &planned[i]
		actual := 0
		if e := log.ActiveLogs[row.PartID]; e != nil {
			actual = e.CompletedWorkCount
		}
		worker := row.Worker
		if worker == "" {
			worker = unassignedWorker
		}
		in.Quantities = append(in.Quantities, QuantityRow{
			OrderNo:     row.OrderNo,
			ProductName: row.ProductName,
			PartName:    row.PartName,
			Worker:      worker,
			Planned:     row.Total,
			Actual:      actual,
			Percent:     progress.ProductPercent(actual, row.Total),
			Variance:    progress.Variance(actual, progress.CumulativePlannedToDate(row, today)),
		})
	}
	return in
}

// Filename 日报文件名，ext 含点号
func Filename(date time.Time, ext string) string {
	return filePrefix + date.Format("2006-01-02") + ext
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (q QuantityRow) record() []string {
	return []string{
		q.OrderNo, q.ProductName, q.PartName, q.Worker,
		num(q.Planned), strconv.Itoa(q.Actual), fmt.Sprintf("%d%%", q.Percent), num(q.Variance),
	}
}

func historyRecord(h model.WorkHistory) []string {
	return []string{
		completedAt(h), h.OrderNo, h.ProductName, h.PartName, h.ProcessName, h.WorkerName,
		FormatHMS(h.StandardTimeSec), FormatHMS(h.ActualTimeSec), FormatHMS(h.ActualTimeSec - h.StandardTimeSec),
	}
}

// ═══════════════════════════════════════════════════════════
// WriteCSV：UTF-8 BOM + 两个区段
// ═══════════════════════════════════════════════════════════

func WriteCSV(w io.Writer, in Input) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)

	// 1. 数量进度
	_ = cw.Write([]string{SectionQuantity})
	_ = cw.Write(quantityHeader)
	for _, q := range in.Quantities {
		_ = cw.Write(q.record())
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	// 2. 空行分隔后写作业实绩
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	_ = cw.Write([]string{SectionHistory})
	_ = cw.Write(historyHeader)
	for _, h := range in.History {
		_ = cw.Write(historyRecord(h))
	}
	cw.Flush()
	return cw.Error()
}

// ═══════════════════════════════════════════════════════════
// WriteXLSX：同样的两个区段，各占一个 Sheet
// ═══════════════════════════════════════════════════════════

const (
	sheetQuantity = "数量ベース進捗"
	sheetHistory  = "作業実績ログ"
)

func WriteXLSX(w io.Writer, in Input) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetQuantity)
	if err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetHistory); err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 数量进度
	writeHeader(f, sheetQuantity, quantityHeader, headerStyle)
	for i, q := range in.Quantities {
		row := []any{q.OrderNo, q.ProductName, q.PartName, q.Worker, q.Planned, q.Actual, fmt.Sprintf("%d%%", q.Percent), q.Variance}
		if err := setRow(f, sheetQuantity, i+2, row); err != nil {
			return err
		}
	}
	f.SetColWidth(sheetQuantity, "A", "D", 16)

	// 作业实绩
	writeHeader(f, sheetHistory, historyHeader, headerStyle)
	for i, h := range in.History {
		rec := historyRecord(h)
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := setRow(f, sheetHistory, i+2, row); err != nil {
			return err
		}
	}
	f.SetColWidth(sheetHistory, "A", "A", 20)
	f.SetColWidth(sheetHistory, "B", "F", 14)

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	_ = setRow(f, sheet, 1, row)
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
