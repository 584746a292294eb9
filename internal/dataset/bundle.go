package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// 导入所需的四个 CSV 文件名
const (
	FileSchedule  = "overall_schedule.csv"
	FileProduct   = "product.csv"
	FileParts     = "parts.csv"
	FileTemplates = "process_templates.csv"
)

// RequiredFiles 导入时必须同时提供的文件
var RequiredFiles = []string{FileProduct, FileParts, FileTemplates, FileSchedule}

// ErrIncompleteBundle 导入文件不足四个
var ErrIncompleteBundle = errors.New("4つのCSVをすべて選択してください。")

// Bundle 四个 CSV 的原文，作为本地持久化单元整体保存
type Bundle struct {
	Product   string `json:"product"`
	Parts     string `json:"parts"`
	Templates string `json:"templates"`
	Schedule  string `json:"schedule"`
}

// FromFiles 从「文件名 → 内容」构建 Bundle；任一文件缺失或为空时返回 ErrIncompleteBundle
func FromFiles(files map[string]string) (Bundle, error) {
	for _, name := range RequiredFiles {
		if strings.TrimSpace(files[name]) == "" {
			return Bundle{}, ErrIncompleteBundle
		}
	}
	return Bundle{
		Product:   files[FileProduct],
		Parts:     files[FileParts],
		Templates: files[FileTemplates],
		Schedule:  files[FileSchedule],
	}, nil
}

// LoadDir 读取目录下的示例 CSV；读取失败的文件按空文本处理
func LoadDir(dir string) Bundle {
	read := func(name string) string {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return ""
		}
		return string(b)
	}
	return Bundle{
		Product:   read(FileProduct),
		Parts:     read(FileParts),
		Templates: read(FileTemplates),
		Schedule:  read(FileSchedule),
	}
}

// Dataset 一次导入得到的全部实体（整体替换，不做增量修改）
type Dataset struct {
	Products []model.Product
	Parts    []model.JoinedPart
	Schedule []model.JoinedScheduleRow
	Issues   []JoinIssue
}

// Build 解析并关联 Bundle
func Build(b Bundle) *Dataset {
	products := ParseProducts(b.Product)
	parts := JoinParts(ParseParts(b.Parts), ParseProcessTemplates(b.Templates))
	joined, issues := JoinSchedule(ParseSchedule(b.Schedule), products, parts)
	return &Dataset{
		Products: products,
		Parts:    parts,
		Schedule: joined,
		Issues:   issues,
	}
}

// Empty 空数据集
func Empty() *Dataset {
	return &Dataset{
		Products: []model.Product{},
		Parts:    []model.JoinedPart{},
		Schedule: []model.JoinedScheduleRow{},
	}
}

// Product 按 ID 查找产品
func (d *Dataset) Product(productID string) (*model.Product, bool) {
	for i := range d.Products {
		if d.Products[i].ProductID == productID {
			return &d.Products[i], true
		}
	}
	return nil, false
}

// Part 按 ID 查找部品
func (d *Dataset) Part(partID string) (*model.JoinedPart, bool) {
	for i := range d.Parts {
		if d.Parts[i].PartID == partID {
			return &d.Parts[i], true
		}
	}
	return nil, false
}

// PartsOf 某产品下的部品
func (d *Dataset) PartsOf(productID string) []model.JoinedPart {
	out := []model.JoinedPart{}
	for _, p := range d.Parts {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out
}

// JoinedRow 部品对应的第一条日程行（计划或实绩均可）
func (d *Dataset) JoinedRow(partID string) (*model.JoinedScheduleRow, bool) {
	for i := range d.Schedule {
		if d.Schedule[i].PartID == partID {
			return &d.Schedule[i], true
		}
	}
	return nil, false
}

// PlannedRow 部品唯一的计划行
func (d *Dataset) PlannedRow(partID string) (*model.ScheduleRow, bool) {
	for i := range d.Schedule {
		if d.Schedule[i].PartID == partID && d.Schedule[i].IsPlanned() {
			return &d.Schedule[i].ScheduleRow, true
		}
	}
	return nil, false
}

// PlannedRows 全部计划行（报表用）
func (d *Dataset) PlannedRows() []model.ScheduleRow {
	out := []model.ScheduleRow{}
	for _, r := range d.Schedule {
		if r.IsPlanned() {
			out = append(out, r.ScheduleRow)
		}
	}
	return out
}

// ScheduleOf 部品的全部日程行（日历用）
func (d *Dataset) ScheduleOf(partID string) []model.ScheduleRow {
	out := []model.ScheduleRow{}
	for _, r := range d.Schedule {
		if r.PartID == partID {
			out = append(out, r.ScheduleRow)
		}
	}
	return out
}

// Rows 全部日程行（不含工序）
func (d *Dataset) Rows() []model.ScheduleRow {
	out := make([]model.ScheduleRow, 0, len(d.Schedule))
	for _, r := range d.Schedule {
		out = append(out, r.ScheduleRow)
	}
	return out
}

// IsEmpty 三类实体均为空
func (d *Dataset) IsEmpty() bool {
	return len(d.Products) == 0 && len(d.Parts) == 0 && len(d.Schedule) == 0
}
