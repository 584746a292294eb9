package dataset

import (
	"fmt"
	"sort"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// JoinIssue 日程行关联失败的诊断信息
type JoinIssue struct {
	PartID       string `json:"part_id"`
	ProductID    string `json:"product_id"`
	ProductFound bool   `json:"product_found"`
	PartFound    bool   `json:"part_found"`
}

func (i JoinIssue) String() string {
	switch {
	case !i.ProductFound && !i.PartFound:
		return fmt.Sprintf("product %s / part %s: 製品・部品が見つかりません", i.ProductID, i.PartID)
	case !i.ProductFound:
		return fmt.Sprintf("product %s / part %s: 製品が見つかりません", i.ProductID, i.PartID)
	default:
		return fmt.Sprintf("product %s / part %s: 部品が見つかりません", i.ProductID, i.PartID)
	}
}

// JoinParts 为每个部品挂上同类别、非外协、按 process_order 升序的工序列表。
// 同序号的模板保持输入顺序。
func JoinParts(parts []model.Part, templates []model.ProcessTemplate) []model.JoinedPart {
	byCategory := make(map[string][]model.ProcessTemplate)
	for _, t := range templates {
		if t.IsOutsource {
			continue
		}
		byCategory[t.ProcessCategory] = append(byCategory[t.ProcessCategory], t)
	}
	for cat := range byCategory {
		list := byCategory[cat]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].ProcessOrder < list[j].ProcessOrder
		})
	}

	out := make([]model.JoinedPart, 0, len(parts))
	for _, p := range parts {
		src := byCategory[p.ProcessCategory]
		procs := make([]model.ProcessTemplate, len(src))
		copy(procs, src)
		out = append(out, model.JoinedPart{Part: p, Processes: procs})
	}
	return out
}

// JoinSchedule 为每个日程行挂上对应部品的工序列表。
//
// 行始终保留：部品缺失时工序为空；产品或部品任一缺失都记录一条 JoinIssue。
func JoinSchedule(schedule []model.ScheduleRow, products []model.Product, parts []model.JoinedPart) ([]model.JoinedScheduleRow, []JoinIssue) {
	productIdx := make(map[string]struct{}, len(products))
	for _, p := range products {
		productIdx[p.ProductID] = struct{}{}
	}
	partIdx := make(map[string]int, len(parts))
	for i, p := range parts {
		if _, dup := partIdx[p.PartID]; !dup {
			partIdx[p.PartID] = i
		}
	}

	var issues []JoinIssue
	out := make([]model.JoinedScheduleRow, 0, len(schedule))
	for _, row := range schedule {
		_, productFound := productIdx[row.ProductID]
		pi, partFound := partIdx[row.PartID]

		if !productFound || !partFound {
			issues = append(issues, JoinIssue{
				PartID:       row.PartID,
				ProductID:    row.ProductID,
				ProductFound: productFound,
				PartFound:    partFound,
			})
		}

		procs := []model.ProcessTemplate{}
		if partFound {
			procs = parts[pi].Processes
		}
		out = append(out, model.JoinedScheduleRow{ScheduleRow: row, Processes: procs})
	}
	return out, issues
}
