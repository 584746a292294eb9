package model

import "math"

// Product 製品：对应 product.csv
type Product struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	OrderNo     string  `json:"order_no"`
	Quantity    float64 `json:"quantity"`
}

// Part 部品：对应 parts.csv，通过 ProcessCategory 关联工序模板
type Part struct {
	PartID          string  `json:"part_id"`
	ProductID       string  `json:"product_id"`
	PartName        string  `json:"part_name"`
	ProcessCategory string  `json:"process_category"`
	ProcessID       string  `json:"process_id"`
	Quantity        float64 `json:"quantity"`
}

// ProcessTemplate 工序模板：对应 process_templates.csv
type ProcessTemplate struct {
	ProcessCategory string  `json:"process_category"`
	ProcessOrder    int     `json:"process_order"`
	ProcessName     string  `json:"process_name"`
	StandardTimeMin float64 `json:"standard_time_min"`
	StandardCostYen float64 `json:"standard_cost_yen"`
	IsOutsource     bool    `json:"is_outsource"`
}

// StandardTimeSec 标准工时（秒）
func (p ProcessTemplate) StandardTimeSec() int {
	return int(math.Round(p.StandardTimeMin * 60))
}

// JoinedPart 附带有序工序列表的部品（已排除外协工序）
type JoinedPart struct {
	Part
	Processes []ProcessTemplate `json:"processes"`
}
