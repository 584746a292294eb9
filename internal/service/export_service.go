package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/report"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
)

// ── 导出模块业务错误 ──

var (
	ErrExportFormat       = errors.New("不支持的导出格式")
	ErrExportGenerateFail = errors.New("生成日报失败")
)

// 导出格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export 导出结果
type Export struct {
	Buffer      *bytes.Buffer
	Filename    string
	ContentType string
}

// ExportService 导出业务接口
//
// 设计说明：
//   - 日报包含「数量ベース進捗」与「作業実績ログ」两部分
//   - csv 为 UTF-8 BOM 文本，xlsx 每部分一个 Sheet
//   - 以 bytes.Buffer 返回，由 Handler 层设置响应头
type ExportService interface {
	ExportReport(ctx context.Context, format string) (*Export, error)
}

type exportService struct {
	datasets DatasetService
	engine   *worksession.Engine
	now      func() time.Time
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(datasets DatasetService, engine *worksession.Engine, now func() time.Time, logger *zap.Logger) ExportService {
	return &exportService{datasets: datasets, engine: engine, now: now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportReport：导出制造日报
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReport(ctx context.Context, format string) (*Export, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, ErrExportFormat
	}

	// 1. 当前日志快照
	log, err := s.engine.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// 2. 组装内容
	now := s.now()
	in := report.BuildInput(s.datasets.Current().PlannedRows(), log, now)

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	out := &Export{Buffer: buf}
	switch format {
	case FormatXLSX:
		err = report.WriteXLSX(buf, in)
		out.Filename = report.Filename(now, ".xlsx")
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		err = report.WriteCSV(buf, in)
		out.Filename = report.Filename(now, ".csv")
		out.ContentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("生成日报失败", zap.String("format", format), zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return out, nil
}
