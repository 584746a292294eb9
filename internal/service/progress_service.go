package service

import (
	"context"
	"time"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dto"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/progress"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
)

// ProgressService 进度与日历业务接口
type ProgressService interface {
	Summary(ctx context.Context, partID string) (*dto.ProgressResponse, error)
	// Calendar partID 为空时返回全部日程行
	Calendar(ctx context.Context, partID string) (*progress.CalendarView, error)
}

type progressService struct {
	datasets DatasetService
	engine   *worksession.Engine
	now      func() time.Time
}

// NewProgressService 创建 ProgressService 实例；now 返回配置时区下的当前时间
func NewProgressService(datasets DatasetService, engine *worksession.Engine, now func() time.Time) ProgressService {
	return &progressService{datasets: datasets, engine: engine, now: now}
}

func (s *progressService) Summary(ctx context.Context, partID string) (*dto.ProgressResponse, error) {
	t, err := s.datasets.Target(partID)
	if err != nil {
		return nil, err
	}
	entry, err := s.engine.Entry(ctx, partID)
	if err != nil {
		return nil, err
	}

	sum := progress.Summarize(t.Planned, entry, len(t.Processes), s.now())
	return &dto.ProgressResponse{
		PartID:            partID,
		TotalPlanned:      sum.TotalPlanned,
		TotalActual:       sum.TotalActual,
		CumulativePlanned: sum.CumulativePlanned,
		Variance:          sum.Variance,
		VarianceLabel:     sum.VarianceLabel,
		ProcessPercent:    sum.ProcessPercent,
		ProductPercent:    sum.ProductPercent,
		AllComplete:       sum.AllComplete,
	}, nil
}

func (s *progressService) Calendar(ctx context.Context, partID string) (*progress.CalendarView, error) {
	ds := s.datasets.Current()
	rows := ds.Rows()
	if partID != "" {
		if _, err := s.datasets.Target(partID); err != nil {
			return nil, err
		}
		rows = ds.ScheduleOf(partID)
	}

	log, err := s.engine.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	view := progress.Calendar(rows, log.History, s.now())
	return &view, nil
}
