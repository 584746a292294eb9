package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/dto"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/repository"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
	pkgerrors "github.com/avemasa0625-dev/gantt-pro-app/pkg/errors"
)

// ── 数据集模块业务错误 ──

var (
	ErrProductNotFound = errors.New("製品が見つかりません")
	ErrPartNotFound    = errors.New("部品が見つかりません")
)

// LoadFailedMessage 启动加载失败时展示给用户的信息
const LoadFailedMessage = "データの読み込みに失敗しました。"

// 数据来源
const (
	SourceSaved  = "saved"
	SourceSample = "sample"
	SourceImport = "import"
	SourceEmpty  = "empty"
)

// DatasetService 数据集业务接口
//
// 数据集整体替换，不做增量修改；读取方拿到的 *dataset.Dataset 不会再被修改。
type DatasetService interface {
	// Load 启动时加载：本地保存的 CSV 优先，否则读取示例目录
	Load(ctx context.Context) error
	// Import 导入四个 CSV（文件名 → 内容），不足四个时返回 dataset.ErrIncompleteBundle 且不做任何修改
	Import(ctx context.Context, files map[string]string) (*dto.DatasetStatusResponse, error)
	Current() *dataset.Dataset
	Status() *dto.DatasetStatusResponse
	ListProducts() []dto.ProductResponse
	ListParts(productID string) ([]dto.PartResponse, error)
	// Target 组装作业计时所需的部品信息
	Target(partID string) (worksession.Target, error)
}

type datasetService struct {
	repo      *repository.Repository
	sampleDir string
	logger    *zap.Logger

	// onSwap 数据集替换后的回调（修正工序指针），由 NewService 设置
	onSwap func(ctx context.Context)

	mu       sync.RWMutex
	current  *dataset.Dataset
	source   string
	loadErr  string
	loadedAt time.Time
}

// NewDatasetService 创建 DatasetService 实例
func NewDatasetService(repo *repository.Repository, sampleDir string, logger *zap.Logger) DatasetService {
	return newDatasetService(repo, sampleDir, logger)
}

func newDatasetService(repo *repository.Repository, sampleDir string, logger *zap.Logger) *datasetService {
	return &datasetService{
		repo:      repo,
		sampleDir: sampleDir,
		logger:    logger,
		current:   dataset.Empty(),
		source:    SourceEmpty,
	}
}

// ═══════════════════════════════════════════════════════════
// Load：启动加载
// ═══════════════════════════════════════════════════════════

func (s *datasetService) Load(ctx context.Context) error {
	// 1. 本地保存的导入数据
	saved, err := s.repo.Dataset.Load(ctx)
	switch {
	case err == nil:
		s.swap(ctx, dataset.Build(*saved), SourceSaved, "")
		return nil
	case !errors.Is(err, pkgerrors.ErrNotFound):
		s.logger.Error("读取本地数据集失败", zap.Error(err))
		s.swap(ctx, dataset.Empty(), SourceEmpty, LoadFailedMessage)
		return err
	}

	// 2. 示例目录
	ds := dataset.Build(dataset.LoadDir(s.sampleDir))
	if ds.IsEmpty() {
		s.logger.Warn("示例数据为空", zap.String("dir", s.sampleDir))
		s.swap(ctx, ds, SourceEmpty, "")
		return nil
	}
	s.swap(ctx, ds, SourceSample, "")
	return nil
}

// ═══════════════════════════════════════════════════════════
// Import：导入四个 CSV
// ═══════════════════════════════════════════════════════════

func (s *datasetService) Import(ctx context.Context, files map[string]string) (*dto.DatasetStatusResponse, error) {
	bundle, err := dataset.FromFiles(files)
	if err != nil {
		return nil, err
	}
	ds := dataset.Build(bundle)

	// 先持久化再替换，失败时保持原数据集
	if err := s.repo.Dataset.Save(ctx, bundle); err != nil {
		s.logger.Error("保存导入数据失败", zap.Error(err))
		return nil, err
	}
	s.swap(ctx, ds, SourceImport, "")
	return s.Status(), nil
}

func (s *datasetService) swap(ctx context.Context, ds *dataset.Dataset, source, loadErr string) {
	for _, issue := range ds.Issues {
		s.logger.Warn("日程行关联失败",
			zap.String("product_id", issue.ProductID),
			zap.String("part_id", issue.PartID),
			zap.Bool("product_found", issue.ProductFound),
			zap.Bool("part_found", issue.PartFound),
		)
	}

	s.mu.Lock()
	s.current = ds
	s.source = source
	s.loadErr = loadErr
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("数据集已加载",
		zap.String("source", source),
		zap.Int("products", len(ds.Products)),
		zap.Int("parts", len(ds.Parts)),
		zap.Int("schedule_rows", len(ds.Schedule)),
	)

	if s.onSwap != nil {
		s.onSwap(ctx)
	}
}

func (s *datasetService) Current() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *datasetService) Status() *dto.DatasetStatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &dto.DatasetStatusResponse{
		Source:        s.source,
		Error:         s.loadErr,
		ProductCount:  len(s.current.Products),
		PartCount:     len(s.current.Parts),
		ScheduleCount: len(s.current.Schedule),
	}
	for _, issue := range s.current.Issues {
		resp.Issues = append(resp.Issues, issue.String())
	}
	if !s.loadedAt.IsZero() {
		resp.LoadedAt = s.loadedAt.Format(time.RFC3339)
	}
	return resp
}

// ── 查询 ──

func (s *datasetService) ListProducts() []dto.ProductResponse {
	ds := s.Current()
	out := make([]dto.ProductResponse, 0, len(ds.Products))
	for _, p := range ds.Products {
		out = append(out, dto.ProductResponse{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			OrderNo:     p.OrderNo,
			Quantity:    p.Quantity,
			PartCount:   len(ds.PartsOf(p.ProductID)),
		})
	}
	return out
}

func (s *datasetService) ListParts(productID string) ([]dto.PartResponse, error) {
	ds := s.Current()
	if _, ok := ds.Product(productID); !ok {
		return nil, ErrProductNotFound
	}
	parts := ds.PartsOf(productID)
	out := make([]dto.PartResponse, 0, len(parts))
	for _, p := range parts {
		out = append(out, dto.PartResponse{
			PartID:          p.PartID,
			ProductID:       p.ProductID,
			PartName:        p.PartName,
			ProcessCategory: p.ProcessCategory,
			Quantity:        p.Quantity,
			Processes:       toProcessResponses(p.Processes),
		})
	}
	return out, nil
}

func (s *datasetService) Target(partID string) (worksession.Target, error) {
	return targetOf(s.Current(), partID)
}

// targetOf 工序优先取日程行的关联结果，其次取部品自身的工序
func targetOf(ds *dataset.Dataset, partID string) (worksession.Target, error) {
	part, partOK := ds.Part(partID)
	row, rowOK := ds.JoinedRow(partID)
	if !partOK && !rowOK {
		return worksession.Target{}, ErrPartNotFound
	}

	t := worksession.Target{PartID: partID}
	if rowOK {
		t.PartName = row.PartName
		t.Processes = row.Processes
	}
	if partOK {
		if t.PartName == "" {
			t.PartName = part.PartName
		}
		if len(t.Processes) == 0 {
			t.Processes = part.Processes
		}
	}
	if planned, ok := ds.PlannedRow(partID); ok {
		t.Planned = planned
	}
	return t, nil
}

func toProcessResponses(procs []model.ProcessTemplate) []dto.ProcessResponse {
	out := make([]dto.ProcessResponse, 0, len(procs))
	for i, p := range procs {
		out = append(out, dto.ProcessResponse{
			Index:           i,
			ProcessName:     p.ProcessName,
			StandardTimeMin: p.StandardTimeMin,
			StandardTimeSec: p.StandardTimeSec(),
		})
	}
	return out
}
