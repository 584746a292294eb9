package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
)

// DatasetKey 最近一次导入的四个 CSV 原文
const DatasetKey = "gantt_pro_user_data"

// DatasetRepository CSV 原文的存取接口
type DatasetRepository interface {
	// Load 不存在时返回 pkgerrors.ErrNotFound
	Load(ctx context.Context) (*dataset.Bundle, error)
	Save(ctx context.Context, b dataset.Bundle) error
}

type datasetRepo struct {
	kv KV
}

// NewDatasetRepo 创建 DatasetRepository 实例
func NewDatasetRepo(kv KV) DatasetRepository {
	return &datasetRepo{kv: kv}
}

func (r *datasetRepo) Load(_ context.Context) (*dataset.Bundle, error) {
	raw, err := r.kv.Get(DatasetKey)
	if err != nil {
		return nil, err
	}
	var b dataset.Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("解析已保存的 CSV 失败: %w", err)
	}
	return &b, nil
}

func (r *datasetRepo) Save(_ context.Context, b dataset.Bundle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return r.kv.Put(DatasetKey, raw)
}
