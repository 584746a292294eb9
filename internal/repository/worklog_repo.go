package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// WorkLogKey 序列化后的作业日志
const WorkLogKey = "gantt_pro_work_log"

// WorkLogRepository 作业日志的存取接口
type WorkLogRepository interface {
	// Load 不存在时返回 pkgerrors.ErrNotFound
	Load(ctx context.Context) (*model.WorkLog, error)
	Save(ctx context.Context, log model.WorkLog) error
}

type workLogRepo struct {
	kv KV
}

// NewWorkLogRepo 创建 WorkLogRepository 实例
func NewWorkLogRepo(kv KV) WorkLogRepository {
	return &workLogRepo{kv: kv}
}

func (r *workLogRepo) Load(_ context.Context) (*model.WorkLog, error) {
	raw, err := r.kv.Get(WorkLogKey)
	if err != nil {
		return nil, err
	}
	var log model.WorkLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, fmt.Errorf("解析已保存的作业日志失败: %w", err)
	}
	log.Normalize()
	return &log, nil
}

func (r *workLogRepo) Save(_ context.Context, log model.WorkLog) error {
	raw, err := json.Marshal(log)
	if err != nil {
		return err
	}
	return r.kv.Put(WorkLogKey, raw)
}
