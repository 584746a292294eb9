package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/repository"
	pkgerrors "github.com/avemasa0625-dev/gantt-pro-app/pkg/errors"
)

// LatestSnapshotKey 最新快照在缓存中的键
const LatestSnapshotKey = "worklog:latest"

// ErrInvalidWorkLog 上传内容无法解析为作业日志
var ErrInvalidWorkLog = errors.New("作业日志格式错误")

// Cache 快照缓存（pkg/redis 实现）；不可用时可为 nil
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SnapshotService 远端快照业务接口（cmd/syncd）
//
// 每次上传保存为一条新快照，读取时返回最新一条；缓存只是加速，失败时回落到数据库。
type SnapshotService interface {
	Save(ctx context.Context, raw []byte, clientIP string) (*model.WorkLogSnapshot, error)
	// Latest 无快照时返回 nil, nil：客户端据此保留本地日志
	Latest(ctx context.Context) (*model.WorkLog, error)
}

type snapshotService struct {
	store  *repository.SnapshotStore
	cache  Cache
	logger *zap.Logger
}

// NewSnapshotService 创建 SnapshotService 实例
func NewSnapshotService(store *repository.SnapshotStore, cache Cache, logger *zap.Logger) SnapshotService {
	return &snapshotService{store: store, cache: cache, logger: logger}
}

func (s *snapshotService) Save(ctx context.Context, raw []byte, clientIP string) (*model.WorkLogSnapshot, error) {
	// 1. 校验并规范化
	var log model.WorkLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkLog, err)
	}
	log.Normalize()
	payload, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}

	// 2. 入库
	snap := &model.WorkLogSnapshot{
		SnapshotID:   uuid.NewString(),
		Payload:      model.JSONBlob(payload),
		PartCount:    len(log.ActiveLogs),
		HistoryCount: len(log.History),
		ClientIP:     clientIP,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Snapshot.Create(ctx, snap); err != nil {
		s.logger.Error("保存快照失败", zap.Error(err))
		return nil, err
	}

	// 3. 刷新缓存
	if s.cache != nil {
		if err := s.cache.SetBytes(ctx, LatestSnapshotKey, payload, 0); err != nil {
			s.logger.Warn("写入快照缓存失败", zap.Error(err))
		}
	}

	s.logger.Info("快照已保存",
		zap.String("snapshot_id", snap.SnapshotID),
		zap.Int("parts", snap.PartCount),
		zap.Int("history", snap.HistoryCount),
	)
	return snap, nil
}

func (s *snapshotService) Latest(ctx context.Context) (*model.WorkLog, error) {
	if s.cache != nil {
		raw, err := s.cache.GetBytes(ctx, LatestSnapshotKey)
		if err == nil {
			if log, ok := decodeWorkLog(raw); ok {
				return log, nil
			}
		} else if !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Warn("读取快照缓存失败", zap.Error(err))
		}
	}

	snap, err := s.store.Snapshot.Latest(ctx)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log, ok := decodeWorkLog(snap.Payload)
	if !ok {
		return nil, fmt.Errorf("快照 %s 内容损坏", snap.SnapshotID)
	}
	if s.cache != nil {
		_ = s.cache.SetBytes(ctx, LatestSnapshotKey, snap.Payload, 0)
	}
	return log, nil
}

func decodeWorkLog(raw []byte) (*model.WorkLog, bool) {
	var log model.WorkLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, false
	}
	log.Normalize()
	return &log, true
}
