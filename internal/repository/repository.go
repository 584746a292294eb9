package repository

import "gorm.io/gorm"

// KV 本地键值存储（pkg/kvstore 实现）
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Repository 本地持久化的聚合入口（cmd/server、cmd/floorctl 使用）
type Repository struct {
	Dataset DatasetRepository
	WorkLog WorkLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(kv KV) *Repository {
	return &Repository{
		Dataset: NewDatasetRepo(kv),
		WorkLog: NewWorkLogRepo(kv),
	}
}

// SnapshotStore 远端快照服务的聚合入口（cmd/syncd 使用）
type SnapshotStore struct {
	Snapshot SnapshotRepository
}

// NewSnapshotStore 创建 SnapshotStore 聚合
func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{Snapshot: NewSnapshotRepo(db)}
}
