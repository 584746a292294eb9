package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	pkgerrors "github.com/avemasa0625-dev/gantt-pro-app/pkg/errors"
)

// SnapshotRepository 作业日志快照数据访问接口
type SnapshotRepository interface {
	Create(ctx context.Context, snap *model.WorkLogSnapshot) error
	// Latest 最新一条快照；无记录时返回 pkgerrors.ErrNotFound
	Latest(ctx context.Context) (*model.WorkLogSnapshot, error)
	Count(ctx context.Context) (int64, error)
}

// snapshotRepo SnapshotRepository 的 GORM 实现
type snapshotRepo struct {
	db *gorm.DB
}

// NewSnapshotRepo 创建 SnapshotRepository 实例
func NewSnapshotRepo(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Create(ctx context.Context, snap *model.WorkLogSnapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}

func (r *snapshotRepo) Latest(ctx context.Context) (*model.WorkLogSnapshot, error) {
	var snap model.WorkLogSnapshot
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *snapshotRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.WorkLogSnapshot{}).Count(&n).Error
	return n, err
}
