package kvstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	pkgerrors "github.com/avemasa0625-dev/gantt-pro-app/pkg/errors"
)

// Store 基于 badger 的本地键值存储
// 用于保存最近一次导入的 CSV 原文与作业日志，进程重启后恢复
type Store struct {
	db *badger.DB
}

// Open 打开（或创建）dir 下的 badger 数据库
func Open(dir string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(newBadgerLogger(logger))
	return open(opts)
}

// OpenInMemory 打开纯内存实例，供测试与临时运行使用
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开本地存储失败: %w", err)
	}
	return &Store{db: db}, nil
}

// Get 读取 key 对应的值；不存在时返回 pkgerrors.ErrNotFound
func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", key, err)
	}
	return out, nil
}

// Put 覆盖写入 key
func (s *Store) Put(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("写入 %s 失败: %w", key, err)
	}
	return nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

// ── badger 日志适配 ──

type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func newBadgerLogger(logger *zap.Logger) badger.Logger {
	if logger == nil {
		return nil
	}
	return &badgerLogger{sugar: logger.Named("badger").Sugar()}
}

func (l *badgerLogger) Errorf(f string, v ...interface{})   { l.sugar.Errorf(f, v...) }
func (l *badgerLogger) Warningf(f string, v ...interface{}) { l.sugar.Warnf(f, v...) }
func (l *badgerLogger) Infof(f string, v ...interface{})    { l.sugar.Debugf(f, v...) }
func (l *badgerLogger) Debugf(f string, v ...interface{})   { l.sugar.Debugf(f, v...) }
