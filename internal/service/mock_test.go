package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/repository"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/syncclient"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
	pkgerrors "github.com/avemasa0625-dev/gantt-pro-app/pkg/errors"
)

// ── 测试数据 ──

var testFiles = map[string]string{
	dataset.FileProduct: "product_id,product_name,order_no,quantity\n" +
		"PR1,ポンプ,A-001,100\n",
	dataset.FileParts: "part_id,product_id,part_name,process_category,process_id,quantity\n" +
		"P1,PR1,シャフト,CAT1,X1,100\n" +
		"P2,PR1,ケーシング,CAT2,X2,100\n",
	dataset.FileTemplates: "process_category,process_order,process_name,standard_time_min,standard_cost_yen,is_outsource\n" +
		"CAT1,2,研磨,20,500,FALSE\n" +
		"CAT1,1,切断,10,300,FALSE\n" +
		"CAT1,3,メッキ,30,900,TRUE\n" +
		"CAT2,1,鋳造,5,100,FALSE\n",
	dataset.FileSchedule: "注文番号,製品ID,製品名,製品数量,部品ID,部品名,工程区分,部品数量,工程ID,作業者,合計数,進捗,3月1日,3月2日,3月3日\n" +
		"A-001,PR1,ポンプ,100,P1,シャフト,CAT1,100,X1,山田,100,計画,10,20,30\n" +
		"A-001,PR1,ポンプ,100,P1,シャフト,CAT1,100,X1,山田,0,実績,,,\n" +
		"A-009,PR1,ポンプ,100,P9,不明,CAT9,1,X9,,1,計画,1,,\n",
}

var march2 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return march2 }

// ── Mock KV ──

type mockKV struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
	fail error
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string][]byte)}
}

func (m *mockKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return v, nil
}

func (m *mockKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = append([]byte(nil), value...)
	m.puts++
	return nil
}

func (m *mockKV) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// ── Mock RemoteStore ──

type mockRemote struct {
	mu      sync.Mutex
	log     *model.WorkLog
	loadErr error
	saveErr error
	saved   []model.WorkLog
}

func (m *mockRemote) Load(_ context.Context) (*model.WorkLog, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.log == nil {
		return nil, syncclient.ErrNoLogs
	}
	out := m.log.Clone()
	return &out, nil
}

func (m *mockRemote) Save(_ context.Context, log model.WorkLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, log)
	return m.saveErr
}

func (m *mockRemote) saves() []model.WorkLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.WorkLog(nil), m.saved...)
}

// ── Mock SnapshotRepository ──

type mockSnapshotRepo struct {
	snaps []*model.WorkLogSnapshot
}

func (m *mockSnapshotRepo) Create(_ context.Context, snap *model.WorkLogSnapshot) error {
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *mockSnapshotRepo) Latest(_ context.Context) (*model.WorkLogSnapshot, error) {
	if len(m.snaps) == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	sorted := append([]*model.WorkLogSnapshot(nil), m.snaps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	return sorted[0], nil
}

func (m *mockSnapshotRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.snaps)), nil
}

// ── Mock Cache ──

type mockCache struct {
	data map[string][]byte
	fail error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) GetBytes(_ context.Context, key string) ([]byte, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	v, ok := m.data[key]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return v, nil
}

func (m *mockCache) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = value
	return nil
}

// ── 测试辅助 ──

type testEnv struct {
	kv       *mockKV
	repo     *repository.Repository
	remote   *mockRemote
	conn     *Connectivity
	engine   *worksession.Engine
	tick     chan time.Time
	sink     *WriteBehind
	datasets DatasetService
	session  SessionService
}

// setupTestEnv 引擎使用外部 tick 通道，数据集已导入 testFiles
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	env := &testEnv{
		kv:     newMockKV(),
		remote: &mockRemote{},
		conn:   &Connectivity{},
		tick:   make(chan time.Time),
	}
	env.repo = repository.NewRepository(env.kv)
	env.sink = NewWriteBehind(env.repo.WorkLog, env.remote, time.Second, env.conn, logger)

	store := worksession.NewStore(model.NewWorkLog(), fixedNow)
	env.engine = worksession.NewEngine(store, env.sink, logger, worksession.WithTickSource(env.tick))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = env.engine.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
		env.sink.Close()
	})

	env.datasets = NewDatasetService(env.repo, t.TempDir(), logger)
	if _, err := env.datasets.Import(context.Background(), testFiles); err != nil {
		t.Fatalf("导入测试数据失败: %v", err)
	}
	env.session = NewSessionService(env.datasets, env.engine, env.repo, env.remote, time.Second, env.conn, logger)
	return env
}

func (e *testEnv) ticks(n int) {
	for i := 0; i < n; i++ {
		e.tick <- time.Time{}
	}
}

func boolPtr(v bool) *bool { return &v }
