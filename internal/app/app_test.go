package app

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/config"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/api/handler"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/dataset"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
)

var sampleFiles = map[string]string{
	dataset.FileProduct: "product_id,product_name,order_no,quantity\n" +
		"PR1,ポンプ,A-001,100\n",
	dataset.FileParts: "part_id,product_id,part_name,process_category,process_id,quantity\n" +
		"P1,PR1,シャフト,CAT1,X1,100\n",
	dataset.FileTemplates: "process_category,process_order,process_name,standard_time_min,standard_cost_yen,is_outsource\n" +
		"CAT1,1,切断,10,300,FALSE\n" +
		"CAT1,2,研磨,20,500,FALSE\n",
	dataset.FileSchedule: "注文番号,製品ID,製品名,製品数量,部品ID,部品名,工程区分,部品数量,工程ID,作業者,合計数,進捗,3月1日\n" +
		"A-001,PR1,ポンプ,100,P1,シャフト,CAT1,100,X1,山田,100,計画,10\n",
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	sample := t.TempDir()
	for name, content := range sampleFiles {
		if err := os.WriteFile(filepath.Join(sample, name), []byte(content), 0o644); err != nil {
			t.Fatalf("写入示例 CSV 失败: %v", err)
		}
	}
	return &config.Config{
		Storage: config.StorageConfig{Dir: filepath.Join(t.TempDir(), "badger")},
		Tracker: config.TrackerConfig{
			SampleDir:     sample,
			TickInterval:  time.Hour,
			FlushInterval: 0,
			Timezone:      "UTC",
		},
		Sync: config.SyncConfig{Enabled: false, Timeout: time.Second},
	}
}

func TestApp_StartLoadsSample(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	defer a.Close()

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	st := a.Service.Dataset.Status()
	if st.Source != service.SourceSample {
		t.Errorf("期望来源 sample，实际 %q", st.Source)
	}
	if st.PartCount != 1 {
		t.Errorf("期望 1 个部品，实际 %d", st.PartCount)
	}
}

func TestApp_WorkLogSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	// 第一次运行：开始并推进到第二道工序
	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	if _, err := a.Service.Session.Start(ctx, "P1"); err != nil {
		t.Fatalf("开始计时失败: %v", err)
	}
	if _, err := a.Service.Session.Complete(ctx, "P1", nil); err != nil {
		t.Fatalf("完成第一道工序失败: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	// 第二次运行：从本地存储恢复
	b, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("重新打开失败: %v", err)
	}
	defer b.Close()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	sess, err := b.Service.Session.Get(ctx, "P1")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if sess.CurrentProcessIndex != 1 {
		t.Errorf("期望恢复到第 2 道工序，实际索引 %d", sess.CurrentProcessIndex)
	}
}

// emptySnapshots 尚无任何快照的远端
type emptySnapshots struct{}

func (emptySnapshots) Save(_ context.Context, _ []byte, _ string) (*model.WorkLogSnapshot, error) {
	return &model.WorkLogSnapshot{}, nil
}

func (emptySnapshots) Latest(_ context.Context) (*model.WorkLog, error) {
	return nil, nil
}

func TestApp_FreshRemoteKeepsLocalHistory(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	// 第一次运行（无远端）：完成一件
	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	_, _ = a.Service.Session.Start(ctx, "P1")
	_, _ = a.Service.Session.Complete(ctx, "P1", nil)
	confirm := true
	if _, err := a.Service.Session.Complete(ctx, "P1", &confirm); err != nil {
		t.Fatalf("完成一件失败: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	// 第二次运行：连接尚无快照的远端
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/data", handler.NewSyncHandler(emptySnapshots{}, zap.NewNop()).GetData)
	srv := httptest.NewServer(r)
	defer srv.Close()

	cfg.Sync = config.SyncConfig{Enabled: true, BaseURL: srv.URL, Timeout: time.Second}
	b, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("重新打开失败: %v", err)
	}
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	log, err := b.Service.Session.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if e := log.ActiveLogs["P1"]; len(log.History) != 2 || e == nil || e.CompletedWorkCount != 1 {
		t.Errorf("远端无快照时应保留本地实绩: history=%d", len(log.History))
	}
	if !b.Service.Session.RemoteConnected() {
		t.Error("远端可达时应标记为已连接")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	// 第三次运行：本地存储中的实绩未被覆盖
	cfg.Sync = config.SyncConfig{Enabled: false, Timeout: time.Second}
	c, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("重新打开失败: %v", err)
	}
	defer c.Close()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	log, _ = c.Service.Session.Snapshot(ctx)
	if len(log.History) != 2 {
		t.Errorf("本地存储中的实绩应保留，实际 %d", len(log.History))
	}
}
