package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/config"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/app"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/tui"
	applogger "github.com/avemasa0625-dev/gantt-pro-app/pkg/logger"
)

// floorctl 在终端内运行作业引擎；与 cmd/server 共用本地存储目录，二者不能同时运行
func main() {
	configPath := flag.String("config", "", "配置文件路径")
	logPath := flag.String("log", "floorctl.log", "日志文件（终端界面占用标准输出）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 日志写入文件
	logger, err := applogger.NewLogger(&cfg.Log, *logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 3. 装配并启动引擎
	a, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	if err := a.Start(context.Background()); err != nil {
		a.Close()
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}

	// 4. 运行终端界面，退出后写回作业日志
	model := tui.New(a.Service.Dataset, a.Service.Session, a.Service.Progress)
	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	if err := a.Close(); err != nil {
		logger.Error("关闭本地存储异常", zap.Error(err))
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "终端界面异常: %v\n", runErr)
		os.Exit(1)
	}
}
