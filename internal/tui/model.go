// Package tui 现场作业终端：部品选择与工序计时操作。
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dto"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/service"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/worksession"
)

// refreshInterval 画面刷新周期（计时显示以秒为单位）
const refreshInterval = time.Second

// opTimeout 单次操作超时
const opTimeout = 5 * time.Second

// ── 列表项 ──

type partItem struct {
	partID      string
	partName    string
	productName string
	orderNo     string
	processes   int
}

func (i partItem) Title() string { return i.partName }
func (i partItem) Description() string {
	return fmt.Sprintf("%s · %s · %s · %d工程", i.partID, i.productName, i.orderNo, i.processes)
}
func (i partItem) FilterValue() string { return i.partID + " " + i.partName }

// ── 消息 ──

type tickMsg time.Time

// detailMsg 选中部品的最新状态
type detailMsg struct {
	partID   string
	session  *dto.SessionResponse
	progress *dto.ProgressResponse
	err      error
}

// actionMsg s/p/c/u 操作结果
type actionMsg struct {
	verb     string
	partID   string
	session  *dto.SessionResponse
	complete *dto.CompleteResponse
	err      error
}

// pendingConfirm 等待 y/n 的最后工序完成
type pendingConfirm struct {
	partID string
	prompt string
}

// Model bubbletea 根模型
type Model struct {
	datasets service.DatasetService
	session  service.SessionService
	progress service.ProgressService

	parts list.Model
	keys  keyMap
	help  help.Model

	detail  detailMsg
	confirm *pendingConfirm
	status  string
	err     error

	width  int
	height int
}

// New 创建终端模型；部品列表取自当前数据集
func New(datasets service.DatasetService, session service.SessionService, progress service.ProgressService) *Model {
	parts := list.New(buildItems(datasets), list.NewDefaultDelegate(), 0, 0)
	parts.Title = "部品一覧"
	parts.SetShowStatusBar(false)
	parts.SetFilteringEnabled(false)
	parts.SetShowHelp(false)
	// 让出 u / d / f / b 给作业操作
	parts.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "pgdown"))
	parts.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "pgup"))
	parts.KeyMap.Quit = key.NewBinding(key.WithDisabled())
	parts.KeyMap.ForceQuit = key.NewBinding(key.WithDisabled())

	m := &Model{
		datasets: datasets,
		session:  session,
		progress: progress,
		parts:    parts,
		keys:     defaultKeys(),
		help:     help.New(),
	}
	if len(parts.Items()) == 0 {
		m.status = "部品がありません。CSV を取り込んでください。"
	}
	return m
}

func buildItems(datasets service.DatasetService) []list.Item {
	var items []list.Item
	for _, p := range datasets.ListProducts() {
		parts, err := datasets.ListParts(p.ProductID)
		if err != nil {
			continue
		}
		for _, part := range parts {
			items = append(items, partItem{
				partID:      part.PartID,
				partName:    part.PartName,
				productName: p.ProductName,
				orderNo:     p.OrderNo,
				processes:   len(part.Processes),
			})
		}
	}
	return items
}

// Init 实现 tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchDetail(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// selected 当前选中的部品 ID
func (m *Model) selected() string {
	if it, ok := m.parts.SelectedItem().(partItem); ok {
		return it.partID
	}
	return ""
}

// ═══════════════════════════════════════════════════════════
// Update
// ═══════════════════════════════════════════════════════════

// Update 实现 tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.parts.SetSize(max(20, msg.Width/3), max(5, msg.Height-4))
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchDetail(), tick())

	case detailMsg:
		if msg.partID == m.selected() {
			m.detail = msg
		}
		return m, nil

	case actionMsg:
		return m.handleAction(msg)

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.handleConfirmKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	partID := m.selected()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		return m, m.run("start", partID, m.session.Start)
	case key.Matches(msg, m.keys.Pause):
		return m, m.run("pause", partID, m.session.Pause)
	case key.Matches(msg, m.keys.Undo):
		return m, m.run("undo", partID, m.session.Undo)
	case key.Matches(msg, m.keys.Complete):
		return m, m.complete(partID, nil)
	}

	// 其余按键交给列表（光标移动）
	before := partID
	var cmd tea.Cmd
	m.parts, cmd = m.parts.Update(msg)
	if m.selected() != before {
		m.detail = detailMsg{}
		return m, tea.Batch(cmd, m.fetchDetail())
	}
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.confirm
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.confirm = nil
		yes := true
		return m, m.complete(pending.partID, &yes)
	case key.Matches(msg, m.keys.No):
		m.confirm = nil
		no := false
		return m, m.complete(pending.partID, &no)
	case key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, service.ErrConfirmationRequired) && msg.complete != nil {
		m.confirm = &pendingConfirm{partID: msg.partID, prompt: msg.complete.Prompt}
		if m.confirm.prompt == "" {
			m.confirm.prompt = fmt.Sprintf("%s 合計 %s", msg.err.Error(), msg.complete.TotalHMS)
		}
		m.err = nil
		return m, nil
	}
	if msg.err != nil {
		m.err = msg.err
		m.status = ""
		return m, nil
	}

	m.err = nil
	m.status = actionStatus(msg)
	if msg.partID == m.selected() {
		switch {
		case msg.session != nil:
			m.detail.partID = msg.partID
			m.detail.session = msg.session
		case msg.complete != nil && msg.complete.Session != nil:
			m.detail.partID = msg.partID
			m.detail.session = msg.complete.Session
		}
	}
	return m, m.fetchDetail()
}

func actionStatus(msg actionMsg) string {
	switch msg.verb {
	case "start":
		return "作業を開始しました"
	case "pause":
		return "一時停止しました"
	case "undo":
		return "一つ前の状態に戻しました"
	case "complete":
		if msg.complete == nil {
			return ""
		}
		switch msg.complete.Outcome {
		case worksession.UnitCompleted.String():
			return fmt.Sprintf("1個完成しました（合計 %s、%d件記録）", msg.complete.TotalHMS, msg.complete.Recorded)
		case worksession.Declined.String():
			return "完了を取り消しました"
		default:
			return "次の工程へ進みました"
		}
	}
	return ""
}

// ── 命令 ──

func (m *Model) run(verb, partID string, op func(context.Context, string) (*dto.SessionResponse, error)) tea.Cmd {
	if partID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		resp, err := op(ctx, partID)
		return actionMsg{verb: verb, partID: partID, session: resp, err: err}
	}
}

func (m *Model) complete(partID string, confirm *bool) tea.Cmd {
	if partID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		resp, err := m.session.Complete(ctx, partID, confirm)
		return actionMsg{verb: "complete", partID: partID, complete: resp, err: err}
	}
}

func (m *Model) fetchDetail() tea.Cmd {
	partID := m.selected()
	if partID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		out := detailMsg{partID: partID}
		out.session, out.err = m.session.Get(ctx, partID)
		if out.err == nil {
			out.progress, out.err = m.progress.Summary(ctx, partID)
		}
		return out
	}
}
