package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/dto"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/progress"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/report"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4D96FF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	currentStyle = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	overStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	promptStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F7B801")).
			Padding(0, 1)
	panelStyle = lipgloss.NewStyle().Padding(0, 2)
)

// View 实现 tea.Model
func (m *Model) View() string {
	left := m.parts.View()
	right := panelStyle.Render(m.detailView())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	var footer []string
	if m.confirm != nil {
		footer = append(footer, promptStyle.Render(m.confirm.prompt+"  (y/n)"))
		footer = append(footer, m.help.View(confirmKeys{m.keys}))
	} else {
		if line := m.statusLine(); line != "" {
			footer = append(footer, line)
		}
		footer = append(footer, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, strings.Join(footer, "\n"))
}

func (m *Model) statusLine() string {
	if m.err != nil {
		return overStyle.Render("エラー: " + m.err.Error())
	}
	if m.status != "" {
		return mutedStyle.Render(m.status)
	}
	return ""
}

func (m *Model) detailView() string {
	if m.detail.err != nil {
		return overStyle.Render(m.detail.err.Error())
	}
	s := m.detail.session
	if s == nil {
		return mutedStyle.Render("部品を選択してください")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", s.PartID, s.PartName)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("完成数 %d ・ 合計 %s", s.CompletedWorkCount, s.TotalElapsedHMS)))
	b.WriteString("\n\n")

	if len(s.Processes) == 0 {
		b.WriteString(mutedStyle.Render("工程が登録されていません"))
		b.WriteString("\n")
	}
	for _, p := range s.Processes {
		b.WriteString(processLine(p))
		b.WriteString("\n")
	}

	if pr := m.detail.progress; pr != nil {
		b.WriteString("\n")
		b.WriteString(progressLines(pr))
	}
	return b.String()
}

func processLine(p dto.ProcessStatusResponse) string {
	marker := "  "
	if p.Current {
		marker = "▶ "
	}
	std := report.FormatElapsed(p.StandardTimeSec)
	line := fmt.Sprintf("%s%d. %-10s %6s / %6s  %s", marker, p.Index+1, p.ProcessName, p.Elapsed, std, p.StatusLabel)
	if p.DelayMinutes > 0 {
		line += fmt.Sprintf("  +%d分", p.DelayMinutes)
	}

	switch {
	case p.AlertLevel == string(progress.AlertOver) && p.IsRunning:
		return overStyle.Render(line)
	case p.AlertLevel == string(progress.AlertWarning) && p.IsRunning:
		return warnStyle.Render(line)
	case p.IsRunning:
		return runningStyle.Render(line)
	case p.Status == string(model.StatusCompleted):
		return doneStyle.Render(line)
	case p.Current:
		return currentStyle.Render(line)
	}
	return line
}

func progressLines(pr *dto.ProgressResponse) string {
	variance := fmt.Sprintf("%s %+g", pr.VarianceLabel, pr.Variance)
	if pr.Variance == 0 {
		variance = pr.VarianceLabel
	}
	lines := []string{
		labelStyle.Render("製品進捗 ") + fmt.Sprintf("%d%%  (%d / %g)", pr.ProductPercent, pr.TotalActual, pr.TotalPlanned),
		labelStyle.Render("工程進捗 ") + fmt.Sprintf("%d%%", pr.ProcessPercent),
		labelStyle.Render("計画差異 ") + variance,
	}
	if pr.AllComplete {
		lines = append(lines, doneStyle.Render("全数完了"))
	}
	return strings.Join(lines, "\n")
}
