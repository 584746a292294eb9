package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap 操作键位
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Start    key.Binding
	Pause    key.Binding
	Complete key.Binding
	Undo     key.Binding
	Yes      key.Binding
	No       key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "上へ")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "下へ")),
		Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "開始")),
		Pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "一時停止")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "完了")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "元に戻す")),
		Yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "はい")),
		No:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "いいえ")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "終了")),
	}
}

// ShortHelp 实现 help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Start, k.Pause, k.Complete, k.Undo, k.Quit}
}

// FullHelp 实现 help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Start, k.Pause, k.Complete, k.Undo},
		{k.Quit},
	}
}

// confirmKeys 确认提示中只显示 y / n
type confirmKeys struct{ keyMap }

func (k confirmKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}
