package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"btctui/pkg/watcher"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case watcher.Event:
		// Re-arm the listener for the next event.
		cmds = append(cmds, listenForWatcher(m.sub))
		m.snap = m.watcher.Snapshot()
		m.result = m.watcher.SearchState()
		m.searching = m.result.Searching
		if m.peerIdx >= len(m.snap.Peers) {
			m.peerIdx = len(m.snap.Peers) - 1
		}
		if m.peerIdx < 0 {
			m.peerIdx = 0
		}

	case tea.KeyMsg:
		if m.searchInput.Focused() {
			switch msg.String() {
			case "esc":
				m.searchInput.Blur()
				m.searchInput.SetValue("")
				return m, nil
			case "enter":
				query := m.searchInput.Value()
				m.searchInput.Blur()
				m.searchInput.SetValue("")
				m.watcher.SubmitQuery(context.Background(), query)
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		if m.showHelp {
			switch msg.String() {
			case "q", "esc", "?":
				m.showHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			// Escape unwinds one layer at a time: overlay, then the
			// drill-down history, then the result, then the program.
			if m.watcher.CloseOverlay() {
				return m, nil
			}
			if m.watcher.Back() {
				return m, nil
			}
			if m.watcher.Dismiss() {
				return m, nil
			}
			return m, tea.Quit

		case "?":
			m.showHelp = true
			return m, nil

		case "/":
			m.searchInput.Focus()
			return m, textinput.Blink

		case "enter":
			if drill, ok := m.watcher.Activate(); ok {
				m.watcher.Drill(context.Background(), drill)
			}
			return m, nil

		case "up", "k":
			if m.resultShowing() {
				m.watcher.Navigate(-1)
			} else if m.activeTab == tabPeers && m.peerIdx > 0 {
				m.peerIdx--
			}
			return m, nil

		case "down", "j":
			if m.resultShowing() {
				m.watcher.Navigate(1)
			} else if m.activeTab == tabPeers && m.peerIdx < len(m.snap.Peers)-1 {
				m.peerIdx++
			}
			return m, nil

		case "c":
			if text := m.copyTarget(); text != "" {
				if err := clipboard.WriteAll(text); err != nil {
					m.statusMessage = "Failed to copy to clipboard"
				} else {
					m.statusMessage = "Copied to clipboard"
				}
				cmds = append(cmds, tea.Tick(time.Second*2, func(t time.Time) tea.Msg {
					return clearStatusMsg{}
				}))
			}

		case "tab", "right", "l":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "left", "h":
			m.activeTab--
			if m.activeTab < 0 {
				m.activeTab = tabCount - 1
			}
		case "1", "2", "3", "4":
			m.activeTab = int(msg.String()[0] - '1')
		}

	case uiTickMsg:
		cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }))

	case clearStatusMsg:
		m.statusMessage = ""
	}

	if m.searching || m.snap.Refreshing {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) resultShowing() bool {
	return m.result.Query != "" && !m.result.Searching
}

// copyTarget picks what 'c' copies: the displayed result's hash, or the
// chain tip hash when nothing is showing.
func (m model) copyTarget() string {
	switch {
	case m.resultShowing() && m.result.IsBlock:
		return m.result.BlkHash
	case m.resultShowing() && m.result.Found:
		return m.result.Query
	default:
		return m.snap.BestBlockHash
	}
}
